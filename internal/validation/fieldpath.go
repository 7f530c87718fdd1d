package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/go-playground/validator/v10"
)

// missingTags are the rules whose failure means "not supplied" rather than
// "badly formatted".
var missingTags = map[string]bool{
	"required": true,
	"notblank": true,
}

// Check validates v and splits the failures into missing and malformed
// fields.  Both slices use json paths ("teamMembers.1.phoneNumber").  A
// non-validation error from the validator is returned as err.
func Check(v any) (missing, invalid []registration.FieldError, err error) {
	verr := Validator().Struct(v)
	if verr == nil {
		return nil, nil, nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(verr, &fieldErrors) {
		return nil, nil, verr
	}

	rootType := baseStructType(v)
	for _, fe := range fieldErrors {
		item := registration.FieldError{
			Field:   JSONPath(rootType, fe),
			Message: Message(fe.Tag(), fe.Param()),
		}
		if missingTags[fe.Tag()] {
			missing = append(missing, item)
		} else {
			invalid = append(invalid, item)
		}
	}

	return missing, invalid, nil
}

// JSONPath maps a validator error to the dotted json path of the field,
// with collection indexes as their own segment.
func JSONPath(rootType reflect.Type, fe validator.FieldError) string {
	namespace := fe.StructNamespace()
	if namespace == "" {
		namespace = fe.Namespace()
	}
	if namespace == "" {
		return fe.Field()
	}

	parts := strings.Split(namespace, ".")
	if rootType != nil && rootType.Name() != "" && parts[0] == rootType.Name() {
		parts = parts[1:]
	}

	if path := mapStructPath(rootType, parts); path != "" {
		return path
	}
	return fe.Field()
}

// Message is the user-facing text for a failed rule.
func Message(tag, param string) string {
	if r, ok := Lookup(tag); ok {
		return r.Message
	}

	switch tag {
	case "required", "notblank":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", tag, param)
		}
		return "failed " + tag + " validation"
	}
}

func baseStructType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Kind() == reflect.Struct {
		return t
	}
	return nil
}

func mapStructPath(rootType reflect.Type, parts []string) string {
	current := rootType
	out := make([]string, 0, len(parts)+1)

	for _, raw := range parts {
		if raw == "" {
			continue
		}

		fieldName, index := splitFieldIndex(raw)
		jsonName := fieldName

		var next reflect.Type
		if current != nil {
			for current.Kind() == reflect.Pointer {
				current = current.Elem()
			}
			if current.Kind() == reflect.Struct {
				if sf, ok := current.FieldByName(fieldName); ok {
					jsonName = jsonNameFromStructField(sf)
					next = sf.Type
					if sf.Anonymous && sf.Tag.Get("json") == "" {
						// embedded structs flatten into their parent
						current = unwindCollection(next)
						continue
					}
				}
			}
		}

		out = append(out, jsonName)
		if index != "" {
			out = append(out, index)
		}

		if next != nil {
			current = unwindCollection(next)
		} else {
			current = nil
		}
	}

	return strings.Join(out, ".")
}

// splitFieldIndex turns "TeamMembers[2]" into ("TeamMembers", "2").
func splitFieldIndex(part string) (string, string) {
	open := strings.Index(part, "[")
	if open == -1 || !strings.HasSuffix(part, "]") {
		return part, ""
	}
	return part[:open], part[open+1 : len(part)-1]
}

func jsonNameFromStructField(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

func unwindCollection(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}
	return nil
}
