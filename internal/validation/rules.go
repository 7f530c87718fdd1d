// Package validation holds the field format rules shared by the HTTP binding
// layer and the registration service.  Every rule is a pure function of the
// field's string value.
package validation

import (
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// InstitutionMailDomain is the only accepted mail domain.
const InstitutionMailDomain = "srmist.edu.in"

var (
	namePattern     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	teamNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s]+$`)
	regNoPattern    = regexp.MustCompile(`^(?i:RA)\d{13}$`)
	mailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@` + regexp.QuoteMeta(InstitutionMailDomain) + `$`)
	phonePattern    = regexp.MustCompile(`^\d{10}$`)
)

// Rule is one named format predicate.  Pattern is the client-side hint
// rendered into inputs; Message is what users see when it fails.
type Rule struct {
	Tag     string
	Pattern string
	Message string
	check   func(string) bool
}

var rules = []Rule{
	{Tag: "alphaspace", Pattern: namePattern.String(), Message: "Only letters and spaces allowed", check: namePattern.MatchString},
	{Tag: "alnumspace", Pattern: teamNamePattern.String(), Message: "Only letters, numbers, and spaces allowed", check: teamNamePattern.MatchString},
	{Tag: "regno", Pattern: regNoPattern.String(), Message: "Registration number must start with RA followed by 13 digits", check: regNoPattern.MatchString},
	{Tag: "srmmail", Pattern: mailPattern.String(), Message: "Please use a valid SRMIST email address ending with @" + InstitutionMailDomain, check: mailPattern.MatchString},
	{Tag: "phone10", Pattern: phonePattern.String(), Message: "Phone number must be exactly 10 digits", check: phonePattern.MatchString},
}

func ValidName(s string) bool { return namePattern.MatchString(s) }
func ValidTeamName(s string) bool { return teamNamePattern.MatchString(s) }
func ValidRegistrationNumber(s string) bool { return regNoPattern.MatchString(s) }
func ValidInstitutionMail(s string) bool { return mailPattern.MatchString(s) }
func ValidPhone(s string) bool { return phonePattern.MatchString(s) }

// Lookup returns the rule registered under tag.
func Lookup(tag string) (Rule, bool) {
	for _, r := range rules {
		if r.Tag == tag {
			return r, true
		}
	}
	return Rule{}, false
}

// Register installs the custom rules on v, plus "notblank" which treats a
// whitespace-only string as missing.
func Register(v *validator.Validate) error {
	for _, r := range rules {
		check := r.check
		err := v.RegisterValidation(r.Tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		})
		if err != nil {
			return err
		}
	}

	return v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the process-wide validator with the custom rules
// registered.  It uses the `validate` struct tag.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		if err := Register(v); err != nil {
			panic("validation: register rules: " + err.Error())
		}
		instance = v
	})
	return instance
}
