// Package form describes the registration forms the club runs.  Each form is
// a YAML document embedded in the binary; the registration service and the
// form controller both read their rules from here.
package form

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/validation"
	"gopkg.in/yaml.v3"
)

type Kind string

const (
	KindIndividual Kind = "individual"
	KindTeam       Kind = "team"
)

var (
	ErrFormNotFound = errors.New("registration form not found")
	ErrFormClosed   = errors.New("registrations for this form are closed")
)

// Field is the rendering hint for one input.  Pattern is filled from the
// validation rule named by Rule when the definition is loaded.
type Field struct {
	Name        string `yaml:"name" json:"name"`
	Label       string `yaml:"label" json:"label"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	Rule        string `yaml:"rule,omitempty" json:"-"`
	Pattern     string `yaml:"-" json:"pattern,omitempty"`
	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
	Optional    bool   `yaml:"optional,omitempty" json:"optional,omitempty"`
}

type Definition struct {
	ID            string   `yaml:"id" json:"id"`
	Title         string   `yaml:"title" json:"title"`
	Description   string   `yaml:"description,omitempty" json:"description,omitempty"`
	Kind          Kind     `yaml:"kind" json:"kind"`
	Open          bool     `yaml:"open" json:"open"`
	Round         int      `yaml:"round" json:"round"`
	MinMembers    int      `yaml:"minMembers,omitempty" json:"minMembers,omitempty"`
	MaxMembers    int      `yaml:"maxMembers,omitempty" json:"maxMembers,omitempty"`
	MemberSlots   int      `yaml:"memberSlots,omitempty" json:"memberSlots,omitempty"`
	Domains       []string `yaml:"domains,omitempty" json:"domains,omitempty"`
	RequireDomain bool     `yaml:"requireDomain,omitempty" json:"requireDomain,omitempty"`
	TeamField     *Field   `yaml:"teamField,omitempty" json:"teamField,omitempty"`
	Fields        []Field  `yaml:"fields" json:"fields"`
}

func (d Definition) IsTeam() bool { return d.Kind == KindTeam }

// CanonicalDomain returns the form's spelling of name.  Matching is
// case-insensitive.
func (d Definition) CanonicalDomain(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, s := range d.Domains {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}

func (d Definition) HasDomain(name string) bool {
	_, ok := d.CanonicalDomain(name)
	return ok
}

// HasField reports whether the form asks for the named input.
func (d Definition) HasField(name string) bool {
	return slices.ContainsFunc(d.Fields, func(f Field) bool { return f.Name == name })
}

// TeamSizeMessage returns the user-facing error for a team of n filled
// members, or "" when n is within bounds.
func (d Definition) TeamSizeMessage(n int) string {
	switch {
	case n < d.MinMembers:
		return fmt.Sprintf(registration.MsgTeamTooFew, d.MinMembers)
	case n > d.MaxMembers:
		return fmt.Sprintf(registration.MsgTeamTooMany, d.MaxMembers)
	default:
		return ""
	}
}

// Slots is how many member rows a client should render for a team form.
func (d Definition) Slots() int {
	if d.MemberSlots > 0 {
		return d.MemberSlots
	}
	return d.MaxMembers
}

func (d *Definition) normalize() error {
	if d.ID == "" {
		return errors.New("missing id")
	}
	if d.Round == 0 {
		d.Round = 1
	}
	if d.Round < 1 {
		return fmt.Errorf("round must be at least 1, got %d", d.Round)
	}

	switch d.Kind {
	case KindIndividual:
		if d.MinMembers != 0 || d.MaxMembers != 0 {
			return errors.New("member bounds only apply to team forms")
		}
	case KindTeam:
		if d.MinMembers < 1 || d.MaxMembers < d.MinMembers {
			return fmt.Errorf("invalid member bounds [%d,%d]", d.MinMembers, d.MaxMembers)
		}
		if d.MemberSlots != 0 && d.MemberSlots < d.MaxMembers {
			return fmt.Errorf("memberSlots %d below maxMembers %d", d.MemberSlots, d.MaxMembers)
		}
	default:
		return fmt.Errorf("unknown kind %q", d.Kind)
	}

	if d.RequireDomain && len(d.Domains) == 0 {
		return errors.New("requireDomain set without domains")
	}

	if d.TeamField != nil {
		if err := resolvePattern(d.TeamField); err != nil {
			return err
		}
	}
	for i := range d.Fields {
		if err := resolvePattern(&d.Fields[i]); err != nil {
			return err
		}
	}

	return nil
}

func resolvePattern(f *Field) error {
	if f.Rule == "" {
		return nil
	}
	r, ok := validation.Lookup(f.Rule)
	if !ok {
		return fmt.Errorf("field %s: unknown rule %q", f.Name, f.Rule)
	}
	f.Pattern = r.Pattern
	if f.Title == "" {
		f.Title = r.Message
	}
	return nil
}

// Parse decodes one definition.  Unknown keys are rejected.
func Parse(data []byte) (Definition, error) {
	var d Definition

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Definition{}, err
	}

	if err := d.normalize(); err != nil {
		return Definition{}, fmt.Errorf("form %q: %w", d.ID, err)
	}
	return d, nil
}

// Registry is a read-only set of definitions keyed by id.
type Registry struct {
	defs map[string]Definition
	ids  []string
}

func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]Definition, len(defs))}

	for _, d := range defs {
		if _, dup := r.defs[d.ID]; dup {
			return nil, fmt.Errorf("duplicate form id %q", d.ID)
		}
		r.defs[d.ID] = d
		r.ids = append(r.ids, d.ID)
	}
	sort.Strings(r.ids)

	return r, nil
}

// Load reads every *.yaml file under fsys.
func Load(fsys fs.FS) (*Registry, error) {
	var defs []Definition

	err := fs.WalkDir(fsys, ".", func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() || path.Ext(p) != ".yaml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		d, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		defs = append(defs, d)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return NewRegistry(defs...)
}

//go:embed forms/*.yaml
var builtin embed.FS

// Builtin returns the forms shipped with the binary.
func Builtin() (*Registry, error) {
	sub, err := fs.Sub(builtin, "forms")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (Definition, error) {
	d, ok := r.defs[id]
	if !ok {
		return Definition{}, ErrFormNotFound
	}
	return d, nil
}

// Lookup is Get plus the open check.
func (r *Registry) Lookup(id string) (Definition, error) {
	d, err := r.Get(id)
	if err != nil {
		return Definition{}, err
	}
	if !d.Open {
		return d, ErrFormClosed
	}
	return d, nil
}

// List returns every definition ordered by id.
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.defs[id])
	}
	return out
}
