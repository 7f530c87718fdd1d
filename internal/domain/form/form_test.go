package form_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/geocoder89/clubhub/internal/domain/form"
)

func TestBuiltin(t *testing.T) {
	reg, err := form.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}

	var ids []string
	for _, d := range reg.List() {
		ids = append(ids, d.ID)
	}
	want := []string{"hangman", "recruitment-25", "vlogit"}
	if len(ids) != len(want) {
		t.Fatalf("got ids %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got ids %v, want %v", ids, want)
		}
	}

	hangman, err := reg.Get("hangman")
	if err != nil {
		t.Fatalf("Get hangman: %v", err)
	}
	if !hangman.IsTeam() || hangman.MinMembers != 3 || hangman.MaxMembers != 4 || hangman.Slots() != 4 {
		t.Fatalf("unexpected hangman bounds: %+v", hangman)
	}
	if hangman.TeamField == nil || hangman.TeamField.Pattern == "" {
		t.Fatalf("team field pattern not resolved: %+v", hangman.TeamField)
	}

	rec, err := reg.Get("recruitment-25")
	if err != nil {
		t.Fatalf("Get recruitment-25: %v", err)
	}
	if !rec.RequireDomain || !rec.HasDomain("technical") || rec.HasDomain("Marketing") {
		t.Fatalf("unexpected recruitment domains: %+v", rec.Domains)
	}
	for _, f := range rec.Fields {
		if f.Rule != "" && f.Pattern == "" {
			t.Fatalf("field %s pattern not resolved", f.Name)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	reg, err := form.NewRegistry(
		form.Definition{ID: "open", Kind: form.KindIndividual, Open: true, Round: 1},
		form.Definition{ID: "shut", Kind: form.KindIndividual, Open: false, Round: 1},
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	if _, err := reg.Lookup("open"); err != nil {
		t.Fatalf("open form: %v", err)
	}
	if _, err := reg.Lookup("shut"); !errors.Is(err, form.ErrFormClosed) {
		t.Fatalf("expected ErrFormClosed, got %v", err)
	}
	if _, err := reg.Lookup("missing"); !errors.Is(err, form.ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}
}

func TestNewRegistry_DuplicateID(t *testing.T) {
	d := form.Definition{ID: "x", Kind: form.KindIndividual, Round: 1}
	if _, err := form.NewRegistry(d, d); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "id: a\nkind: individual\ncolour: red\n"},
		{"unknown kind", "id: a\nkind: solo\n"},
		{"missing id", "kind: individual\n"},
		{"bad bounds", "id: a\nkind: team\nminMembers: 4\nmaxMembers: 3\n"},
		{"slots below max", "id: a\nkind: team\nminMembers: 3\nmaxMembers: 4\nmemberSlots: 2\n"},
		{"bounds on individual", "id: a\nkind: individual\nmaxMembers: 4\n"},
		{"domain without list", "id: a\nkind: individual\nrequireDomain: true\n"},
		{"unknown rule", "id: a\nkind: individual\nfields:\n  - name: x\n    rule: shouty\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := form.Parse([]byte(tt.doc)); err == nil {
				t.Fatalf("expected error for %q", tt.doc)
			}
		})
	}
}

func TestLoad_DefaultsRound(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml":    {Data: []byte("id: a\nkind: individual\nopen: true\n")},
		"notes.txt": {Data: []byte("ignored")},
	}

	reg, err := form.Load(fsys)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d, err := reg.Get("a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Round != 1 {
		t.Fatalf("round = %d, want 1", d.Round)
	}
}
