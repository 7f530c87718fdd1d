package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/utils"
)

func individual(formID, regNo, mail string) registration.Registration {
	return registration.NewFromIndividual(formID, 1, registration.Individual{
		Name:               "Asha Rao",
		RegistrationNumber: regNo,
		SrmMailID:          mail,
		PhoneNumber:        "9876543210",
	})
}

func TestInsertIndividual_Uniqueness(t *testing.T) {
	repo := NewRegistrationsRepo()
	ctx := context.Background()

	if _, err := repo.InsertIndividual(ctx, individual("vlogit", "RA2111003010123", "asha@srmist.edu.in")); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	tests := []struct {
		name   string
		row    registration.Registration
		column string
	}{
		{"same regno", individual("vlogit", "RA2111003010123", "other@srmist.edu.in"), registration.ColumnRegistrationNumber},
		{"same regno lower prefix", individual("vlogit", "ra2111003010123", "other@srmist.edu.in"), registration.ColumnRegistrationNumber},
		{"same mail", individual("vlogit", "RA2111003010999", "asha@srmist.edu.in"), registration.ColumnSrmMail},
		{"same mail upper", individual("vlogit", "RA2111003010999", "ASHA@srmist.edu.in"), registration.ColumnSrmMail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.InsertIndividual(ctx, tt.row)

			var uv *registration.UniqueViolation
			if !errors.As(err, &uv) {
				t.Fatalf("expected UniqueViolation, got %v", err)
			}
			if uv.Columns[len(uv.Columns)-1] != tt.column {
				t.Fatalf("columns = %v, want %s", uv.Columns, tt.column)
			}
		})
	}

	// another form is a separate partition
	if _, err := repo.InsertIndividual(ctx, individual("recruitment-25", "RA2111003010123", "asha@srmist.edu.in")); err != nil {
		t.Fatalf("other form insert: %v", err)
	}
}

func TestInsertTeam_AllOrNothing(t *testing.T) {
	repo := NewRegistrationsRepo()
	ctx := context.Background()

	if _, err := repo.InsertIndividual(ctx, individual("hangman", "RA2111003010003", "c@srmist.edu.in")); err != nil {
		t.Fatalf("seed: %v", err)
	}

	team := registration.NewFromTeam("hangman", 1, registration.Team{
		TeamName: "Byte Busters",
		TeamMembers: []registration.Member{
			{Name: "A", RegistrationNumber: "RA2111003010001", SrmMailID: "a@srmist.edu.in", PhoneNumber: "9876543210"},
			{Name: "B", RegistrationNumber: "RA2111003010002", SrmMailID: "b@srmist.edu.in", PhoneNumber: "9876543210"},
			{Name: "C", RegistrationNumber: "RA2111003010003", SrmMailID: "c2@srmist.edu.in", PhoneNumber: "9876543210"},
		},
	})

	if _, err := repo.InsertTeam(ctx, team); !registration.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	rows, _, err := repo.ListByForm(ctx, "hangman", 10, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the seeded row, got %d rows", len(rows))
	}

	// freed members and name can still register
	team.Members = team.Members[:2]
	if _, err := repo.InsertTeam(ctx, team); err != nil {
		t.Fatalf("retry without clash: %v", err)
	}

	again := registration.NewFromTeam("hangman", 1, registration.Team{
		TeamName:    "byte busters",
		TeamMembers: []registration.Member{{Name: "D", RegistrationNumber: "RA2111003010004", SrmMailID: "d@srmist.edu.in"}},
	})
	_, err = repo.InsertTeam(ctx, again)
	var uv *registration.UniqueViolation
	if !errors.As(err, &uv) || registration.ClassifyDuplicate(uv) != registration.DuplicateTeamName {
		t.Fatalf("expected team name violation, got %v", err)
	}
}

func TestInsertTeam_DuplicateWithinTeam(t *testing.T) {
	repo := NewRegistrationsRepo()

	team := registration.NewFromTeam("hangman", 1, registration.Team{
		TeamName: "Twins",
		TeamMembers: []registration.Member{
			{Name: "A", RegistrationNumber: "RA2111003010001", SrmMailID: "a@srmist.edu.in"},
			{Name: "A", RegistrationNumber: "RA2111003010001", SrmMailID: "a2@srmist.edu.in"},
		},
	})

	if _, err := repo.InsertTeam(context.Background(), team); !registration.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestListByForm_Paginates(t *testing.T) {
	repo := NewRegistrationsRepo()
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		r := individual("vlogit", fmt.Sprintf("RA21110030100%02d", i), fmt.Sprintf("u%d@srmist.edu.in", i))
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if _, err := repo.InsertIndividual(ctx, r); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	var seen []string
	var after *utils.RegistrationCursor
	for page := 0; page < 5; page++ {
		rows, next, err := repo.ListByForm(ctx, "vlogit", 2, after)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, r := range rows {
			seen = append(seen, r.RegistrationNumber)
		}
		if next == nil {
			break
		}
		c, err := utils.DecodeRegistrationCursor(*next)
		if err != nil {
			t.Fatalf("decode cursor: %v", err)
		}
		after = &c
	}

	if len(seen) != 5 {
		t.Fatalf("saw %d rows, want 5: %v", len(seen), seen)
	}
	for i, regNo := range seen {
		if want := fmt.Sprintf("RA21110030100%02d", i); regNo != want {
			t.Fatalf("row %d = %s, want %s", i, regNo, want)
		}
	}
}

func TestAdvanceRound(t *testing.T) {
	repo := NewRegistrationsRepo()
	ctx := context.Background()

	r, err := repo.InsertIndividual(ctx, individual("recruitment-25", "RA2111003010123", "asha@srmist.edu.in"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.AdvanceRound(ctx, "recruitment-25", r.ID, 2)
	if err != nil || got.Round != 2 {
		t.Fatalf("advance: round=%d err=%v", got.Round, err)
	}
	if _, err := repo.AdvanceRound(ctx, "recruitment-25", r.ID, 1); !errors.Is(err, registration.ErrInvalidRound) {
		t.Fatalf("going back: got %v", err)
	}
	if _, err := repo.AdvanceRound(ctx, "recruitment-25", r.ID, 0); !errors.Is(err, registration.ErrInvalidRound) {
		t.Fatalf("round 0: got %v", err)
	}
	if _, err := repo.AdvanceRound(ctx, "vlogit", r.ID, 3); !errors.Is(err, registration.ErrNotFound) {
		t.Fatalf("wrong form: got %v", err)
	}
}

func TestConcurrentDistinctInserts(t *testing.T) {
	repo := NewRegistrationsRepo()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.InsertIndividual(ctx, individual("vlogit", fmt.Sprintf("RA21110030101%02d", i), fmt.Sprintf("p%d@srmist.edu.in", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}
