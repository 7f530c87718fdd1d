package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/utils"
)

// RegistrationsRepo is the in-process store used for local runs and tests.
// It enforces the same per-form uniqueness rules as the Postgres schema.
type RegistrationsRepo struct {
	mu    sync.RWMutex
	items map[string]registration.Registration // id -> row
	keys  map[string]string                    // unique key -> constraint name
	teams map[string]registration.TeamRegistration
}

func NewRegistrationsRepo() *RegistrationsRepo {
	return &RegistrationsRepo{
		items: make(map[string]registration.Registration),
		keys:  make(map[string]string),
		teams: make(map[string]registration.TeamRegistration),
	}
}

const (
	constraintRegNo = "registrations_form_registration_number_uniq"
	constraintMail  = "registrations_form_srm_mail_uniq"
	constraintTeam  = "teams_form_team_name_uniq"
)

func regNoKey(formID, v string) string {
	return formID + "\x00regno\x00" + strings.ToUpper(strings.TrimSpace(v))
}

func mailKey(formID, v string) string {
	return formID + "\x00mail\x00" + strings.ToLower(strings.TrimSpace(v))
}

func teamKey(formID, v string) string {
	return formID + "\x00team\x00" + strings.ToLower(strings.TrimSpace(v))
}

func violation(constraint, column string) *registration.UniqueViolation {
	return &registration.UniqueViolation{
		Constraint: constraint,
		Columns:    []string{"form_id", column},
		Message:    `duplicate key value violates unique constraint "` + constraint + `"`,
	}
}

// claim checks rows against existing keys and each other.  Nothing is
// written unless every row is free.
func (r *RegistrationsRepo) claim(rows []registration.Registration) (map[string]string, error) {
	pending := make(map[string]string, 2*len(rows))

	for _, row := range rows {
		rk := regNoKey(row.FormID, row.RegistrationNumber)
		if _, taken := r.keys[rk]; taken {
			return nil, violation(constraintRegNo, registration.ColumnRegistrationNumber)
		}
		if _, taken := pending[rk]; taken {
			return nil, violation(constraintRegNo, registration.ColumnRegistrationNumber)
		}
		pending[rk] = constraintRegNo

		mk := mailKey(row.FormID, row.SrmMailID)
		if _, taken := r.keys[mk]; taken {
			return nil, violation(constraintMail, registration.ColumnSrmMail)
		}
		if _, taken := pending[mk]; taken {
			return nil, violation(constraintMail, registration.ColumnSrmMail)
		}
		pending[mk] = constraintMail
	}

	return pending, nil
}

func (r *RegistrationsRepo) InsertIndividual(ctx context.Context, reg registration.Registration) (registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return registration.Registration{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.claim([]registration.Registration{reg})
	if err != nil {
		return registration.Registration{}, err
	}

	for k, c := range keys {
		r.keys[k] = c
	}
	r.items[reg.ID] = reg

	return reg, nil
}

func (r *RegistrationsRepo) InsertTeam(ctx context.Context, t registration.TeamRegistration) (registration.TeamRegistration, error) {
	if err := ctx.Err(); err != nil {
		return registration.TeamRegistration{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tk := teamKey(t.FormID, t.TeamName)
	if _, taken := r.keys[tk]; taken {
		return registration.TeamRegistration{}, violation(constraintTeam, registration.ColumnTeamName)
	}

	keys, err := r.claim(t.Members)
	if err != nil {
		return registration.TeamRegistration{}, err
	}

	r.keys[tk] = constraintTeam
	for k, c := range keys {
		r.keys[k] = c
	}
	for _, m := range t.Members {
		r.items[m.ID] = m
	}
	r.teams[t.ID] = t

	return t, nil
}

// ListByForm returns up to limit rows of formID after the cursor position,
// ordered by (created_at, id).
func (r *RegistrationsRepo) ListByForm(ctx context.Context, formID string, limit int, after *utils.RegistrationCursor) ([]registration.Registration, *string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	r.mu.RLock()
	rows := make([]registration.Registration, 0)
	for _, it := range r.items {
		if it.FormID == formID {
			rows = append(rows, it)
		}
	}
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})

	if after != nil {
		idx := sort.Search(len(rows), func(i int) bool {
			c := rows[i]
			return c.CreatedAt.After(after.CreatedAt) || (c.CreatedAt.Equal(after.CreatedAt) && c.ID > after.ID)
		})
		rows = rows[idx:]
	}

	var next *string
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		cur, err := utils.EncodeRegistrationCursor(last.CreatedAt, last.ID)
		if err != nil {
			return nil, nil, err
		}
		next = &cur
	}

	return rows, next, nil
}

// AdvanceRound moves a registration to round.  Rounds never go backwards.
func (r *RegistrationsRepo) AdvanceRound(ctx context.Context, formID, id string, round int) (registration.Registration, error) {
	if err := ctx.Err(); err != nil {
		return registration.Registration{}, err
	}
	if round < 1 {
		return registration.Registration{}, registration.ErrInvalidRound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[id]
	if !ok || it.FormID != formID {
		return registration.Registration{}, registration.ErrNotFound
	}
	if round < it.Round {
		return registration.Registration{}, registration.ErrInvalidRound
	}

	it.Round = round
	it.UpdatedAt = time.Now().UTC()
	r.items[id] = it

	return it, nil
}

func (r *RegistrationsRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}
