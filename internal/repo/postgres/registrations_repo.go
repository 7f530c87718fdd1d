package postgres

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/geocoder89/clubhub/internal/domain/registration"
	"github.com/geocoder89/clubhub/internal/observability"
	"github.com/geocoder89/clubhub/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// constraintColumns names the identifying column behind each unique index
// in schema.sql.
var constraintColumns = map[string][]string{
	"registrations_form_registration_number_uniq": {"form_id", registration.ColumnRegistrationNumber},
	"registrations_form_srm_mail_uniq":            {"form_id", registration.ColumnSrmMail},
	"teams_form_team_name_uniq":                   {"form_id", registration.ColumnTeamName},
}

// detailKey matches `Key (form_id, upper(registration_number::text))=(...)`.
var detailKey = regexp.MustCompile(`Key \(([^)]*(?:\([^)]*\)[^)]*)*)\)=`)

var identifier = regexp.MustCompile(`[a-z_]+`)

// uniqueViolation converts a pg 23505 into the domain error.  Columns come
// from the constraint name first, then from the error detail, then from
// ColumnName.  The raw message is kept for the substring fallback.
func uniqueViolation(err error) (*registration.UniqueViolation, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil, false
	}

	uv := &registration.UniqueViolation{
		Constraint: pgErr.ConstraintName,
		Message:    pgErr.Message,
	}

	switch {
	case constraintColumns[pgErr.ConstraintName] != nil:
		uv.Columns = append([]string(nil), constraintColumns[pgErr.ConstraintName]...)
	case pgErr.Detail != "":
		uv.Columns = columnsFromDetail(pgErr.Detail)
	}
	if len(uv.Columns) == 0 && pgErr.ColumnName != "" {
		uv.Columns = []string{pgErr.ColumnName}
	}

	return uv, true
}

var sqlWords = map[string]bool{"upper": true, "lower": true, "text": true}

func columnsFromDetail(detail string) []string {
	m := detailKey.FindStringSubmatch(detail)
	if m == nil {
		return nil
	}

	var cols []string
	for _, w := range identifier.FindAllString(strings.ToLower(m[1]), -1) {
		if !sqlWords[w] {
			cols = append(cols, w)
		}
	}
	return cols
}

type RegistrationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationsRepo {
	return &RegistrationsRepo{
		pool: pool,
		prom: prom,
	}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertRegistrationSQL = `
	INSERT INTO registrations (
		id, form_id, team_id, name, registration_number, phone_number, srm_mail,
		github_link, linkedin_link, domain1, domain2, round, created_at, updated_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

func insertRegistration(ctx context.Context, q querier, r registration.Registration) error {
	_, err := q.Exec(ctx, insertRegistrationSQL,
		r.ID, r.FormID, r.TeamID, r.Name, r.RegistrationNumber, r.PhoneNumber, r.SrmMailID,
		r.GithubLink, r.LinkedinLink, r.Domain1, r.Domain2, r.Round, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (repo *RegistrationsRepo) InsertIndividual(ctx context.Context, r registration.Registration) (registration.Registration, error) {
	err := repo.prom.ObserveDB("registrations.insert", func() error {
		return insertRegistration(ctx, repo.pool, r)
	})
	if err != nil {
		if uv, ok := uniqueViolation(err); ok {
			return registration.Registration{}, uv
		}
		return registration.Registration{}, err
	}

	return r, nil
}

// InsertTeam writes the team row and every member row in one transaction.
func (repo *RegistrationsRepo) InsertTeam(ctx context.Context, t registration.TeamRegistration) (out registration.TeamRegistration, err error) {
	tx, err := repo.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
		if uv, ok := uniqueViolation(err); ok {
			err = uv
		}
	}()

	err = repo.prom.ObserveDB("teams.insert", func() error {
		_, e := tx.Exec(ctx,
			`INSERT INTO teams (id, form_id, team_name, round, created_at) VALUES ($1,$2,$3,$4,$5)`,
			t.ID, t.FormID, t.TeamName, t.Round, t.CreatedAt,
		)
		return e
	})
	if err != nil {
		return
	}

	for _, m := range t.Members {
		err = repo.prom.ObserveDB("registrations.insert_member", func() error {
			return insertRegistration(ctx, tx, m)
		})
		if err != nil {
			return
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return
	}

	return t, nil
}

const selectRegistrationCols = `
	id, form_id, team_id, name, registration_number, phone_number, srm_mail,
	github_link, linkedin_link, domain1, domain2, round, created_at, updated_at`

func scanRegistration(row pgx.Row) (registration.Registration, error) {
	var r registration.Registration
	err := row.Scan(
		&r.ID, &r.FormID, &r.TeamID, &r.Name, &r.RegistrationNumber, &r.PhoneNumber, &r.SrmMailID,
		&r.GithubLink, &r.LinkedinLink, &r.Domain1, &r.Domain2, &r.Round, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

// ListByForm is a keyset-paginated listing ordered by (created_at, id).
func (repo *RegistrationsRepo) ListByForm(ctx context.Context, formID string, limit int, after *utils.RegistrationCursor) (items []registration.Registration, nextCursor *string, err error) {
	op := "registrations.list_by_form"

	q := `SELECT ` + selectRegistrationCols + `
		FROM registrations
		WHERE form_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2`
	args := []any{formID, limit + 1}

	if after != nil {
		q = `SELECT ` + selectRegistrationCols + `
		FROM registrations
		WHERE form_id = $1
		  AND (created_at, id) > ($2, $3::uuid)
		ORDER BY created_at ASC, id ASC
		LIMIT $4`
		args = []any{formID, after.CreatedAt, after.ID, limit + 1}
	}

	var rows pgx.Rows
	err = repo.prom.ObserveDB(op, func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, q, args...)
		return qerr
	})
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	items = make([]registration.Registration, 0, limit)
	for rows.Next() {
		r, scanErr := scanRegistration(rows)
		if scanErr != nil {
			return nil, nil, scanErr
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		if repo.prom != nil {
			repo.prom.DbErrorsTotal.WithLabelValues(op, "rows_err").Inc()
		}
		return nil, nil, err
	}

	if len(items) > limit {
		items = items[:limit]
		last := items[len(items)-1]
		cur, encErr := utils.EncodeRegistrationCursor(last.CreatedAt, last.ID)
		if encErr != nil {
			return nil, nil, encErr
		}
		nextCursor = &cur
	}

	return items, nextCursor, nil
}

// AdvanceRound moves a registration forward to round.  It refuses to move a
// registration backwards.
func (repo *RegistrationsRepo) AdvanceRound(ctx context.Context, formID, id string, round int) (registration.Registration, error) {
	if round < 1 {
		return registration.Registration{}, registration.ErrInvalidRound
	}

	var r registration.Registration
	err := repo.prom.ObserveDB("registrations.advance_round", func() error {
		var e error
		r, e = scanRegistration(repo.pool.QueryRow(ctx,
			`UPDATE registrations
			SET round = $3, updated_at = NOW()
			WHERE form_id = $1 AND id = $2 AND round <= $3
			RETURNING `+selectRegistrationCols,
			formID, id, round,
		))
		return e
	})
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return registration.Registration{}, err
	}

	// distinguish a missing row from a backwards move
	var current int
	err = repo.prom.ObserveDB("registrations.get_round", func() error {
		return repo.pool.QueryRow(ctx,
			`SELECT round FROM registrations WHERE form_id = $1 AND id = $2`, formID, id,
		).Scan(&current)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return registration.Registration{}, registration.ErrNotFound
	}
	if err != nil {
		return registration.Registration{}, err
	}
	return registration.Registration{}, registration.ErrInvalidRound
}

func (repo *RegistrationsRepo) Ping(ctx context.Context) error {
	return repo.pool.Ping(ctx)
}
