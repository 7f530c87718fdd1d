package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminSeed is the reviewer account created on first start.
type AdminSeed struct {
	Email    string
	Password string
	Name     string
	Role     string
}

// EnsureAdminUser creates the seed account unless a user with that email
// already exists.  An empty email or password disables seeding.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, seed AdminSeed) error {
	if seed.Email == "" || seed.Password == "" {
		return nil
	}

	var dummy string
	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, seed.Email).Scan(&dummy)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(seed.Password)
	if err != nil {
		return err
	}

	role := seed.Role
	if role == "" {
		role = user.RoleAdmin
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Email:        seed.Email,
		PasswordHash: hash,
		Name:         seed.Name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (email) DO NOTHING`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.CreatedAt, u.UpdatedAt,
	)

	return err
}
