package user

import (
	"errors"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
)

var ErrNotFound = errors.New("user not found")

// User is a club member with access to the review endpoints.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CanReview reports whether the role may read and advance registrations.
func CanReview(role string) bool {
	return role == RoleAdmin || role == RoleReviewer
}
