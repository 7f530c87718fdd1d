package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/clubhub/internal/auth"
	"github.com/geocoder89/clubhub/internal/domain/user"
	"github.com/geocoder89/clubhub/internal/http/handlers"
	"github.com/geocoder89/clubhub/internal/security"
)

type fakeUsers struct {
	byEmail map[string]user.User
	err     error
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (user.User, error) {
	if f.err != nil {
		return user.User{}, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func TestLogin(t *testing.T) {
	hash, err := security.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	users := &fakeUsers{byEmail: map[string]user.User{
		"admin@srmist.edu.in":  {ID: "u1", Email: "admin@srmist.edu.in", PasswordHash: hash, Role: user.RoleAdmin},
		"member@srmist.edu.in": {ID: "u2", Email: "member@srmist.edu.in", PasswordHash: hash, Role: "member"},
	}}
	jwtManager := auth.NewManager("test-secret", 15*time.Minute)

	tests := []struct {
		name       string
		users      *fakeUsers
		body       string
		wantStatus int
	}{
		{"ok", users, `{"email":"admin@srmist.edu.in","password":"correct horse"}`, http.StatusOK},
		{"wrong password", users, `{"email":"admin@srmist.edu.in","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", users, `{"email":"ghost@srmist.edu.in","password":"correct horse"}`, http.StatusUnauthorized},
		{"not a reviewer", users, `{"email":"member@srmist.edu.in","password":"correct horse"}`, http.StatusForbidden},
		{"bad email", users, `{"email":"admin","password":"correct horse"}`, http.StatusBadRequest},
		{"store down", &fakeUsers{err: errors.New("db down")}, `{"email":"admin@srmist.edu.in","password":"x"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewAuthHandler(tt.users, jwtManager)
			r := setupRouter(http.MethodPost, "/admin/login", h.Login)

			w := postJSON(r, "/admin/login", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp handlers.LoginResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			claims, err := jwtManager.VerifyAccessToken(resp.AccessToken)
			if err != nil {
				t.Fatalf("issued token does not verify: %v", err)
			}
			if claims.UserID != "u1" || claims.Role != user.RoleAdmin || resp.Role != user.RoleAdmin {
				t.Fatalf("unexpected claims %+v / response %+v", claims, resp)
			}
		})
	}
}
