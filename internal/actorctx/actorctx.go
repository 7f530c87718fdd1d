// Package actorctx carries the authenticated reviewer through a request
// context so lower layers can attribute changes without importing gin.
package actorctx

import "context"

type key struct{}

type Actor struct {
	UserID string
	Email  string
	Role   string
}

func With(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, key{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(key{}).(Actor)
	return a, ok && a.UserID != ""
}

// UserIDFrom returns the actor id, or "" for anonymous requests.
func UserIDFrom(ctx context.Context) string {
	a, _ := From(ctx)
	return a.UserID
}
