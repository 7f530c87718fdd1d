package actorctx

import (
	"context"
	"testing"
)

func TestActorRoundTrip(t *testing.T) {
	if _, ok := From(context.Background()); ok {
		t.Fatal("expected no actor on empty context")
	}

	ctx := With(context.Background(), Actor{UserID: "u1", Role: "admin"})
	a, ok := From(ctx)
	if !ok || a.UserID != "u1" || a.Role != "admin" {
		t.Fatalf("unexpected actor %+v ok=%v", a, ok)
	}
	if got := UserIDFrom(ctx); got != "u1" {
		t.Fatalf("UserIDFrom = %q", got)
	}

	if _, ok := From(With(context.Background(), Actor{})); ok {
		t.Fatal("actor without id should not count")
	}
}
