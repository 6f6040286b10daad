package auth

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/iliyamo/mutual-help-web/internal/model"
	"github.com/iliyamo/mutual-help-web/internal/session"
)

func newSession() *session.Session {
	return session.NewManager(session.NewMemoryStore(), session.Options{Secret: "test"}).New()
}

func TestSignInAndRoles(t *testing.T) {
	ctx := context.Background()
	a := New(newSession())
	if a.IsAuthenticated() || a.IsAdmin() {
		t.Fatalf("fresh session must be anonymous")
	}

	id := uuid.New()
	if err := a.SignIn(ctx, model.Token{Token: "tok", UserID: id}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !a.IsAuthenticated() || a.Token() != "tok" || a.UserID() != id.String() {
		t.Fatalf("token or user id not stored")
	}
	if a.IsAdmin() {
		t.Fatalf("admin without role")
	}
	if err := a.SetRole(ctx, RoleAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if !a.IsAdmin() {
		t.Fatalf("admin role not recognised")
	}
}

func TestIsAuthorizedLogsOutOn401(t *testing.T) {
	ctx := context.Background()
	s := newSession()
	a := New(s)
	if err := a.SignIn(ctx, model.Token{Token: "tok", UserID: uuid.New()}); err != nil {
		t.Fatal(err)
	}
	if err := RememberDepartment(ctx, s, "75"); err != nil {
		t.Fatal(err)
	}

	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
		ok, err := a.IsAuthorized(ctx, status)
		if err != nil || !ok {
			t.Fatalf("status %d: ok=%v err=%v", status, ok, err)
		}
	}
	if !a.IsAuthenticated() {
		t.Fatalf("non-401 status logged out")
	}

	ok, err := a.IsAuthorized(ctx, http.StatusUnauthorized)
	if err != nil || ok {
		t.Fatalf("401: ok=%v err=%v", ok, err)
	}
	if a.IsAuthenticated() || Department(s) != "" {
		t.Fatalf("logout must clear the whole session")
	}
}

func TestNilSessionIsAnonymous(t *testing.T) {
	a := New(nil)
	if a.IsAuthenticated() || a.IsAdmin() || a.UserID() != "" {
		t.Fatalf("nil session must be anonymous")
	}
	if err := a.Logout(context.Background()); err != nil {
		t.Fatalf("logout of nil session: %v", err)
	}
}
