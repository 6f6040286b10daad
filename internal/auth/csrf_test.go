package auth

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/mutual-help-web/internal/session"
	"github.com/iliyamo/mutual-help-web/internal/utils"
)

func TestCSRFSingleUse(t *testing.T) {
	ctx := context.Background()
	s := newSession()

	tok, err := IssueCSRF(ctx, s)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok == "" {
		t.Fatalf("empty token")
	}
	if ok, err := ValidateCSRF(ctx, s, tok); err != nil || !ok {
		t.Fatalf("first submission: ok=%v err=%v", ok, err)
	}
	if ok, _ := ValidateCSRF(ctx, s, tok); ok {
		t.Fatalf("token accepted twice")
	}
}

func TestCSRFMismatchStillConsumes(t *testing.T) {
	ctx := context.Background()
	s := newSession()

	tok, err := IssueCSRF(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := ValidateCSRF(ctx, s, "forged"); ok {
		t.Fatalf("forged token accepted")
	}
	if ok, _ := ValidateCSRF(ctx, s, tok); ok {
		t.Fatalf("token usable after a failed attempt")
	}
}

func TestCSRFSingleUseAcrossConcurrentRequests(t *testing.T) {
	ctx := context.Background()
	mgr := session.NewManager(session.NewMemoryStore(), session.Options{Secret: "test"})
	s := mgr.New()
	tok, err := IssueCSRF(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	cookie, err := utils.NewSessionToken("test", s.ID(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	// Both requests load the session before either submits.
	first, err := mgr.Load(ctx, cookie.Token)
	if err != nil {
		t.Fatal(err)
	}
	second, err := mgr.Load(ctx, cookie.Token)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := ValidateCSRF(ctx, first, tok); err != nil || !ok {
		t.Fatalf("first submission: ok=%v err=%v", ok, err)
	}
	if ok, _ := ValidateCSRF(ctx, second, tok); ok {
		t.Fatalf("token accepted by a second request of the same session")
	}
}

func TestCSRFLatestTokenWins(t *testing.T) {
	ctx := context.Background()
	s := newSession()

	first, _ := IssueCSRF(ctx, s)
	second, _ := IssueCSRF(ctx, s)
	if first == second {
		t.Fatalf("tokens must differ")
	}
	if ok, _ := ValidateCSRF(ctx, s, first); ok {
		t.Fatalf("superseded token accepted")
	}
}

func TestCSRFEmptySubmissionRejected(t *testing.T) {
	if ok, _ := ValidateCSRF(context.Background(), newSession(), ""); ok {
		t.Fatalf("empty token accepted without issue")
	}
}

func TestDepartmentPreference(t *testing.T) {
	ctx := context.Background()
	s := newSession()
	if Department(s) != "" {
		t.Fatalf("preference set on fresh session")
	}
	if err := RememberDepartment(ctx, s, "75"); err != nil {
		t.Fatal(err)
	}
	if Department(s) != "75" {
		t.Fatalf("got %q", Department(s))
	}
	if err := RememberDepartment(ctx, s, "13"); err != nil {
		t.Fatal(err)
	}
	if Department(s) != "13" {
		t.Fatalf("preference not replaced: %q", Department(s))
	}
}
