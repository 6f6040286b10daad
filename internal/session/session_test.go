package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type failingStore struct{ err error }

func (f failingStore) Load(context.Context, string) (map[string]string, error) { return nil, f.err }
func (f failingStore) Set(context.Context, string, string, string, time.Duration) error {
	return f.err
}
func (f failingStore) Unset(context.Context, string, string) error { return f.err }
func (f failingStore) Take(context.Context, string, string) (string, bool, error) {
	return "", false, f.err
}
func (f failingStore) Delete(context.Context, string) error { return f.err }

func newTestManager(store Store) *Manager {
	return NewManager(store, Options{Secret: "test-secret", TTL: time.Hour})
}

func TestSetPersistsThroughStore(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(store)
	ctx := context.Background()

	s := mgr.New()
	if err := s.Set(ctx, KeyToken, "tok"); err != nil {
		t.Fatalf("set error: %v", err)
	}
	ck, err := mgr.cookie(s)
	if err != nil || ck == nil {
		t.Fatalf("expected cookie after write, got %v (%v)", ck, err)
	}

	loaded, err := mgr.Load(ctx, ck.Value)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if loaded.ID() != s.ID() {
		t.Fatalf("expected same session id")
	}
	if loaded.Get(KeyToken) != "tok" {
		t.Fatalf("expected token to round trip, got %q", loaded.Get(KeyToken))
	}
}

func TestLoadRejectsForgedCookie(t *testing.T) {
	mgr := newTestManager(NewMemoryStore())
	s, err := mgr.Load(context.Background(), "not-a-jwt")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(s.values) != 0 {
		t.Fatalf("expected empty session for forged cookie")
	}
}

func TestDestroyClearsEverything(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(store)
	ctx := context.Background()

	s := mgr.New()
	_ = s.Set(ctx, KeyToken, "tok")
	_ = s.Set(ctx, KeyDepartment, "75")
	oldID := s.ID()

	if err := s.Destroy(ctx); err != nil {
		t.Fatalf("destroy error: %v", err)
	}
	if s.Has(KeyToken) || s.Has(KeyDepartment) {
		t.Fatalf("expected all values cleared")
	}
	if s.ID() == oldID {
		t.Fatalf("expected id rotation after destroy")
	}
	if store.Len() != 0 {
		t.Fatalf("expected stored entry removed, have %d", store.Len())
	}
	ck, _ := mgr.cookie(s)
	if ck == nil || ck.MaxAge >= 0 {
		t.Fatalf("expected expiring cookie after destroy, got %+v", ck)
	}
}

func TestStoreFailureIsTypedError(t *testing.T) {
	boom := errors.New("boom")
	mgr := newTestManager(failingStore{err: boom})
	s := mgr.New()

	err := s.Set(context.Background(), KeyToken, "tok")
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if se.Op != "save" || !errors.Is(err, boom) {
		t.Fatalf("unexpected store error %+v", se)
	}
	if s.Has(KeyToken) {
		t.Fatalf("failed write must not change the session")
	}
	if err := s.Destroy(context.Background()); err == nil {
		t.Fatalf("expected destroy to fail")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_ = store.Set(ctx, "k", "a", "b", time.Minute)
	if _, err := store.Load(ctx, "k"); err != nil {
		t.Fatalf("expected entry, got %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := store.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestConcurrentWritesKeepEachField(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(store)
	ctx := context.Background()

	s := mgr.New()
	_ = s.Set(ctx, KeyToken, "tok")
	ck, _ := mgr.cookie(s)

	// Two requests of the same browser, both loaded before either writes.
	a, _ := mgr.Load(ctx, ck.Value)
	b, _ := mgr.Load(ctx, ck.Value)
	if err := a.Set(ctx, KeyDepartment, "75"); err != nil {
		t.Fatalf("set department: %v", err)
	}
	if err := b.Set(ctx, KeyCSRF, "csrf"); err != nil {
		t.Fatalf("set csrf: %v", err)
	}
	if err := b.Unset(ctx, KeyToken); err != nil {
		t.Fatalf("unset token: %v", err)
	}

	reloaded, err := mgr.Load(ctx, ck.Value)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if reloaded.Get(KeyDepartment) != "75" || reloaded.Get(KeyCSRF) != "csrf" {
		t.Fatalf("expected both writes kept, got %v", reloaded.values)
	}
	if reloaded.Has(KeyToken) {
		t.Fatalf("expected token removed")
	}
}

func TestTakeSucceedsOnce(t *testing.T) {
	store := NewMemoryStore()
	mgr := newTestManager(store)
	ctx := context.Background()

	s := mgr.New()
	_ = s.Set(ctx, KeyCSRF, "csrf")
	ck, _ := mgr.cookie(s)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loaded, err := mgr.Load(ctx, ck.Value)
			if err != nil {
				t.Errorf("load error: %v", err)
				return
			}
			v, ok, err := loaded.Take(ctx, KeyCSRF)
			if err != nil {
				t.Errorf("take error: %v", err)
				return
			}
			if ok {
				if v != "csrf" {
					t.Errorf("took %q", v)
				}
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("expected exactly one successful take, got %d", wins.Load())
	}
}

func TestMiddlewareIssuesCookieOnWrite(t *testing.T) {
	mgr := newTestManager(NewMemoryStore())
	e := echo.New()
	e.Use(mgr.Middleware())
	e.GET("/write", func(c echo.Context) error {
		if err := FromContext(c).Set(c.Request().Context(), KeyDepartment, "75"); err != nil {
			return err
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/read", func(c echo.Context) error {
		return c.String(http.StatusOK, FromContext(c).Get(KeyDepartment))
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/write", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != DefaultCookieName {
		t.Fatalf("expected session cookie, got %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Body.String() != "75" {
		t.Fatalf("expected department from session, got %q", rec.Body.String())
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("expected no cookie on read-only request")
	}
}
