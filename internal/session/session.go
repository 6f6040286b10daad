package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/mutual-help-web/internal/utils"
)

// Keys of the values kept in a session.
const (
	KeyToken      = "MH-API-KEY"
	KeyUserID     = "USER-ID-KEY"
	KeyRole       = "ACCESS-KEY"
	KeyCSRF       = "CSRF_TOKEN"
	KeyDepartment = "DEPARTMENT_KEY"
)

const (
	DefaultCookieName = "mh-session"
	contextKey        = "session"
)

// Session is the state of one browser session for the duration of a
// request.  Writes go straight to the store so that a failing store is
// reported to the caller that attempted the write.
type Session struct {
	id     string
	values map[string]string
	mgr    *Manager

	dirty     bool // written during this request; cookie must be (re)issued
	destroyed bool // destroyed during this request; cookie must be expired
}

func (s *Session) ID() string { return s.id }

func (s *Session) Get(key string) string { return s.values[key] }

func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Set stores value under key.
func (s *Session) Set(ctx context.Context, key, value string) error {
	if err := s.mgr.store.Set(ctx, s.mgr.storageKey(s.id), key, value, s.mgr.ttl); err != nil {
		return &StoreError{Op: "save", Err: err}
	}
	s.values[key] = value
	s.dirty = true
	return nil
}

// Unset removes key.  Removing an absent key is a no-op.
func (s *Session) Unset(ctx context.Context, key string) error {
	if _, ok := s.values[key]; !ok {
		return nil
	}
	if err := s.mgr.store.Unset(ctx, s.mgr.storageKey(s.id), key); err != nil {
		return &StoreError{Op: "unset", Err: err}
	}
	delete(s.values, key)
	return nil
}

// Take removes key from the store and returns the value it held there.  The
// stored value, not the copy loaded with the request, is authoritative: when
// another request of the same session took it first, ok is false.
func (s *Session) Take(ctx context.Context, key string) (string, bool, error) {
	delete(s.values, key)
	v, ok, err := s.mgr.store.Take(ctx, s.mgr.storageKey(s.id), key)
	if err != nil {
		return "", false, &StoreError{Op: "take", Err: err}
	}
	return v, ok, nil
}

// Destroy deletes every value of the session and the stored entry.  The
// session continues under a new id so that later writes in the same request
// never resurrect the old one.
func (s *Session) Destroy(ctx context.Context) error {
	if err := s.mgr.store.Delete(ctx, s.mgr.storageKey(s.id)); err != nil {
		return &StoreError{Op: "delete", Err: err}
	}
	s.values = map[string]string{}
	s.id = s.mgr.newID()
	s.destroyed = true
	s.dirty = false
	return nil
}

// Options configures a Manager.
type Options struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Manager binds sessions to signed cookies and a Store.
type Manager struct {
	store      Store
	secret     string
	ttl        time.Duration
	cookieName string
	secure     bool
	newID      func() string
}

func NewManager(store Store, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	return &Manager{
		store:      store,
		secret:     opts.Secret,
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
		newID:      uuid.NewString,
	}
}

func (m *Manager) Store() Store { return m.store }

func (m *Manager) CookieName() string { return m.cookieName }

func (m *Manager) storageKey(id string) string { return utils.HashSessionID(m.secret, id) }

// New returns an empty session with a fresh id.  Nothing is stored until
// the first write.
func (m *Manager) New() *Session {
	return &Session{id: m.newID(), values: map[string]string{}, mgr: m}
}

// Load resolves the session referenced by a cookie value.  A missing,
// forged or expired cookie, or an id unknown to the store, yields a new
// empty session.  Any other store failure is returned as *StoreError.
func (m *Manager) Load(ctx context.Context, cookieValue string) (*Session, error) {
	if cookieValue == "" {
		return m.New(), nil
	}
	id, err := utils.ParseSessionToken(m.secret, cookieValue)
	if err != nil {
		return m.New(), nil
	}
	values, err := m.store.Load(ctx, m.storageKey(id))
	if errors.Is(err, ErrNotFound) {
		return m.New(), nil
	}
	if err != nil {
		return nil, &StoreError{Op: "load", Err: err}
	}
	if values == nil {
		values = map[string]string{}
	}
	return &Session{id: id, values: values, mgr: m}, nil
}

// cookie returns the cookie to send for s, or nil when none is needed.
func (m *Manager) cookie(s *Session) (*http.Cookie, error) {
	switch {
	case s.dirty:
		tok, err := utils.NewSessionToken(m.secret, s.id, m.ttl)
		if err != nil {
			return nil, err
		}
		return &http.Cookie{
			Name:     m.cookieName,
			Value:    tok.Token,
			Path:     "/",
			Expires:  tok.Exp,
			MaxAge:   int(m.ttl / time.Second),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		}, nil
	case s.destroyed:
		return &http.Cookie{
			Name:     m.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		}, nil
	}
	return nil, nil
}

// Middleware loads the session of every request into the echo context and
// emits the matching cookie right before the response header is written.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var raw string
			if ck, err := c.Cookie(m.cookieName); err == nil {
				raw = ck.Value
			}
			s, err := m.Load(c.Request().Context(), raw)
			if err != nil {
				return err
			}
			c.Set(contextKey, s)
			c.Response().Before(func() {
				ck, err := m.cookie(s)
				if err != nil {
					c.Logger().Errorf("session cookie: %v", err)
					return
				}
				if ck != nil {
					c.SetCookie(ck)
				}
			})
			return next(c)
		}
	}
}

// FromContext returns the session loaded by Middleware, or nil.
func FromContext(c echo.Context) *Session {
	s, _ := c.Get(contextKey).(*Session)
	return s
}
