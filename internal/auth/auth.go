// Package auth answers who the current visitor is, based on the bearer
// token and role stored in their session, and guards forms against
// cross-site request forgery.
package auth

import (
	"context"
	"net/http"

	"github.com/iliyamo/mutual-help-web/internal/model"
	"github.com/iliyamo/mutual-help-web/internal/session"
)

// RoleAdmin is the user type granted access to the admin pages.
const RoleAdmin = "admin"

// Helper reads and writes authentication state of one session.
type Helper struct {
	sess *session.Session
}

func New(s *session.Session) *Helper { return &Helper{sess: s} }

func (a *Helper) Session() *session.Session { return a.sess }

// Token returns the bearer token forwarded to the backend API, or "".
func (a *Helper) Token() string {
	if a.sess == nil {
		return ""
	}
	return a.sess.Get(session.KeyToken)
}

func (a *Helper) UserID() string {
	if a.sess == nil {
		return ""
	}
	return a.sess.Get(session.KeyUserID)
}

func (a *Helper) Role() string {
	if a.sess == nil {
		return ""
	}
	return a.sess.Get(session.KeyRole)
}

// SignIn stores the credential returned by the backend at login or
// registration.
func (a *Helper) SignIn(ctx context.Context, tok model.Token) error {
	if err := a.sess.Set(ctx, session.KeyToken, tok.Token); err != nil {
		return err
	}
	return a.sess.Set(ctx, session.KeyUserID, tok.UserID.String())
}

func (a *Helper) SetRole(ctx context.Context, role string) error {
	return a.sess.Set(ctx, session.KeyRole, role)
}

func (a *Helper) IsAuthenticated() bool { return a.Token() != "" }

func (a *Helper) IsAdmin() bool { return a.Role() == RoleAdmin }

// IsAuthorized reports whether a backend response status still allows the
// session to act.  A 401 logs the visitor out.
func (a *Helper) IsAuthorized(ctx context.Context, status int) (bool, error) {
	if status != http.StatusUnauthorized {
		return true, nil
	}
	return false, a.Logout(ctx)
}

// Logout destroys the whole session, not only the token.
func (a *Helper) Logout(ctx context.Context) error {
	if a.sess == nil {
		return nil
	}
	return a.sess.Destroy(ctx)
}
