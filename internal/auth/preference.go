package auth

import (
	"context"

	"github.com/iliyamo/mutual-help-web/internal/session"
)

// Department returns the department the visitor last browsed, or "".
func Department(s *session.Session) string {
	if s == nil {
		return ""
	}
	return s.Get(session.KeyDepartment)
}

// RememberDepartment makes id the sticky department for later visits.
func RememberDepartment(ctx context.Context, s *session.Session, id string) error {
	if Department(s) == id {
		return nil
	}
	return s.Set(ctx, session.KeyDepartment, id)
}
