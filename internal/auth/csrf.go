package auth

import (
	"context"
	"crypto/subtle"

	"github.com/iliyamo/mutual-help-web/internal/session"
	"github.com/iliyamo/mutual-help-web/internal/utils"
)

const csrfTokenBytes = 16

// IssueCSRF generates a token for a form being rendered and remembers it
// in the session, replacing any earlier one.
func IssueCSRF(ctx context.Context, s *session.Session) (string, error) {
	tok, err := utils.RandomBase64(csrfTokenBytes)
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, session.KeyCSRF, tok); err != nil {
		return "", err
	}
	return tok, nil
}

// ValidateCSRF compares a submitted token with the one stored in the
// session.  The stored token is taken out of the store whatever the
// outcome, so a token is accepted at most once even when several requests
// of the same session submit it concurrently.
func ValidateCSRF(ctx context.Context, s *session.Session, submitted string) (bool, error) {
	expected, ok, err := s.Take(ctx, session.KeyCSRF)
	if err != nil {
		return false, err
	}
	if !ok || expected == "" || submitted == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(submitted)) == 1, nil
}
