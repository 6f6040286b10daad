package middleware

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/session"
)

// currentUserID returns the signed-in user id of the request's session, or
// "guest".
func currentUserID(c echo.Context) string {
    if s := session.FromContext(c); s != nil {
        if id := s.Get(session.KeyUserID); id != "" {
            return id
        }
    }
    return "guest"
}
