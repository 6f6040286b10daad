package middleware

import (
    "context"
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/auth"
    "github.com/iliyamo/mutual-help-web/internal/backend"
    "github.com/iliyamo/mutual-help-web/internal/session"
)

// RequireLogin redirects visitors without a bearer token in their session
// to the login page.
func RequireLogin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !auth.New(session.FromContext(c)).IsAuthenticated() {
                return c.Redirect(http.StatusSeeOther, "/login")
            }
            return next(c)
        }
    }
}

// AccessLookup asks the backend which user type a token belongs to.
type AccessLookup interface {
    Access(ctx context.Context, token string) backend.Result[backend.Access]
}

// RequireAdmin lets a request through only when the backend confirms the
// token belongs to an admin.  The confirmed role is remembered in the
// session.  A rejected token logs the visitor out.
func RequireAdmin(users AccessLookup) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ctx := c.Request().Context()
            a := auth.New(session.FromContext(c))
            res := users.Access(ctx, a.Token())
            switch res.Outcome {
            case backend.Unauthorized:
                if err := a.Logout(ctx); err != nil {
                    slog.ErrorContext(ctx, "logout after 401", "error", err)
                }
                return c.Redirect(http.StatusSeeOther, "/login")
            case backend.Failed:
                return c.Redirect(http.StatusSeeOther, "/error")
            }
            if res.Value.UserType != auth.RoleAdmin {
                return c.Redirect(http.StatusSeeOther, "/error")
            }
            if a.Role() != auth.RoleAdmin {
                if err := a.SetRole(ctx, auth.RoleAdmin); err != nil {
                    slog.ErrorContext(ctx, "store role", "error", err)
                    return c.Redirect(http.StatusSeeOther, "/error")
                }
            }
            return next(c)
        }
    }
}
