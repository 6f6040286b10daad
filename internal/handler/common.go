package handler

import (
    "errors"
    "fmt"
    "log/slog"
    "net/http"
    "net/url"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/auth"
    "github.com/iliyamo/mutual-help-web/internal/backend"
    "github.com/iliyamo/mutual-help-web/internal/model"
    "github.com/iliyamo/mutual-help-web/internal/session"
    "github.com/iliyamo/mutual-help-web/internal/validation"
)

// Redirect is returned by handlers to end a request with a 303 to To.  The
// cause, if any, is logged and never shown to the visitor.
type Redirect struct {
    To    string
    Cause error
}

func (r *Redirect) Error() string {
    if r.Cause == nil {
        return "redirect to " + r.To
    }
    return fmt.Sprintf("redirect to %s: %v", r.To, r.Cause)
}

func (r *Redirect) Unwrap() error { return r.Cause }

func redirectTo(to string, cause error) error { return &Redirect{To: to, Cause: cause} }

var (
    ErrCSRF       = errors.New("csrf token mismatch")
    ErrNoSession  = errors.New("no session in context")
    errBadRequest = echo.NewHTTPError(http.StatusBadRequest)
)

// ErrorHandler turns handler errors into responses.  Redirects become a
// 303, session store failures send the visitor to the error page, and
// everything else renders the error page with the matching status.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        ctx := c.Request().Context()

        var rd *Redirect
        if errors.As(err, &rd) {
            if rd.Cause != nil {
                log.WarnContext(ctx, "redirecting after failure", "to", rd.To, "path", c.Request().URL.Path, "error", rd.Cause)
            }
            _ = c.Redirect(http.StatusSeeOther, rd.To)
            return
        }
        var se *session.StoreError
        if errors.As(err, &se) {
            log.ErrorContext(ctx, "session store failure", "op", se.Op, "error", se.Err)
            if c.Request().URL.Path != "/error" {
                _ = c.Redirect(http.StatusSeeOther, "/error")
                return
            }
            err = echo.ErrInternalServerError
        }

        code := http.StatusInternalServerError
        var he *echo.HTTPError
        if errors.As(err, &he) {
            code = he.Code
        } else {
            log.ErrorContext(ctx, "unhandled error", "path", c.Request().URL.Path, "error", err)
        }
        if c.Request().Method == http.MethodHead {
            _ = c.NoContent(code)
            return
        }
        if rerr := c.Render(code, "error", view(c, "Error")); rerr != nil {
            _ = c.String(code, http.StatusText(code))
        }
    }
}

// sessionOf returns the request's session or fails when the session
// middleware did not run.
func sessionOf(c echo.Context) (*session.Session, error) {
    s := session.FromContext(c)
    if s == nil {
        return nil, ErrNoSession
    }
    return s, nil
}

// view returns the data every template expects.
func view(c echo.Context, title string) echo.Map {
    a := auth.New(session.FromContext(c))
    return echo.Map{
        "title":        title,
        "userLoggedIn": a.IsAuthenticated(),
        "isAdmin":      a.IsAdmin(),
    }
}

// page is view plus, for a signed-in visitor, the CSRF token submitted by
// the logout button of the layout.
func page(c echo.Context, title string) (echo.Map, error) {
    if !auth.New(session.FromContext(c)).IsAuthenticated() {
        return view(c, title), nil
    }
    return formPage(c, title)
}

// formPage is page plus a fresh CSRF token and the ?message of a failed
// submission.
func formPage(c echo.Context, title string) (echo.Map, error) {
    s, err := sessionOf(c)
    if err != nil {
        return nil, err
    }
    tok, err := auth.IssueCSRF(c.Request().Context(), s)
    if err != nil {
        return nil, err
    }
    m := view(c, title)
    m["csrfToken"] = tok
    if msg := c.QueryParam("message"); msg != "" {
        m["message"] = msg
    }
    return m, nil
}

// checkCSRF consumes the session's token.  A mismatch ends the request on
// the error page.
func checkCSRF(c echo.Context, submitted string) error {
    s, err := sessionOf(c)
    if err != nil {
        return err
    }
    ok, err := auth.ValidateCSRF(c.Request().Context(), s, submitted)
    if err != nil {
        return err
    }
    if !ok {
        return redirectTo("/error", ErrCSRF)
    }
    return nil
}

// bind decodes the posted form into dst.
func bind(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return errBadRequest
    }
    return nil
}

// invalid sends the visitor back to the form with the validation reason.
func invalid(path string, err error) error {
    return redirectTo(path+"?message="+url.QueryEscape(validation.Message(err)), nil)
}

// unwrap returns the value of a successful backend call.  A 401 logs the
// visitor out and sends them to the login page; any other failure goes to
// the error page.
func unwrap[T any](c echo.Context, res backend.Result[T]) (T, error) {
    if res.OK() {
        return res.Value, nil
    }
    var zero T
    if res.Outcome == backend.Unauthorized {
        if err := auth.New(session.FromContext(c)).Logout(c.Request().Context()); err != nil {
            return zero, err
        }
        return zero, redirectTo("/login", res.Err)
    }
    return zero, redirectTo("/error", res.Err)
}

// done maps a bodyless backend call to a redirect to next on success.
func done(c echo.Context, res backend.Result[backend.Empty], next string) error {
    if _, err := unwrap(c, res); err != nil {
        return err
    }
    return c.Redirect(http.StatusSeeOther, next)
}

func token(c echo.Context) string { return auth.New(session.FromContext(c)).Token() }

// paramID parses a UUID path parameter.  Malformed ids are a 404.
func paramID(c echo.Context, name string) (uuid.UUID, error) {
    id, err := uuid.Parse(c.Param(name))
    if err != nil {
        return uuid.Nil, echo.ErrNotFound
    }
    return id, nil
}

// csrfWithID checks the token of a bare CSRF form and parses path param
// name.
func csrfWithID(c echo.Context, name string) (uuid.UUID, error) {
    id, err := paramID(c, name)
    if err != nil {
        return uuid.Nil, err
    }
    var f model.CSRFForm
    if err := bind(c, &f); err != nil {
        return uuid.Nil, err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return uuid.Nil, err
    }
    return id, nil
}
