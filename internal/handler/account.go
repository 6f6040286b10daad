package handler

import (
    "context"
    "log/slog"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/auth"
    "github.com/iliyamo/mutual-help-web/internal/backend"
    "github.com/iliyamo/mutual-help-web/internal/model"
    "github.com/iliyamo/mutual-help-web/internal/session"
)

// AccountHandler covers signing in and out and the visitor's own account.
type AccountHandler struct {
    API *backend.Client
    Log *slog.Logger
}

func NewAccountHandler(api *backend.Client, log *slog.Logger) *AccountHandler {
    if api == nil {
        panic("nil backend client passed to NewAccountHandler")
    }
    if log == nil {
        log = slog.Default()
    }
    return &AccountHandler{API: api, Log: log}
}

func (h *AccountHandler) LoginPage(c echo.Context) error {
    m, err := formPage(c, "Log in")
    if err != nil {
        return err
    }
    _, failed := c.QueryParams()["error"]
    m["loginError"] = failed
    return c.Render(http.StatusOK, "login", m)
}

// Login exchanges the posted credentials for a bearer token and keeps it
// in a fresh session.
func (h *AccountHandler) Login(c echo.Context) error {
    var f model.LoginForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return redirectTo("/login?error", nil)
    }
    res := h.API.Users.Login(c.Request().Context(), f.Username, f.Password)
    if !res.OK() {
        return redirectTo("/login?error", res.Err)
    }
    if err := h.signIn(c, res.Value); err != nil {
        return err
    }
    return c.Redirect(http.StatusSeeOther, "/self/index")
}

func (h *AccountHandler) RegisterPage(c echo.Context) error {
    m, err := formPage(c, "Register")
    if err != nil {
        return err
    }
    return c.Render(http.StatusOK, "register", m)
}

// Register creates the account and signs the new user in.
func (h *AccountHandler) Register(c echo.Context) error {
    var f model.RegisterForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return invalid("/register", err)
    }
    res := h.API.Users.Register(c.Request().Context(), model.Registration{
        Firstname: f.Firstname,
        Lastname:  f.Lastname,
        Email:     f.Email,
        Password:  f.Password,
    })
    if !res.OK() {
        return redirectTo("/register", res.Err)
    }
    if err := h.signIn(c, res.Value); err != nil {
        return err
    }
    return c.Redirect(http.StatusSeeOther, "/self/index")
}

// signIn rotates the session and stores the token.  The role lookup is
// best effort: admin pages check it again anyway.
func (h *AccountHandler) signIn(c echo.Context, tok model.Token) error {
    s, err := sessionOf(c)
    if err != nil {
        return err
    }
    ctx := c.Request().Context()
    department := auth.Department(s)
    if err := s.Destroy(ctx); err != nil {
        return err
    }
    a := auth.New(s)
    if err := a.SignIn(ctx, tok); err != nil {
        return err
    }
    if department != "" {
        if err := auth.RememberDepartment(ctx, s, department); err != nil {
            return err
        }
    }
    h.lookupRole(ctx, a)
    return nil
}

func (h *AccountHandler) lookupRole(ctx context.Context, a *auth.Helper) {
    res := h.API.Users.Access(ctx, a.Token())
    if !res.OK() {
        h.Log.WarnContext(ctx, "role lookup failed", "status", res.Status, "error", res.Err)
        return
    }
    if err := a.SetRole(ctx, res.Value.UserType); err != nil {
        h.Log.WarnContext(ctx, "store role", "error", err)
    }
}

// Logout destroys the session once the layout's CSRF token checks out.
func (h *AccountHandler) Logout(c echo.Context) error {
    var f model.CSRFForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := auth.New(session.FromContext(c)).Logout(c.Request().Context()); err != nil {
        return err
    }
    return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AccountHandler) ProfilePage(c echo.Context) error {
    m, err := formPage(c, "Profile")
    if err != nil {
        return err
    }
    user, err := unwrap(c, h.API.Users.Self(c.Request().Context(), token(c)))
    if err != nil {
        return err
    }
    m["user"] = user
    return c.Render(http.StatusOK, "profile", m)
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
    var f model.ProfileForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return invalid("/self/profile", err)
    }
    res := h.API.Users.Update(c.Request().Context(), token(c), model.UserUpdate{
        Firstname: f.Firstname,
        Lastname:  f.Lastname,
        Email:     f.Email,
    })
    return done(c, res, "/self/index")
}

func (h *AccountHandler) PasswordPage(c echo.Context) error {
    m, err := formPage(c, "Password")
    if err != nil {
        return err
    }
    return c.Render(http.StatusOK, "password", m)
}

func (h *AccountHandler) ChangePassword(c echo.Context) error {
    var f model.PasswordForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return invalid("/self/password", err)
    }
    return done(c, h.API.Users.ChangePassword(c.Request().Context(), token(c), f.OldPassword, f.NewPassword), "/self/index")
}
