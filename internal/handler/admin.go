package handler

import (
    "log/slog"
    "net/http"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/backend"
    "github.com/iliyamo/mutual-help-web/internal/model"
)

// AdminHandler manages users and the geographic reference data.  Routes
// are mounted behind RequireLogin and RequireAdmin.
type AdminHandler struct {
    API *backend.Client
    Log *slog.Logger
}

func NewAdminHandler(api *backend.Client, log *slog.Logger) *AdminHandler {
    if api == nil {
        panic("nil backend client passed to NewAdminHandler")
    }
    if log == nil {
        log = slog.Default()
    }
    return &AdminHandler{API: api, Log: log}
}

// Index lists every user and every ad.
func (h *AdminHandler) Index(c echo.Context) error {
    m, err := formPage(c, "Administration")
    if err != nil {
        return err
    }
    ctx, tok := c.Request().Context(), token(c)
    users, err := unwrap(c, h.API.Users.All(ctx, tok))
    if err != nil {
        return err
    }
    ads, err := unwrap(c, h.API.Ads.All(ctx, tok))
    if err != nil {
        return err
    }
    m["users"] = users
    m["ads"] = ads
    return c.Render(http.StatusOK, "adminIndex", m)
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
    id, err := csrfWithID(c, "id")
    if err != nil {
        return err
    }
    return done(c, h.API.Users.Delete(c.Request().Context(), token(c), id), "/admin/index")
}

// Countries lists every country with its departments.
func (h *AdminHandler) Countries(c echo.Context) error {
    m, err := formPage(c, "Countries")
    if err != nil {
        return err
    }
    countries, err := unwrap(c, h.API.Countries.WithDepartments(c.Request().Context(), token(c)))
    if err != nil {
        return err
    }
    m["countries"] = countries
    return c.Render(http.StatusOK, "countries", m)
}

func (h *AdminHandler) AddCountryPage(c echo.Context) error {
    m, err := formPage(c, "Add Country")
    if err != nil {
        return err
    }
    return c.Render(http.StatusOK, "addCountry", m)
}

func (h *AdminHandler) AddCountry(c echo.Context) error {
    var f model.CountryForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return invalid("/admin/add/country", err)
    }
    return done(c, h.API.Countries.Create(c.Request().Context(), token(c), f.Country), "/admin/countries/all")
}

func (h *AdminHandler) DeleteCountry(c echo.Context) error {
    id, err := csrfWithID(c, "id")
    if err != nil {
        return err
    }
    return done(c, h.API.Countries.Delete(c.Request().Context(), token(c), id), "/admin/countries/all")
}

func (h *AdminHandler) AddDepartmentPage(c echo.Context) error {
    m, err := formPage(c, "Add Department")
    if err != nil {
        return err
    }
    countries, err := unwrap(c, h.API.Countries.List(c.Request().Context(), token(c)))
    if err != nil {
        return err
    }
    m["countries"] = countries
    return c.Render(http.StatusOK, "addDepartment", m)
}

func (h *AdminHandler) AddDepartment(c echo.Context) error {
    var f model.DepartmentForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return invalid("/admin/add/department", err)
    }
    d := model.NewDepartment{
        DepartmentNumber: f.DepartmentNumber,
        DepartmentName:   f.DepartmentName,
        CountryID:        uuid.MustParse(f.CountryID),
    }
    return done(c, h.API.Departments.Create(c.Request().Context(), token(c), d), "/admin/countries/all")
}

func (h *AdminHandler) DeleteDepartment(c echo.Context) error {
    id, err := csrfWithID(c, "id")
    if err != nil {
        return err
    }
    return done(c, h.API.Departments.Delete(c.Request().Context(), token(c), id), "/admin/countries/all")
}

// Department shows a department and its perimeter.
func (h *AdminHandler) Department(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return err
    }
    m, err := formPage(c, "Department")
    if err != nil {
        return err
    }
    data, err := unwrap(c, h.API.Departments.Perimeter(c.Request().Context(), token(c), id))
    if err != nil {
        return err
    }
    m["data"] = data
    return c.Render(http.StatusOK, "departmentPerimeter", m)
}

func (h *AdminHandler) PerimeterPage(c echo.Context) error {
    m, err := formPage(c, "Perimeter")
    if err != nil {
        return err
    }
    departments, err := unwrap(c, h.API.Departments.List(c.Request().Context(), token(c)))
    if err != nil {
        return err
    }
    m["departments"] = departments
    return c.Render(http.StatusOK, "perimeter", m)
}

// AddPerimeter makes the selected departments neighbours of one department.
func (h *AdminHandler) AddPerimeter(c echo.Context) error {
    var f model.PerimeterForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return invalid("/admin/departments/perimeter", err)
    }
    others := make([]uuid.UUID, 0, len(f.DepartmentIDs))
    for _, s := range f.DepartmentIDs {
        others = append(others, uuid.MustParse(s))
    }
    res := h.API.Departments.AddPerimeter(c.Request().Context(), token(c), uuid.MustParse(f.DepartmentID), others)
    return done(c, res, "/admin/countries/all")
}

// RemoveFromPerimeter drops department :other from the perimeter of :id.
func (h *AdminHandler) RemoveFromPerimeter(c echo.Context) error {
    id, err := csrfWithID(c, "id")
    if err != nil {
        return err
    }
    other, err := paramID(c, "other")
    if err != nil {
        return err
    }
    return done(c, h.API.Departments.RemoveFromPerimeter(c.Request().Context(), token(c), id, other), "/admin/departments/"+id.String())
}
