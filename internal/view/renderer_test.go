package view

import (
    "bytes"
    "strings"
    "testing"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/model"
)

var pages = []string{
    "landing", "adList", "offer", "images", "login", "register", "index", "newAd", "editAd",
    "addImage", "editImages", "contact", "profile", "password", "error",
    "countries", "addCountry", "addDepartment", "perimeter", "adminIndex", "departmentPerimeter",
}

func TestEveryPageParses(t *testing.T) {
    r, err := New()
    if err != nil {
        t.Fatalf("New: %v", err)
    }
    for _, p := range pages {
        if !r.Has(p) {
            t.Errorf("missing page %q", p)
        }
    }
    if r.Has("layout") {
        t.Error("layout registered as a page")
    }
}

func TestRenderLandingEscapes(t *testing.T) {
    r, err := New()
    if err != nil {
        t.Fatal(err)
    }
    var buf bytes.Buffer
    data := echo.Map{
        "title":             "Home",
        "userLoggedIn":      false,
        "isAdmin":           false,
        "showCookieMessage": true,
        "countries": []model.CountryWithDepartments{{
            Country:     model.Country{Country: "<France>"},
            Departments: []model.Department{{ID: uuid.New(), DepartmentNumber: 75, DepartmentName: "Paris"}},
        }},
    }
    if err := r.Render(&buf, "landing", data, nil); err != nil {
        t.Fatalf("Render: %v", err)
    }
    out := buf.String()
    for _, want := range []string{"<title>Home | Entraide</title>", "&lt;France&gt;", "75 Paris", `action="/cookies/accept"`} {
        if !strings.Contains(out, want) {
            t.Errorf("output lacks %q", want)
        }
    }
}

func TestRenderUnknownPage(t *testing.T) {
    r, err := New()
    if err != nil {
        t.Fatal(err)
    }
    if err := r.Render(&bytes.Buffer{}, "nope", nil, nil); err == nil {
        t.Fatal("unknown page rendered")
    }
}
