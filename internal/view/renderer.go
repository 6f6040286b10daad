// Package view renders the HTML pages.  Every page is parsed together with
// the shared layout and executed through it.
package view

import (
    "embed"
    "fmt"
    "html/template"
    "io"
    "io/fs"
    "path"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/model"
)

//go:embed templates/*.html
var files embed.FS

const layoutFile = "templates/layout.html"

var funcs = template.FuncMap{
    "messengerLink": model.MessengerLink,
    "join":          strings.Join,
}

// Renderer implements echo.Renderer.
type Renderer struct {
    pages map[string]*template.Template
}

// New parses every embedded page.  A broken template fails here rather
// than on first render.
func New() (*Renderer, error) {
    names, err := fs.Glob(files, "templates/*.html")
    if err != nil {
        return nil, err
    }
    r := &Renderer{pages: make(map[string]*template.Template, len(names))}
    for _, n := range names {
        if n == layoutFile {
            continue
        }
        name := strings.TrimSuffix(path.Base(n), ".html")
        t, err := template.New(name).Funcs(funcs).ParseFS(files, layoutFile, n)
        if err != nil {
            return nil, fmt.Errorf("parse %s: %w", n, err)
        }
        r.pages[name] = t
    }
    return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
    t, ok := r.pages[name]
    if !ok {
        return fmt.Errorf("view: unknown template %q", name)
    }
    return t.ExecuteTemplate(w, "layout", data)
}

// Has reports whether a page named name exists.
func (r *Renderer) Has(name string) bool {
    _, ok := r.pages[name]
    return ok
}
