package backend

import (
    "context"
    "net/http"

    "github.com/google/uuid"

    "github.com/iliyamo/mutual-help-web/internal/model"
)

// Reference data paths served from the read cache.
const (
    pathCountriesWithDepartments = "countries/departments"
    pathCountries                = "countries/"
    pathDepartments              = "departments/"
)

var geoPaths = []string{pathCountriesWithDepartments, pathCountries, pathDepartments}

type CountryService struct{ c *Client }

func (s *CountryService) WithDepartments(ctx context.Context, token string) Result[[]model.CountryWithDepartments] {
    return Do[[]model.CountryWithDepartments](ctx, s.c, Call{Resource: "countries", Method: http.MethodGet, Ending: "departments",
        Token: token, Cacheable: true})
}

func (s *CountryService) List(ctx context.Context, token string) Result[[]model.Country] {
    return Do[[]model.Country](ctx, s.c, Call{Resource: "countries", Method: http.MethodGet, Token: token, Cacheable: true})
}

func (s *CountryService) Create(ctx context.Context, token, name string) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "countries", Method: http.MethodPost, Token: token,
        Body: model.Country{Country: name}, Success: []int{http.StatusCreated}, Invalidate: geoPaths})
}

func (s *CountryService) Delete(ctx context.Context, token string, id uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "countries", Method: http.MethodDelete, Ending: "delete/" + id.String(),
        Token: token, Success: []int{http.StatusNoContent}, Invalidate: geoPaths})
}

type DepartmentService struct{ c *Client }

func (s *DepartmentService) List(ctx context.Context, token string) Result[[]model.Department] {
    return Do[[]model.Department](ctx, s.c, Call{Resource: "departments", Method: http.MethodGet, Token: token, Cacheable: true})
}

func (s *DepartmentService) Create(ctx context.Context, token string, d model.NewDepartment) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "departments", Method: http.MethodPost, Token: token, Body: d,
        Success: []int{http.StatusCreated}, Invalidate: geoPaths})
}

// Perimeter returns a department with its neighbouring departments.
func (s *DepartmentService) Perimeter(ctx context.Context, token string, id uuid.UUID) Result[model.DepartmentWithPerimeter] {
    return Do[model.DepartmentWithPerimeter](ctx, s.c, Call{Resource: "departments", Method: http.MethodGet,
        Ending: id.String() + "/perimeter", Token: token})
}

func (s *DepartmentService) AddPerimeter(ctx context.Context, token string, id uuid.UUID, others []uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "departments", Method: http.MethodPost, Ending: "perimeter/" + id.String(),
        Token: token, Body: others, Success: []int{http.StatusCreated}})
}

func (s *DepartmentService) Delete(ctx context.Context, token string, id uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "departments", Method: http.MethodDelete, Ending: "delete/" + id.String(),
        Token: token, Success: []int{http.StatusNoContent}, Invalidate: geoPaths})
}

func (s *DepartmentService) RemoveFromPerimeter(ctx context.Context, token string, id, other uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "departments", Method: http.MethodPut,
        Ending: "delete/" + id.String() + "/" + other.String(), Token: token, Success: []int{http.StatusNoContent}})
}
