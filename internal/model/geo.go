package model

import "github.com/google/uuid"

// Country 1-* Department 1-* City.

type Country struct {
    ID      uuid.UUID `json:"id,omitempty"`
    Country string    `json:"country"`
}

type Department struct {
    ID               uuid.UUID `json:"id,omitempty"`
    DepartmentNumber int       `json:"departmentNumber"`
    DepartmentName   string    `json:"departmentName"`
    CountryID        uuid.UUID `json:"countryID"`
}

type CountryWithDepartments struct {
    Country     Country      `json:"country"`
    Departments []Department `json:"departments"`
}

// DepartmentWithPerimeter lists the departments considered neighbours of
// a department for ad visibility.
type DepartmentWithPerimeter struct {
    Department Department   `json:"department"`
    Perimeter  []Department `json:"perimeter"`
}
