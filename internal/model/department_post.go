package model

import "github.com/google/uuid"

// NewDepartment is the body of POST departments/.
type NewDepartment struct {
    DepartmentNumber int       `json:"departmentNumber"`
    DepartmentName   string    `json:"departmentName"`
    CountryID        uuid.UUID `json:"countryID"`
}
