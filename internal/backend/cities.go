package backend

import (
    "context"
    "net/http"

    "github.com/google/uuid"

    "github.com/iliyamo/mutual-help-web/internal/model"
)

type CityService struct{ c *Client }

func (s *CityService) Create(ctx context.Context, token, name string, department uuid.UUID) Result[model.City] {
    return Do[model.City](ctx, s.c, Call{Resource: "cities", Method: http.MethodPost, Token: token,
        Body: model.City{City: name, DepartmentID: department}})
}
