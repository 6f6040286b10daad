package backend

import (
    "context"
    "net/http"

    "github.com/google/uuid"

    "github.com/iliyamo/mutual-help-web/internal/model"
    "github.com/iliyamo/mutual-help-web/internal/utils"
)

type UserService struct{ c *Client }

// Access is the body of GET users/access.
type Access struct {
    UserType string `json:"userType"`
}

// Login exchanges credentials for a token.  Both fields are sent base64
// encoded.
func (s *UserService) Login(ctx context.Context, username, password string) Result[model.Token] {
    return Do[model.Token](ctx, s.c, Call{Resource: "users", Method: http.MethodPost, Ending: "login",
        Body: model.Credentials{Username: utils.EncodeCredential(username), Password: utils.EncodeCredential(password)}})
}

func (s *UserService) Register(ctx context.Context, r model.Registration) Result[model.Token] {
    return Do[model.Token](ctx, s.c, Call{Resource: "users", Method: http.MethodPost, Body: r})
}

func (s *UserService) Self(ctx context.Context, token string) Result[model.User] {
    return Do[model.User](ctx, s.c, Call{Resource: "users", Method: http.MethodGet, Ending: "self", Token: token})
}

// Access reports the user type behind token.
func (s *UserService) Access(ctx context.Context, token string) Result[Access] {
    return Do[Access](ctx, s.c, Call{Resource: "users", Method: http.MethodGet, Ending: "access", Token: token})
}

func (s *UserService) All(ctx context.Context, token string) Result[[]model.User] {
    return Do[[]model.User](ctx, s.c, Call{Resource: "users", Method: http.MethodGet, Ending: "all", Token: token})
}

func (s *UserService) Update(ctx context.Context, token string, u model.UserUpdate) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "users", Method: http.MethodPut, Ending: "self", Token: token, Body: u})
}

func (s *UserService) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "users", Method: http.MethodPut, Ending: "self/password", Token: token,
        Body:    model.PasswordChange{OldPassword: utils.EncodeCredential(oldPassword), NewPassword: utils.EncodeCredential(newPassword)},
        Success: []int{http.StatusAccepted}})
}

func (s *UserService) Delete(ctx context.Context, token string, id uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "users", Method: http.MethodDelete, Ending: "delete/user/" + id.String(),
        Token: token, Success: []int{http.StatusNoContent}})
}
