package backend

import (
    "context"
    "net/http"

    "github.com/google/uuid"

    "github.com/iliyamo/mutual-help-web/internal/model"
)

// ContactService covers contact requests between users.  The backend
// serves them under the users resource.
type ContactService struct{ c *Client }

func (s *ContactService) Requests(ctx context.Context, token string) Result[[]model.ContactRequestFromData] {
    return Do[[]model.ContactRequestFromData](ctx, s.c, Call{Resource: "users", Method: http.MethodGet, Ending: "contacts/requests", Token: token})
}

func (s *ContactService) List(ctx context.Context, token string) Result[[]model.ContactInfoData] {
    return Do[[]model.ContactInfoData](ctx, s.c, Call{Resource: "users", Method: http.MethodGet, Ending: "contacts", Token: token})
}

// OfAd returns the contact state between the visitor and the ad owner.
func (s *ContactService) OfAd(ctx context.Context, token string, ad uuid.UUID) Result[model.ContactData] {
    return Do[model.ContactData](ctx, s.c, Call{Resource: "users", Method: http.MethodGet, Ending: ad.String() + "/contacts", Token: token})
}

func (s *ContactService) Send(ctx context.Context, token string, ad uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "users", Method: http.MethodPost, Ending: ad.String() + "/request/send",
        Token: token, Success: []int{http.StatusCreated}})
}

func (s *ContactService) Accept(ctx context.Context, token string, user uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "users", Method: http.MethodPut, Ending: user.String() + "/contacts/requests/accept",
        Token: token, Success: []int{http.StatusAccepted}})
}

func (s *ContactService) Decline(ctx context.Context, token string, user uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "users", Method: http.MethodDelete, Ending: user.String() + "/contacts/requests/decline",
        Token: token, Success: []int{http.StatusNoContent}})
}
