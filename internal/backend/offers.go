package backend

import (
    "context"
    "net/http"

    "github.com/google/uuid"

    "github.com/iliyamo/mutual-help-web/internal/model"
)

type OfferService struct{ c *Client }

// Create attaches offers to an ad in one request.
func (s *OfferService) Create(ctx context.Context, token string, offers []string, ad uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "offers", Method: http.MethodPost, Ending: "create", Token: token,
        Body: model.DemandOfferData{Strings: offers, AdID: ad}})
}

type DemandService struct{ c *Client }

func (s *DemandService) Create(ctx context.Context, token string, demands []string, ad uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "demands", Method: http.MethodPost, Ending: "create", Token: token,
        Body: model.DemandOfferData{Strings: demands, AdID: ad}})
}
