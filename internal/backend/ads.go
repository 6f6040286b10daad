package backend

import (
    "context"
    "net/http"

    "github.com/google/uuid"

    "github.com/iliyamo/mutual-help-web/internal/model"
)

type AdService struct{ c *Client }

// OfPerimeter lists the visible ads of a department and its perimeter.
func (s *AdService) OfPerimeter(ctx context.Context, token, department string) Result[model.AdsOfPerimeterData] {
    return Do[model.AdsOfPerimeterData](ctx, s.c, Call{Resource: "ads", Method: http.MethodGet, Ending: "all/" + department, Token: token})
}

func (s *AdService) Get(ctx context.Context, token string, id uuid.UUID) Result[model.AdData] {
    return Do[model.AdData](ctx, s.c, Call{Resource: "ads", Method: http.MethodGet, Ending: id.String(), Token: token})
}

// Self returns the ad of the signed-in user.  A user without an ad gets a
// Failed result carrying the backend status.
func (s *AdService) Self(ctx context.Context, token string) Result[model.AdOfUser] {
    return Do[model.AdOfUser](ctx, s.c, Call{Resource: "ads", Method: http.MethodGet, Ending: "self", Token: token})
}

// All lists every ad with its owner.  Admin only.
func (s *AdService) All(ctx context.Context, token string) Result[[]model.AdWithUser] {
    return Do[[]model.AdWithUser](ctx, s.c, Call{Resource: "ads", Method: http.MethodGet, Ending: "all", Token: token})
}

func (s *AdService) Create(ctx context.Context, token string, ad model.NewAd) Result[model.Ad] {
    return Do[model.Ad](ctx, s.c, Call{Resource: "ads", Method: http.MethodPost, Ending: "create", Token: token, Body: ad})
}

func (s *AdService) Update(ctx context.Context, token string, upd model.AdUpdate) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "ads", Method: http.MethodPut, Ending: upd.AdID.String() + "/update", Token: token, Body: upd})
}

// SoftDelete hides the ad.  The backend keeps the row.
func (s *AdService) SoftDelete(ctx context.Context, token string, id uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "ads", Method: http.MethodDelete, Ending: "delete/" + id.String(), Token: token,
        Success: []int{http.StatusNoContent}})
}

// Like toggles the visitor's heart on the ad.
func (s *AdService) Like(ctx context.Context, token string, id uuid.UUID) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "ads", Method: http.MethodPost, Ending: id.String() + "/like", Token: token})
}
