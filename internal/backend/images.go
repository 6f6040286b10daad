package backend

import (
    "context"
    "net/http"
    "net/url"

    "github.com/google/uuid"

    "github.com/iliyamo/mutual-help-web/internal/model"
)

// ImageService relays to the image storage endpoints of the API.
type ImageService struct{ c *Client }

func (s *ImageService) ForAd(ctx context.Context, token string, ad uuid.UUID) Result[[]model.ImageLink] {
    return Do[[]model.ImageLink](ctx, s.c, Call{Resource: "aws", Method: http.MethodGet, Ending: ad.String() + "/images", Token: token})
}

func (s *ImageService) Upload(ctx context.Context, token string, ad uuid.UUID, image []byte) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "aws", Method: http.MethodPost, Ending: "image", Token: token,
        Body: model.ImageData{Image: image, AdID: ad}})
}

func (s *ImageService) Delete(ctx context.Context, token string, ad uuid.UUID, name string) Result[Empty] {
    return Do[Empty](ctx, s.c, Call{Resource: "aws", Method: http.MethodGet,
        Ending: ad.String() + "/images/delete/" + url.PathEscape(name), Token: token, Success: []int{http.StatusNoContent}})
}
