package handler

import (
    "context"
    "errors"
    "io"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/auth"
    "github.com/iliyamo/mutual-help-web/internal/backend"
    "github.com/iliyamo/mutual-help-web/internal/model"
    "github.com/iliyamo/mutual-help-web/internal/queue"
    "github.com/iliyamo/mutual-help-web/internal/session"
    "github.com/iliyamo/mutual-help-web/internal/validation"
)

// StandardHandler serves the pages of a signed-in user: their ad, its
// images and their contacts.
type StandardHandler struct {
    API    *backend.Client
    Events queue.Publisher
    Log    *slog.Logger
}

func NewStandardHandler(api *backend.Client, events queue.Publisher, log *slog.Logger) *StandardHandler {
    if api == nil {
        panic("nil backend client passed to NewStandardHandler")
    }
    if events == nil {
        events = queue.NopPublisher{}
    }
    if log == nil {
        log = slog.Default()
    }
    return &StandardHandler{API: api, Events: events, Log: log}
}

// Index shows the user's profile, ad and contacts.
func (h *StandardHandler) Index(c echo.Context) error {
    m, err := formPage(c, "My Profile")
    if err != nil {
        return err
    }
    ctx, tok := c.Request().Context(), token(c)

    user, err := unwrap(c, h.API.Users.Self(ctx, tok))
    if err != nil {
        return err
    }
    requests, err := unwrap(c, h.API.Contacts.Requests(ctx, tok))
    if err != nil {
        return err
    }
    contacts, err := unwrap(c, h.API.Contacts.List(ctx, tok))
    if err != nil {
        return err
    }
    ad, err := optional(c, h.API.Ads.Self(ctx, tok))
    if err != nil {
        return err
    }

    m["user"] = user
    m["contactRequests"] = requests
    m["contacts"] = contacts
    m["ad"] = ad
    return c.Render(http.StatusOK, "index", m)
}

// optional is unwrap for reads where a backend status other than success
// or 401 means "nothing there".  Transport and decode failures still fail.
func optional[T any](c echo.Context, res backend.Result[T]) (*T, error) {
    if res.Outcome == backend.Failed && errors.Is(res.Err, backend.ErrUnexpectedStatus) {
        return nil, nil
    }
    v, err := unwrap(c, res)
    if err != nil {
        return nil, err
    }
    return &v, nil
}

// SoftDelete hides the user's ad.
func (h *StandardHandler) SoftDelete(c echo.Context) error {
    var f model.SoftDeleteForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return redirectTo("/error", err)
    }
    id := uuid.MustParse(f.AdID)
    ctx := c.Request().Context()
    if _, err := unwrap(c, h.API.Ads.SoftDelete(ctx, token(c), id)); err != nil {
        return err
    }
    h.publish(ctx, queue.ActivityEvent{Kind: queue.KindAdDeleted, UserID: userID(c), AdID: id.String()})
    return c.Redirect(http.StatusSeeOther, "/self/index")
}

func (h *StandardHandler) NewAdPage(c echo.Context) error {
    m, err := formPage(c, "Create New Ad")
    if err != nil {
        return err
    }
    departments, err := unwrap(c, h.API.Departments.List(c.Request().Context(), token(c)))
    if err != nil {
        return err
    }
    m["departments"] = departments
    return c.Render(http.StatusOK, "newAd", m)
}

func (h *StandardHandler) EditAdPage(c echo.Context) error {
    m, err := formPage(c, "Edit Ad")
    if err != nil {
        return err
    }
    ctx, tok := c.Request().Context(), token(c)
    ad, err := unwrap(c, h.API.Ads.Self(ctx, tok))
    if err != nil {
        return err
    }
    departments, err := unwrap(c, h.API.Departments.List(ctx, tok))
    if err != nil {
        return err
    }
    m["ad"] = ad
    m["departments"] = departments
    return c.Render(http.StatusOK, "editAd", m)
}

func (h *StandardHandler) EditAd(c echo.Context) error {
    var f model.EditAdForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return invalid("/self/edit", err)
    }
    upd := model.AdUpdate{
        Note:         f.Note,
        AdID:         uuid.MustParse(f.AdID),
        Demands:      nonEmpty(f.Demands),
        Offers:       nonEmpty(f.Offers),
        City:         f.City,
        CityID:       uuid.MustParse(f.CityID),
        DepartmentID: uuid.MustParse(f.DepartmentID),
    }
    return done(c, h.API.Ads.Update(c.Request().Context(), token(c), upd), "/self/index")
}

// AddImagePage is shown right after an ad is created.
func (h *StandardHandler) AddImagePage(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return err
    }
    m, err := formPage(c, "Add Images")
    if err != nil {
        return err
    }
    m["adID"] = id
    return c.Render(http.StatusOK, "addImage", m)
}

func (h *StandardHandler) EditImagesPage(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return err
    }
    m, err := formPage(c, "Images")
    if err != nil {
        return err
    }
    res := h.API.Images.ForAd(c.Request().Context(), token(c), id)
    if res.Status != http.StatusInternalServerError {
        // the image endpoint answers 500 for an ad without images
        images, err := unwrap(c, res)
        if err != nil {
            return err
        }
        m["images"] = images
    }
    m["adID"] = id
    return c.Render(http.StatusOK, "editImages", m)
}

// UploadNewImage handles the image form shown after creating an ad.
func (h *StandardHandler) UploadNewImage(c echo.Context) error {
    return h.upload(c, func(id uuid.UUID) string { return "/self/" + id.String() + "/new/image" })
}

// UploadImage handles the image form of the edit images page.
func (h *StandardHandler) UploadImage(c echo.Context) error {
    return h.upload(c, func(id uuid.UUID) string { return "/" + id.String() + "/edit/image" })
}

func (h *StandardHandler) upload(c echo.Context, form func(uuid.UUID) string) error {
    id, err := paramID(c, "id")
    if err != nil {
        return err
    }
    var f model.CSRFForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    data, err := readImage(c)
    if err != nil {
        return err
    }
    if err := validation.Image(data); err != nil {
        return invalid(form(id), err)
    }
    return done(c, h.API.Images.Upload(c.Request().Context(), token(c), id, data), "/"+id.String()+"/edit/image")
}

// readImage reads the "image" file of a multipart form.  Reading stops one
// byte past the size cap so oversized uploads are detected without being
// held in memory.
func readImage(c echo.Context) ([]byte, error) {
    fh, err := c.FormFile("image")
    if errors.Is(err, http.ErrMissingFile) {
        return nil, nil
    }
    if err != nil {
        return nil, errBadRequest
    }
    f, err := fh.Open()
    if err != nil {
        return nil, err
    }
    defer f.Close()
    return io.ReadAll(io.LimitReader(f, validation.MaxImageBytes+1))
}

func (h *StandardHandler) DeleteImage(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return err
    }
    var f model.DeleteImageForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return invalid("/"+id.String()+"/edit/image", err)
    }
    return done(c, h.API.Images.Delete(c.Request().Context(), token(c), id, f.ImageName), "/"+id.String()+"/edit/image")
}

// Contact shows the contact state between the user and an ad's owner.
func (h *StandardHandler) Contact(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return err
    }
    m, err := formPage(c, "Contact")
    if err != nil {
        return err
    }
    contact, err := unwrap(c, h.API.Contacts.OfAd(c.Request().Context(), token(c), id))
    if err != nil {
        return err
    }
    m["contact"] = contact
    m["adID"] = id
    return c.Render(http.StatusOK, "contact", m)
}

// SendContactRequest asks the owner of ad :id for their contact details.
func (h *StandardHandler) SendContactRequest(c echo.Context) error {
    id, err := csrfWithID(c, "id")
    if err != nil {
        return err
    }
    return done(c, h.API.Contacts.Send(c.Request().Context(), token(c), id), "/"+id.String()+"/ads/contact")
}

// AcceptRequest accepts the request of user :id from the profile page.
func (h *StandardHandler) AcceptRequest(c echo.Context) error {
    user, err := csrfWithID(c, "id")
    if err != nil {
        return err
    }
    return done(c, h.API.Contacts.Accept(c.Request().Context(), token(c), user), "/self/index")
}

func (h *StandardHandler) DeclineRequest(c echo.Context) error {
    user, err := csrfWithID(c, "id")
    if err != nil {
        return err
    }
    return done(c, h.API.Contacts.Decline(c.Request().Context(), token(c), user), "/self/index")
}

// AcceptAdRequest accepts the request of user :id from the contact page of
// ad :adID.
func (h *StandardHandler) AcceptAdRequest(c echo.Context) error {
    user, err := csrfWithID(c, "id")
    if err != nil {
        return err
    }
    ad, err := paramID(c, "adID")
    if err != nil {
        return err
    }
    return done(c, h.API.Contacts.Accept(c.Request().Context(), token(c), user), "/"+ad.String()+"/ads/contact")
}

func (h *StandardHandler) DeclineAdRequest(c echo.Context) error {
    user, err := csrfWithID(c, "id")
    if err != nil {
        return err
    }
    ad, err := paramID(c, "adID")
    if err != nil {
        return err
    }
    return done(c, h.API.Contacts.Decline(c.Request().Context(), token(c), user), "/"+ad.String()+"/ads/contact")
}

// Heart likes or unlikes ad :id.
func (h *StandardHandler) Heart(c echo.Context) error {
    id, err := csrfWithID(c, "id")
    if err != nil {
        return err
    }
    return done(c, h.API.Ads.Like(c.Request().Context(), token(c), id), "/ads/"+id.String())
}

// publishTimeout bounds how long a page waits on the activity broker.
const publishTimeout = 3 * time.Second

func (h *StandardHandler) publish(ctx context.Context, ev queue.ActivityEvent) {
    if ev.OccurredAt.IsZero() {
        ev.OccurredAt = time.Now().UTC()
    }
    ctx, cancel := context.WithTimeout(ctx, publishTimeout)
    defer cancel()
    if err := h.Events.Publish(ctx, ev); err != nil {
        h.Log.WarnContext(ctx, "publish activity event", "kind", ev.Kind, "error", err)
    }
}

func userID(c echo.Context) string { return auth.New(session.FromContext(c)).UserID() }

// nonEmpty drops blank entries of a repeated form field.
func nonEmpty(in []string) []string {
    out := make([]string, 0, len(in))
    for _, s := range in {
        if s = strings.TrimSpace(s); s != "" {
            out = append(out, s)
        }
    }
    return out
}
