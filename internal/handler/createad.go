package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strings"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/auth"
    "github.com/iliyamo/mutual-help-web/internal/backend"
    "github.com/iliyamo/mutual-help-web/internal/model"
    "github.com/iliyamo/mutual-help-web/internal/queue"
    "github.com/iliyamo/mutual-help-web/internal/session"
)

// Steps of ad creation, in order.
const (
    StepCity    = "city"
    StepAd      = "ad"
    StepOffers  = "offers"
    StepDemands = "demands"
)

// StepError reports the step at which ad creation stopped.  The backend has
// no transaction spanning the steps, so the records of the Committed steps
// exist without the rest of the ad.
type StepError struct {
    Step      string
    Committed []string
    CityID    uuid.UUID
    AdID      uuid.UUID
    Err       error
}

func (e *StepError) Error() string {
    if len(e.Committed) == 0 {
        return fmt.Sprintf("create ad: %s: %v", e.Step, e.Err)
    }
    return fmt.Sprintf("create ad: %s (after %s): %v", e.Step, strings.Join(e.Committed, ", "), e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// createAd runs the creation steps one after the other.  Offers and
// demands are skipped when the form carried none.
func (h *StandardHandler) createAd(ctx context.Context, tok string, f model.CreateAdForm) (city model.City, ad model.Ad, err error) {
    fail := &StepError{}
    step := func(name string, res error) error {
        if res == nil {
            fail.Committed = append(fail.Committed, name)
            return nil
        }
        fail.Step, fail.Err = name, res
        fail.CityID, fail.AdID = city.ID, ad.ID
        return fail
    }

    cres := h.API.Cities.Create(ctx, tok, f.City, uuid.MustParse(f.DepartmentID))
    if err := step(StepCity, cres.Err); err != nil {
        return city, ad, err
    }
    city = cres.Value

    ares := h.API.Ads.Create(ctx, tok, model.NewAd{Note: f.Note, CityID: city.ID})
    if err := step(StepAd, ares.Err); err != nil {
        return city, ad, err
    }
    ad = ares.Value

    if offers := nonEmpty(f.Offers); len(offers) > 0 {
        if err := step(StepOffers, h.API.Offers.Create(ctx, tok, offers, ad.ID).Err); err != nil {
            return city, ad, err
        }
    }
    if demands := nonEmpty(f.Demands); len(demands) > 0 {
        if err := step(StepDemands, h.API.Demands.Create(ctx, tok, demands, ad.ID).Err); err != nil {
            return city, ad, err
        }
    }
    return city, ad, nil
}

// CreateAd handles the new ad form: city, then ad, then offers and demands.
// On success the user continues to the image form of the new ad.
func (h *StandardHandler) CreateAd(c echo.Context) error {
    var f model.CreateAdForm
    if err := bind(c, &f); err != nil {
        return err
    }
    if err := checkCSRF(c, f.CSRFToken); err != nil {
        return err
    }
    if err := c.Validate(&f); err != nil {
        return invalid("/self/new", err)
    }

    ctx := c.Request().Context()
    user := userID(c)
    city, ad, err := h.createAd(ctx, token(c), f)
    if err != nil {
        var se *StepError
        if errors.As(err, &se) && len(se.Committed) > 0 {
            h.publish(ctx, queue.ActivityEvent{
                Kind:      queue.KindAdPartial,
                UserID:    user,
                AdID:      uuidString(se.AdID),
                CityID:    uuidString(se.CityID),
                Step:      se.Step,
                Committed: se.Committed,
                Error:     se.Err.Error(),
            })
        }
        if errors.Is(err, backend.ErrUnauthorized) {
            if lerr := auth.New(session.FromContext(c)).Logout(ctx); lerr != nil {
                return lerr
            }
            return redirectTo("/login", err)
        }
        return redirectTo("/error", err)
    }

    h.publish(ctx, queue.ActivityEvent{
        Kind:   queue.KindAdCreated,
        UserID: user,
        AdID:   ad.ID.String(),
        CityID: city.ID.String(),
    })
    return c.Redirect(http.StatusSeeOther, "/self/"+ad.ID.String()+"/new/image")
}

func uuidString(id uuid.UUID) string {
    if id == uuid.Nil {
        return ""
    }
    return id.String()
}
