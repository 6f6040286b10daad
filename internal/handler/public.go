package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/auth"
    "github.com/iliyamo/mutual-help-web/internal/backend"
)

// CookiesAcceptedCookie hides the cookie banner once set.
const CookiesAcceptedCookie = "cookies-accepted"

// PublicHandler serves the pages anyone can see.
type PublicHandler struct {
    API *backend.Client
}

func NewPublicHandler(api *backend.Client) *PublicHandler {
    if api == nil {
        panic("nil backend client passed to NewPublicHandler")
    }
    return &PublicHandler{API: api}
}

// Landing lists the countries and their departments to pick from.
func (h *PublicHandler) Landing(c echo.Context) error {
    countries, err := unwrap(c, h.API.Countries.WithDepartments(c.Request().Context(), token(c)))
    if err != nil {
        return err
    }
    _, cerr := c.Cookie(CookiesAcceptedCookie)
    m, err := page(c, "Home")
    if err != nil {
        return err
    }
    m["countries"] = countries
    m["showCookieMessage"] = cerr != nil
    return c.Render(http.StatusOK, "landing", m)
}

// AcceptCookies remembers the visitor dismissed the cookie banner.
func (h *PublicHandler) AcceptCookies(c echo.Context) error {
    c.SetCookie(&http.Cookie{
        Name:     CookiesAcceptedCookie,
        Value:    "true",
        Path:     "/",
        Expires:  time.Now().AddDate(1, 0, 0),
        HttpOnly: true,
        SameSite: http.SameSiteLaxMode,
    })
    return c.Redirect(http.StatusSeeOther, "/")
}

// Ads lists the ads of a department and its perimeter.  The department
// comes from ?department and becomes the visitor's preference; without it
// the stored preference is used.  ?offers=false lists demands instead of
// offers.
func (h *PublicHandler) Ads(c echo.Context) error {
    s, err := sessionOf(c)
    if err != nil {
        return err
    }
    ctx := c.Request().Context()

    department := c.QueryParam("department")
    if department == "" {
        department = auth.Department(s)
        if department == "" {
            return c.Redirect(http.StatusSeeOther, "/")
        }
    } else if err := auth.RememberDepartment(ctx, s, department); err != nil {
        return err
    }

    showOffers := true
    if raw := c.QueryParam("offers"); raw != "" {
        b, err := strconv.ParseBool(raw)
        if err != nil {
            return errBadRequest
        }
        showOffers = b
    }

    data, err := unwrap(c, h.API.Ads.OfPerimeter(ctx, token(c), department))
    if err != nil {
        return err
    }
    title := "Offres"
    if !showOffers {
        title = "Demandes"
    }
    m, err := page(c, title)
    if err != nil {
        return err
    }
    m["data"] = data
    m["showOffer"] = showOffers
    return c.Render(http.StatusOK, "adList", m)
}

// Ad shows one ad.  The token issued here guards the heart button.
func (h *PublicHandler) Ad(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return err
    }
    m, err := formPage(c, "Ad")
    if err != nil {
        return err
    }
    ad, err := unwrap(c, h.API.Ads.Get(c.Request().Context(), token(c), id))
    if err != nil {
        return err
    }
    m["ad"] = ad
    return c.Render(http.StatusOK, "offer", m)
}

// Images shows the images of an ad.
func (h *PublicHandler) Images(c echo.Context) error {
    id, err := paramID(c, "id")
    if err != nil {
        return err
    }
    images, err := unwrap(c, h.API.Images.ForAd(c.Request().Context(), token(c), id))
    if err != nil {
        return err
    }
    m, err := page(c, "Images")
    if err != nil {
        return err
    }
    m["images"] = images
    m["adID"] = id
    return c.Render(http.StatusOK, "images", m)
}

// Error renders the generic error page.
func (h *PublicHandler) Error(c echo.Context) error {
    m, err := page(c, "Error")
    if err != nil {
        return err
    }
    return c.Render(http.StatusOK, "error", m)
}
