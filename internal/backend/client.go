// Package backend relays page actions to the mutual help REST API.  Every
// call goes through Do, which attaches the visitor's bearer token, sends
// one request and maps the status code to a Result.
package backend

import (
    "context"
    "io"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/trace"
)

// Client talks to one backend API instance.  It is safe for concurrent use.
type Client struct {
    baseURL  string
    http     *http.Client
    cache    Cache
    cacheTTL time.Duration
    tracer   trace.Tracer
    log      *slog.Logger

    Ads         *AdService
    Cities      *CityService
    Contacts    *ContactService
    Countries   *CountryService
    Departments *DepartmentService
    Demands     *DemandService
    Offers      *OfferService
    Users       *UserService
    Images      *ImageService
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithCache enables the read cache for cacheable calls.
func WithCache(cache Cache, ttl time.Duration) Option {
    return func(c *Client) { c.cache = cache; c.cacheTTL = ttl }
}

func WithTracer(t trace.Tracer) Option { return func(c *Client) { c.tracer = t } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// New returns a Client for the API rooted at baseURL, e.g.
// "http://localhost:9090".
func New(baseURL string, opts ...Option) *Client {
    c := &Client{
        baseURL: strings.TrimRight(baseURL, "/"),
        http:    &http.Client{Timeout: 10 * time.Second},
        tracer:  otel.Tracer("github.com/iliyamo/mutual-help-web/internal/backend"),
        log:     slog.Default(),
    }
    for _, o := range opts {
        o(c)
    }
    c.Ads = &AdService{c}
    c.Cities = &CityService{c}
    c.Contacts = &ContactService{c}
    c.Countries = &CountryService{c}
    c.Departments = &DepartmentService{c}
    c.Demands = &DemandService{c}
    c.Offers = &OfferService{c}
    c.Users = &UserService{c}
    c.Images = &ImageService{c}
    return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) url(resource, ending string) string {
    return c.baseURL + "/" + resource + "/" + ending
}

// Ping reports whether the API answers at all.  Any HTTP response counts,
// whatever its status.
func (c *Client) Ping(ctx context.Context) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
    if err != nil {
        return err
    }
    resp, err := c.http.Do(req)
    if err != nil {
        return err
    }
    _, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
    return resp.Body.Close()
}
