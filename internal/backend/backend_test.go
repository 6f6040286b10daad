package backend

import (
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "net/http/httptest"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/mutual-help-web/internal/model"
)

type mapCache struct {
    mu sync.Mutex
    m  map[string][]byte
}

func (c *mapCache) Get(_ context.Context, k string) ([]byte, bool) {
    c.mu.Lock()
    defer c.mu.Unlock()
    v, ok := c.m[k]
    return v, ok
}

func (c *mapCache) Set(_ context.Context, k string, v []byte, _ time.Duration) {
    c.mu.Lock()
    defer c.mu.Unlock()
    c.m[k] = v
}

func (c *mapCache) Delete(_ context.Context, keys ...string) {
    c.mu.Lock()
    defer c.mu.Unlock()
    for _, k := range keys {
        delete(c.m, k)
    }
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
    t.Helper()
    srv := httptest.NewServer(h)
    t.Cleanup(srv.Close)
    return New(srv.URL, opts...)
}

func TestDoSendsBearerAndDecodes(t *testing.T) {
    id := uuid.New()
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        if r.URL.Path != "/ads/"+id.String() {
            t.Errorf("path = %s", r.URL.Path)
        }
        if got := r.Header.Get("Authorization"); got != "Bearer tok" {
            t.Errorf("authorization = %q", got)
        }
        _ = json.NewEncoder(w).Encode(model.AdData{AdID: id, Note: "bike repair", Hearts: 3})
    })

    res := c.Ads.Get(context.Background(), "tok", id)
    if !res.OK() {
        t.Fatalf("outcome = %v, err = %v", res.Outcome, res.Err)
    }
    if res.Value.AdID != id || res.Value.Hearts != 3 || res.Value.Note != "bike repair" {
        t.Fatalf("unexpected value %+v", res.Value)
    }
}

func TestDoOmitsAuthorizationWithoutToken(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        if _, ok := r.Header["Authorization"]; ok {
            t.Error("authorization header sent without token")
        }
        _, _ = io.WriteString(w, `{"ads":[],"selectedDepartment":{"departmentNumber":75,"departmentName":"Paris"}}`)
    })
    res := c.Ads.OfPerimeter(context.Background(), "", "75")
    if !res.OK() || res.Value.SelectedDepartment.DepartmentNumber != 75 {
        t.Fatalf("got %+v", res)
    }
}

func TestDoUnauthorized(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusUnauthorized)
    })
    res := c.Users.Self(context.Background(), "expired")
    if res.Outcome != Unauthorized || res.Status != http.StatusUnauthorized {
        t.Fatalf("got %v/%d", res.Outcome, res.Status)
    }
    if !errors.Is(res.Err, ErrUnauthorized) {
        t.Fatalf("err = %v", res.Err)
    }
}

func TestDoUnexpectedStatus(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        // 200 is not a success for a soft delete.
        w.WriteHeader(http.StatusOK)
    })
    res := c.Ads.SoftDelete(context.Background(), "tok", uuid.New())
    if res.Outcome != Failed || !errors.Is(res.Err, ErrUnexpectedStatus) {
        t.Fatalf("got %v, %v", res.Outcome, res.Err)
    }
}

func TestDoDecodeFailure(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        _, _ = io.WriteString(w, "<html>")
    })
    res := c.Users.Access(context.Background(), "tok")
    if res.Outcome != Failed || res.Status != http.StatusOK || res.Err == nil {
        t.Fatalf("got %+v", res)
    }
}

func TestDoTransportFailure(t *testing.T) {
    srv := httptest.NewServer(http.NotFoundHandler())
    c := New(srv.URL)
    srv.Close()
    res := c.Countries.List(context.Background(), "")
    if res.Outcome != Failed || res.Status != 0 {
        t.Fatalf("got %+v", res)
    }
}

func TestDoEmptyIgnoresBody(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        if r.Method != http.MethodPut || r.URL.Path != "/users/self/password" {
            t.Errorf("%s %s", r.Method, r.URL.Path)
        }
        var body model.PasswordChange
        if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
            t.Errorf("decode: %v", err)
        }
        if body.OldPassword != "b2xk" || body.NewPassword != "bmV3" {
            t.Errorf("passwords not encoded: %+v", body)
        }
        w.WriteHeader(http.StatusAccepted)
        _, _ = io.WriteString(w, "accepted")
    })
    if res := c.Users.ChangePassword(context.Background(), "tok", "old", "new"); !res.OK() {
        t.Fatalf("got %+v", res)
    }
}

func TestLoginEncodesCredentials(t *testing.T) {
    uid := uuid.New()
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        var cr model.Credentials
        _ = json.NewDecoder(r.Body).Decode(&cr)
        if r.URL.Path != "/users/login" || cr.Username != "YW5hQGV4YW1wbGUuY29t" {
            t.Errorf("%s %+v", r.URL.Path, cr)
        }
        _ = json.NewEncoder(w).Encode(model.Token{Token: "t0k", UserID: uid})
    })
    res := c.Users.Login(context.Background(), "ana@example.com", "Abcdef1!")
    if !res.OK() || res.Value.Token != "t0k" || res.Value.UserID != uid {
        t.Fatalf("got %+v", res)
    }
}

func TestCacheableReadsAndInvalidation(t *testing.T) {
    var hits atomic.Int32
    cache := &mapCache{m: map[string][]byte{}}
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        switch {
        case r.Method == http.MethodGet && r.URL.Path == "/countries/departments":
            hits.Add(1)
            _, _ = io.WriteString(w, `[{"country":{"country":"France"},"departments":[]}]`)
        case r.Method == http.MethodPost && r.URL.Path == "/countries/":
            w.WriteHeader(http.StatusCreated)
        default:
            w.WriteHeader(http.StatusNotFound)
        }
    }, WithCache(cache, time.Minute))

    ctx := context.Background()
    for i := 0; i < 3; i++ {
        res := c.Countries.WithDepartments(ctx, "")
        if !res.OK() || len(res.Value) != 1 || res.Value[0].Country.Country != "France" {
            t.Fatalf("read %d: %+v", i, res)
        }
    }
    if hits.Load() != 1 {
        t.Fatalf("backend hit %d times, want 1", hits.Load())
    }

    if res := c.Countries.Create(ctx, "tok", "Belgique"); !res.OK() {
        t.Fatalf("create: %+v", res)
    }
    _ = c.Countries.WithDepartments(ctx, "")
    if hits.Load() != 2 {
        t.Fatalf("cache not invalidated after create, hits = %d", hits.Load())
    }
}

func TestEntryCodec(t *testing.T) {
    body := []byte(`{"a":1}`)
    got, ok := decodeEntry(encodeEntry(body))
    if !ok || string(got) != string(body) {
        t.Fatalf("got %q, %v", got, ok)
    }
    if _, ok := decodeEntry(encodeEntry(body)[:6]); ok {
        t.Fatal("truncated entry accepted")
    }
}
