package handler_test

import (
    "bytes"
    "context"
    "encoding/json"
    "html"
    "io"
    "log/slog"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "net/url"
    "regexp"
    "strings"
    "sync"
    "testing"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/mutual-help-web/internal/backend"
    "github.com/iliyamo/mutual-help-web/internal/handler"
    "github.com/iliyamo/mutual-help-web/internal/model"
    "github.com/iliyamo/mutual-help-web/internal/queue"
    "github.com/iliyamo/mutual-help-web/internal/router"
    "github.com/iliyamo/mutual-help-web/internal/session"
    "github.com/iliyamo/mutual-help-web/internal/validation"
    "github.com/iliyamo/mutual-help-web/internal/view"
)

// fakeAPI stands in for the backend.  Routes are keyed "METHOD /path";
// unknown routes answer 404.
type fakeAPI struct {
    mu     sync.Mutex
    routes map[string]http.HandlerFunc
    hits   map[string]int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
    key := r.Method + " " + r.URL.Path
    f.mu.Lock()
    f.hits[key]++
    h := f.routes[key]
    f.mu.Unlock()
    if h == nil {
        w.WriteHeader(http.StatusNotFound)
        return
    }
    h(w, r)
}

func (f *fakeAPI) on(key string, h http.HandlerFunc) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.routes[key] = h
}

func (f *fakeAPI) count(key string) int {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.hits[key]
}

func reply(status int, v any) http.HandlerFunc {
    return func(w http.ResponseWriter, _ *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        w.WriteHeader(status)
        if v != nil {
            _ = json.NewEncoder(w).Encode(v)
        }
    }
}

type recordingPublisher struct {
    mu     sync.Mutex
    events []queue.ActivityEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return nil
}

type testApp struct {
    e      *echo.Echo
    api    *fakeAPI
    events *recordingPublisher
    cookie *http.Cookie
}

func newTestApp(t *testing.T) *testApp {
    t.Helper()
    api := &fakeAPI{routes: map[string]http.HandlerFunc{}, hits: map[string]int{}}
    srv := httptest.NewServer(api)
    t.Cleanup(srv.Close)

    renderer, err := view.New()
    if err != nil {
        t.Fatalf("templates: %v", err)
    }
    log := slog.New(slog.NewTextHandler(io.Discard, nil))
    client := backend.New(srv.URL, backend.WithLogger(log))
    events := &recordingPublisher{}

    e := echo.New()
    e.Renderer = renderer
    e.Validator = validation.New()
    e.HTTPErrorHandler = handler.ErrorHandler(log)
    e.Use(session.NewManager(session.NewMemoryStore(), session.Options{Secret: "test"}).Middleware())

    router.RegisterPublic(e, handler.NewPublicHandler(client))
    router.RegisterAccount(e, handler.NewAccountHandler(client, log))
    router.RegisterStandard(e, handler.NewStandardHandler(client, events, log))
    router.RegisterAdmin(e, handler.NewAdminHandler(client, log), client.Users)

    return &testApp{e: e, api: api, events: events}
}

// do sends a request with the current session cookie and keeps whatever
// session cookie comes back.
func (a *testApp) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, body)
    if contentType != "" {
        req.Header.Set(echo.HeaderContentType, contentType)
    }
    if a.cookie != nil {
        req.AddCookie(a.cookie)
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    for _, ck := range rec.Result().Cookies() {
        if ck.Name != session.DefaultCookieName {
            continue
        }
        if ck.MaxAge < 0 {
            a.cookie = nil
        } else {
            a.cookie = ck
        }
    }
    return rec
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
    return a.do(http.MethodGet, path, nil, "")
}

func (a *testApp) post(path string, form url.Values) *httptest.ResponseRecorder {
    return a.do(http.MethodPost, path, strings.NewReader(form.Encode()), echo.MIMEApplicationForm)
}

var csrfRe = regexp.MustCompile(`name="csrfToken" value="([^"]*)"`)

func csrfFrom(t *testing.T, rec *httptest.ResponseRecorder) string {
    t.Helper()
    m := csrfRe.FindStringSubmatch(rec.Body.String())
    if m == nil {
        t.Fatalf("no csrf token in page (status %d)", rec.Code)
    }
    return html.UnescapeString(m[1])
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, to string) {
    t.Helper()
    if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != to {
        t.Fatalf("expected 303 to %q, got %d %q", to, rec.Code, rec.Header().Get("Location"))
    }
}

// login signs the visitor in through the login form.
func (a *testApp) login(t *testing.T) {
    t.Helper()
    a.api.on("POST /users/login", reply(http.StatusOK, model.Token{Token: "tok", UserID: uuid.New()}))
    a.api.on("GET /users/access", reply(http.StatusOK, backend.Access{UserType: "standard"}))

    tok := csrfFrom(t, a.get("/login"))
    rec := a.post("/login", url.Values{
        "csrfToken": {tok},
        "username":  {"ana@example.com"},
        "password":  {"Abcdef1!"},
    })
    expectRedirect(t, rec, "/self/index")
}

func (a *testApp) stubIndex() {
    a.api.on("GET /users/self", reply(http.StatusOK, model.User{ID: uuid.New(), Firstname: "Ana", Lastname: "K", Email: "ana@example.com"}))
    a.api.on("GET /users/contacts/requests", reply(http.StatusOK, []model.ContactRequestFromData{}))
    a.api.on("GET /users/contacts", reply(http.StatusOK, []model.ContactInfoData{}))
}

func TestLoginThenProfile(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    a.stubIndex()

    rec := a.get("/self/index")
    if rec.Code != http.StatusOK {
        t.Fatalf("profile page: %d %q", rec.Code, rec.Header().Get("Location"))
    }
    if !strings.Contains(rec.Body.String(), "ana@example.com") {
        t.Fatalf("profile page does not show the user")
    }
    if a.api.count("GET /ads/self") != 1 {
        t.Fatalf("own ad not requested")
    }
}

func TestLoginFailureStaysOnLogin(t *testing.T) {
    a := newTestApp(t)
    a.api.on("POST /users/login", reply(http.StatusUnauthorized, nil))

    tok := csrfFrom(t, a.get("/login"))
    rec := a.post("/login", url.Values{"csrfToken": {tok}, "username": {"x"}, "password": {"y"}})
    expectRedirect(t, rec, "/login?error")

    expectRedirect(t, a.get("/self/index"), "/login")
}

func TestProtectedRoutesRedirectAnonymous(t *testing.T) {
    a := newTestApp(t)
    id := uuid.NewString()
    for _, path := range []string{
        "/self/index",
        "/self/new",
        "/self/edit",
        "/self/profile",
        "/self/password",
        "/self/" + id + "/new/image",
        "/" + id + "/edit/image",
        "/" + id + "/ads/contact",
        "/admin/index",
        "/admin/countries/all",
    } {
        t.Run(path, func(t *testing.T) {
            expectRedirect(t, a.get(path), "/login")
        })
    }
    expectRedirect(t, a.post("/ads/"+id, url.Values{}), "/login")
    if n := len(a.api.hits); n != 0 {
        t.Fatalf("backend called %d times for anonymous visitor", n)
    }
}

func TestUnauthorizedLogsOut(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    a.stubIndex()
    a.api.on("GET /users/self", reply(http.StatusUnauthorized, nil))

    expectRedirect(t, a.get("/self/index"), "/login")
    if a.cookie != nil {
        t.Fatalf("session cookie kept after 401")
    }
    expectRedirect(t, a.get("/self/index"), "/login")
    if n := a.api.count("GET /users/self"); n != 1 {
        t.Fatalf("backend called %d times, want 1", n)
    }
}

func TestCSRFTokenAcceptedOnce(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    id := uuid.New()
    a.api.on("GET /ads/"+id.String(), reply(http.StatusOK, model.AdData{AdID: id, Note: "hello"}))
    a.api.on("POST /ads/"+id.String()+"/like", reply(http.StatusOK, nil))

    tok := csrfFrom(t, a.get("/ads/"+id.String()))
    form := url.Values{"csrfToken": {tok}}

    expectRedirect(t, a.post("/ads/"+id.String(), form), "/ads/"+id.String())
    expectRedirect(t, a.post("/ads/"+id.String(), form), "/error")
    if n := a.api.count("POST /ads/" + id.String() + "/like"); n != 1 {
        t.Fatalf("like sent %d times", n)
    }
}

func TestLogoutRequiresCSRFToken(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    a.stubIndex()

    expectRedirect(t, a.post("/logout", url.Values{}), "/error")
    if rec := a.get("/self/index"); rec.Code != http.StatusOK {
        t.Fatalf("logged out by a request without token: %d", rec.Code)
    }

    // Pages without a form of their own still carry the logout token.
    tok := csrfFrom(t, a.get("/error"))
    expectRedirect(t, a.post("/logout", url.Values{"csrfToken": {tok}}), "/")
    if a.cookie != nil {
        t.Fatalf("session cookie kept after logout")
    }
    expectRedirect(t, a.get("/self/index"), "/login")
}

func TestMissingCSRFTokenRejected(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    id := uuid.NewString()
    expectRedirect(t, a.post("/ads/"+id+"/contact", url.Values{}), "/error")
    if n := a.api.count("POST /users/" + id + "/request/send"); n != 0 {
        t.Fatalf("contact request sent without token")
    }
}

func TestDepartmentPreferenceSticks(t *testing.T) {
    a := newTestApp(t)
    a.api.on("GET /ads/all/75", reply(http.StatusOK, model.AdsOfPerimeterData{}))
    a.api.on("GET /ads/all/13", reply(http.StatusOK, model.AdsOfPerimeterData{}))

    expectRedirect(t, a.get("/ads"), "/")

    for _, path := range []string{"/ads?department=75", "/ads", "/ads?offers=false"} {
        if rec := a.get(path); rec.Code != http.StatusOK {
            t.Fatalf("%s: %d", path, rec.Code)
        }
    }
    if n := a.api.count("GET /ads/all/75"); n != 3 {
        t.Fatalf("department 75 listed %d times, want 3", n)
    }

    a.get("/ads?department=13")
    a.get("/ads")
    if n := a.api.count("GET /ads/all/13"); n != 2 {
        t.Fatalf("department 13 listed %d times, want 2", n)
    }
}

func TestDepartmentPreferenceSurvivesLogin(t *testing.T) {
    a := newTestApp(t)
    a.api.on("GET /ads/all/75", reply(http.StatusOK, model.AdsOfPerimeterData{}))

    a.get("/ads?department=75")
    a.login(t)
    if rec := a.get("/ads"); rec.Code != http.StatusOK {
        t.Fatalf("ads after login: %d %q", rec.Code, rec.Header().Get("Location"))
    }
    if n := a.api.count("GET /ads/all/75"); n != 2 {
        t.Fatalf("department 75 listed %d times, want 2", n)
    }
}

func newAdForm(t *testing.T, a *testApp, city string) url.Values {
    t.Helper()
    a.api.on("GET /departments/", reply(http.StatusOK, []model.Department{}))
    tok := csrfFrom(t, a.get("/self/new"))
    return url.Values{
        "csrfToken":    {tok},
        "note":         {"Jardinage le samedi"},
        "city":         {city},
        "departmentID": {uuid.NewString()},
        "offers":       {"tonte", ""},
        "demands":      {""},
    }
}

func TestCreateAdStopsAtFailedStep(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    cityID := uuid.New()
    a.api.on("POST /cities/", reply(http.StatusOK, model.City{ID: cityID, City: "Paris"}))
    a.api.on("POST /ads/create", reply(http.StatusInternalServerError, nil))
    a.api.on("POST /offers/create", reply(http.StatusOK, nil))
    a.api.on("POST /demands/create", reply(http.StatusOK, nil))

    rec := a.post("/self/new", newAdForm(t, a, "Paris"))
    expectRedirect(t, rec, "/error")

    if a.api.count("POST /cities/") != 1 || a.api.count("POST /ads/create") != 1 {
        t.Fatalf("city and ad steps not attempted once each")
    }
    if a.api.count("POST /offers/create")+a.api.count("POST /demands/create") != 0 {
        t.Fatalf("offers or demands created after failed ad step")
    }
    if len(a.events.events) != 1 {
        t.Fatalf("expected one event, got %d", len(a.events.events))
    }
    ev := a.events.events[0]
    if ev.Kind != queue.KindAdPartial || ev.Step != handler.StepAd || ev.CityID != cityID.String() {
        t.Fatalf("unexpected event %+v", ev)
    }
    if len(ev.Committed) != 1 || ev.Committed[0] != handler.StepCity {
        t.Fatalf("committed steps %v", ev.Committed)
    }
}

func TestCreateAdSkipsEmptySteps(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    adID := uuid.New()
    a.api.on("POST /cities/", reply(http.StatusOK, model.City{ID: uuid.New(), City: "Lyon"}))
    a.api.on("POST /ads/create", reply(http.StatusOK, model.Ad{ID: adID}))
    a.api.on("POST /offers/create", func(w http.ResponseWriter, r *http.Request) {
        var body model.DemandOfferData
        if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Strings) != 1 || body.AdID != adID {
            w.WriteHeader(http.StatusBadRequest)
            return
        }
        w.WriteHeader(http.StatusOK)
    })

    rec := a.post("/self/new", newAdForm(t, a, "Lyon"))
    expectRedirect(t, rec, "/self/"+adID.String()+"/new/image")

    if a.api.count("POST /offers/create") != 1 {
        t.Fatalf("offers not created")
    }
    if a.api.count("POST /demands/create") != 0 {
        t.Fatalf("empty demands sent")
    }
    if len(a.events.events) != 1 || a.events.events[0].Kind != queue.KindAdCreated {
        t.Fatalf("events %+v", a.events.events)
    }
}

func TestCreateAdUnauthorizedLogsOut(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    a.api.on("POST /cities/", reply(http.StatusUnauthorized, nil))

    expectRedirect(t, a.post("/self/new", newAdForm(t, a, "Paris")), "/login")
    if a.cookie != nil {
        t.Fatalf("session kept after 401")
    }
    if len(a.events.events) != 0 {
        t.Fatalf("event published though nothing was committed")
    }
}

func TestCreateAdValidationFailure(t *testing.T) {
    a := newTestApp(t)
    a.login(t)

    rec := a.post("/self/new", newAdForm(t, a, ""))
    loc := rec.Header().Get("Location")
    if rec.Code != http.StatusSeeOther || !strings.HasPrefix(loc, "/self/new?message=") {
        t.Fatalf("got %d %q", rec.Code, loc)
    }
    if a.api.count("POST /cities/") != 0 {
        t.Fatalf("backend called with invalid form")
    }
}

func TestOwnAdMissingShowsCreateLink(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    a.stubIndex()
    a.api.on("GET /ads/self", reply(http.StatusNotFound, nil))

    rec := a.get("/self/index")
    if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `href="/self/new"`) {
        t.Fatalf("profile without ad: %d", rec.Code)
    }
}

func TestUploadRejectsEmptyImage(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    id := uuid.NewString()
    tok := csrfFrom(t, a.get("/self/"+id+"/new/image"))

    var buf bytes.Buffer
    mw := multipart.NewWriter(&buf)
    _ = mw.WriteField("csrfToken", tok)
    if _, err := mw.CreateFormFile("image", "empty.png"); err != nil {
        t.Fatal(err)
    }
    _ = mw.Close()

    rec := a.do(http.MethodPost, "/"+id+"/image", &buf, mw.FormDataContentType())
    loc := rec.Header().Get("Location")
    if rec.Code != http.StatusSeeOther || !strings.HasPrefix(loc, "/self/"+id+"/new/image?message=") {
        t.Fatalf("got %d %q", rec.Code, loc)
    }
    if a.api.count("POST /aws/image") != 0 {
        t.Fatalf("empty image uploaded")
    }
}

func TestMalformedIDIsNotFound(t *testing.T) {
    a := newTestApp(t)
    if rec := a.get("/ads/not-a-uuid"); rec.Code != http.StatusNotFound {
        t.Fatalf("got %d", rec.Code)
    }
}

func TestAdminRequiresAdminRole(t *testing.T) {
    a := newTestApp(t)
    a.login(t)
    expectRedirect(t, a.get("/admin/index"), "/error")

    a.api.on("GET /users/access", reply(http.StatusOK, backend.Access{UserType: "admin"}))
    a.api.on("GET /users/all", reply(http.StatusOK, []model.User{{ID: uuid.New(), Email: "bob@example.com"}}))
    a.api.on("GET /ads/all", reply(http.StatusOK, []model.AdWithUser{}))
    rec := a.get("/admin/index")
    if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "bob@example.com") {
        t.Fatalf("admin index: %d", rec.Code)
    }
}
