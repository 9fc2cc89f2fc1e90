package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/AI2HU/bulletcalc/internal/config"
	"github.com/AI2HU/bulletcalc/internal/db/memdb"
	"github.com/AI2HU/bulletcalc/internal/logger"
	"github.com/AI2HU/bulletcalc/internal/models"
	"github.com/AI2HU/bulletcalc/internal/services"
)

type testEnv struct {
	server *Server
	sql    *memdb.SQL
	nosql  *memdb.NoSQL
}

func newTestEnv(t *testing.T, mongoErr error, mutate func(*config.Config), opts ...Option) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Init(logger.ERROR, io.Discard)
	t.Cleanup(func() { logger.Init(logger.INFO, nil) })

	cfg := config.DefaultConfig(t.TempDir())
	cfg.RateLimit.RPS = 0
	if mutate != nil {
		mutate(cfg)
	}

	database, sql, nosql := memdb.NewDatabase(context.Background(), mongoErr)
	auth := services.NewAuthService(sql, services.DefaultPasswordValidators(cfg.PasswordMinLength),
		cfg.Session.MaxAge, services.WithBcryptCost(bcrypt.MinCost))

	base := []Option{WithLogger(zaptest.NewLogger(t)), WithAuthService(auth), WithVersion("test")}
	server, err := NewServer(cfg, database, append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return &testEnv{server: server, sql: sql, nosql: nosql}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, cookies []*http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type calcPage struct {
	Count    int64                 `json:"count"`
	Next     *string               `json:"next"`
	Previous *string               `json:"previous"`
	Results  []*models.Calculation `json:"results"`
}

func rifleBody() map[string]any {
	return map[string]any{
		"label":                 "308 match",
		"bullet_weight_gr":      168,
		"ballistic_coefficient": 0.462,
		"muzzle_velocity_ms":    800,
		"max_range_m":           500,
	}
}

func TestNewServerRejectsUnknownMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.DefaultConfig(t.TempDir())
	cfg.Middleware = append(cfg.Middleware, "gzip")
	database, _, _ := memdb.NewDatabase(context.Background(), nil)

	if _, err := NewServer(cfg, database, WithLogger(zaptest.NewLogger(t))); err == nil {
		t.Fatal("expected error for unknown middleware")
	}
}

func TestNewServerRejectsBadCORSOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.DefaultConfig(t.TempDir())
	cfg.CORS.AllowAllOrigins = false
	cfg.CORS.AllowedOrigins = []string{"example.com"}
	database, _, _ := memdb.NewDatabase(context.Background(), nil)

	if _, err := NewServer(cfg, database, WithLogger(zaptest.NewLogger(t))); err == nil {
		t.Fatal("expected error for an origin without a scheme")
	}
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name      string
		mongoErr  error
		status    string
		connected bool
	}{
		{"mongo connected", nil, "healthy", true},
		{"mongo unreachable", memdb.ErrUnreachable, "degraded", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.mongoErr, nil)
			rec := env.do(t, http.MethodGet, "/api/v1/health", nil, nil, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			resp := decode[models.HealthResponse](t, rec)
			if resp.Status != tt.status || resp.MongoDBConnected != tt.connected {
				t.Errorf("got %+v, want status %s connected %v", resp, tt.status, tt.connected)
			}
			if resp.Version != "test" {
				t.Errorf("version = %q", resp.Version)
			}
		})
	}
}

func TestSettingsReportsRESTDefaults(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/settings", nil, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[envelope[models.SettingsResponse]](t, rec).Data
	if resp.REST["page_size"] != float64(20) {
		t.Errorf("page_size = %v, want 20", resp.REST["page_size"])
	}
	if resp.CORS["allow_all_origins"] != true || resp.CORS["allow_credentials"] != true {
		t.Errorf("cors = %v", resp.CORS)
	}
	if resp.Databases["default"] != "sqlite" {
		t.Errorf("databases = %v", resp.Databases)
	}
}

func TestCalculateSavesOnlyWhenMongoConnected(t *testing.T) {
	tests := []struct {
		name     string
		mongoErr error
		code     int
		saved    bool
	}{
		{"connected", nil, http.StatusCreated, true},
		{"unreachable", memdb.ErrUnreachable, http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.mongoErr, nil)
			rec := env.do(t, http.MethodPost, "/api/v1/calculate", rifleBody(), nil, nil)
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body.String())
			}
			resp := decode[envelope[models.CalculationResponse]](t, rec).Data
			if resp.Saved != tt.saved {
				t.Errorf("saved = %v, want %v", resp.Saved, tt.saved)
			}
			if resp.Result == nil || len(resp.Result.Points) == 0 {
				t.Fatal("expected trajectory points")
			}
		})
	}
}

func TestCalculateShortRangeDefaultsStep(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	body := rifleBody()
	body["max_range_m"] = 50
	body["zero_range_m"] = 25
	rec := env.do(t, http.MethodPost, "/api/v1/calculate", body, nil, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	resp := decode[envelope[models.CalculationResponse]](t, rec).Data
	if resp.Input.StepM != 50 {
		t.Errorf("step = %v, want the 50 m max range", resp.Input.StepM)
	}
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/calculate", map[string]any{"bullet_weight_gr": 168}, nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing fields: status = %d, want 400", rec.Code)
	}

	body := rifleBody()
	body["drag_model"] = "G9"
	rec = env.do(t, http.MethodPost, "/api/v1/calculate", body, nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown drag model: status = %d, want 400", rec.Code)
	}
}

func TestListCalculationsPagination(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		calc := &models.Calculation{ID: fmt.Sprintf("calc-%02d", i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := env.nosql.CreateCalculation(context.Background(), calc); err != nil {
			t.Fatal(err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/v1/calculations", nil, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("page 1 status = %d", rec.Code)
	}
	first := decode[calcPage](t, rec)
	if first.Count != 25 || len(first.Results) != 20 {
		t.Fatalf("page 1: count %d results %d", first.Count, len(first.Results))
	}
	if first.Previous != nil {
		t.Errorf("page 1 previous = %q, want null", *first.Previous)
	}
	if first.Next == nil || *first.Next != "http://example.com/api/v1/calculations?page=2" {
		t.Errorf("page 1 next = %v", first.Next)
	}
	if first.Results[0].ID != "calc-24" {
		t.Errorf("newest first: got %s", first.Results[0].ID)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/calculations?page=2", nil, nil, nil)
	second := decode[calcPage](t, rec)
	if len(second.Results) != 5 || second.Next != nil {
		t.Errorf("page 2: results %d next %v", len(second.Results), second.Next)
	}
	if second.Previous == nil || *second.Previous != "http://example.com/api/v1/calculations" {
		t.Errorf("page 2 previous = %v", second.Previous)
	}

	for _, target := range []string{"/api/v1/calculations?page=3", "/api/v1/calculations?page=abc", "/api/v1/calculations?page=0"} {
		if rec := env.do(t, http.MethodGet, target, nil, nil, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, rec.Code)
		}
	}
}

func TestDocumentRoutesUnavailableWithoutMongo(t *testing.T) {
	env := newTestEnv(t, memdb.ErrUnreachable, nil)

	for _, target := range []string{"/api/v1/calculations", "/api/v1/profiles", "/api/v1/calculations/abc"} {
		rec := env.do(t, http.MethodGet, target, nil, nil, nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", target, rec.Code)
		}
	}
}

func TestCalculationNotFound(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/calculations/missing", nil, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if got := decode[models.ErrorResponse](t, rec); got.Detail != "Not found." {
		t.Errorf("detail = %q", got.Detail)
	}
}

func TestProfileLifecycle(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/profiles", map[string]any{
		"name":                  "Match <b>168</b>",
		"caliber":               ".308 Win",
		"bullet_weight_gr":      168,
		"ballistic_coefficient": 0.462,
		"muzzle_velocity_ms":    800,
	}, nil, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	profile := decode[envelope[models.AmmoProfile]](t, rec).Data
	if profile.Name != "Match 168" {
		t.Errorf("name = %q, want markup stripped", profile.Name)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/profiles?search=match", nil, nil, nil)
	if got := decode[models.PaginatedResponse](t, rec); got.Count != 1 {
		t.Errorf("search count = %d, want 1", got.Count)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/profiles/"+profile.ID, map[string]any{"muzzle_velocity_ms": 810}, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/v1/profiles/"+profile.ID+"/calculate", map[string]any{"max_range_m": 300}, nil, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("calculate status = %d: %s", rec.Code, rec.Body.String())
	}
	calc := decode[envelope[models.CalculationResponse]](t, rec).Data
	if calc.ProfileID != profile.ID || calc.Input.MuzzleVelocityMS != 810 {
		t.Errorf("calculation = %+v", calc)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/profiles/"+profile.ID, nil, nil, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/profiles/"+profile.ID, nil, nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func TestCORSAllowsAnyOriginWithCredentials(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	origin := "http://frontend.test:3000"

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil, nil, map[string]string{"Origin": origin})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
		t.Errorf("allow origin = %q, want %q", got, origin)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("allow credentials = %q", got)
	}

	rec = env.do(t, http.MethodOptions, "/api/v1/calculate", nil, nil, map[string]string{
		"Origin":                        origin,
		"Access-Control-Request-Method": http.MethodPost,
	})
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/health", nil, nil, map[string]string{requestIDHeader: "abc-123"})

	want := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "same-origin",
		requestIDHeader:          "abc-123",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestAllowedHosts(t *testing.T) {
	env := newTestEnv(t, nil, func(cfg *config.Config) {
		cfg.Debug = false
		cfg.AllowedHosts = []string{"api.example.com", ".example.org"}
	})

	tests := []struct {
		host string
		code int
	}{
		{"api.example.com", http.StatusOK},
		{"api.example.com:8000", http.StatusOK},
		{"example.org", http.StatusOK},
		{"shots.example.org", http.StatusOK},
		{"evil.test", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			env.server.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
		})
	}
}

func TestHostAllowed(t *testing.T) {
	tests := []struct {
		host    string
		allowed []string
		debug   bool
		want    bool
	}{
		{"anything", []string{"*"}, false, true},
		{"localhost", nil, true, true},
		{"localhost", nil, false, false},
		{"API.Example.com.", []string{"api.example.com"}, false, true},
		{"badexample.org", []string{".example.org"}, false, false},
	}

	for _, tt := range tests {
		if got := hostAllowed(tt.host, tt.allowed, tt.debug); got != tt.want {
			t.Errorf("hostAllowed(%q, %v, %v) = %v, want %v", tt.host, tt.allowed, tt.debug, got, tt.want)
		}
	}
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSessionLoginFlow(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	creds := map[string]any{"username": "longshot", "email": "deadeye@example.com", "password": "Wind-Call-Holdover"}

	if rec := env.do(t, http.MethodPost, "/api/v1/auth/register", creds, nil, nil); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/auth/register", creds, nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate register status = %d, want 400", rec.Code)
	}

	long := map[string]any{"username": "deadeye", "password": strings.Repeat("Wind-Call-Holdover", 5)}
	if rec := env.do(t, http.MethodPost, "/api/v1/auth/register", long, nil, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("over-long password register status = %d, want 400: %s", rec.Code, rec.Body.String())
	}

	bad := map[string]any{"username": "longshot", "password": "wrong-password"}
	if rec := env.do(t, http.MethodPost, "/api/v1/auth/login", bad, nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, nil, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous me status = %d, want 401", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", creds, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	session := cookieByName(cookies, env.server.cfg.Session.CookieName)
	csrf := cookieByName(cookies, csrfCookie)
	if session == nil || csrf == nil {
		t.Fatalf("login cookies = %v", cookies)
	}
	if !session.HttpOnly || csrf.HttpOnly {
		t.Errorf("session HttpOnly = %v, csrf HttpOnly = %v", session.HttpOnly, csrf.HttpOnly)
	}
	jar := []*http.Cookie{session, csrf}

	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", nil, jar, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	if me := decode[envelope[models.User]](t, rec).Data; me.Username != "longshot" {
		t.Errorf("me = %+v", me)
	}

	// Calculations made while logged in belong to the user.
	rec = env.do(t, http.MethodPost, "/api/v1/calculate", rifleBody(), jar, map[string]string{csrfHeader: csrf.Value})
	if rec.Code != http.StatusCreated {
		t.Fatalf("calculate status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/api/v1/calculations?mine=true", nil, jar, nil)
	if got := decode[calcPage](t, rec); got.Count != 1 {
		t.Errorf("mine count = %d, want 1", got.Count)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, jar, nil); rec.Code != http.StatusForbidden {
		t.Errorf("logout without csrf header = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, jar, map[string]string{csrfHeader: "forged"}); rec.Code != http.StatusForbidden {
		t.Errorf("logout with forged csrf header = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/auth/logout", nil, jar, map[string]string{csrfHeader: csrf.Value}); rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}

	if rec := env.do(t, http.MethodGet, "/api/v1/auth/me", nil, jar, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", rec.Code)
	}
}

func TestMineRequiresLogin(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	for _, target := range []string{"/api/v1/calculations?mine=true", "/api/v1/profiles?mine=1"} {
		if rec := env.do(t, http.MethodGet, target, nil, nil, nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", target, rec.Code)
		}
	}
}

func TestCSRFTokenEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := env.do(t, http.MethodGet, "/api/v1/auth/csrf", nil, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	token := decode[envelope[map[string]string]](t, rec).Data["csrf_token"]
	cookie := cookieByName(rec.Result().Cookies(), csrfCookie)
	if token == "" || cookie == nil || cookie.Value != token {
		t.Errorf("token %q, cookie %v", token, cookie)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, nil, nil, WithRateLimiter(NewTokenBucketLimiter(0.001, 1)))

	if rec := env.do(t, http.MethodGet, "/api/v1/health", nil, nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("first request = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/health", nil, nil, nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	if rec := env.do(t, http.MethodGet, "/api/v1/nope", nil, nil, nil); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodPatch, "/api/v1/calculate", nil, nil, nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
