package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/daily-tiers/internal/config"
	"github.com/tbourn/daily-tiers/internal/domain"
	"github.com/tbourn/daily-tiers/internal/http/handlers"
	"github.com/tbourn/daily-tiers/internal/scheduler"
	"github.com/tbourn/daily-tiers/internal/search"
	"github.com/tbourn/daily-tiers/internal/services"
)

// --- tiny fakes to satisfy the handler contracts ---

type stubSel struct{}

func (stubSel) Today() time.Time { return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC) }
func (stubSel) ParseDate(v string) (time.Time, error) {
	return time.Parse(services.DateLayout, v)
}
func (stubSel) ItemForDate(context.Context, time.Time) (domain.Item, error) {
	return domain.Item{ID: 1, PrimaryTitle: strings.Repeat("title ", 200)}, nil
}
func (stubSel) PickFresh(context.Context) (domain.Item, time.Time, error) {
	return domain.Item{ID: 1}, time.Now(), nil
}
func (stubSel) CurrentPick(context.Context) (*domain.Item, *time.Time, error) { return nil, nil, nil }

type stubContent struct{}

func (stubContent) Summary(context.Context, int) (domain.Content, error) {
	return domain.Content{}, services.ErrPendingReview
}
func (stubContent) ListPending() []services.PendingItem { return []services.PendingItem{} }
func (stubContent) Approve(_ context.Context, id int, reviewer string) (domain.CacheEntry, error) {
	return domain.CacheEntry{ItemID: id, Status: domain.StatusApproved, ReviewedBy: reviewer}, nil
}
func (stubContent) ApproveBatch(context.Context, []int, string) services.BatchResult {
	return services.BatchResult{}
}
func (stubContent) Reject(context.Context, int, string, string) error { return nil }
func (stubContent) Inspect() services.CacheReport                    { return services.CacheReport{} }
func (stubContent) Clear(context.Context, []int) (int, error)        { return 0, nil }

type stubFinder struct{}

func (stubFinder) Search(string, int) []search.Hit { return nil }

type stubPregen struct{}

func (stubPregen) Trigger(int) error                    { return nil }
func (stubPregen) Running() bool                        { return false }
func (stubPregen) LastReport() (scheduler.Report, bool) { return scheduler.Report{}, false }

func baseConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		RateRPS:     100,
		RateBurst:   10,
		CORS:        config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, handlers.New(stubSel{}, stubFinder{}, stubContent{}, stubPregen{}), cfg)
	return r
}

func serve(r http.Handler, method, path string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(baseConfig())

	// /health works
	w := serve(r, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /ready with no checks is ready
	if w := serve(r, http.MethodGet, "/ready"); w.Code != http.StatusOK {
		t.Fatalf("GET /ready = %d", w.Code)
	}

	// /metrics is wired
	w = serve(r, http.MethodGet, "/metrics")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	if w := serve(r, http.MethodGet, "/nope"); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	if w := serve(r, http.MethodPost, "/health"); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := baseConfig()
	cfg.APIBasePath = "/api/v2"
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newRouter(cfg)

	w := serve(r, http.MethodGet, "/health", "Origin", "http://example.com")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	if w := serve(r, http.MethodGet, "/api/v2/items/today"); w.Code != http.StatusOK {
		t.Fatalf("items under custom base path = %d", w.Code)
	}
}

func TestRegisterRoutes_ItemRoutes(t *testing.T) {
	r := newRouter(baseConfig())

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/v1/items/today", http.StatusOK},
		{http.MethodGet, "/api/v1/items/date?date=2025-01-01", http.StatusOK},
		{http.MethodGet, "/api/v1/items/search?q=war", http.StatusOK},
		{http.MethodGet, "/api/v1/items/3/summary", http.StatusAccepted},
		{http.MethodPost, "/api/v1/items/pick", http.StatusOK},
		{http.MethodGet, "/api/v1/items/current", http.StatusOK},
	}
	for _, tc := range cases {
		if w := serve(r, tc.method, tc.path); w.Code != tc.want {
			t.Fatalf("%s %s = %d; want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}
}

func TestRegisterRoutes_AdminAuth(t *testing.T) {
	cfg := baseConfig()
	cfg.AdminToken = "s3cret"
	r := newRouter(cfg)

	if w := serve(r, http.MethodGet, "/api/v1/admin/pending"); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token = %d; want 401", w.Code)
	}
	if w := serve(r, http.MethodGet, "/api/v1/admin/pending", "X-Admin-Token", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token = %d; want 401", w.Code)
	}

	w := serve(r, http.MethodGet, "/api/v1/admin/pending", "X-Admin-Token", "s3cret")
	if w.Code != http.StatusOK {
		t.Fatalf("valid token = %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("admin responses must not be cached, got %q", cc)
	}

	// Public routes are not guarded.
	if w := serve(r, http.MethodGet, "/api/v1/items/today"); w.Code != http.StatusOK {
		t.Fatalf("public route = %d", w.Code)
	}
}

func TestRegisterRoutes_Gzip(t *testing.T) {
	r := newRouter(baseConfig())

	w := serve(r, http.MethodGet, "/api/v1/items/today", "Accept-Encoding", "gzip")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", got)
	}

	// Ops endpoints are excluded.
	w = serve(r, http.MethodGet, "/health", "Accept-Encoding", "gzip")
	if got := w.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("health must not be compressed, got %q", got)
	}
}

func TestRegisterRoutes_Swagger(t *testing.T) {
	if w := serve(newRouter(baseConfig()), http.MethodGet, "/swagger/doc.json"); w.Code != http.StatusNotFound {
		t.Fatalf("swagger disabled = %d; want 404", w.Code)
	}

	cfg := baseConfig()
	cfg.SwaggerEnabled = true
	w := serve(newRouter(cfg), http.MethodGet, "/swagger/doc.json")
	if w.Code != http.StatusOK {
		t.Fatalf("swagger enabled = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "/api/v1") {
		t.Fatalf("doc.json should carry the base path, got %s", w.Body.String())
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := serve(r, http.MethodGet, path)
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

// Smoke test that a request traverses ratelimit + otel + security headers pipeline.
func TestPipeline_Smoke(t *testing.T) {
	cfg := baseConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour} // enabled (but only set on https)
	r := newRouter(cfg)

	w := serve(r, http.MethodGet, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("pipeline GET /health = %d", w.Code)
	}
	// RequestID header should be present (from RequestID middleware)
	if rid := w.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected security headers, got %q", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Fatalf("HSTS must not be sent over plain http, got %q", got)
	}
}

func TestPipeline_RateLimited(t *testing.T) {
	cfg := baseConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	r := newRouter(cfg)

	if w := serve(r, http.MethodGet, "/api/v1/items/today"); w.Code != http.StatusOK {
		t.Fatalf("first request = %d", w.Code)
	}
	w := serve(r, http.MethodGet, "/api/v1/items/today")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d; want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
	// ops endpoints are not limited
	for i := 0; i < 3; i++ {
		if w := serve(r, http.MethodGet, "/health"); w.Code != http.StatusOK {
			t.Fatalf("health = %d", w.Code)
		}
	}
}
