// Package httpapi wires the HTTP transport (Gin) to the handlers and
// middleware. It centralizes cross-cutting concerns such as tracing,
// correlation IDs, logging/redaction, panic recovery, metrics, compression,
// rate limiting, CORS, security headers and admin authentication.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/daily-tiers/docs"
	"github.com/tbourn/daily-tiers/internal/config"
	"github.com/tbourn/daily-tiers/internal/http/handlers"
	"github.com/tbourn/daily-tiers/internal/http/middleware"
)

const maxBodyBytes = 1 << 20

// opsPaths are excluded from metrics and compression.
var opsPaths = []string{"/metrics", "/health", "/ready"}

// RegisterRoutes attaches all middleware and endpoints to the given Gin
// engine, then mounts the public item API and the admin API under
// cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with secret scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (JSON bodies of long-form content compress well)
//  8. CORS and Security headers
//
// The rate limiter is attached to the API groups rather than the engine.
func RegisterRoutes(r *gin.Engine, h *handlers.Handlers, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(maxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics(opsPaths...))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths(opsPaths)))

	// 8) CORS posture (allow all if none configured)
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/readiness
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Token-bucket rate limiter on the API only; ops endpoints stay reachable
	// for orchestrator health checks. Admin routes are keyed by reviewer, so the limiter runs
	// after AdminAuth there.
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByReviewerOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(rl.Handler())
	{
		api.GET("/items/today", h.Today)
		api.GET("/items/date", h.ByDate)
		api.GET("/items/search", h.Search)
		api.GET("/items/:id/summary", h.Summary)
		api.POST("/items/pick", h.Pick)
		api.GET("/items/current", h.Current)
	}

	admin := r.Group(strings.TrimRight(cfg.APIBasePath, "/")+"/admin",
		middleware.AdminAuth(cfg.AdminToken),
		middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true}),
		rl.Handler(),
	)
	{
		admin.GET("/pending", h.Pending)
		admin.POST("/approve", h.Approve)
		admin.POST("/approve-batch", h.ApproveBatch)
		admin.POST("/reject", h.Reject)
		admin.POST("/pre-generate", h.PreGenerate)
		admin.GET("/scheduler", h.SchedulerStatus)
		admin.GET("/cache", h.Cache)
		admin.POST("/clear-cache", h.ClearCache)
	}
}

// corsMiddleware returns the CORS chain for the configured allowlist.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderAdminToken, middleware.HeaderAdminUser},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true // AllowCredentials must remain false
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	// Echo ACAO with the request Origin when it is in the allowlist.
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
