package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersAndSkip(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics("/health"))
	r.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseItem := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/items/:id", "200"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "unmatched", "404"))
	baseHealth := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/health", "200"))

	for _, p := range []string{"/items/1", "/items/2", "/nope", "/health", "/empty"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/items/:id", "200")); got != baseItem+2 {
		t.Fatalf("route counter = %v; want %v", got, baseItem+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "unmatched", "404")); got != baseMiss+1 {
		t.Fatalf("unmatched counter = %v; want %v", got, baseMiss+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/health", "200")); got != baseHealth {
		t.Fatalf("skipped route was counted")
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}
