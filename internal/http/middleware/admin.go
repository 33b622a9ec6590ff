// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file guards the admin surface. When a token is configured every admin
// request must present it in X-Admin-Token; the reviewer name recorded on
// approvals comes from X-Admin-User.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderAdminToken carries the shared admin secret.
	HeaderAdminToken = "X-Admin-Token"
	// HeaderAdminUser names the reviewer acting on the request.
	HeaderAdminUser = "X-Admin-User"

	reviewerKey     = "reviewer"
	defaultReviewer = "admin"
	maxReviewerLen  = 64
)

// AdminAuth rejects requests without the configured token and stores the
// reviewer name in the Gin context. An empty token disables the check, which
// is meant for local development only.
func AdminAuth(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		if token != "" {
			got := []byte(c.GetHeader(HeaderAdminToken))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"request_id": c.Writer.Header().Get(requestIDHeader),
					"code":       "unauthorized",
					"message":    "admin token required",
				})
				return
			}
		}

		name := strings.TrimSpace(c.GetHeader(HeaderAdminUser))
		if name == "" {
			name = defaultReviewer
		}
		if len(name) > maxReviewerLen {
			name = name[:maxReviewerLen]
		}
		c.Set(reviewerKey, name)
		c.Next()
	}
}

// Reviewer returns the reviewer stored by AdminAuth, or "admin".
func Reviewer(c *gin.Context) string {
	if v, ok := c.Get(reviewerKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return defaultReviewer
}
