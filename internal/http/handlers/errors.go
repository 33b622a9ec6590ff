// Package handlers defines HTTP-layer error codes used across all API endpoints
// and the single place where service errors become HTTP statuses.
//
// Codes are lowercase snake_case and stable; clients branch on them.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "generation_failed",
//	  "message": "generation attempts exhausted after 3 attempt(s): ..."
//	}
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/daily-tiers/internal/cache"
	"github.com/tbourn/daily-tiers/internal/scheduler"
	"github.com/tbourn/daily-tiers/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeEmptyCatalog       = "catalog_empty"
	ErrCodeGenerationFailed   = "generation_failed"
	ErrCodeStorageUnavailable = "storage_unavailable"
	ErrCodeTimeout            = "timeout"
	ErrCodeNotReady           = "not_ready"
)

// failErr maps a service error to a status and code and aborts the request.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "item not found")
	case errors.Is(err, services.ErrEntryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no cached content for item")
	case errors.Is(err, services.ErrEmptyCatalog):
		fail(c, http.StatusServiceUnavailable, ErrCodeEmptyCatalog, "catalog is empty")
	case errors.Is(err, services.ErrGenerationExhausted):
		fail(c, http.StatusBadGateway, ErrCodeGenerationFailed, err.Error())
	case errors.Is(err, cache.ErrStorage):
		fail(c, http.StatusServiceUnavailable, ErrCodeStorageUnavailable, "storage unavailable")
	case errors.Is(err, scheduler.ErrPassInProgress):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, scheduler.ErrInvalidDays):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusGatewayTimeout, ErrCodeTimeout, "request timed out")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
