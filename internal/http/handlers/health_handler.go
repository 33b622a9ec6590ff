package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readyTimeout = 3 * time.Second

// ReadyResponse lists each readiness check as "ok" or its failure.
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// Health godoc
// @ID          health
// @Summary     Liveness
// @Tags        Ops
// @Produce     json
// @Success     200  {object}  handlers.StatusResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, StatusResponse{Status: "ok"})
}

// Ready godoc
// @ID          ready
// @Summary     Readiness
// @Description Checks the catalog, the generation key and the store.
// @Tags        Ops
// @Produce     json
// @Success     200  {object}  handlers.ReadyResponse
// @Failure     503  {object}  handlers.ReadyResponse
// @Router      /ready [get]
func (h *Handlers) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(h.checks))}
	for _, chk := range h.checks {
		if err := chk.Fn(ctx); err != nil {
			resp.Status = "not_ready"
			resp.Checks[chk.Name] = err.Error()
			continue
		}
		resp.Checks[chk.Name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	ok(c, status, resp)
}
