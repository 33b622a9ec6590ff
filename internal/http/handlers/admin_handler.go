// Admin HTTP handlers.
//
// This file exposes the review workflow and cache maintenance:
//   - GET  /admin/pending         (entries awaiting review)
//   - POST /admin/approve         (approve one entry)
//   - POST /admin/approve-batch   (approve many entries)
//   - POST /admin/reject          (delete an entry so it regenerates)
//   - POST /admin/pre-generate    (start a background pass)
//   - GET  /admin/scheduler       (last pass report)
//   - GET  /admin/cache           (cache listing with quality re-check)
//   - POST /admin/clear-cache     (drop entries)
//
// The reviewer name comes from middleware.AdminAuth.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/daily-tiers/internal/domain"
	"github.com/tbourn/daily-tiers/internal/http/middleware"
	"github.com/tbourn/daily-tiers/internal/scheduler"
	"github.com/tbourn/daily-tiers/internal/services"
	"github.com/tbourn/daily-tiers/internal/utils"
)

const (
	defaultPreGenerateDays = 10
	maxRejectReasonRunes   = 500
)

//
// DTOs
//

// PendingListResponse lists entries awaiting review, oldest first.
type PendingListResponse struct {
	Items []services.PendingItem `json:"items"`
	Total int                    `json:"total"`
}

// ApproveRequest approves a single entry.
type ApproveRequest struct {
	ItemID int `json:"item_id" binding:"required,min=1" example:"42"`
}

// ApproveResponse echoes the approved entry's review metadata.
type ApproveResponse struct {
	ItemID     int                `json:"item_id" example:"42"`
	Status     domain.EntryStatus `json:"status" example:"approved"`
	ReviewedBy string             `json:"reviewed_by" example:"alice"`
}

// ApproveBatchRequest approves several entries independently.
type ApproveBatchRequest struct {
	ItemIDs []int `json:"item_ids" binding:"required,min=1,dive,min=1"`
}

// RejectRequest deletes an entry; Reason is logged.
type RejectRequest struct {
	ItemID int    `json:"item_id" binding:"required,min=1" example:"42"`
	Reason string `json:"reason" example:"too generic"`
}

// StatusResponse is a minimal acknowledgement.
type StatusResponse struct {
	Status string `json:"status" example:"rejected"`
}

// PreGenerateRequest starts a pass over today and the next Days-1 dates.
// A zero value means 10 days.
type PreGenerateRequest struct {
	Days int `json:"days" example:"10"`
}

// PreGenerateResponse acknowledges a started pass.
type PreGenerateResponse struct {
	Status string `json:"status" example:"started"`
	Days   int    `json:"days" example:"10"`
}

// SchedulerStatusResponse reports the scheduler state.
type SchedulerStatusResponse struct {
	Running    bool              `json:"running"`
	LastReport *scheduler.Report `json:"last_report"`
}

// ClearCacheRequest lists entries to drop; null or absent means all.
type ClearCacheRequest struct {
	ItemIDs []int `json:"item_ids"`
}

// ClearCacheResponse reports how many entries were removed.
type ClearCacheResponse struct {
	Removed int `json:"removed" example:"3"`
}

//
// Handlers
//

// Pending godoc
// @ID          listPending
// @Summary     List content awaiting review
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Admin token"
// @Success     200  {object}  handlers.PendingListResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /admin/pending [get]
func (h *Handlers) Pending(c *gin.Context) {
	items := h.content.ListPending()
	ok(c, http.StatusOK, PendingListResponse{Items: items, Total: len(items)})
}

// Approve godoc
// @ID          approve
// @Summary     Approve pending content
// @Description Approving already approved content is a no-op.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Admin token"
// @Param       X-Admin-User   header  string  false  "Reviewer name"  example(alice)
// @Param       body  body  handlers.ApproveRequest  true  "Item to approve"
// @Success     200  {object}  handlers.ApproveResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "No entry"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /admin/approve [post]
func (h *Handlers) Approve(c *gin.Context) {
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id required")
		return
	}
	e, err := h.content.Approve(c.Request.Context(), req.ItemID, middleware.Reviewer(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ApproveResponse{ItemID: e.ItemID, Status: e.Status, ReviewedBy: e.ReviewedBy})
}

// ApproveBatch godoc
// @ID          approveBatch
// @Summary     Approve several entries
// @Description Each id is approved independently; failures are reported per id.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Admin token"
// @Param       X-Admin-User   header  string  false  "Reviewer name"
// @Param       body  body  handlers.ApproveBatchRequest  true  "Items to approve"
// @Success     200  {object}  services.BatchResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Router      /admin/approve-batch [post]
func (h *Handlers) ApproveBatch(c *gin.Context) {
	var req ApproveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_ids must be a non-empty list of positive ids")
		return
	}
	ok(c, http.StatusOK, h.content.ApproveBatch(c.Request.Context(), req.ItemIDs, middleware.Reviewer(c)))
}

// Reject godoc
// @ID          reject
// @Summary     Reject content
// @Description Deletes the entry; the next read or scheduler pass regenerates it.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Admin token"
// @Param       body  body  handlers.RejectRequest  true  "Item to reject"
// @Success     200  {object}  handlers.StatusResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "No entry"
// @Router      /admin/reject [post]
func (h *Handlers) Reject(c *gin.Context) {
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id required")
		return
	}
	reason := utils.TruncateRunes(strings.TrimSpace(req.Reason), maxRejectReasonRunes, "")
	if err := h.content.Reject(c.Request.Context(), req.ItemID, reason, middleware.Reviewer(c)); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, StatusResponse{Status: "rejected"})
}

// PreGenerate godoc
// @ID          preGenerate
// @Summary     Start a pre-generation pass
// @Description Runs in the background over today and the following days; at most one pass runs at a time.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Admin token"
// @Param       body  body  handlers.PreGenerateRequest  false  "Number of days (1-100, default 10)"
// @Success     202  {object}  handlers.PreGenerateResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad days"
// @Failure     409  {object}  handlers.ErrorResponse  "Pass in progress"
// @Router      /admin/pre-generate [post]
func (h *Handlers) PreGenerate(c *gin.Context) {
	var req PreGenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Days == 0 {
		req.Days = defaultPreGenerateDays
	}
	if err := h.pregen.Trigger(req.Days); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusAccepted, PreGenerateResponse{Status: "started", Days: req.Days})
}

// SchedulerStatus godoc
// @ID          schedulerStatus
// @Summary     Scheduler status
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Admin token"
// @Success     200  {object}  handlers.SchedulerStatusResponse
// @Router      /admin/scheduler [get]
func (h *Handlers) SchedulerStatus(c *gin.Context) {
	resp := SchedulerStatusResponse{Running: h.pregen.Running()}
	if rep, found := h.pregen.LastReport(); found {
		resp.LastReport = &rep
	}
	ok(c, http.StatusOK, resp)
}

// Cache godoc
// @ID          inspectCache
// @Summary     Inspect the cache
// @Description Lists every entry re-checked by the current validator. Problematic entries are reported, not changed.
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Admin token"
// @Success     200  {object}  services.CacheReport
// @Router      /admin/cache [get]
func (h *Handlers) Cache(c *gin.Context) {
	ok(c, http.StatusOK, h.content.Inspect())
}

// ClearCache godoc
// @ID          clearCache
// @Summary     Clear cache entries
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Param       X-Admin-Token  header  string  false  "Admin token"
// @Param       body  body  handlers.ClearCacheRequest  true  "Ids to drop; null clears everything"
// @Success     200  {object}  handlers.ClearCacheResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /admin/clear-cache [post]
func (h *Handlers) ClearCache(c *gin.Context) {
	var req ClearCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	n, err := h.content.Clear(c.Request.Context(), req.ItemIDs)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ClearCacheResponse{Removed: n})
}
