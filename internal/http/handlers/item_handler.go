// Item HTTP handlers.
//
// This file exposes the public read surface:
//   - GET  /items/today            (item for today's date)
//   - GET  /items/date?date=       (item for any date)
//   - GET  /items/search?q=        (catalog lookup by title or author)
//   - GET  /items/{id}/summary     (approved tiered content)
//   - POST /items/pick             (cooldown pick)
//   - GET  /items/current          (last cooldown pick)
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/daily-tiers/internal/domain"
	"github.com/tbourn/daily-tiers/internal/search"
	"github.com/tbourn/daily-tiers/internal/services"
	"github.com/tbourn/daily-tiers/internal/utils"
)

//
// DTOs
//

// ItemResponse pairs an item with the calendar date it was resolved for.
type ItemResponse struct {
	Item domain.Item `json:"item"`
	Date string      `json:"date" example:"2025-03-10"`
}

// SummaryResponse carries approved content for an item.
type SummaryResponse struct {
	ItemID  int            `json:"item_id" example:"42"`
	Summary domain.Content `json:"summary"`
}

// StatusGenerating is reported with 202 when generation outlasts the wait.
const StatusGenerating = "generating"

// PendingResponse is returned with 202 while content awaits review or is
// still being generated.
type PendingResponse struct {
	ItemID  int    `json:"item_id" example:"42"`
	Status  string `json:"status" example:"pending"`
	Message string `json:"message" example:"content is pending review"`
}

// SearchResponse lists catalog matches, best first.
type SearchResponse struct {
	Query string       `json:"query" example:"analects"`
	Hits  []search.Hit `json:"hits"`
}

// PickResponse is the result of a cooldown pick.
type PickResponse struct {
	Item       domain.Item `json:"item"`
	SelectedAt time.Time   `json:"selected_at"`
}

// CurrentPickResponse is the last cooldown pick; both fields are null before
// the first pick.
type CurrentPickResponse struct {
	Item       *domain.Item `json:"item"`
	SelectedAt *time.Time   `json:"selected_at"`
}

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	maxQueryRunes      = 200
)

//
// Helpers
//

// itemID parses the :id path parameter; ids are positive integers.
func itemID(c *gin.Context) (int, bool) {
	id := utils.AtoiDefault(strings.TrimSpace(c.Param("id")), 0)
	return id, id > 0
}

//
// Handlers
//

// Today godoc
// @ID          getToday
// @Summary     Item for today
// @Description Returns the catalog item assigned to today's date in the server timezone.
// @Tags        Items
// @Produce     json
// @Success     200  {object}  handlers.ItemResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Catalog empty"
// @Router      /items/today [get]
func (h *Handlers) Today(c *gin.Context) {
	today := h.sel.Today()
	it, err := h.sel.ItemForDate(c.Request.Context(), today)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ItemResponse{Item: it, Date: today.Format(services.DateLayout)})
}

// ByDate godoc
// @ID          getByDate
// @Summary     Item for a date
// @Description Returns the catalog item assigned to the given calendar date.
// @Tags        Items
// @Produce     json
// @Param       date  query  string  true  "Calendar date (YYYY-MM-DD)"  example(2025-03-10)
// @Success     200  {object}  handlers.ItemResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad date"
// @Failure     503  {object}  handlers.ErrorResponse  "Catalog empty"
// @Router      /items/date [get]
func (h *Handlers) ByDate(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date is required")
		return
	}
	date, err := h.sel.ParseDate(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be YYYY-MM-DD")
		return
	}
	it, err := h.sel.ItemForDate(c.Request.Context(), date)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ItemResponse{Item: it, Date: date.Format(services.DateLayout)})
}

// Search godoc
// @ID          searchItems
// @Summary     Search the catalog
// @Description Matches titles and author. Han text is matched by character pairs.
// @Tags        Items
// @Produce     json
// @Param       q      query  string  true   "Query"  example(analects)
// @Param       limit  query  int     false  "Max hits (1-50, default 10)"
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing query"
// @Router      /items/search [get]
func (h *Handlers) Search(c *gin.Context) {
	q := utils.TruncateRunes(strings.TrimSpace(c.Query("q")), maxQueryRunes, "")
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q is required")
		return
	}
	limit := utils.AtoiDefault(c.Query("limit"), defaultSearchLimit)
	if limit < 1 || limit > maxSearchLimit {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "limit must be between 1 and 50")
		return
	}
	hits := h.finder.Search(q, limit)
	if hits == nil {
		hits = []search.Hit{}
	}
	ok(c, http.StatusOK, SearchResponse{Query: q, Hits: hits})
}

// Summary godoc
// @ID          getSummary
// @Summary     Tiered summary of an item
// @Description Returns approved content. On a cache miss the content is generated first,
// @Description which can take minutes; past SUMMARY_WAIT the request answers 202 "generating" and the
// @Description generation finishes in the background. Under manual review, new content answers 202 until approved.
// @Tags        Items
// @Produce     json
// @Param       id  path  int  true  "Item ID"  minimum(1)
// @Success     200  {object}  handlers.SummaryResponse
// @Success     202  {object}  handlers.PendingResponse  "Pending review or still generating"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad id"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown item"
// @Failure     502  {object}  handlers.ErrorResponse  "Generation failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /items/{id}/summary [get]
func (h *Handlers) Summary(c *gin.Context) {
	id, valid := itemID(c)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a positive integer")
		return
	}
	ctx, cancel := h.summaryContext(c)
	defer cancel()

	content, err := h.content.Summary(ctx, id)
	switch {
	case errors.Is(err, services.ErrPendingReview):
		ok(c, http.StatusAccepted, PendingResponse{ItemID: id, Status: string(domain.StatusPending), Message: err.Error()})
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && c.Request.Context().Err() == nil:
		// the generation keeps running detached and commits on its own
		ok(c, http.StatusAccepted, PendingResponse{ItemID: id, Status: StatusGenerating, Message: "content is being generated, retry shortly"})
	case err != nil:
		failErr(c, err)
	default:
		ok(c, http.StatusOK, SummaryResponse{ItemID: id, Summary: content})
	}
}

func (h *Handlers) summaryContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.summaryWait <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.summaryWait)
}

// Pick godoc
// @ID          pickFresh
// @Summary     Pick a fresh item
// @Description Chooses an item not picked in the cooldown window and makes it today's item.
// @Tags        Items
// @Produce     json
// @Success     200  {object}  handlers.PickResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Catalog empty or storage unavailable"
// @Router      /items/pick [post]
func (h *Handlers) Pick(c *gin.Context) {
	it, at, err := h.sel.PickFresh(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PickResponse{Item: it, SelectedAt: at})
}

// Current godoc
// @ID          currentPick
// @Summary     Last cooldown pick
// @Tags        Items
// @Produce     json
// @Success     200  {object}  handlers.CurrentPickResponse
// @Failure     503  {object}  handlers.ErrorResponse  "Storage unavailable"
// @Router      /items/current [get]
func (h *Handlers) Current(c *gin.Context) {
	it, at, err := h.sel.CurrentPick(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CurrentPickResponse{Item: it, SelectedAt: at})
}
