// Package handlers: service contracts and wiring.
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/daily-tiers/internal/domain"
	"github.com/tbourn/daily-tiers/internal/scheduler"
	"github.com/tbourn/daily-tiers/internal/search"
	"github.com/tbourn/daily-tiers/internal/services"
)

//
// Service contracts (context-aware)
//

// SelectionService maps dates to items and performs cooldown picks.
type SelectionService interface {
	Today() time.Time
	ParseDate(v string) (time.Time, error)
	ItemForDate(ctx context.Context, date time.Time) (domain.Item, error)
	PickFresh(ctx context.Context) (domain.Item, time.Time, error)
	CurrentPick(ctx context.Context) (*domain.Item, *time.Time, error)
}

// ItemSearcher finds catalog items by title or author.
type ItemSearcher interface {
	Search(q string, k int) []search.Hit
}

// ContentService serves approved content and runs the review workflow.
type ContentService interface {
	Summary(ctx context.Context, itemID int) (domain.Content, error)
	ListPending() []services.PendingItem
	Approve(ctx context.Context, itemID int, reviewer string) (domain.CacheEntry, error)
	ApproveBatch(ctx context.Context, ids []int, reviewer string) services.BatchResult
	Reject(ctx context.Context, itemID int, reason, reviewer string) error
	Inspect() services.CacheReport
	Clear(ctx context.Context, ids []int) (int, error)
}

// PreGenerator exposes the background scheduler to admins.
type PreGenerator interface {
	Trigger(days int) error
	Running() bool
	LastReport() (scheduler.Report, bool)
}

// Check is one named readiness check. A nil error means ready.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

//
// Handler wiring
//

// Handlers groups the public, admin and ops endpoints.
type Handlers struct {
	sel     SelectionService
	finder  ItemSearcher
	content ContentService
	pregen  PreGenerator
	checks  []Check

	summaryWait time.Duration
}

// New constructs Handlers bound to the given services.
func New(sel SelectionService, finder ItemSearcher, content ContentService, pregen PreGenerator, checks ...Check) *Handlers {
	return &Handlers{sel: sel, finder: finder, content: content, pregen: pregen, checks: checks}
}

// WithSummaryWait bounds how long a summary request waits on generation.
// It must stay below the server's write timeout so the client always gets a
// response; zero means no bound.
func (h *Handlers) WithSummaryWait(d time.Duration) *Handlers {
	h.summaryWait = d
	return h
}
