package repo

import (
	"context"
	"time"

	"github.com/tbourn/daily-tiers/internal/domain"
)

// Store is the durable backing for the cache, history and current pick.
//
// Error semantics: implementations return raw driver or I/O errors; callers
// wrap them into their own error kinds. GetCurrentPick returns a zero
// CurrentPick, not an error, when nothing has been picked yet.
type Store interface {
	// LoadEntries returns every cache entry.
	LoadEntries(ctx context.Context) ([]domain.CacheEntry, error)
	// PutEntry inserts or replaces the entry keyed by e.ItemID.
	PutEntry(ctx context.Context, e domain.CacheEntry) error
	// DeleteEntry removes the entry for itemID. Absent keys are not an error.
	DeleteEntry(ctx context.Context, itemID int) error
	// ClearEntries removes the given entries, or all entries when ids is nil.
	ClearEntries(ctx context.Context, ids []int) error

	// SelectionsBetween returns history records with from <= timestamp < to,
	// oldest first.
	SelectionsBetween(ctx context.Context, from, to time.Time) ([]domain.SelectionRecord, error)
	// AppendSelection adds a record to the history.
	AppendSelection(ctx context.Context, rec domain.SelectionRecord) error

	GetCurrentPick(ctx context.Context) (domain.CurrentPick, error)
	SaveCurrentPick(ctx context.Context, p domain.CurrentPick) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*JSONStore)(nil)
)
