// Package services – SelectionService
//
// SelectionService decides which catalog item belongs to a calendar date and
// implements the explicit "pick a fresh item" operation.
//
// Date selection is a pure function of the civil date and the catalog size,
// periodic with period equal to the catalog size. A history record whose
// timestamp falls inside that date's local-day window overrides the formula.
// The fresh pick chooses uniformly among items not picked within the
// cooldown window and appends a history record.
package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/daily-tiers/internal/cache"
	"github.com/tbourn/daily-tiers/internal/catalog"
	"github.com/tbourn/daily-tiers/internal/domain"
	"github.com/tbourn/daily-tiers/internal/observability"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// HistoryStore is the subset of repo.Store used for selection history.
type HistoryStore interface {
	SelectionsBetween(ctx context.Context, from, to time.Time) ([]domain.SelectionRecord, error)
	AppendSelection(ctx context.Context, rec domain.SelectionRecord) error
	GetCurrentPick(ctx context.Context) (domain.CurrentPick, error)
	SaveCurrentPick(ctx context.Context, p domain.CurrentPick) error
}

// SelectionService maps dates to items and performs cooldown picks.
type SelectionService struct {
	Catalog  *catalog.Catalog
	Store    HistoryStore
	Location *time.Location
	Cooldown time.Duration

	// Now and RandN are seams for tests.
	Now   func() time.Time
	RandN func(n int) int

	mu sync.Mutex
}

// NewSelectionService constructs a SelectionService with a 14-day cooldown
// and the local timezone unless overridden.
func NewSelectionService(cat *catalog.Catalog, store HistoryStore, loc *time.Location, cooldown time.Duration) *SelectionService {
	if loc == nil {
		loc = time.Local
	}
	if cooldown <= 0 {
		cooldown = 14 * 24 * time.Hour
	}
	return &SelectionService{
		Catalog:  cat,
		Store:    store,
		Location: loc,
		Cooldown: cooldown,
		Now:      time.Now,
		RandN:    rand.Intn,
	}
}

// DayIndex returns the catalog position for the civil date of t.
// Days are counted from 1970-01-01 on the calendar, so DST shifts never make
// two dates share an index.
func DayIndex(t time.Time, size int) int {
	y, m, d := t.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
	idx := int(days % int64(size))
	if idx < 0 {
		idx += size
	}
	return idx
}

// Midnight returns the start of t's calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD date in the service timezone.
func (s *SelectionService) ParseDate(v string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, v, s.Location)
}

// Today returns the current calendar date in the service timezone.
func (s *SelectionService) Today() time.Time {
	return Midnight(s.Now(), s.Location)
}

// ItemForDate returns the item assigned to date's calendar day.
func (s *SelectionService) ItemForDate(ctx context.Context, date time.Time) (domain.Item, error) {
	tr := observability.Tracer("services/SelectionService")
	ctx, span := tr.Start(ctx, "ItemForDate", trace.WithAttributes(
		attribute.String("date", date.In(s.Location).Format(DateLayout)),
	))
	defer span.End()

	n := s.Catalog.Len()
	if n == 0 {
		return domain.Item{}, ErrEmptyCatalog
	}

	start := Midnight(date, s.Location)
	end := start.AddDate(0, 0, 1)
	if s.Store != nil {
		recs, err := s.Store.SelectionsBetween(ctx, start, end)
		if err != nil {
			log.Warn().Err(err).Str("date", start.Format(DateLayout)).Msg("history unavailable, using date formula")
		}
		// latest record of the day wins; records for removed items are ignored
		for i := len(recs) - 1; i >= 0; i-- {
			if it, ok := s.Catalog.Get(recs[i].ItemID); ok {
				span.SetAttributes(attribute.Bool("override", true))
				return it, nil
			}
		}
	}
	return s.Catalog.At(DayIndex(start, n)), nil
}

// PickFresh chooses an item not picked within the cooldown window, records
// the pick in history and updates the current-pick snapshot.
func (s *SelectionService) PickFresh(ctx context.Context) (domain.Item, time.Time, error) {
	tr := observability.Tracer("services/SelectionService")
	ctx, span := tr.Start(ctx, "PickFresh")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.Catalog.Items()
	if len(items) == 0 {
		return domain.Item{}, time.Time{}, ErrEmptyCatalog
	}

	now := s.Now()
	recent, err := s.Store.SelectionsBetween(ctx, now.Add(-s.Cooldown), now.Add(time.Nanosecond))
	if err != nil {
		return domain.Item{}, time.Time{}, fmt.Errorf("%w: read history: %w", cache.ErrStorage, err)
	}
	seen := make(map[int]struct{}, len(recent))
	for _, r := range recent {
		seen[r.ItemID] = struct{}{}
	}
	pool := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; !ok {
			pool = append(pool, it)
		}
	}
	if len(pool) == 0 {
		pool = items
	}
	pick := pool[s.RandN(len(pool))]

	if err := s.Store.AppendSelection(ctx, domain.SelectionRecord{ItemID: pick.ID, Timestamp: now}); err != nil {
		return domain.Item{}, time.Time{}, fmt.Errorf("%w: append history: %w", cache.ErrStorage, err)
	}
	id, at := pick.ID, now.UTC()
	if err := s.Store.SaveCurrentPick(ctx, domain.CurrentPick{ItemID: &id, SelectedAt: &at}); err != nil {
		return domain.Item{}, time.Time{}, fmt.Errorf("%w: save current pick: %w", cache.ErrStorage, err)
	}

	log.Info().Int("item_id", pick.ID).Int("pool", len(pool)).Msg("fresh item picked")
	span.SetAttributes(attribute.Int("item.id", pick.ID), attribute.Int("pool.size", len(pool)))
	return pick, at, nil
}

// CurrentPick returns the last fresh pick, if any, resolved against the
// catalog.
func (s *SelectionService) CurrentPick(ctx context.Context) (*domain.Item, *time.Time, error) {
	p, err := s.Store.GetCurrentPick(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read current pick: %w", cache.ErrStorage, err)
	}
	if p.ItemID == nil {
		return nil, nil, nil
	}
	it, ok := s.Catalog.Get(*p.ItemID)
	if !ok {
		return nil, p.SelectedAt, nil
	}
	return &it, p.SelectedAt, nil
}
