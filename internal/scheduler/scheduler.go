// Package scheduler pre-generates content ahead of demand.
//
// A pass maps every date in a rolling window to its item, drops duplicates
// and items that are already approved, and drives the rest through the
// approval workflow in sequential batches. Within a batch items run one at a
// time unless Concurrency allows more. Item starts are paced by a rate
// limiter so the generation backend never sees a burst. A failed item is
// logged and counted; the next pass picks it up again.
//
// Context cancellation is the only stop signal.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tbourn/daily-tiers/internal/config"
	"github.com/tbourn/daily-tiers/internal/domain"
	"github.com/tbourn/daily-tiers/internal/observability"
	"github.com/tbourn/daily-tiers/internal/services"
)

// MaxTriggerDays bounds an admin-triggered pass.
const MaxTriggerDays = 100

var (
	// ErrPassInProgress is returned when a pass is requested while another runs.
	ErrPassInProgress = errors.New("pre-generation pass already in progress")
	// ErrInvalidDays is returned for a trigger outside 1..MaxTriggerDays.
	ErrInvalidDays = errors.New("days must be between 1 and 100")
)

// Selector maps dates to items.
type Selector interface {
	Today() time.Time
	ItemForDate(ctx context.Context, date time.Time) (domain.Item, error)
}

// Ensurer drives one item through generation and approval.
type Ensurer interface {
	Ensure(ctx context.Context, item domain.Item) (domain.CacheEntry, error)
}

// EntryLookup reads the cache without side effects.
type EntryLookup interface {
	Get(id int) (domain.CacheEntry, bool)
}

// ItemError records one failed item of a pass.
type ItemError struct {
	Date   string `json:"date"`
	ItemID int    `json:"item_id"`
	Error  string `json:"error"`
}

// Report summarizes a pass.
type Report struct {
	Trigger    string      `json:"trigger"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Days       int         `json:"days"`
	Items      int         `json:"items"`
	Skipped    int         `json:"skipped"`
	Approved   int         `json:"approved"`
	Pending    int         `json:"pending"`
	Failed     int         `json:"failed"`
	Errors     []ItemError `json:"errors"`
	Cancelled  bool        `json:"cancelled,omitempty"`
}

// Scheduler runs periodic and on-demand pre-generation passes.
type Scheduler struct {
	cfg     config.SchedulerConfig
	sel     Selector
	ens     Ensurer
	entries EntryLookup
	limiter *rate.Limiter

	running atomic.Bool
	base    context.Context

	mu   sync.RWMutex
	last *Report

	wg sync.WaitGroup
}

// New constructs a Scheduler. Items start at most once per cfg.ItemDelay.
func New(cfg config.SchedulerConfig, sel Selector, ens Ensurer, entries EntryLookup) *Scheduler {
	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.ItemDelay > 0 {
		lim = rate.NewLimiter(rate.Every(cfg.ItemDelay), 1)
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	cfg.Concurrency = min(max(cfg.Concurrency, 1), cfg.BatchSize)
	return &Scheduler{cfg: cfg, sel: sel, ens: ens, entries: entries, limiter: lim}
}

// Start binds the scheduler to ctx and, when enabled, begins the periodic
// loop: one pass after the warm-up delay, then one per interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.base = ctx
	if !s.cfg.Enabled {
		log.Info().Msg("scheduler disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		warmup := time.NewTimer(s.cfg.WarmupDelay)
		defer warmup.Stop()
		select {
		case <-ctx.Done():
			return
		case <-warmup.C:
		}
		s.periodic(ctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.periodic(ctx)
			}
		}
	}()
}

// Wait blocks until all background work exits. Call after cancelling the
// context passed to Start.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) periodic(ctx context.Context) {
	if _, err := s.RunPass(ctx, s.cfg.WindowDays+1, "interval"); err != nil {
		log.Warn().Err(err).Msg("scheduled pass skipped")
	}
}

// Trigger starts a pass over today and the following days-1 dates in the
// background and returns immediately.
func (s *Scheduler) Trigger(days int) error {
	if days < 1 || days > MaxTriggerDays {
		return ErrInvalidDays
	}
	if !s.running.CompareAndSwap(false, true) {
		return ErrPassInProgress
	}
	ctx := s.base
	if ctx == nil {
		ctx = context.Background()
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		s.pass(ctx, days, "manual")
	}()
	return nil
}

// RunPass runs one pass synchronously.
func (s *Scheduler) RunPass(ctx context.Context, days int, trigger string) (Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Report{}, ErrPassInProgress
	}
	defer s.running.Store(false)
	return s.pass(ctx, days, trigger), nil
}

// Running reports whether a pass is in progress.
func (s *Scheduler) Running() bool { return s.running.Load() }

// LastReport returns the most recent completed pass, if any.
func (s *Scheduler) LastReport() (Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return Report{}, false
	}
	return *s.last, true
}

type job struct {
	date string
	item domain.Item
}

func (s *Scheduler) pass(ctx context.Context, days int, trigger string) Report {
	ctx, span := observability.Tracer("scheduler").Start(ctx, "Scheduler.pass",
		trace.WithAttributes(attribute.String("trigger", trigger), attribute.Int("days", days)))
	defer span.End()

	rep := Report{Trigger: trigger, StartedAt: time.Now().UTC(), Days: days, Errors: []ItemError{}}
	logger := log.With().Str("trigger", trigger).Int("days", days).Logger()
	logger.Info().Msg("pre-generation pass started")

	var (
		jobs []job
		seen = map[int]bool{}
	)
	today := s.sel.Today()
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, i)
		ds := date.Format(services.DateLayout)
		it, err := s.sel.ItemForDate(ctx, date)
		if err != nil {
			// an empty catalog fails every date the same way
			logger.Error().Err(err).Str("date", ds).Msg("date selection failed")
			rep.Failed++
			rep.Errors = append(rep.Errors, ItemError{Date: ds, Error: err.Error()})
			observability.SchedulerItems.WithLabelValues("failed").Inc()
			break
		}
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		rep.Items++
		if e, ok := s.entries.Get(it.ID); ok && e.Status == domain.StatusApproved && e.HasContent() {
			rep.Skipped++
			observability.SchedulerItems.WithLabelValues("skipped").Inc()
			continue
		}
		jobs = append(jobs, job{date: ds, item: it})
	}

	var mu sync.Mutex
	for start := 0; start < len(jobs) && ctx.Err() == nil; start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(jobs))
		var g errgroup.Group
		g.SetLimit(s.cfg.Concurrency)
		for _, j := range jobs[start:end] {
			j := j
			if err := s.limiter.Wait(ctx); err != nil {
				break
			}
			g.Go(func() error {
				result, ierr := s.runOne(ctx, j)
				mu.Lock()
				defer mu.Unlock()
				switch result {
				case "approved":
					rep.Approved++
				case "pending":
					rep.Pending++
				default:
					rep.Failed++
					rep.Errors = append(rep.Errors, ierr)
				}
				observability.SchedulerItems.WithLabelValues(result).Inc()
				return nil
			})
		}
		_ = g.Wait()
	}

	rep.Cancelled = ctx.Err() != nil
	rep.FinishedAt = time.Now().UTC()
	span.SetAttributes(
		attribute.Int("items", rep.Items),
		attribute.Int("failed", rep.Failed),
		attribute.Bool("cancelled", rep.Cancelled),
	)
	observability.SchedulerPasses.Inc()
	logger.Info().
		Int("items", rep.Items).Int("skipped", rep.Skipped).
		Int("approved", rep.Approved).Int("pending", rep.Pending).Int("failed", rep.Failed).
		Bool("cancelled", rep.Cancelled).
		Dur("took", rep.FinishedAt.Sub(rep.StartedAt)).
		Msg("pre-generation pass finished")

	s.mu.Lock()
	s.last = &rep
	s.mu.Unlock()
	return rep
}

func (s *Scheduler) runOne(ctx context.Context, j job) (string, ItemError) {
	e, err := s.ens.Ensure(ctx, j.item)
	if err != nil {
		log.Warn().Err(err).Str("date", j.date).Int("item_id", j.item.ID).Msg("pre-generation failed")
		return "failed", ItemError{Date: j.date, ItemID: j.item.ID, Error: err.Error()}
	}
	return string(e.Status), ItemError{}
}
