// Package services – ApprovalService
//
// ApprovalService owns the content lifecycle for each item:
//
//	absent --generate+validate--> pending (manual policy) | approved (auto policy)
//	pending --approve--> approved
//	pending --reject--> absent (entry deleted)
//	approved with missing tiers --read--> absent, then regenerated
//
// Generation for a given item is coalesced: concurrent callers share one
// in-flight attempt sequence, and that sequence runs detached from any single
// caller's cancellation. Every failed attempt is retried under one
// RetryPolicy; when the budget is spent the caller gets
// ErrGenerationExhausted and nothing is persisted.
//
// Observability: public methods are OpenTelemetry-instrumented and attempts
// are counted in Prometheus.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/daily-tiers/internal/cache"
	"github.com/tbourn/daily-tiers/internal/catalog"
	"github.com/tbourn/daily-tiers/internal/domain"
	"github.com/tbourn/daily-tiers/internal/generator"
	"github.com/tbourn/daily-tiers/internal/observability"
	"github.com/tbourn/daily-tiers/internal/utils"
	"github.com/tbourn/daily-tiers/internal/validation"
)

// ReviewPolicy selects where validated content lands.
type ReviewPolicy string

const (
	// ReviewManual stores validated content as pending until an admin approves it.
	ReviewManual ReviewPolicy = "manual"
	// ReviewAuto approves validated content immediately.
	ReviewAuto ReviewPolicy = "auto"
)

// AutoReviewer is recorded as reviewed_by for policy approvals.
const AutoReviewer = "auto"

const previewRunes = 300

// Generator produces one candidate triple per call.
type Generator interface {
	Generate(ctx context.Context, item domain.Item) (domain.Content, error)
}

// ContentValidator is the quality gate.
type ContentValidator interface {
	Validate(c domain.Content) validation.Result
}

// ApprovalService coordinates generation, validation and the cache.
type ApprovalService struct {
	Catalog   *catalog.Catalog
	Cache     *cache.Cache
	Generator Generator
	Validator ContentValidator
	Policy    ReviewPolicy
	Retry     RetryPolicy

	// Now is a seam for tests.
	Now func() time.Time

	flights  singleflight.Group
	inflight sync.WaitGroup
}

// NewApprovalService constructs an ApprovalService with the manual policy
// and the default retry policy.
func NewApprovalService(cat *catalog.Catalog, c *cache.Cache, g Generator, v ContentValidator) *ApprovalService {
	return &ApprovalService{
		Catalog:   cat,
		Cache:     c,
		Generator: g,
		Validator: v,
		Policy:    ReviewManual,
		Retry:     DefaultRetryPolicy(),
		Now:       time.Now,
	}
}

// Summary returns approved content for itemID, generating it if needed.
// Unknown ids fail with ErrItemNotFound before any generation; content that
// awaits review yields ErrPendingReview.
func (s *ApprovalService) Summary(ctx context.Context, itemID int) (domain.Content, error) {
	tr := observability.Tracer("services/ApprovalService")
	ctx, span := tr.Start(ctx, "Summary", trace.WithAttributes(attribute.Int("item.id", itemID)))
	defer span.End()

	item, ok := s.Catalog.Get(itemID)
	if !ok {
		return domain.Content{}, ErrItemNotFound
	}
	e, err := s.Ensure(ctx, item)
	if err != nil {
		return domain.Content{}, err
	}
	if e.Status != domain.StatusApproved {
		return domain.Content{}, ErrPendingReview
	}
	return e.Content(), nil
}

// Ensure returns the entry for item, generating and committing one if the
// item is absent. Concurrent calls for the same item share one generation.
// The caller may stop waiting when ctx ends; the generation itself continues
// and its result is committed.
func (s *ApprovalService) Ensure(ctx context.Context, item domain.Item) (domain.CacheEntry, error) {
	if e, ok := s.Cache.Get(item.ID); ok && e.HasContent() {
		return e, nil
	}

	// each caller holds the count until the flight it joined has finished
	s.inflight.Add(1)
	ch := s.flights.DoChan(strconv.Itoa(item.ID), func() (any, error) {
		return s.ensure(context.WithoutCancel(ctx), item)
	})
	select {
	case <-ctx.Done():
		go func() {
			<-ch
			s.inflight.Done()
		}()
		return domain.CacheEntry{}, ctx.Err()
	case res := <-ch:
		s.inflight.Done()
		if res.Shared {
			observability.GenerationCoalesced.Inc()
		}
		if res.Err != nil {
			return domain.CacheEntry{}, res.Err
		}
		return res.Val.(domain.CacheEntry), nil
	}
}

// Drain blocks until every detached generation has committed or failed, or
// until ctx ends. Call it after request and scheduler traffic has stopped and
// before closing the store.
func (s *ApprovalService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ensure runs inside the per-item flight.
func (s *ApprovalService) ensure(ctx context.Context, item domain.Item) (domain.CacheEntry, error) {
	if e, ok := s.Cache.Get(item.ID); ok {
		if e.HasContent() {
			return e, nil
		}
		log.Warn().Int("item_id", item.ID).Str("status", string(e.Status)).Msg("cache entry missing content, regenerating")
		if _, err := s.Cache.Delete(ctx, item.ID); err != nil {
			return domain.CacheEntry{}, err
		}
	}

	content, res, err := s.generateValid(ctx, item)
	if err != nil {
		return domain.CacheEntry{}, err
	}

	status := domain.StatusPending
	if s.Policy == ReviewAuto {
		status = domain.StatusApproved
	}
	e := domain.NewEntry(item.ID, content, status, res.Issues)
	if status == domain.StatusApproved {
		now := s.now()
		e.ReviewedAt = &now
		e.ReviewedBy = AutoReviewer
	}
	if err := s.Cache.Put(ctx, e); err != nil {
		return domain.CacheEntry{}, err
	}
	observability.CacheCommits.WithLabelValues(string(status)).Inc()
	log.Info().Int("item_id", item.ID).Str("status", string(status)).Msg("content committed")
	return e, nil
}

// generateValid runs generate+validate under the retry policy.
func (s *ApprovalService) generateValid(ctx context.Context, item domain.Item) (domain.Content, validation.Result, error) {
	var (
		content domain.Content
		result  validation.Result
	)
	attempts, err := s.Retry.Do(ctx, func(ctx context.Context, attempt int) error {
		c, err := s.Generator.Generate(ctx, item)
		if err != nil {
			observability.GenerationAttempts.WithLabelValues(outcomeOf(err)).Inc()
			log.Warn().Err(err).Int("item_id", item.ID).Int("attempt", attempt).Msg("generation attempt failed")
			if errors.Is(err, generator.ErrMissingAPIKey) || ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}

		r := s.Validator.Validate(c)
		if !r.Valid {
			observability.GenerationAttempts.WithLabelValues("invalid").Inc()
			log.Warn().Int("item_id", item.ID).Int("attempt", attempt).Strs("issues", r.Issues).Msg("generated content failed validation")
			verr := fmt.Errorf("%w: %s", ErrValidationFailed, strings.Join(r.Issues, ", "))
			if r.Terminal() {
				return verr
			}
			return retry.RetryableError(verr)
		}

		observability.GenerationAttempts.WithLabelValues("ok").Inc()
		content, result = c, r
		return nil
	})
	if err != nil {
		return domain.Content{}, validation.Result{}, fmt.Errorf("%w after %d attempt(s): %w", ErrGenerationExhausted, attempts, err)
	}
	return content, result, nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, generator.ErrGenerationTimeout):
		return "timeout"
	case errors.Is(err, generator.ErrExternalService):
		return "external"
	case errors.Is(err, generator.ErrParse):
		return "parse"
	case errors.Is(err, generator.ErrIncomplete):
		return "incomplete"
	default:
		return "error"
	}
}

func (s *ApprovalService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// PendingItem is the admin view of an entry awaiting review.
type PendingItem struct {
	ItemID           int       `json:"item_id"`
	Title            string    `json:"title"`
	Author           string    `json:"author,omitempty"`
	Preview          string    `json:"preview"`
	ShortLength      int       `json:"short_length"`
	MediumLength     int       `json:"medium_length"`
	LongLength       int       `json:"long_length"`
	ValidationIssues []string  `json:"validation_issues"`
	CreatedAt        time.Time `json:"created_at"`
}

// ListPending returns entries awaiting review, oldest first.
func (s *ApprovalService) ListPending() []PendingItem {
	out := []PendingItem{}
	for _, e := range s.Cache.All() {
		if e.Status != domain.StatusPending {
			continue
		}
		p := PendingItem{
			ItemID:           e.ItemID,
			Preview:          utils.TruncateRunes(e.TierShort, previewRunes, "..."),
			ShortLength:      utf8.RuneCountInString(e.TierShort),
			MediumLength:     utf8.RuneCountInString(e.TierMedium),
			LongLength:       utf8.RuneCountInString(e.TierLong),
			ValidationIssues: append([]string{}, e.ValidationIssues...),
			CreatedAt:        e.CreatedAt,
		}
		if it, ok := s.Catalog.Get(e.ItemID); ok {
			p.Title, p.Author = it.PrimaryTitle, it.Author
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Approve moves a pending entry to approved. Approving an already approved
// entry is a no-op that returns the entry unchanged.
func (s *ApprovalService) Approve(ctx context.Context, itemID int, reviewer string) (domain.CacheEntry, error) {
	tr := observability.Tracer("services/ApprovalService")
	ctx, span := tr.Start(ctx, "Approve", trace.WithAttributes(attribute.Int("item.id", itemID)))
	defer span.End()

	if reviewer = strings.TrimSpace(reviewer); reviewer == "" {
		reviewer = "admin"
	}
	e, err := s.Cache.Update(ctx, itemID, func(cur domain.CacheEntry, ok bool) (domain.CacheEntry, bool, error) {
		if !ok {
			return cur, false, ErrEntryNotFound
		}
		if cur.Status == domain.StatusApproved {
			return cur, false, nil
		}
		now := s.now()
		cur.Status = domain.StatusApproved
		cur.ReviewedAt = &now
		cur.ReviewedBy = reviewer
		return cur, true, nil
	})
	if err != nil {
		return domain.CacheEntry{}, err
	}
	log.Info().Int("item_id", itemID).Str("reviewer", reviewer).Msg("content approved")
	return e, nil
}

// BatchResult reports per-item outcomes of ApproveBatch.
type BatchResult struct {
	Approved []int          `json:"approved"`
	Failed   map[int]string `json:"failed"`
}

// ApproveBatch approves each id independently.
func (s *ApprovalService) ApproveBatch(ctx context.Context, ids []int, reviewer string) BatchResult {
	res := BatchResult{Approved: []int{}, Failed: map[int]string{}}
	for _, id := range ids {
		if _, err := s.Approve(ctx, id, reviewer); err != nil {
			res.Failed[id] = err.Error()
			continue
		}
		res.Approved = append(res.Approved, id)
	}
	return res
}

// Reject deletes the entry for itemID so the next access regenerates it.
func (s *ApprovalService) Reject(ctx context.Context, itemID int, reason, reviewer string) error {
	tr := observability.Tracer("services/ApprovalService")
	ctx, span := tr.Start(ctx, "Reject", trace.WithAttributes(attribute.Int("item.id", itemID)))
	defer span.End()

	removed, err := s.Cache.Delete(ctx, itemID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrEntryNotFound
	}
	log.Info().Int("item_id", itemID).Str("reviewer", reviewer).Str("reason", reason).Msg("content rejected")
	return nil
}

// Clear removes the given entries, or all of them when ids is nil.
func (s *ApprovalService) Clear(ctx context.Context, ids []int) (int, error) {
	n, err := s.Cache.Clear(ctx, ids)
	if err != nil {
		return 0, err
	}
	log.Info().Int("removed", n).Bool("all", ids == nil).Msg("cache cleared")
	return n, nil
}

// EntryReport describes one cache entry re-checked by the current validator.
type EntryReport struct {
	ItemID       int                `json:"item_id"`
	Title        string             `json:"title,omitempty"`
	Status       domain.EntryStatus `json:"status"`
	ShortLength  int                `json:"short_length"`
	MediumLength int                `json:"medium_length"`
	LongLength   int                `json:"long_length"`
	Issues       []string           `json:"issues"`
	CreatedAt    time.Time          `json:"created_at"`
	ReviewedBy   string             `json:"reviewed_by,omitempty"`
}

// CacheReport summarizes the cache for the admin API.
type CacheReport struct {
	Total       int           `json:"total"`
	Approved    int           `json:"approved"`
	Pending     int           `json:"pending"`
	Entries     []EntryReport `json:"entries"`
	Problematic []EntryReport `json:"problematic"`
}

// Inspect re-validates every entry with the current thresholds. Entries are
// reported, never migrated: an approved entry that no longer passes stays
// approved and is listed as problematic.
func (s *ApprovalService) Inspect() CacheReport {
	rep := CacheReport{Entries: []EntryReport{}, Problematic: []EntryReport{}}
	for _, e := range s.Cache.All() {
		r := s.Validator.Validate(e.Content())
		er := EntryReport{
			ItemID:       e.ItemID,
			Status:       e.Status,
			ShortLength:  utf8.RuneCountInString(e.TierShort),
			MediumLength: utf8.RuneCountInString(e.TierMedium),
			LongLength:   utf8.RuneCountInString(e.TierLong),
			Issues:       append([]string{}, r.Issues...),
			CreatedAt:    e.CreatedAt,
			ReviewedBy:   e.ReviewedBy,
		}
		if it, ok := s.Catalog.Get(e.ItemID); ok {
			er.Title = it.PrimaryTitle
		}
		rep.Total++
		switch e.Status {
		case domain.StatusApproved:
			rep.Approved++
		case domain.StatusPending:
			rep.Pending++
		}
		rep.Entries = append(rep.Entries, er)
		if !r.Valid {
			rep.Problematic = append(rep.Problematic, er)
		}
	}
	return rep
}
