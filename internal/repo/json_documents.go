package repo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tbourn/daily-tiers/internal/domain"
)

// Startup checks for the three documents. A check decodes strictly into the
// current layout; a migration recognises the legacy layout (camelCase keys,
// millisecond timestamps, resonance/deep_dive/masterclass tiers) and
// converts it.

var errTrailingData = errors.New("trailing data after document")

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errTrailingData
	}
	return nil
}

func checkCacheDoc(data []byte) error {
	var m map[string]domain.CacheEntry
	if err := decodeStrict(data, &m); err != nil {
		return err
	}
	for k, e := range m {
		if id, err := strconv.Atoi(k); err != nil || id <= 0 {
			return fmt.Errorf("invalid item key %q", k)
		}
		if e.Status != domain.StatusPending && e.Status != domain.StatusApproved {
			return fmt.Errorf("entry %s: invalid status %q", k, e.Status)
		}
	}
	return nil
}

func checkHistoryDoc(data []byte) error {
	var h historyDoc
	if err := decodeStrict(data, &h); err != nil {
		return err
	}
	if h.Selections == nil {
		return errors.New("missing selections")
	}
	return nil
}

func checkStateDoc(data []byte) error {
	var p domain.CurrentPick
	return decodeStrict(data, &p)
}

func fromMillis(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

type legacyEntry struct {
	Resonance        string   `json:"resonance"`
	DeepDive         string   `json:"deep_dive"`
	Masterclass      string   `json:"masterclass"`
	Status           string   `json:"status"`
	ValidationIssues []string `json:"validationIssues"`
	CreatedAt        int64    `json:"createdAt"`
	ReviewedAt       *int64   `json:"reviewedAt"`
	ReviewedBy       *string  `json:"reviewedBy"`
	Source           string   `json:"source"`
}

// migrateCacheDoc keeps complete pending and approved entries. Rejected
// entries are dropped, matching the rule that rejection deletes.
func migrateCacheDoc(data []byte) (any, bool) {
	var doc map[string]legacyEntry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	legacy := false
	out := map[string]domain.CacheEntry{}
	for k, le := range doc {
		if le.Resonance != "" || le.DeepDive != "" || le.Masterclass != "" {
			legacy = true
		}
		id, err := strconv.Atoi(k)
		if err != nil || id <= 0 {
			continue
		}
		status := domain.EntryStatus(le.Status)
		if status != domain.StatusPending && status != domain.StatusApproved {
			continue
		}
		c := domain.Content{TierShort: le.Resonance, TierMedium: le.DeepDive, TierLong: le.Masterclass, SourceTag: le.Source}
		if !c.Complete() {
			continue
		}
		if t := fromMillis(le.CreatedAt); t != nil {
			c.CreatedAt = *t
		}
		e := domain.NewEntry(id, c, status, append([]string{}, le.ValidationIssues...))
		e.ReviewedAt = fromMillis(deref(le.ReviewedAt))
		if le.ReviewedBy != nil {
			e.ReviewedBy = *le.ReviewedBy
		}
		out[strconv.Itoa(id)] = e
	}
	if !legacy {
		return nil, false
	}
	return out, true
}

func migrateHistoryDoc(data []byte) (any, bool) {
	var doc struct {
		Selections []struct {
			BookID    int   `json:"bookId"`
			Timestamp int64 `json:"timestamp"`
		} `json:"selections"`
	}
	if err := json.Unmarshal(data, &doc); err != nil || doc.Selections == nil {
		return nil, false
	}
	out := historyDoc{Selections: make([]domain.SelectionRecord, 0, len(doc.Selections))}
	for _, r := range doc.Selections {
		ts := fromMillis(r.Timestamp)
		if r.BookID <= 0 || ts == nil {
			continue
		}
		out.Selections = append(out.Selections, domain.SelectionRecord{ItemID: r.BookID, Timestamp: *ts})
	}
	return out, true
}

func migrateStateDoc(data []byte) (any, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	if _, ok := raw["currentBookId"]; !ok {
		return nil, false
	}
	var doc struct {
		CurrentBookID *int  `json:"currentBookId"`
		SelectedAt    int64 `json:"selectedAt"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	var p domain.CurrentPick
	if doc.CurrentBookID != nil && *doc.CurrentBookID > 0 {
		id := *doc.CurrentBookID
		p.ItemID = &id
		p.SelectedAt = fromMillis(doc.SelectedAt)
	}
	return p, true
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
