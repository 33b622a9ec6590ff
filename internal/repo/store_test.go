package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/daily-tiers/internal/domain"
)

func newMemSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := fmt.Sprintf("file:store_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s := NewSQLStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTempJSONStore(t *testing.T) *JSONStore {
	t.Helper()
	s, err := NewJSONStore(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	return s
}

// forEachStore runs fn against both backends.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newMemSQLStore(t)) })
	t.Run("json", func(t *testing.T) { fn(t, newTempJSONStore(t)) })
}

func sampleEntry(id int, status domain.EntryStatus) domain.CacheEntry {
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	e := domain.NewEntry(id, domain.Content{
		TierShort:  fmt.Sprintf("short-%d", id),
		TierMedium: fmt.Sprintf("medium-%d", id),
		TierLong:   fmt.Sprintf("long-%d", id),
		CreatedAt:  created,
		SourceTag:  "deepseek-chat",
	}, status, []string{})
	if status == domain.StatusApproved {
		at := created.Add(time.Hour)
		e.ReviewedAt = &at
		e.ReviewedBy = "admin"
	}
	return e
}

func sameEntry(a, b domain.CacheEntry) bool {
	if a.ItemID != b.ItemID || a.Status != b.Status || a.ReviewedBy != b.ReviewedBy || a.SourceTag != b.SourceTag {
		return false
	}
	if a.TierShort != b.TierShort || a.TierMedium != b.TierMedium || a.TierLong != b.TierLong {
		return false
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	if (a.ReviewedAt == nil) != (b.ReviewedAt == nil) || (a.ReviewedAt != nil && !a.ReviewedAt.Equal(*b.ReviewedAt)) {
		return false
	}
	return len(a.ValidationIssues) == len(b.ValidationIssues)
}

func TestStore_PutLoadRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := sampleEntry(2, domain.StatusApproved)
		if err := s.PutEntry(ctx, want); err != nil {
			t.Fatalf("PutEntry: %v", err)
		}
		if err := s.PutEntry(ctx, sampleEntry(1, domain.StatusPending)); err != nil {
			t.Fatalf("PutEntry: %v", err)
		}
		got, err := s.LoadEntries(ctx)
		if err != nil {
			t.Fatalf("LoadEntries: %v", err)
		}
		if len(got) != 2 || got[0].ItemID != 1 || got[1].ItemID != 2 {
			t.Fatalf("unexpected entries: %+v", got)
		}
		if !sameEntry(got[1], want) {
			t.Fatalf("round trip mismatch:\n got=%+v\nwant=%+v", got[1], want)
		}
	})
}

func TestStore_PutReplacesIncludingCreatedAt(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		first := sampleEntry(5, domain.StatusApproved)
		if err := s.PutEntry(ctx, first); err != nil {
			t.Fatalf("PutEntry: %v", err)
		}
		second := sampleEntry(5, domain.StatusPending)
		second.TierShort = "regenerated"
		second.CreatedAt = first.CreatedAt.Add(48 * time.Hour)
		if err := s.PutEntry(ctx, second); err != nil {
			t.Fatalf("PutEntry: %v", err)
		}
		got, err := s.LoadEntries(ctx)
		if err != nil || len(got) != 1 {
			t.Fatalf("LoadEntries: %v %+v", err, got)
		}
		if !sameEntry(got[0], second) {
			t.Fatalf("replace mismatch:\n got=%+v\nwant=%+v", got[0], second)
		}
	})
}

func TestStore_DeleteAndClear(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for id := 1; id <= 4; id++ {
			if err := s.PutEntry(ctx, sampleEntry(id, domain.StatusPending)); err != nil {
				t.Fatalf("PutEntry: %v", err)
			}
		}
		// absent key is a no-op
		if err := s.DeleteEntry(ctx, 99); err != nil {
			t.Fatalf("DeleteEntry absent: %v", err)
		}
		if err := s.DeleteEntry(ctx, 1); err != nil {
			t.Fatalf("DeleteEntry: %v", err)
		}
		if err := s.ClearEntries(ctx, []int{2, 3}); err != nil {
			t.Fatalf("ClearEntries ids: %v", err)
		}
		got, _ := s.LoadEntries(ctx)
		if len(got) != 1 || got[0].ItemID != 4 {
			t.Fatalf("expected only entry 4, got %+v", got)
		}
		if err := s.ClearEntries(ctx, []int{}); err != nil {
			t.Fatalf("ClearEntries empty: %v", err)
		}
		if got, _ := s.LoadEntries(ctx); len(got) != 1 {
			t.Fatalf("empty id list must not clear, got %+v", got)
		}
		if err := s.ClearEntries(ctx, nil); err != nil {
			t.Fatalf("ClearEntries all: %v", err)
		}
		if got, _ := s.LoadEntries(ctx); len(got) != 0 {
			t.Fatalf("expected empty cache, got %+v", got)
		}
	})
}

func TestStore_SelectionsWindow(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
		for i, off := range []time.Duration{-time.Hour, 0, 6 * time.Hour, 24 * time.Hour} {
			if err := s.AppendSelection(ctx, domain.SelectionRecord{ItemID: i + 1, Timestamp: base.Add(off)}); err != nil {
				t.Fatalf("AppendSelection: %v", err)
			}
		}
		got, err := s.SelectionsBetween(ctx, base, base.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("SelectionsBetween: %v", err)
		}
		var ids []int
		for _, r := range got {
			ids = append(ids, r.ItemID)
		}
		if !reflect.DeepEqual(ids, []int{2, 3}) {
			t.Fatalf("window ids = %v; want [2 3]", ids)
		}
	})
}

func TestStore_CurrentPick(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p, err := s.GetCurrentPick(ctx)
		if err != nil || p.ItemID != nil {
			t.Fatalf("expected empty pick, got %+v err=%v", p, err)
		}
		id := 3
		at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		for _, v := range []int{9, id} {
			v := v
			if err := s.SaveCurrentPick(ctx, domain.CurrentPick{ItemID: &v, SelectedAt: &at}); err != nil {
				t.Fatalf("SaveCurrentPick: %v", err)
			}
		}
		p, err = s.GetCurrentPick(ctx)
		if err != nil || p.ItemID == nil || *p.ItemID != id || !p.SelectedAt.Equal(at) {
			t.Fatalf("unexpected pick %+v err=%v", p, err)
		}
		if err := s.Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
	})
}

func TestJSONStore_InitializesAndRepairsDocuments(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, CacheFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, HistoryFile), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewJSONStore(dir)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	for _, name := range []string{CacheFile, HistoryFile, StateFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}
	entries, err := s.LoadEntries(context.Background())
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty cache after repair, got %+v err=%v", entries, err)
	}
	if _, err := os.Stat(filepath.Join(dir, CacheFile+".tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestJSONStore_KeysByStringifiedID(t *testing.T) {
	s := newTempJSONStore(t)
	if err := s.PutEntry(context.Background(), sampleEntry(12, domain.StatusPending)); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}
	data, err := os.ReadFile(s.path(CacheFile))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := doc["12"]; !ok {
		t.Fatalf("expected key \"12\" in %s", data)
	}
}

func writeDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestJSONStore_ConvertsLegacyDocuments(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	writeDoc(t, dir, HistoryFile, `{"selections":[{"bookId":3,"timestamp":1700000000000},{"bookId":0,"timestamp":5}]}`)
	writeDoc(t, dir, StateFile, `{"currentBookId":3,"selectedAt":1700000000000}`)
	writeDoc(t, dir, CacheFile, `{
		"2": {"resonance":"r","deep_dive":"d","masterclass":"m","status":"approved","validationIssues":[],
		      "reviewedAt":1700000100000,"reviewedBy":"admin","createdAt":1700000000000,"source":"deepseek"},
		"4": {"resonance":"r","deep_dive":"d","masterclass":"m","status":"rejected","createdAt":1700000000000},
		"5": {"resonance":"r","deep_dive":"","masterclass":"m","status":"pending","createdAt":1700000000000}
	}`)

	s, err := NewJSONStore(dir)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	ctx := context.Background()
	at := time.UnixMilli(1700000000000).UTC()

	recs, err := s.SelectionsBetween(ctx, at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("SelectionsBetween: %v", err)
	}
	if len(recs) != 1 || recs[0].ItemID != 3 || !recs[0].Timestamp.Equal(at) {
		t.Fatalf("unexpected history: %+v", recs)
	}
	if err := s.AppendSelection(ctx, domain.SelectionRecord{ItemID: 4, Timestamp: at.Add(time.Minute)}); err != nil {
		t.Fatalf("AppendSelection after conversion: %v", err)
	}

	p, err := s.GetCurrentPick(ctx)
	if err != nil || p.ItemID == nil || *p.ItemID != 3 || p.SelectedAt == nil || !p.SelectedAt.Equal(at) {
		t.Fatalf("unexpected current pick: %+v err=%v", p, err)
	}

	entries, err := s.LoadEntries(ctx)
	if err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("want only the complete approved entry, got %+v", entries)
	}
	e := entries[0]
	if e.ItemID != 2 || e.Status != domain.StatusApproved || e.TierMedium != "d" || e.ReviewedBy != "admin" || e.SourceTag != "deepseek" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.ReviewedAt == nil || !e.CreatedAt.Equal(at) {
		t.Fatalf("timestamps not converted: %+v", e)
	}
}

func TestJSONStore_ResetsWronglyShapedDocuments(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	writeDoc(t, dir, HistoryFile, `{"bookId":3,"timestamp":1700000000000}`)
	writeDoc(t, dir, StateFile, `[1,2,3]`)
	writeDoc(t, dir, CacheFile, `{"7":{"status":"rejected"}}`)

	s, err := NewJSONStore(dir)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	ctx := context.Background()
	now := time.Now().UTC()
	if err := s.AppendSelection(ctx, domain.SelectionRecord{ItemID: 1, Timestamp: now}); err != nil {
		t.Fatalf("AppendSelection: %v", err)
	}
	recs, err := s.SelectionsBetween(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	if err != nil || len(recs) != 1 {
		t.Fatalf("history not usable after reset: %+v err=%v", recs, err)
	}
	if p, err := s.GetCurrentPick(ctx); err != nil || p.ItemID != nil {
		t.Fatalf("state not reset: %+v err=%v", p, err)
	}
	if entries, err := s.LoadEntries(ctx); err != nil || len(entries) != 0 {
		t.Fatalf("cache not reset: %+v err=%v", entries, err)
	}

	kept, err := os.ReadFile(filepath.Join(dir, HistoryFile+".bad"))
	if err != nil || string(kept) != `{"bookId":3,"timestamp":1700000000000}` {
		t.Fatalf("replaced document not kept: %q err=%v", kept, err)
	}
}

func TestJSONStore_CurrentLayoutSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewJSONStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := s.PutEntry(ctx, sampleEntry(9, domain.StatusApproved)); err != nil {
		t.Fatal(err)
	}
	id, at := 9, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := s.SaveCurrentPick(ctx, domain.CurrentPick{ItemID: &id, SelectedAt: &at}); err != nil {
		t.Fatal(err)
	}

	again, err := NewJSONStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	entries, err := again.LoadEntries(ctx)
	if err != nil || len(entries) != 1 || entries[0].ItemID != 9 {
		t.Fatalf("entry lost on reopen: %+v err=%v", entries, err)
	}
	for _, name := range []string{CacheFile, HistoryFile, StateFile} {
		if _, err := os.Stat(filepath.Join(dir, name+".bad")); !os.IsNotExist(err) {
			t.Fatalf("%s was treated as malformed", name)
		}
	}
}
