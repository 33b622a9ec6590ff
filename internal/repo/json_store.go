package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/daily-tiers/internal/domain"
)

// Document file names inside the data directory.
const (
	CacheFile   = "cache.json"
	HistoryFile = "history.json"
	StateFile   = "state.json"
)

type historyDoc struct {
	Selections []domain.SelectionRecord `json:"selections"`
}

// JSONStore implements Store as three JSON documents. Each mutation reads
// the whole document, changes it, and writes it back through a temp file and
// rename, so a crash never leaves a half-written document.
type JSONStore struct {
	mu  sync.Mutex
	dir string
}

// NewJSONStore prepares dir. Each document must decode into its current
// layout; a legacy layout is converted in place, and anything else that is
// missing, empty, unreadable, or wrongly shaped is replaced by an empty
// default. Replaced content is kept next to it with a ".bad" suffix.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &JSONStore{dir: dir}
	docs := []struct {
		name    string
		def     any
		check   func([]byte) error
		migrate func([]byte) (any, bool)
	}{
		{CacheFile, map[string]domain.CacheEntry{}, checkCacheDoc, migrateCacheDoc},
		{HistoryFile, historyDoc{Selections: []domain.SelectionRecord{}}, checkHistoryDoc, migrateHistoryDoc},
		{StateFile, domain.CurrentPick{}, checkStateDoc, migrateStateDoc},
	}
	for _, d := range docs {
		if err := s.ensure(d.name, d.def, d.check, d.migrate); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *JSONStore) path(name string) string { return filepath.Join(s.dir, name) }

func (s *JSONStore) ensure(name string, def any, check func([]byte) error, migrate func([]byte) (any, bool)) error {
	data, err := os.ReadFile(s.path(name))
	switch {
	case os.IsNotExist(err):
		return s.write(name, def)
	case err != nil:
		log.Warn().Err(err).Str("file", name).Msg("unreadable document, resetting to default")
		return s.write(name, def)
	case len(bytes.TrimSpace(data)) == 0:
		return s.write(name, def)
	}

	cerr := check(data)
	if cerr == nil {
		return nil
	}
	if v, ok := migrate(data); ok {
		log.Info().Str("file", name).Msg("converted legacy document")
		return s.write(name, v)
	}
	log.Warn().Err(cerr).Str("file", name).Msg("document has unexpected shape, resetting to default")
	if err := os.WriteFile(s.path(name)+".bad", data, 0o644); err != nil {
		log.Warn().Err(err).Str("file", name).Msg("could not keep copy of replaced document")
	}
	return s.write(name, def)
}

func (s *JSONStore) read(name string, v any) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (s *JSONStore) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *JSONStore) readCache() (map[string]domain.CacheEntry, error) {
	m := map[string]domain.CacheEntry{}
	if err := s.read(CacheFile, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]domain.CacheEntry{}
	}
	return m, nil
}

func (s *JSONStore) LoadEntries(ctx context.Context) ([]domain.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.readCache()
	if err != nil {
		return nil, err
	}
	out := make([]domain.CacheEntry, 0, len(m))
	for k, e := range m {
		// the key is authoritative
		if id, err := strconv.Atoi(k); err == nil {
			e.ItemID = id
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (s *JSONStore) PutEntry(ctx context.Context, e domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.readCache()
	if err != nil {
		return err
	}
	m[strconv.Itoa(e.ItemID)] = e
	return s.write(CacheFile, m)
}

func (s *JSONStore) DeleteEntry(ctx context.Context, itemID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.readCache()
	if err != nil {
		return err
	}
	key := strconv.Itoa(itemID)
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.write(CacheFile, m)
}

func (s *JSONStore) ClearEntries(ctx context.Context, ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids == nil {
		return s.write(CacheFile, map[string]domain.CacheEntry{})
	}
	m, err := s.readCache()
	if err != nil {
		return err
	}
	for _, id := range ids {
		delete(m, strconv.Itoa(id))
	}
	return s.write(CacheFile, m)
}

func (s *JSONStore) SelectionsBetween(ctx context.Context, from, to time.Time) ([]domain.SelectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var h historyDoc
	if err := s.read(HistoryFile, &h); err != nil {
		return nil, err
	}
	var out []domain.SelectionRecord
	for _, r := range h.Selections {
		if !r.Timestamp.Before(from) && r.Timestamp.Before(to) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *JSONStore) AppendSelection(ctx context.Context, rec domain.SelectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var h historyDoc
	if err := s.read(HistoryFile, &h); err != nil {
		return err
	}
	rec.Timestamp = rec.Timestamp.UTC()
	h.Selections = append(h.Selections, rec)
	return s.write(HistoryFile, h)
}

func (s *JSONStore) GetCurrentPick(ctx context.Context) (domain.CurrentPick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p domain.CurrentPick
	err := s.read(StateFile, &p)
	return p, err
}

func (s *JSONStore) SaveCurrentPick(ctx context.Context, p domain.CurrentPick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(StateFile, p)
}

// Ping verifies the data directory is still accessible.
func (s *JSONStore) Ping(ctx context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

func (s *JSONStore) Close() error { return nil }
