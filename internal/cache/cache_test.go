package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/daily-tiers/internal/domain"
	"github.com/tbourn/daily-tiers/internal/repo"
)

// flakyStore fails every mutation while fail is set.
type flakyStore struct {
	repo.Store
	fail bool
}

var errDisk = errors.New("disk full")

func (f *flakyStore) PutEntry(ctx context.Context, e domain.CacheEntry) error {
	if f.fail {
		return errDisk
	}
	return f.Store.PutEntry(ctx, e)
}

func (f *flakyStore) DeleteEntry(ctx context.Context, id int) error {
	if f.fail {
		return errDisk
	}
	return f.Store.DeleteEntry(ctx, id)
}

func (f *flakyStore) ClearEntries(ctx context.Context, ids []int) error {
	if f.fail {
		return errDisk
	}
	return f.Store.ClearEntries(ctx, ids)
}

func newStore(t *testing.T) *flakyStore {
	t.Helper()
	s, err := repo.NewJSONStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return &flakyStore{Store: s}
}

func entry(id int, status domain.EntryStatus) domain.CacheEntry {
	return domain.NewEntry(id, domain.Content{
		TierShort: "s", TierMedium: "m", TierLong: "l",
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		SourceTag: "deepseek-chat",
	}, status, nil)
}

func TestPutGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := Load(ctx, newStore(t))
	require.NoError(t, err)

	e := entry(4, domain.StatusPending)
	require.NoError(t, c.Put(ctx, e))
	got, ok := c.Get(4)
	require.True(t, ok)
	assert.Equal(t, e, got)
}

func TestLoad_ReadsPersistedEntries(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c1, err := Load(ctx, s)
	require.NoError(t, err)
	require.NoError(t, c1.Put(ctx, entry(1, domain.StatusApproved)))
	require.NoError(t, c1.Put(ctx, entry(2, domain.StatusPending)))

	c2, err := Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, c2.Len())
	got, ok := c2.Get(1)
	require.True(t, ok)
	assert.Equal(t, domain.StatusApproved, got.Status)
}

func TestDelete_AbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c, err := Load(ctx, s)
	require.NoError(t, err)

	s.fail = true // must not even reach the store
	removed, err := c.Delete(ctx, 42)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStorageFailureLeavesViewUntouched(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c, err := Load(ctx, s)
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, entry(1, domain.StatusPending)))

	s.fail = true
	err = c.Put(ctx, entry(2, domain.StatusPending))
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, errDisk)
	_, ok := c.Get(2)
	assert.False(t, ok)

	_, err = c.Delete(ctx, 1)
	assert.ErrorIs(t, err, ErrStorage)
	_, ok = c.Get(1)
	assert.True(t, ok)

	_, err = c.Clear(ctx, nil)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, 1, c.Len())
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	c, err := Load(ctx, newStore(t))
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, entry(3, domain.StatusPending)))

	next, err := c.Update(ctx, 3, func(cur domain.CacheEntry, ok bool) (domain.CacheEntry, bool, error) {
		require.True(t, ok)
		cur.Status = domain.StatusApproved
		cur.ReviewedBy = "alice"
		return cur, true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, next.Status)
	got, _ := c.Get(3)
	assert.Equal(t, "alice", got.ReviewedBy)

	boom := errors.New("boom")
	_, err = c.Update(ctx, 3, func(domain.CacheEntry, bool) (domain.CacheEntry, bool, error) {
		return domain.CacheEntry{}, false, boom
	})
	assert.ErrorIs(t, err, boom)
	got, _ = c.Get(3)
	assert.Equal(t, domain.StatusApproved, got.Status)
}

func TestClearAndAll(t *testing.T) {
	ctx := context.Background()
	c, err := Load(ctx, newStore(t))
	require.NoError(t, err)
	for _, id := range []int{3, 1, 2} {
		require.NoError(t, c.Put(ctx, entry(id, domain.StatusPending)))
	}
	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{all[0].ItemID, all[1].ItemID, all[2].ItemID})

	n, err := c.Clear(ctx, []int{2, 9})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = c.Clear(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, c.Len())
}
