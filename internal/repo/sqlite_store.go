package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/daily-tiers/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience.
var ErrNotFound = gorm.ErrRecordNotFound

const currentPickRowID = 1

// SQLStore implements Store on GORM. Every mutation touches a single row.
type SQLStore struct {
	DB *gorm.DB
}

// NewSQLStore wraps db; the schema must already be migrated.
func NewSQLStore(db *gorm.DB) *SQLStore { return &SQLStore{DB: db} }

func (s *SQLStore) LoadEntries(ctx context.Context) ([]domain.CacheEntry, error) {
	var out []domain.CacheEntry
	err := s.DB.WithContext(ctx).Order("item_id ASC").Find(&out).Error
	return out, err
}

// entryColumns lists every non-key column. UpdateAll would skip created_at,
// but a regenerated entry must carry its new generation time.
var entryColumns = []string{
	"tier_short", "tier_medium", "tier_long", "status", "validation_issues",
	"created_at", "reviewed_at", "reviewed_by", "source_tag",
}

func (s *SQLStore) PutEntry(ctx context.Context, e domain.CacheEntry) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns(entryColumns),
		}).
		Create(&e).Error
}

func (s *SQLStore) DeleteEntry(ctx context.Context, itemID int) error {
	return s.DB.WithContext(ctx).Delete(&domain.CacheEntry{}, "item_id = ?", itemID).Error
}

func (s *SQLStore) ClearEntries(ctx context.Context, ids []int) error {
	q := s.DB.WithContext(ctx)
	if ids == nil {
		return q.Where("1 = 1").Delete(&domain.CacheEntry{}).Error
	}
	if len(ids) == 0 {
		return nil
	}
	return q.Where("item_id IN ?", ids).Delete(&domain.CacheEntry{}).Error
}

func (s *SQLStore) SelectionsBetween(ctx context.Context, from, to time.Time) ([]domain.SelectionRecord, error) {
	var out []domain.SelectionRecord
	err := s.DB.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", from.UTC(), to.UTC()).
		Order("timestamp ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (s *SQLStore) AppendSelection(ctx context.Context, rec domain.SelectionRecord) error {
	rec.ID = 0
	rec.Timestamp = rec.Timestamp.UTC()
	return s.DB.WithContext(ctx).Create(&rec).Error
}

func (s *SQLStore) GetCurrentPick(ctx context.Context) (domain.CurrentPick, error) {
	var p domain.CurrentPick
	err := s.DB.WithContext(ctx).First(&p, currentPickRowID).Error
	if errors.Is(err, ErrNotFound) {
		return domain.CurrentPick{}, nil
	}
	return p, err
}

func (s *SQLStore) SaveCurrentPick(ctx context.Context, p domain.CurrentPick) error {
	p.ID = currentPickRowID
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&p).Error
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
