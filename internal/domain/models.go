// Package domain defines the catalog item, the generated tiered content, and
// the persistence models for the approval cache, the selection history and the
// current pick. The persistence types are mapped with GORM and also serialize
// to the JSON document store.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Item is one entry of the static catalog. Items are immutable once loaded.
type Item struct {
	ID             int    `json:"id"              yaml:"id"`
	PrimaryTitle   string `json:"primary_title"   yaml:"primary_title"`
	SecondaryTitle string `json:"secondary_title" yaml:"secondary_title"`
	Author         string `json:"author"          yaml:"author"`
}

// Content is a generated triple of summaries at three depths.
type Content struct {
	TierShort  string    `json:"tier_short"`
	TierMedium string    `json:"tier_medium"`
	TierLong   string    `json:"tier_long"`
	CreatedAt  time.Time `json:"created_at"`
	SourceTag  string    `json:"source_tag"`
}

// Complete reports whether all three tiers carry text.
func (c Content) Complete() bool {
	return c.TierShort != "" && c.TierMedium != "" && c.TierLong != ""
}

// EntryStatus is the durable approval state of a cache entry. A missing entry
// is the "absent" state; rejected entries are deleted rather than stored.
type EntryStatus string

const (
	StatusPending  EntryStatus = "pending"
	StatusApproved EntryStatus = "approved"
)

// CacheEntry is the approval-tracked content for one item.
//
// Fields:
//   - ItemID: catalog item id; primary key, one entry per item.
//   - TierShort / TierMedium / TierLong: content, all present or all absent.
//   - Status: pending or approved.
//   - ValidationIssues: issue codes recorded at generation time (JSON column).
//   - CreatedAt: when the content was generated.
//   - ReviewedAt / ReviewedBy: set when approved by a reviewer or by policy.
//   - SourceTag: identifies the generation backend/model.
type CacheEntry struct {
	ItemID           int                         `json:"item_id"                 gorm:"primaryKey;autoIncrement:false"`
	TierShort        string                      `json:"tier_short"              gorm:"type:text"`
	TierMedium       string                      `json:"tier_medium"             gorm:"type:text"`
	TierLong         string                      `json:"tier_long"               gorm:"type:text"`
	Status           EntryStatus                 `json:"status"                  gorm:"type:varchar(16);not null;index;check:status IN ('pending','approved')"`
	ValidationIssues datatypes.JSONSlice[string] `json:"validation_issues"       gorm:"type:json"`
	CreatedAt        time.Time                   `json:"created_at"`
	ReviewedAt       *time.Time                  `json:"reviewed_at,omitempty"`
	ReviewedBy       string                      `json:"reviewed_by,omitempty"   gorm:"type:varchar(64)"`
	SourceTag        string                      `json:"source_tag"              gorm:"type:varchar(64)"`
}

// TableName returns the database table name for CacheEntry.
func (CacheEntry) TableName() string { return "cache_entries" }

// Content projects the servable part of the entry.
func (e CacheEntry) Content() Content {
	return Content{
		TierShort:  e.TierShort,
		TierMedium: e.TierMedium,
		TierLong:   e.TierLong,
		CreatedAt:  e.CreatedAt,
		SourceTag:  e.SourceTag,
	}
}

// HasContent reports whether all three tiers are present.
func (e CacheEntry) HasContent() bool { return e.Content().Complete() }

// NewEntry builds an entry from freshly generated content.
func NewEntry(itemID int, c Content, status EntryStatus, issues []string) CacheEntry {
	return CacheEntry{
		ItemID:           itemID,
		TierShort:        c.TierShort,
		TierMedium:       c.TierMedium,
		TierLong:         c.TierLong,
		Status:           status,
		ValidationIssues: datatypes.JSONSlice[string](issues),
		CreatedAt:        c.CreatedAt,
		SourceTag:        c.SourceTag,
	}
}

// SelectionRecord marks that an item was chosen by the cooldown pick.
// Records are append-only.
type SelectionRecord struct {
	ID        uint      `json:"-"         gorm:"primaryKey"`
	ItemID    int       `json:"item_id"   gorm:"not null;index"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
}

// TableName returns the database table name for SelectionRecord.
func (SelectionRecord) TableName() string { return "selections" }

// CurrentPick is the snapshot of the most recent cooldown pick.
// The SQL store keeps it as a single row with ID 1.
type CurrentPick struct {
	ID         uint       `json:"-"           gorm:"primaryKey"`
	ItemID     *int       `json:"item_id"`
	SelectedAt *time.Time `json:"selected_at"`
}

// TableName returns the database table name for CurrentPick.
func (CurrentPick) TableName() string { return "current_pick" }
