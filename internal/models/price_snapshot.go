package models

import (
	"time"

	"gorm.io/datatypes"
)

// PriceSnapshot stores one day's aggregated observations from one source for
// one catalog entry. (CatalogEntryID, RefDate, Source) is unique; re-submission
// on the same day overwrites the statistics but keeps CreatedAt.
type PriceSnapshot struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	CatalogEntryID uint   `json:"catalog_entry_id" gorm:"not null;uniqueIndex:idx_snapshot_entry_day_source,priority:1"`
	RefDate        string `json:"ref_date" gorm:"size:10;not null;uniqueIndex:idx_snapshot_entry_day_source,priority:2;index"` // YYYY-MM-DD
	Source         string `json:"source" gorm:"size:64;not null;uniqueIndex:idx_snapshot_entry_day_source,priority:3;index"`

	SamplesCount int      `json:"samples_count"`
	Avg          *float64 `json:"avg"`
	Median       *float64 `json:"median"`
	Min          *float64 `json:"min"`
	Max          *float64 `json:"max"`
	Currency     string   `json:"currency" gorm:"size:3"`

	Query     datatypes.JSONMap `json:"query"`
	CreatedAt time.Time         `json:"created_at"`
}

func (PriceSnapshot) TableName() string { return "global_catalog_prices" }
