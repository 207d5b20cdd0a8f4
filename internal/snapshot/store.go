// Package snapshot persists the daily per-source price time series.
package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collectibles-vault/internal/apperr"
	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/models"
	"collectibles-vault/internal/pricing"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DateLayout is the calendar-day format of RefDate.
const DateLayout = "2006-01-02"

type HistoryFilter struct {
	Source string
	Since  string // YYYY-MM-DD, inclusive
}

type Store struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewStore(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: logger.OrNop(log).With("component", "snapshot"), now: time.Now}
}

// WithClock overrides the time source used for RefDate.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Today returns the current ref date.
func (s *Store) Today() string {
	return s.now().Format(DateLayout)
}

// Upsert writes today's row for (entryID, source). A second write on the same
// day overwrites the statistics and query but keeps CreatedAt.
func (s *Store) Upsert(ctx context.Context, entryID uint, source string, stats pricing.Stats, query map[string]any) (*models.PriceSnapshot, error) {
	now := s.now()
	row := models.PriceSnapshot{
		CatalogEntryID: entryID,
		RefDate:        now.Format(DateLayout),
		Source:         source,
		SamplesCount:   stats.Count,
		Avg:            stats.Avg,
		Median:         stats.Median,
		Min:            stats.Min,
		Max:            stats.Max,
		Currency:       strings.ToUpper(stats.Currency),
		Query:          datatypes.JSONMap(query),
		CreatedAt:      now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "catalog_entry_id"}, {Name: "ref_date"}, {Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"samples_count", "avg", "median", "min", "max", "currency", "query",
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("upsert snapshot %d/%s/%s: %w", entryID, row.RefDate, source, err)
	}

	var stored models.PriceSnapshot
	if err := s.db.WithContext(ctx).
		Where("catalog_entry_id = ? AND ref_date = ? AND source = ?", entryID, row.RefDate, source).
		First(&stored).Error; err != nil {
		return nil, fmt.Errorf("re-read snapshot %d/%s/%s: %w", entryID, row.RefDate, source, err)
	}
	s.log.Debug("snapshot stored", "catalog_entry_id", entryID, "source", source, "ref_date", row.RefDate, "samples", stats.Count)
	return &stored, nil
}

// History returns rows ordered by RefDate ascending, then source.
func (s *Store) History(ctx context.Context, entryID uint, f HistoryFilter) ([]models.PriceSnapshot, error) {
	q := s.db.WithContext(ctx).Where("catalog_entry_id = ?", entryID)
	if src := strings.TrimSpace(f.Source); src != "" {
		q = q.Where("source = ?", src)
	}
	if since := strings.TrimSpace(f.Since); since != "" {
		if _, err := time.Parse(DateLayout, since); err != nil {
			return nil, fmt.Errorf("since %q: %w", since, apperr.ErrInvalidArgument)
		}
		q = q.Where("ref_date >= ?", since)
	}
	var rows []models.PriceSnapshot
	if err := q.Order("ref_date ASC").Order("source ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("snapshot history of %d: %w", entryID, err)
	}
	return rows, nil
}

// Latest returns the newest row of every source for an entry.
func (s *Store) Latest(ctx context.Context, entryID uint) ([]models.PriceSnapshot, error) {
	table := models.PriceSnapshot{}.TableName()
	newest := s.db.Table(table).
		Select("source AS latest_source, MAX(ref_date) AS latest_date").
		Where("catalog_entry_id = ?", entryID).
		Group("source")

	var rows []models.PriceSnapshot
	err := s.db.WithContext(ctx).
		Joins("JOIN (?) AS newest ON newest.latest_source = "+table+".source AND newest.latest_date = "+table+".ref_date", newest).
		Where(table+".catalog_entry_id = ?", entryID).
		Order(table + ".source ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("latest snapshots of %d: %w", entryID, err)
	}
	return rows, nil
}
