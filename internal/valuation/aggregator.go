package valuation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/models"
	"collectibles-vault/internal/pricing"
	"collectibles-vault/internal/snapshot"

	"github.com/google/uuid"
)

// SourceOutcome reports what one source contributed to a refresh.
type SourceOutcome struct {
	Source  string         `json:"source"`
	Status  pricing.Status `json:"status"`
	Samples int            `json:"samples"`
	Error   string         `json:"error,omitempty"`
}

// Report is the result of one catalog-level refresh.
type Report struct {
	CatalogEntryID uint                   `json:"catalog_entry_id"`
	RequestID      string                 `json:"request_id"`
	Snapshots      []models.PriceSnapshot `json:"snapshots"`
	Sources        []SourceOutcome        `json:"sources"`
}

// Aggregator queries every routed source for a catalog entry and records one
// snapshot per source for today. Sources are never blended.
type Aggregator struct {
	catalog   *catalog.Store
	snapshots *snapshot.Store
	registry  *pricing.Registry
	workers   int
	log       *logger.Logger
	now       func() time.Time
}

func NewAggregator(cat *catalog.Store, snaps *snapshot.Store, registry *pricing.Registry, workers int, log *logger.Logger) *Aggregator {
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{
		catalog:   cat,
		snapshots: snaps,
		registry:  registry,
		workers:   workers,
		log:       logger.OrNop(log).With("component", "aggregator"),
		now:       time.Now,
	}
}

// Refresh prices one entry. Unknown ids return apperr.ErrNotFound; source
// failures are reported per source and never fail the call.
func (a *Aggregator) Refresh(ctx context.Context, entryID uint) (*Report, error) {
	entry, err := a.catalog.Entry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	ids := catalog.IdentifiersOf(entry)
	q := pricing.Query{
		Name:        searchName(entry),
		Category:    entry.Category,
		Identifiers: ids,
		Params:      map[string]any(entry.MarketParams),
	}

	adapters := a.registry.SourcesForEntry(entry.Category, ids)
	results := QuoteAll(ctx, adapters, q, a.workers)

	report := &Report{CatalogEntryID: entryID, RequestID: uuid.NewString()}
	var errs []error
	for _, r := range results {
		outcome := SourceOutcome{Source: r.Source, Status: r.Status, Samples: len(r.Observations)}
		if r.Err != nil {
			outcome.Error = r.Err.Error()
		}
		report.Sources = append(report.Sources, outcome)
		if r.Absent() {
			continue
		}

		stats := pricing.Summarize(r.Observations, "")
		row, err := a.snapshots.Upsert(ctx, entryID, r.Source, stats, a.queryRecord(report.RequestID, r, q))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		report.Snapshots = append(report.Snapshots, *row)
	}
	a.log.Info("catalog entry refreshed",
		"catalog_entry_id", entryID, "request_id", report.RequestID,
		"sources", len(results), "snapshots", len(report.Snapshots))
	if len(errs) > 0 {
		return report, fmt.Errorf("store snapshots for %d: %w", entryID, errors.Join(errs...))
	}
	return report, nil
}

func (a *Aggregator) queryRecord(requestID string, r pricing.Result, q pricing.Query) map[string]any {
	return map[string]any{
		"request_id":  requestID,
		"source":      r.Source,
		"status":      string(r.Status),
		"name":        q.Name,
		"category":    q.Category,
		"identifiers": q.Identifiers.Map(),
		"params":      q.Params,
		"fetched_at":  a.now().UTC().Format(time.RFC3339),
	}
}

// searchName drops generated placeholder names, which no source can match.
func searchName(entry *models.CatalogEntry) string {
	if strings.HasPrefix(entry.CanonicalName, "ITEM_") {
		return ""
	}
	return entry.CanonicalName
}
