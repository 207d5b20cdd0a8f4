package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"collectibles-vault/internal/apperr"
	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// identColumns maps identifier kinds to their denormalized columns.
var identColumns = map[Kind]string{
	KindTradingCardID:      "ident_tcg_id",
	KindLegoSetNumber:      "ident_lego_set",
	KindCatalogProviderID:  "ident_discogs_id",
	KindResalePlatformSlug: "ident_stockx_slug",
	KindPricingProviderID:  "ident_pc_id",
	KindEANOrUPC:           "ident_ean",
	KindSerial:             "ident_serial",
}

// Actor is the caller on whose behalf the store mutates entries. Only
// privileged actors may update an existing entry.
type Actor struct {
	Username   string
	Privileged bool
}

type EnsureRequest struct {
	Category     string
	MarketParams map[string]any
	HintName     string
}

type EnsureResult struct {
	ID         uint   `json:"catalog_entry_id"`
	CatalogKey string `json:"catalog_key"`
	Created    bool   `json:"created"`
}

// Summary is a catalog entry joined with its full price history.
type Summary struct {
	Entry  models.CatalogEntry
	Prices []models.PriceSnapshot
}

type SearchFilter struct {
	Query    string
	Category string
	Limit    int
}

type ListFilter struct {
	// MissingSnapshotOn restricts to entries with no snapshot for that ref date.
	MissingSnapshotOn string
	// Exclude drops these ids before the limit applies.
	Exclude []uint
	Limit   int
}

// Store persists canonical catalog entries.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewStore(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: db, log: logger.OrNop(log).With("component", "catalog"), now: time.Now}
}

// WithClock overrides the time source; used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// EnsureEntry resolves the request to a catalog entry id, creating the entry
// on first sight of its key. Concurrent callers racing on the same new key
// all observe the winner's id.
func (s *Store) EnsureEntry(ctx context.Context, actor Actor, req EnsureRequest) (*EnsureResult, error) {
	ids := NormalizeIdentifiers(req.Category, req.MarketParams)
	key := ResolveKey(req.Category, ids, req.MarketParams)

	existing, err := s.findByKey(ctx, key)
	if err == nil {
		if actor.Privileged {
			if err := s.backfill(ctx, existing, ids, req.HintName); err != nil {
				return nil, err
			}
		}
		return &EnsureResult{ID: existing.ID, CatalogKey: key}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find catalog entry %q: %w", key, err)
	}

	now := s.now()
	entry := models.CatalogEntry{
		CatalogKey:    key,
		CanonicalName: CanonicalName(req.Category, req.HintName, now),
		Category:      strings.TrimSpace(req.Category),
		Identifiers:   identifierJSON(datatypes.JSONMap(cloneParams(req.MarketParams)), ids),
		MarketParams:  datatypes.JSONMap(cloneParams(req.MarketParams)),
		InfoLinks:     datatypes.JSONSlice[string]{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyIdentColumns(&entry, ids)

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "catalog_key"}}, DoNothing: true}).
		Create(&entry)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("create catalog entry %q: %w", key, res.Error)
	}
	if res.Error == nil && res.RowsAffected > 0 {
		s.log.Info("catalog entry created", "id", entry.ID, "catalog_key", key)
		return &EnsureResult{ID: entry.ID, CatalogKey: key, Created: true}, nil
	}

	winner, err := s.findByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("re-read catalog entry %q after conflict: %w", key, err)
	}
	s.log.Debug("catalog key already created by concurrent caller", "id", winner.ID, "catalog_key", key)
	return &EnsureResult{ID: winner.ID, CatalogKey: key}, nil
}

func (s *Store) backfill(ctx context.Context, entry *models.CatalogEntry, ids Identifiers, hint string) error {
	updates := map[string]any{}
	for kind, value := range ids.Map() {
		updates[identColumns[Kind(kind)]] = value
	}
	if len(updates) > 0 {
		updates["identifiers"] = identifierJSON(entry.Identifiers, ids)
	}
	if h := strings.TrimSpace(hint); h != "" && h != entry.CanonicalName {
		updates["canonical_name"] = h
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = s.now()
	if err := s.db.WithContext(ctx).Model(&models.CatalogEntry{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("backfill catalog entry %d: %w", entry.ID, err)
	}
	return nil
}

// UpdateInfoLinks replaces the entry's links with the cleaned list.
func (s *Store) UpdateInfoLinks(ctx context.Context, actor Actor, id uint, links []string) ([]string, error) {
	if !actor.Privileged {
		return nil, fmt.Errorf("update info links: %w", apperr.ErrForbidden)
	}
	if _, err := s.byID(ctx, id); err != nil {
		return nil, err
	}
	clean := CleanLinks(links)
	err := s.db.WithContext(ctx).Model(&models.CatalogEntry{}).Where("id = ?", id).Updates(map[string]any{
		"info_links": datatypes.JSONSlice[string](clean),
		"updated_at": s.now(),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update info links of %d: %w", id, err)
	}
	return clean, nil
}

// InfoLinks returns the stored links of an entry.
func (s *Store) InfoLinks(ctx context.Context, id uint) ([]string, error) {
	entry, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	return append([]string{}, entry.InfoLinks...), nil
}

// Entry loads a single entry without its prices.
func (s *Store) Entry(ctx context.Context, id uint) (*models.CatalogEntry, error) {
	return s.byID(ctx, id)
}

// Get returns the entry with its price history ordered by day.
func (s *Store) Get(ctx context.Context, id uint) (*Summary, error) {
	entry, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	var prices []models.PriceSnapshot
	if err := s.db.WithContext(ctx).
		Where("catalog_entry_id = ?", id).
		Order("ref_date ASC").Order("source ASC").
		Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("load prices of %d: %w", id, err)
	}
	return &Summary{Entry: *entry, Prices: prices}, nil
}

// Search matches name or key substrings and/or the category, most recently
// updated first.
func (s *Store) Search(ctx context.Context, f SearchFilter) ([]models.CatalogEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	q := s.db.WithContext(ctx).Model(&models.CatalogEntry{})
	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(canonical_name) LIKE ? OR LOWER(catalog_key) LIKE ?", like, like)
	}
	if cat := strings.TrimSpace(f.Category); cat != "" {
		stored, err := s.categoriesMatching(ctx, cat)
		if err != nil {
			return nil, err
		}
		if len(stored) == 0 {
			return []models.CatalogEntry{}, nil
		}
		q = q.Where("category IN ?", stored)
	}
	var out []models.CatalogEntry
	if err := q.Order("updated_at DESC").Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}
	return out, nil
}

// categoriesMatching returns the stored category spellings that normalize to
// the same category as cat.
func (s *Store) categoriesMatching(ctx context.Context, cat string) ([]string, error) {
	var stored []string
	if err := s.db.WithContext(ctx).Model(&models.CatalogEntry{}).Distinct("category").Pluck("category", &stored).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	want := NormalizeCategory(cat)
	out := stored[:0]
	for _, c := range stored {
		if NormalizeCategory(c) == want {
			out = append(out, c)
		}
	}
	return out, nil
}

// FindByIdentifier looks an entry up through the denormalized identifier columns.
func (s *Store) FindByIdentifier(ctx context.Context, kind Kind, value string) (*models.CatalogEntry, error) {
	col, ok := identColumns[kind]
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return nil, fmt.Errorf("lookup by %q: %w", kind, apperr.ErrInvalidArgument)
	}
	var entry models.CatalogEntry
	err := s.db.WithContext(ctx).Where(col+" = ?", value).Order("id ASC").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("catalog entry with %s=%s: %w", kind, value, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup by %s: %w", kind, err)
	}
	return &entry, nil
}

// List returns entries for batch refreshes, most recently updated first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.CatalogEntry, error) {
	q := s.db.WithContext(ctx).Model(&models.CatalogEntry{})
	if f.MissingSnapshotOn != "" {
		done := s.db.Model(&models.PriceSnapshot{}).Select("catalog_entry_id").Where("ref_date = ?", f.MissingSnapshotOn)
		q = q.Where("id NOT IN (?)", done)
	}
	if len(f.Exclude) > 0 {
		q = q.Where("id NOT IN ?", f.Exclude)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []models.CatalogEntry
	if err := q.Order("updated_at DESC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	return out, nil
}

func (s *Store) findByKey(ctx context.Context, key string) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	if err := s.db.WithContext(ctx).Where("catalog_key = ?", key).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) byID(ctx context.Context, id uint) (*models.CatalogEntry, error) {
	var entry models.CatalogEntry
	err := s.db.WithContext(ctx).First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("catalog entry %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog entry %d: %w", id, err)
	}
	return &entry, nil
}

// IdentifiersOf rebuilds the identifier slots from an entry's denormalized columns.
func IdentifiersOf(entry *models.CatalogEntry) Identifiers {
	var ids Identifiers
	set := func(kind Kind, v *string) {
		if v != nil {
			ids.Set(kind, *v)
		}
	}
	set(KindTradingCardID, entry.IdentTCGID)
	set(KindLegoSetNumber, entry.IdentLegoSet)
	set(KindCatalogProviderID, entry.IdentDiscogsID)
	set(KindResalePlatformSlug, entry.IdentStockXSlug)
	set(KindPricingProviderID, entry.IdentPCID)
	set(KindEANOrUPC, entry.IdentEAN)
	set(KindSerial, entry.IdentSerial)
	return ids
}

func applyIdentColumns(entry *models.CatalogEntry, ids Identifiers) {
	ptr := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	entry.IdentTCGID = ptr(ids.TradingCardID)
	entry.IdentLegoSet = ptr(ids.LegoSetNumber)
	entry.IdentDiscogsID = ptr(ids.CatalogProviderID)
	entry.IdentStockXSlug = ptr(ids.ResalePlatformSlug)
	entry.IdentPCID = ptr(ids.PricingProviderID)
	entry.IdentEAN = ptr(ids.EANOrUPC)
	entry.IdentSerial = ptr(ids.Serial)
}

func identifierJSON(existing datatypes.JSONMap, ids Identifiers) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range ids.Map() {
		out[k] = v
	}
	return out
}

func cloneParams(in map[string]any) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
