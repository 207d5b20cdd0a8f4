package models

import (
	"time"

	"gorm.io/datatypes"
)

// CatalogEntry is one canonical real-world collectible shared by every owner.
// CatalogKey is immutable once assigned; the Ident* columns denormalize the
// strong identifiers for indexed lookup.
type CatalogEntry struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	CatalogKey    string                      `json:"catalog_key" gorm:"size:191;uniqueIndex;not null"`
	CanonicalName string                      `json:"canonical_name" gorm:"size:512;not null"`
	Category      string                      `json:"category" gorm:"size:64;index"`
	Identifiers   datatypes.JSONMap           `json:"identifiers"`
	MarketParams  datatypes.JSONMap           `json:"market_params"`
	InfoLinks     datatypes.JSONSlice[string] `json:"info_links"`

	IdentSerial     *string `json:"-" gorm:"size:191;index"`
	IdentEAN        *string `json:"-" gorm:"column:ident_ean;size:191;index"`
	IdentTCGID      *string `json:"-" gorm:"column:ident_tcg_id;size:191;index"`
	IdentDiscogsID  *string `json:"-" gorm:"size:191;index"`
	IdentPCID       *string `json:"-" gorm:"column:ident_pc_id;size:191;index"`
	IdentLegoSet    *string `json:"-" gorm:"size:191;index"`
	IdentStockXSlug *string `json:"-" gorm:"column:ident_stockx_slug;size:191;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`
}

func (CatalogEntry) TableName() string { return "global_catalog" }

// IdentifierFields lists the Ident* struct fields, each carrying its own lookup index.
var IdentifierFields = []string{
	"IdentSerial",
	"IdentEAN",
	"IdentTCGID",
	"IdentDiscogsID",
	"IdentPCID",
	"IdentLegoSet",
	"IdentStockXSlug",
}
