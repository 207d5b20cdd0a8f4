package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind names one identifier slot. The string value is what gets stored in a
// catalog entry's identifiers map.
type Kind string

const (
	KindTradingCardID      Kind = "tcgplayer_id"
	KindLegoSetNumber      Kind = "lego_set"
	KindCatalogProviderID  Kind = "discogs_id"
	KindResalePlatformSlug Kind = "stockx_slug"
	KindPricingProviderID  Kind = "pricecharting_id"
	KindEANOrUPC           Kind = "ean"
	KindSerial             Kind = "serial"
)

// Identifiers holds the strong, category-specific codes extracted from a raw
// market-params map. Empty string means absent.
type Identifiers struct {
	TradingCardID      string
	LegoSetNumber      string
	CatalogProviderID  string
	ResalePlatformSlug string
	PricingProviderID  string
	EANOrUPC           string
	Serial             string
}

type slotRule struct {
	kind      Kind
	namespace string
	aliases   []string
	get       func(*Identifiers) *string
}

// slotRules is ordered by catalog key priority: the first present slot wins.
var slotRules = []slotRule{
	{KindTradingCardID, "tcg", []string{"tcgplayer_id", "justtcg_id"}, func(i *Identifiers) *string { return &i.TradingCardID }},
	{KindLegoSetNumber, "lego", []string{"set_number"}, func(i *Identifiers) *string { return &i.LegoSetNumber }},
	{KindCatalogProviderID, "discogs", []string{"discogs_release_id", "discogs_master_id"}, func(i *Identifiers) *string { return &i.CatalogProviderID }},
	{KindResalePlatformSlug, "stockx", []string{"stockx_slug", "stockx_urlKey", "stockx_url_key"}, func(i *Identifiers) *string { return &i.ResalePlatformSlug }},
	{KindPricingProviderID, "pc", []string{"pricecharting_id"}, func(i *Identifiers) *string { return &i.PricingProviderID }},
	{KindEANOrUPC, "ean", []string{"ean", "barcode", "upc"}, func(i *Identifiers) *string { return &i.EANOrUPC }},
	{KindSerial, "serial", []string{"serial", "serial_number"}, func(i *Identifiers) *string { return &i.Serial }},
}

// Kinds lists every identifier kind in priority order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(slotRules))
	for _, r := range slotRules {
		out = append(out, r.kind)
	}
	return out
}

// NormalizeIdentifiers extracts the identifier slots from raw market params.
// Each slot takes the first alias with a non-empty trimmed value. Unknown keys
// are ignored. The alias table is the same for every category.
func NormalizeIdentifiers(_ string, raw map[string]any) Identifiers {
	var ids Identifiers
	for _, r := range slotRules {
		for _, alias := range r.aliases {
			if v := scalarString(raw[alias]); v != "" {
				*r.get(&ids) = v
				break
			}
		}
	}
	return ids
}

// Get returns the value stored for kind, or "".
func (ids Identifiers) Get(kind Kind) string {
	for _, r := range slotRules {
		if r.kind == kind {
			return *r.get(&ids)
		}
	}
	return ""
}

// Set stores value (trimmed) under kind. Unknown kinds are ignored.
func (ids *Identifiers) Set(kind Kind, value string) {
	for _, r := range slotRules {
		if r.kind == kind {
			*r.get(ids) = strings.TrimSpace(value)
			return
		}
	}
}

// Map returns kind -> value for every present slot.
func (ids Identifiers) Map() map[string]string {
	out := make(map[string]string)
	for _, r := range slotRules {
		if v := *r.get(&ids); v != "" {
			out[string(r.kind)] = v
		}
	}
	return out
}

// IsEmpty reports whether no slot is populated.
func (ids Identifiers) IsEmpty() bool {
	return len(ids.Map()) == 0
}

// ParseKind accepts either a kind name or one of its raw aliases.
func ParseKind(s string) (Kind, bool) {
	s = strings.TrimSpace(s)
	for _, r := range slotRules {
		if string(r.kind) == s || r.namespace == s {
			return r.kind, true
		}
		for _, a := range r.aliases {
			if a == s {
				return r.kind, true
			}
		}
	}
	return "", false
}

// scalarString renders JSON-decoded scalars as trimmed strings. Integral
// floats lose their fraction so 12345.0 and "12345" normalize identically.
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return strings.TrimSpace(t.String())
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
