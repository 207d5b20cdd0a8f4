package pricing

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a price from the loose shapes APIs return: JSON numbers,
// numeric strings ("12.50", "$1,299.00") or json.Number.
func ParseAmount(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimLeft(s, "$€£¥ ")
		s = strings.ReplaceAll(s, ",", "")
		if s == "" {
			return 0, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	}
	return 0, false
}

// FromCents converts integer minor units (pennies) to a major-unit amount.
func FromCents(v any) (float64, bool) {
	amount, ok := ParseAmount(v)
	if !ok {
		return 0, false
	}
	return decimal.NewFromFloat(amount).Shift(-2).InexactFloat64(), true
}
