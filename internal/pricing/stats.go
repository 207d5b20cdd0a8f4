package pricing

import (
	"sort"

	"collectibles-vault/internal/currency"

	"github.com/shopspring/decimal"
)

// Stats is the per-source summary persisted as a daily snapshot.
type Stats struct {
	Count    int      `json:"samples_count"`
	Avg      *float64 `json:"avg"`
	Median   *float64 `json:"median"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency string   `json:"currency"`
}

// Summarize merges observations into count/avg/median/min/max. Prices in
// other currencies are converted to target first; an empty target adopts the
// first observation's currency. Values are rounded to two decimals.
func Summarize(obs []Observation, target string) Stats {
	if len(obs) == 0 {
		return Stats{Currency: target}
	}
	if target == "" {
		target = obs[0].Currency
	}

	prices := make([]decimal.Decimal, 0, len(obs))
	for _, o := range obs {
		prices = append(prices, decimal.NewFromFloat(currency.Convert(o.Price, o.Currency, target)))
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })

	n := len(prices)
	sum := decimal.Sum(prices[0], prices[1:]...)
	avg := sum.Div(decimal.NewFromInt(int64(n)))
	median := prices[n/2]
	if n%2 == 0 {
		median = prices[n/2-1].Add(prices[n/2]).Div(decimal.NewFromInt(2))
	}

	return Stats{
		Count:    n,
		Avg:      round2(avg),
		Median:   round2(median),
		Min:      round2(prices[0]),
		Max:      round2(prices[n-1]),
		Currency: target,
	}
}

func round2(d decimal.Decimal) *float64 {
	v := d.Round(2).InexactFloat64()
	return &v
}
