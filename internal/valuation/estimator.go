// Package valuation turns price source quotes into per-item estimates and
// per-entry daily snapshots.
package valuation

import (
	"context"
	"strings"
	"time"

	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/currency"
	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/pricing"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Policy selects how an ordered adapter list is consumed.
type Policy int

const (
	// FirstSuccess stops at the first adapter, in route order, with a usable price.
	FirstSuccess Policy = iota
	// AggregateAll waits for every adapter and merges their observations.
	AggregateAll
)

func (p Policy) String() string {
	if p == AggregateAll {
		return "aggregate_all"
	}
	return "first_success"
}

// ParsePolicy accepts "first_success" or "aggregate_all"; anything else is FirstSuccess.
func ParsePolicy(s string) Policy {
	if strings.EqualFold(strings.TrimSpace(s), "aggregate_all") {
		return AggregateAll
	}
	return FirstSuccess
}

var (
	fairMultiplier = decimal.RequireFromString("1.20")
	lowMultiplier  = decimal.RequireFromString("0.80")
	highMultiplier = decimal.RequireFromString("1.40")
)

const (
	SourceSalePrice     = "sale_price"
	SourcePurchasePrice = "purchase_price"
)

// Item is what the item CRUD layer knows about one owned item.
type Item struct {
	Name          string         `json:"name"`
	Category      string         `json:"category"`
	MarketParams  map[string]any `json:"market_params"`
	Currency      string         `json:"currency"`
	SalePrice     *float64       `json:"sale_price"`
	PurchasePrice *float64       `json:"purchase_price"`
}

// Estimate is the heuristic fair value and band. All value fields are nil
// when no base price could be found.
type Estimate struct {
	FairValue     *float64 `json:"fair_value"`
	PriceLow      *float64 `json:"price_low"`
	PriceHigh     *float64 `json:"price_high"`
	ValuationDate *string  `json:"valuation_date"`
	BasePrice     *float64 `json:"base_price,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Source        string   `json:"source,omitempty"`
}

// Estimator runs the per-item heuristic.
type Estimator struct {
	registry *pricing.Registry
	workers  int
	policy   Policy
	// fallback is the target currency for items that carry none.
	fallback string
	log      *logger.Logger
	now      func() time.Time
}

func NewEstimator(registry *pricing.Registry, workers int, log *logger.Logger) *Estimator {
	if workers < 1 {
		workers = 1
	}
	return &Estimator{
		registry: registry,
		workers:  workers,
		policy:   FirstSuccess,
		log:      logger.OrNop(log).With("component", "valuation"),
		now:      time.Now,
	}
}

func (e *Estimator) WithPolicy(p Policy) *Estimator {
	e.policy = p
	return e
}

func (e *Estimator) WithDefaultCurrency(code string) *Estimator {
	e.fallback = strings.ToUpper(strings.TrimSpace(code))
	return e
}

func (e *Estimator) WithClock(now func() time.Time) *Estimator {
	e.now = now
	return e
}

// Estimate never fails: sources that error are skipped, and without any
// usable price the result carries only nil values.
func (e *Estimator) Estimate(ctx context.Context, item Item) Estimate {
	target := strings.ToUpper(strings.TrimSpace(item.Currency))
	if target == "" {
		target = e.fallback
	}
	q := pricing.Query{
		Name:        item.Name,
		Category:    item.Category,
		Identifiers: catalog.NormalizeIdentifiers(item.Category, item.MarketParams),
		Params:      item.MarketParams,
	}
	adapters := e.registry.ForCategory(item.Category)

	var (
		base   float64
		cur    string
		source string
		found  bool
	)
	switch e.policy {
	case AggregateAll:
		base, cur, source, found = e.aggregate(ctx, adapters, q, target)
	default:
		var obs pricing.Observation
		obs, source, found = FirstUsable(ctx, adapters, q, e.workers)
		base, cur = obs.Price, obs.Currency
	}

	if !found {
		switch {
		case positive(item.SalePrice):
			base, cur, source, found = *item.SalePrice, target, SourceSalePrice, true
		case positive(item.PurchasePrice):
			base, cur, source, found = *item.PurchasePrice, target, SourcePurchasePrice, true
		}
	}
	if !found {
		e.log.Debug("no base price", "name", item.Name, "category", item.Category)
		return Estimate{}
	}

	out := Band(base)
	if target != "" && cur != "" && cur != target {
		out.FairValue = round(currency.ConvertPtr(out.FairValue, cur, target))
		out.PriceLow = round(currency.ConvertPtr(out.PriceLow, cur, target))
		out.PriceHigh = round(currency.ConvertPtr(out.PriceHigh, cur, target))
		out.BasePrice = round(currency.ConvertPtr(out.BasePrice, cur, target))
		if currency.Supported(cur) && currency.Supported(target) {
			cur = target
		}
	}
	date := e.now().Format("2006-01-02")
	out.ValuationDate = &date
	out.Currency = cur
	out.Source = source
	return out
}

func (e *Estimator) aggregate(ctx context.Context, adapters []pricing.Adapter, q pricing.Query, target string) (float64, string, string, bool) {
	results := QuoteAll(ctx, adapters, q, e.workers)
	var (
		merged  []pricing.Observation
		sources []string
	)
	for _, r := range results {
		if r.Usable() {
			merged = append(merged, r.Observations...)
			sources = append(sources, r.Source)
		}
	}
	if len(merged) == 0 {
		return 0, "", "", false
	}
	st := pricing.Summarize(merged, target)
	return *st.Median, st.Currency, strings.Join(sources, ","), true
}

// Band applies the fixed fair/low/high multipliers to a positive base price.
func Band(base float64) Estimate {
	b := decimal.NewFromFloat(base)
	mul := func(m decimal.Decimal) *float64 {
		v := b.Mul(m).Round(2).InexactFloat64()
		return &v
	}
	bp := b.Round(2).InexactFloat64()
	return Estimate{
		FairValue: mul(fairMultiplier),
		PriceLow:  mul(lowMultiplier),
		PriceHigh: mul(highMultiplier),
		BasePrice: &bp,
	}
}

// FirstUsable queries adapters through a bounded pool and returns the first
// usable quote in route order. Remaining calls are cancelled once it is known.
func FirstUsable(ctx context.Context, adapters []pricing.Adapter, q pricing.Query, workers int) (pricing.Observation, string, bool) {
	if len(adapters) == 0 {
		return pricing.Observation{}, "", false
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := launch(ctx, adapters, q, workers)
	for _, slot := range slots {
		r := <-slot
		if obs, ok := pricing.PointQuote(r); ok {
			return obs, r.Source, true
		}
	}
	return pricing.Observation{}, "", false
}

// QuoteAll runs QuoteMany on every adapter through a bounded pool and
// returns the results in route order.
func QuoteAll(ctx context.Context, adapters []pricing.Adapter, q pricing.Query, workers int) []pricing.Result {
	slots := launch(ctx, adapters, q, workers)
	out := make([]pricing.Result, len(slots))
	for i, slot := range slots {
		out[i] = <-slot
	}
	return out
}

// launch starts adapters in route order with at most workers in flight. Each
// slot receives exactly one result.
func launch(ctx context.Context, adapters []pricing.Adapter, q pricing.Query, workers int) []chan pricing.Result {
	if workers < 1 {
		workers = 1
	}
	slots := make([]chan pricing.Result, len(adapters))
	for i := range slots {
		slots[i] = make(chan pricing.Result, 1)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	go func() {
		for i, a := range adapters {
			i, a := i, a
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					slots[i] <- pricing.Result{Source: a.Source(), Status: pricing.StatusFailed, Err: err}
					return nil
				}
				slots[i] <- a.QuoteMany(ctx, q)
				return nil
			})
		}
		_ = g.Wait()
	}()
	return slots
}

func positive(v *float64) bool { return v != nil && *v > 0 }

func round(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := currency.Round2(*v)
	return &r
}
