package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/logger"

	"github.com/go-resty/resty/v2"
)

// Status classifies the outcome of one adapter call.
type Status string

const (
	StatusOK           Status = "ok"
	StatusEmpty        Status = "empty"
	StatusUnconfigured Status = "unconfigured"
	StatusFailed       Status = "failed"
)

var (
	// ErrNotConfigured marks an adapter whose credentials are missing.
	ErrNotConfigured = errors.New("price source not configured")
	// ErrNoMatch is returned by fetchers when the source knows nothing about the item.
	ErrNoMatch = errors.New("no matching product")
)

// Observation is one price point in the source's native currency.
type Observation struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// Query is everything an adapter may use to locate an item.
type Query struct {
	Name        string
	Category    string
	Identifiers catalog.Identifiers
	Params      map[string]any
}

// Param returns a trimmed string market param, or "".
func (q Query) Param(key string) string {
	if q.Params == nil {
		return ""
	}
	switch v := q.Params[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%v", v)
	case int:
		return fmt.Sprintf("%d", v)
	}
	return ""
}

// SearchText is the free-text query used by sources without an identifier hit.
func (q Query) SearchText() string {
	if n := strings.TrimSpace(q.Name); n != "" {
		return n
	}
	return q.Param("query")
}

// Result is the typed outcome of QuoteMany. Adapters never return errors to
// callers; Err only carries the logged reason.
type Result struct {
	Source       string
	Status       Status
	Observations []Observation
	Err          error
}

// Usable reports whether the result carries at least one price.
func (r Result) Usable() bool {
	return r.Status == StatusOK && len(r.Observations) > 0
}

// Absent reports whether the source produced nothing worth recording.
func (r Result) Absent() bool {
	return r.Status == StatusUnconfigured || r.Status == StatusFailed
}

// Adapter wraps one external pricing source.
type Adapter interface {
	Source() string
	Quote(ctx context.Context, q Query) (Observation, bool)
	QuoteMany(ctx context.Context, q Query) Result
}

// FetchFunc performs the source-specific search and detail calls.
type FetchFunc func(ctx context.Context, client *resty.Client, q Query) ([]Observation, error)

// Options configures an HTTPAdapter.
type Options struct {
	Source          string
	BaseURL         string
	Configured      bool
	Timeout         time.Duration
	DefaultCurrency string
	Logger          *logger.Logger
	Fetch           FetchFunc
}

// HTTPAdapter implements the Adapter contract around a resty client and a
// source-specific FetchFunc.
type HTTPAdapter struct {
	source     string
	client     *resty.Client
	timeout    time.Duration
	currency   string
	configured bool
	log        *logger.Logger
	fetch      FetchFunc
}

func NewHTTPAdapter(opts Options) *HTTPAdapter {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetBaseURL(strings.TrimRight(opts.BaseURL, "/"))
	client.SetHeader("Accept", "application/json")
	client.SetHeader("User-Agent", "collectibles-vault/1.0")

	cur := strings.ToUpper(opts.DefaultCurrency)
	if cur == "" {
		cur = "USD"
	}
	return &HTTPAdapter{
		source:     opts.Source,
		client:     client,
		timeout:    timeout,
		currency:   cur,
		configured: opts.Configured && opts.Fetch != nil,
		log:        logger.OrNop(opts.Logger).With("source", opts.Source),
		fetch:      opts.Fetch,
	}
}

func (a *HTTPAdapter) Source() string { return a.source }

// Configured reports whether the source has the credentials it needs.
func (a *HTTPAdapter) Configured() bool { return a.configured }

func (a *HTTPAdapter) QuoteMany(ctx context.Context, q Query) Result {
	if !a.configured {
		return Result{Source: a.source, Status: StatusUnconfigured, Err: ErrNotConfigured}
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	obs, err := a.fetch(ctx, a.client, q)
	if errors.Is(err, ErrNoMatch) {
		a.log.Debug("price source has no match", "name", q.Name, "category", q.Category)
		return Result{Source: a.source, Status: StatusEmpty}
	}
	if err != nil {
		a.log.Warn("price source failed", "reason", err.Error(), "name", q.Name, "category", q.Category)
		return Result{Source: a.source, Status: StatusFailed, Err: err}
	}

	usable := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Price <= 0 || math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
			continue
		}
		if o.Currency == "" {
			o.Currency = a.currency
		}
		o.Currency = strings.ToUpper(o.Currency)
		usable = append(usable, o)
	}
	if len(usable) == 0 {
		return Result{Source: a.source, Status: StatusEmpty}
	}
	return Result{Source: a.source, Status: StatusOK, Observations: usable}
}

func (a *HTTPAdapter) Quote(ctx context.Context, q Query) (Observation, bool) {
	return PointQuote(a.QuoteMany(ctx, q))
}

// PointQuote reduces a result to a single observation: the only sample, or
// the lower median sample by price.
func PointQuote(r Result) (Observation, bool) {
	if !r.Usable() {
		return Observation{}, false
	}
	sorted := append([]Observation(nil), r.Observations...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })
	return sorted[(len(sorted)-1)/2], true
}

// StatusError is returned by CheckResponse for non-2xx replies.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, body)
}

// CheckResponse folds transport errors and non-2xx statuses into one error.
func CheckResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}
