// Package stockx prices sneakers and streetwear from StockX market data.
package stockx

import (
	"context"
	"net/url"
	"strings"
	"time"

	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/pricing"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL  = "https://api.stockx.com"
	DefaultTokenURL = "https://accounts.stockx.com/oauth/token"
)

type Config struct {
	BaseURL  string
	APIKey   string
	Tokens   pricing.TokenProvider
	Currency string
	Timeout  time.Duration
}

func New(cfg Config, log *logger.Logger) *pricing.HTTPAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return pricing.NewHTTPAdapter(pricing.Options{
		Source:          pricing.SourceStockX,
		BaseURL:         cfg.BaseURL,
		Configured:      cfg.APIKey != "" && cfg.Tokens != nil,
		Timeout:         cfg.Timeout,
		DefaultCurrency: cfg.Currency,
		Logger:          log,
		Fetch: func(ctx context.Context, client *resty.Client, q pricing.Query) ([]pricing.Observation, error) {
			return quote(ctx, client, cfg, q)
		},
	})
}

func quote(ctx context.Context, client *resty.Client, cfg Config, q pricing.Query) ([]pricing.Observation, error) {
	token, err := cfg.Tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	req := func() *resty.Request {
		return client.R().SetContext(ctx).SetHeader("x-api-key", cfg.APIKey).SetAuthToken(token)
	}

	slug := q.Identifiers.ResalePlatformSlug
	text := slug
	if text == "" {
		text = firstNonEmpty(q.Param("sku"), q.SearchText())
	}
	if text == "" {
		return nil, pricing.ErrNoMatch
	}

	resp, err := req().SetQueryParams(map[string]string{"query": text, "pageSize": "10"}).Get("/v2/catalog/search")
	if err := pricing.CheckResponse(resp, err); err != nil {
		return nil, err
	}
	doc, err := pricing.DecodeDocument(resp.Body())
	if err != nil {
		return nil, err
	}
	productID := productFor(doc, slug)
	if productID == "" {
		return nil, pricing.ErrNoMatch
	}

	resp, err = req().
		SetQueryParam("currencyCode", strings.ToUpper(cfg.Currency)).
		Get("/v2/catalog/products/" + url.PathEscape(productID) + "/market-data")
	if err := pricing.CheckResponse(resp, err); err != nil {
		return nil, err
	}
	market, err := pricing.DecodeDocument(resp.Body())
	if err != nil {
		return nil, err
	}

	var obs []pricing.Observation
	for _, v := range pricing.Lookup(market, "$[*].lowestAskAmount") {
		if amount, ok := pricing.ParseAmount(v); ok {
			obs = append(obs, pricing.Observation{Price: amount, Currency: cfg.Currency})
		}
	}
	if len(obs) == 0 {
		for _, v := range pricing.Lookup(market, "$[*].lastSaleAmount") {
			if amount, ok := pricing.ParseAmount(v); ok {
				obs = append(obs, pricing.Observation{Price: amount, Currency: cfg.Currency})
			}
		}
	}
	return obs, nil
}

// productFor picks the search hit whose urlKey equals slug, else the first hit.
func productFor(doc any, slug string) string {
	first := ""
	for _, p := range pricing.Lookup(doc, "$.products[*]") {
		product, ok := p.(map[string]any)
		if !ok {
			continue
		}
		id, _ := product["productId"].(string)
		if id == "" {
			continue
		}
		if slug != "" && product["urlKey"] == slug {
			return id
		}
		if first == "" {
			first = id
		}
	}
	return first
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
