// Package ebay prices items from active eBay listings through the Browse API.
package ebay

import (
	"context"
	"strings"
	"time"

	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/pricing"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL  = "https://api.ebay.com"
	DefaultTokenURL = "https://api.ebay.com/identity/v1/oauth2/token"
	Scope           = "https://api.ebay.com/oauth/api_scope"
	searchLimit     = "50"
)

type Config struct {
	BaseURL       string
	MarketplaceID string
	Tokens        pricing.TokenProvider
	Timeout       time.Duration
}

type searchResponse struct {
	Total         int `json:"total"`
	ItemSummaries []struct {
		Title string `json:"title"`
		Price struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"itemSummaries"`
}

// New builds the marketplace-aggregator adapter. Without a token provider it
// reports every query as unconfigured.
func New(cfg Config, log *logger.Logger) *pricing.HTTPAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MarketplaceID == "" {
		cfg.MarketplaceID = "EBAY_US"
	}
	tokens := cfg.Tokens
	return pricing.NewHTTPAdapter(pricing.Options{
		Source:          pricing.SourceEbay,
		BaseURL:         cfg.BaseURL,
		Configured:      tokens != nil,
		Timeout:         cfg.Timeout,
		DefaultCurrency: "USD",
		Logger:          log,
		Fetch: func(ctx context.Context, client *resty.Client, q pricing.Query) ([]pricing.Observation, error) {
			return search(ctx, client, tokens, cfg.MarketplaceID, q)
		},
	})
}

func search(ctx context.Context, client *resty.Client, tokens pricing.TokenProvider, marketplace string, q pricing.Query) ([]pricing.Observation, error) {
	token, err := tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	params := map[string]string{"limit": searchLimit}
	if ean := q.Identifiers.EANOrUPC; ean != "" {
		params["gtin"] = ean
	} else {
		text := q.SearchText()
		if text == "" {
			return nil, pricing.ErrNoMatch
		}
		params["q"] = text
	}
	if strings.TrimSpace(q.Param("condition")) == "new" {
		params["filter"] = "conditions:{NEW}"
	}

	var out searchResponse
	resp, err := client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("X-EBAY-C-MARKETPLACE-ID", marketplace).
		SetQueryParams(params).
		SetResult(&out).
		Get("/buy/browse/v1/item_summary/search")
	if err := pricing.CheckResponse(resp, err); err != nil {
		return nil, err
	}
	if len(out.ItemSummaries) == 0 {
		return nil, pricing.ErrNoMatch
	}

	obs := make([]pricing.Observation, 0, len(out.ItemSummaries))
	for _, it := range out.ItemSummaries {
		if v, ok := pricing.ParseAmount(it.Price.Value); ok {
			obs = append(obs, pricing.Observation{Price: v, Currency: it.Price.Currency})
		}
	}
	return obs, nil
}
