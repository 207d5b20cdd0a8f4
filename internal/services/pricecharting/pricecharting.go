// Package pricecharting prices video games, music and other media through
// the PriceCharting product API. Prices come back in pennies.
package pricecharting

import (
	"context"
	"strings"
	"time"

	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/pricing"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://www.pricecharting.com"

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// conditionFields maps a condition param to the detail payload field.
var conditionFields = map[string]string{
	"loose":    "loose-price",
	"cib":      "cib-price",
	"complete": "cib-price",
	"new":      "new-price",
	"sealed":   "new-price",
	"graded":   "graded-price",
	"box":      "box-only-price",
	"manual":   "manual-only-price",
}

var defaultFields = []string{"loose-price", "cib-price", "new-price"}

func New(cfg Config, log *logger.Logger) *pricing.HTTPAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	token := cfg.Token
	return pricing.NewHTTPAdapter(pricing.Options{
		Source:          pricing.SourcePriceCharting,
		BaseURL:         cfg.BaseURL,
		Configured:      token != "",
		Timeout:         cfg.Timeout,
		DefaultCurrency: "USD",
		Logger:          log,
		Fetch: func(ctx context.Context, client *resty.Client, q pricing.Query) ([]pricing.Observation, error) {
			return quote(ctx, client, token, q)
		},
	})
}

func quote(ctx context.Context, client *resty.Client, token string, q pricing.Query) ([]pricing.Observation, error) {
	detail := map[string]string{"t": token}
	switch {
	case q.Identifiers.PricingProviderID != "":
		detail["id"] = q.Identifiers.PricingProviderID
	case q.Identifiers.EANOrUPC != "":
		detail["upc"] = q.Identifiers.EANOrUPC
	default:
		id, err := searchProduct(ctx, client, token, q)
		if err != nil {
			return nil, err
		}
		detail["id"] = id
	}

	resp, err := client.R().SetContext(ctx).SetQueryParams(detail).Get("/api/product")
	if err := pricing.CheckResponse(resp, err); err != nil {
		return nil, err
	}
	doc, err := pricing.DecodeDocument(resp.Body())
	if err != nil {
		return nil, err
	}
	if pricing.LookupString(doc, "$.status") == "error" {
		return nil, pricing.ErrNoMatch
	}

	fields := defaultFields
	if f, ok := conditionFields[strings.ToLower(q.Param("condition"))]; ok {
		fields = []string{f}
	}
	var obs []pricing.Observation
	for _, field := range fields {
		for _, v := range pricing.Lookup(doc, `$["`+field+`"]`) {
			if amount, ok := pricing.FromCents(v); ok {
				obs = append(obs, pricing.Observation{Price: amount, Currency: "USD"})
			}
		}
	}
	return obs, nil
}

func searchProduct(ctx context.Context, client *resty.Client, token string, q pricing.Query) (string, error) {
	text := q.SearchText()
	if text == "" {
		return "", pricing.ErrNoMatch
	}
	if platform := q.Param("platform"); platform != "" && !strings.Contains(strings.ToLower(text), strings.ToLower(platform)) {
		text += " " + platform
	}
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"t": token, "q": text}).
		Get("/api/products")
	if err := pricing.CheckResponse(resp, err); err != nil {
		return "", err
	}
	doc, err := pricing.DecodeDocument(resp.Body())
	if err != nil {
		return "", err
	}
	id := pricing.LookupString(doc, "$.products[0].id")
	if id == "" {
		return "", pricing.ErrNoMatch
	}
	return id, nil
}
