// Package justtcg prices trading cards through the JustTCG card API.
package justtcg

import (
	"context"
	"strings"
	"time"

	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/pricing"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.justtcg.com"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type cardsResponse struct {
	Data []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Variants []struct {
			Condition string   `json:"condition"`
			Printing  string   `json:"printing"`
			Price     *float64 `json:"price"`
		} `json:"variants"`
	} `json:"data"`
}

func New(cfg Config, log *logger.Logger) *pricing.HTTPAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	key := cfg.APIKey
	return pricing.NewHTTPAdapter(pricing.Options{
		Source:          pricing.SourceJustTCG,
		BaseURL:         cfg.BaseURL,
		Configured:      key != "",
		Timeout:         cfg.Timeout,
		DefaultCurrency: "USD",
		Logger:          log,
		Fetch: func(ctx context.Context, client *resty.Client, q pricing.Query) ([]pricing.Observation, error) {
			return cards(ctx, client, key, q)
		},
	})
}

func cards(ctx context.Context, client *resty.Client, key string, q pricing.Query) ([]pricing.Observation, error) {
	params := map[string]string{}
	if id := q.Identifiers.TradingCardID; id != "" {
		params["tcgplayerId"] = id
	} else {
		text := q.SearchText()
		if text == "" {
			return nil, pricing.ErrNoMatch
		}
		params["q"] = text
		if game := q.Param("game"); game != "" {
			params["game"] = strings.ToLower(game)
		}
	}
	if cond := q.Param("condition"); cond != "" {
		params["condition"] = cond
	}

	var out cardsResponse
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("x-api-key", key).
		SetQueryParams(params).
		SetResult(&out).
		Get("/v1/cards")
	if err := pricing.CheckResponse(resp, err); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, pricing.ErrNoMatch
	}

	printing := strings.ToLower(q.Param("printing"))
	card := out.Data[0]
	obs := make([]pricing.Observation, 0, len(card.Variants))
	for _, v := range card.Variants {
		if v.Price == nil {
			continue
		}
		if printing != "" && strings.ToLower(v.Printing) != printing {
			continue
		}
		obs = append(obs, pricing.Observation{Price: *v.Price, Currency: "USD"})
	}
	return obs, nil
}
