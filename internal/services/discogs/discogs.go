// Package discogs prices records through Discogs marketplace price suggestions.
package discogs

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/pricing"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.discogs.com"

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type searchResponse struct {
	Results []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Type  string `json:"type"`
	} `json:"results"`
}

type suggestion struct {
	Currency string  `json:"currency"`
	Value    float64 `json:"value"`
}

func New(cfg Config, log *logger.Logger) *pricing.HTTPAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	token := cfg.Token
	return pricing.NewHTTPAdapter(pricing.Options{
		Source:          pricing.SourceDiscogs,
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
	auth := "Discogs token=" + token

	releaseID := q.Identifiers.CatalogProviderID
	if releaseID == "" {
		params := map[string]string{"type": "release", "per_page": "5"}
		switch {
		case q.Identifiers.EANOrUPC != "":
			params["barcode"] = q.Identifiers.EANOrUPC
		case q.Param("artist") != "" || q.Param("album") != "":
			params["artist"] = q.Param("artist")
			params["release_title"] = q.Param("album")
		case q.SearchText() != "":
			params["q"] = q.SearchText()
		default:
			return nil, pricing.ErrNoMatch
		}
		if format := formatFor(q.Category); format != "" {
			params["format"] = format
		}

		var out searchResponse
		resp, err := client.R().
			SetContext(ctx).
			SetHeader("Authorization", auth).
			SetQueryParams(params).
			SetResult(&out).
			Get("/database/search")
		if err := pricing.CheckResponse(resp, err); err != nil {
			return nil, err
		}
		if len(out.Results) == 0 {
			return nil, pricing.ErrNoMatch
		}
		releaseID = fmt.Sprintf("%d", out.Results[0].ID)
	}

	var suggestions map[string]suggestion
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetResult(&suggestions).
		Get("/marketplace/price_suggestions/" + url.PathEscape(releaseID))
	if err := pricing.CheckResponse(resp, err); err != nil {
		return nil, err
	}

	want := strings.ToLower(q.Param("condition"))
	obs := make([]pricing.Observation, 0, len(suggestions))
	for grade, s := range suggestions {
		if want != "" && !strings.Contains(strings.ToLower(grade), want) {
			continue
		}
		obs = append(obs, pricing.Observation{Price: s.Value, Currency: s.Currency})
	}
	if len(obs) == 0 {
		return nil, pricing.ErrNoMatch
	}
	return obs, nil
}

func formatFor(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "vinyl", "vynil":
		return "Vinyl"
	case "cd":
		return "CD"
	}
	return ""
}
