// Package pokemontcg prices Pokemon cards from the TCGplayer block returned
// by pokemontcg.io.
package pokemontcg

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

const DefaultBaseURL = "https://api.pokemontcg.io"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type priceBlock struct {
	Low    *float64 `json:"low"`
	Mid    *float64 `json:"mid"`
	High   *float64 `json:"high"`
	Market *float64 `json:"market"`
}

type card struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TCGPlayer struct {
		Prices map[string]priceBlock `json:"prices"`
	} `json:"tcgplayer"`
}

func New(cfg Config, log *logger.Logger) *pricing.HTTPAdapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	key := cfg.APIKey
	return pricing.NewHTTPAdapter(pricing.Options{
		Source:          pricing.SourcePokemonTCG,
		BaseURL:         cfg.BaseURL,
		Configured:      key != "",
		Timeout:         cfg.Timeout,
		DefaultCurrency: "USD",
		Logger:          log,
		Fetch: func(ctx context.Context, client *resty.Client, q pricing.Query) ([]pricing.Observation, error) {
			return quote(ctx, client, key, q)
		},
	})
}

func quote(ctx context.Context, client *resty.Client, key string, q pricing.Query) ([]pricing.Observation, error) {
	req := client.R().SetContext(ctx).SetHeader("X-Api-Key", key)

	var cards []card
	if id := q.Param("pokemontcg_id"); id != "" {
		var out struct {
			Data card `json:"data"`
		}
		resp, err := req.SetResult(&out).Get("/v2/cards/" + url.PathEscape(id))
		if err := pricing.CheckResponse(resp, err); err != nil {
			return nil, err
		}
		cards = []card{out.Data}
	} else {
		search := searchExpr(q)
		if search == "" {
			return nil, pricing.ErrNoMatch
		}
		var out struct {
			Data []card `json:"data"`
		}
		resp, err := req.
			SetQueryParams(map[string]string{"q": search, "pageSize": "5"}).
			SetResult(&out).
			Get("/v2/cards")
		if err := pricing.CheckResponse(resp, err); err != nil {
			return nil, err
		}
		cards = out.Data
	}
	if len(cards) == 0 {
		return nil, pricing.ErrNoMatch
	}

	var obs []pricing.Observation
	for _, c := range cards {
		for _, block := range c.TCGPlayer.Prices {
			price := block.Market
			if price == nil {
				price = block.Mid
			}
			if price != nil {
				obs = append(obs, pricing.Observation{Price: *price, Currency: "USD"})
			}
		}
		if len(obs) > 0 {
			break
		}
	}
	return obs, nil
}

// searchExpr builds a Lucene-style card query from the name and optional
// set and number params.
func searchExpr(q pricing.Query) string {
	name := q.SearchText()
	if name == "" {
		return ""
	}
	parts := []string{fmt.Sprintf("name:%q", name)}
	if set := q.Param("set_name"); set != "" {
		parts = append(parts, fmt.Sprintf("set.name:%q", set))
	}
	if num := q.Param("number"); num != "" {
		parts = append(parts, "number:"+strings.ReplaceAll(num, " ", ""))
	}
	return strings.Join(parts, " ")
}
