package justtcg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardsPayload = `{"data":[{"id":"pokemon-base-set-charizard","name":"Charizard","variants":[
	{"condition":"Near Mint","printing":"Holofoil","price":350.5},
	{"condition":"Lightly Played","printing":"Holofoil","price":280},
	{"condition":"Near Mint","printing":"1st Edition Holofoil","price":9000},
	{"condition":"Damaged","printing":"Holofoil","price":null}]}]}`

func TestQuoteMany_ByTCGPlayerID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cards", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "12345", r.URL.Query().Get("tcgplayerId"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(cardsPayload))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, APIKey: "secret"}, nil)
	q := pricing.Query{Category: "trading card", Identifiers: catalog.Identifiers{TradingCardID: "12345"}}

	res := a.QuoteMany(context.Background(), q)
	require.Equal(t, pricing.StatusOK, res.Status)
	assert.Len(t, res.Observations, 3)

	q.Params = map[string]any{"printing": "holofoil"}
	res = a.QuoteMany(context.Background(), q)
	require.Equal(t, pricing.StatusOK, res.Status)
	assert.Equal(t, []pricing.Observation{{Price: 350.5, Currency: "USD"}, {Price: 280, Currency: "USD"}}, res.Observations)

	obs, ok := a.Quote(context.Background(), q)
	require.True(t, ok)
	assert.Equal(t, 280.0, obs.Price)
}

func TestQuoteMany_NameSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Black Lotus", r.URL.Query().Get("q"))
		assert.Equal(t, "magic-the-gathering", r.URL.Query().Get("game"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, APIKey: "secret"}, nil)
	res := a.QuoteMany(context.Background(), pricing.Query{
		Name:   "Black Lotus",
		Params: map[string]any{"game": "Magic-The-Gathering"},
	})
	assert.Equal(t, pricing.StatusEmpty, res.Status)
}

func TestQuoteMany_NoKey(t *testing.T) {
	res := New(Config{}, nil).QuoteMany(context.Background(), pricing.Query{Name: "x"})
	assert.Equal(t, pricing.StatusUnconfigured, res.Status)
}
