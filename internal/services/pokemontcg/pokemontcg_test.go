package pokemontcg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"collectibles-vault/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteMany_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/cards", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, `name:"Charizard" set.name:"Base" number:4`, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"base1-4","name":"Charizard","tcgplayer":{"prices":{
			"holofoil":{"low":200,"mid":300,"high":900,"market":320.25},
			"1stEditionHolofoil":{"low":5000,"mid":7000}}}}]}`))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, APIKey: "key"}, nil)
	res := a.QuoteMany(context.Background(), pricing.Query{
		Name:   "Charizard",
		Params: map[string]any{"set_name": "Base", "number": "4"},
	})
	require.Equal(t, pricing.StatusOK, res.Status)
	assert.ElementsMatch(t, []pricing.Observation{
		{Price: 320.25, Currency: "USD"},
		{Price: 7000, Currency: "USD"},
	}, res.Observations)
}

func TestQuoteMany_ByCardID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/cards/base1-4", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"base1-4","tcgplayer":{"prices":{"holofoil":{"market":310}}}}}`))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, APIKey: "key"}, nil)
	obs, ok := a.Quote(context.Background(), pricing.Query{Params: map[string]any{"pokemontcg_id": "base1-4"}})
	require.True(t, ok)
	assert.Equal(t, 310.0, obs.Price)
}

func TestQuoteMany_NoPriceBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"x","tcgplayer":{}}]}`))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, APIKey: "key"}, nil)
	assert.Equal(t, pricing.StatusEmpty, a.QuoteMany(context.Background(), pricing.Query{Name: "Pikachu"}).Status)
	assert.Equal(t, pricing.StatusEmpty, a.QuoteMany(context.Background(), pricing.Query{}).Status)
}
