package pricecharting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPayload = `{"status":"success","id":"6910","product-name":"EarthBound",
	"console-name":"Super Nintendo","loose-price":24999,"cib-price":52500,"new-price":190000}`

func TestQuoteMany_SearchThenDetail(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "tok", r.URL.Query().Get("t"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/products":
			assert.Equal(t, "EarthBound Super Nintendo", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(`{"status":"success","products":[{"id":"6910","product-name":"EarthBound"}]}`))
		case "/api/product":
			assert.Equal(t, "6910", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(productPayload))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, Token: "tok"}, nil)
	res := a.QuoteMany(context.Background(), pricing.Query{
		Name:     "EarthBound",
		Category: "videogames",
		Params:   map[string]any{"platform": "Super Nintendo"},
	})
	require.Equal(t, pricing.StatusOK, res.Status)
	assert.Equal(t, []pricing.Observation{
		{Price: 249.99, Currency: "USD"},
		{Price: 525, Currency: "USD"},
		{Price: 1900, Currency: "USD"},
	}, res.Observations)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestQuoteMany_KnownIDSkipsSearch(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/api/product", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(productPayload))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, Token: "tok"}, nil)
	obs, ok := a.Quote(context.Background(), pricing.Query{
		Identifiers: catalog.Identifiers{PricingProviderID: "6910"},
		Params:      map[string]any{"condition": "CIB"},
	})
	require.True(t, ok)
	assert.Equal(t, 525.0, obs.Price)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestQuoteMany_ErrorStatusIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0045496830434", r.URL.Query().Get("upc"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"error","error-message":"No such product"}`))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, Token: "tok"}, nil)
	res := a.QuoteMany(context.Background(), pricing.Query{Identifiers: catalog.Identifiers{EANOrUPC: "0045496830434"}})
	assert.Equal(t, pricing.StatusEmpty, res.Status)
}

func TestQuoteMany_MalformedPayloadFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, Token: "tok"}, nil)
	res := a.QuoteMany(context.Background(), pricing.Query{Identifiers: catalog.Identifiers{PricingProviderID: "1"}})
	assert.Equal(t, pricing.StatusFailed, res.Status)
}
