package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/models"
	"collectibles-vault/internal/pricing"
	"collectibles-vault/internal/refresh"
	"collectibles-vault/internal/snapshot"
	"collectibles-vault/internal/valuation"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type fixedAdapter struct {
	source string
	price  float64
}

func (a fixedAdapter) Source() string { return a.source }

func (a fixedAdapter) Quote(ctx context.Context, q pricing.Query) (pricing.Observation, bool) {
	return pricing.PointQuote(a.QuoteMany(ctx, q))
}

func (a fixedAdapter) QuoteMany(context.Context, pricing.Query) pricing.Result {
	return pricing.Result{
		Source:       a.source,
		Status:       pricing.StatusOK,
		Observations: []pricing.Observation{{Price: a.price, Currency: "USD"}},
	}
}

type testServer struct {
	router *gin.Engine
	auth   *Auth
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.CatalogEntry{}, &models.PriceSnapshot{}))

	clock := func() time.Time { return time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC) }
	registry := pricing.NewRegistry(fixedAdapter{source: pricing.SourceJustTCG, price: 100})
	cat := catalog.NewStore(db, nil)
	snaps := snapshot.NewStore(db, nil).WithClock(clock)
	agg := valuation.NewAggregator(cat, snaps, registry, 2, nil)

	auth := NewAuth(testSecret, []string{"curator"}, nil)
	r := gin.New()
	SetupRoutes(r.Group("/api/v1"), Deps{
		Catalog:    cat,
		Snapshots:  snaps,
		Estimator:  valuation.NewEstimator(registry, 2, nil).WithClock(clock),
		Aggregator: agg,
		Sampler:    refresh.NewSampler(cat, agg, refresh.Options{Workers: 2}, nil),
	}, auth)
	return &testServer{router: r, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) token(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := s.auth.Sign(claims)
	require.NoError(t, err)
	return tok
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *testServer) resolve(t *testing.T) uint {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/catalog/resolve", map[string]any{
		"category":      "trading card",
		"market_params": map[string]any{"tcgplayer_id": 12345},
		"hint_name":     "Charizard",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(decode(t, w)["catalog_entry_id"].(float64))
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestResolveIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	id := s.resolve(t)

	w := s.do(t, http.MethodPost, "/api/v1/catalog/resolve", map[string]any{
		"category":      "Trading Card",
		"market_params": map[string]any{"tcgplayer_id": "12345"},
		"hint_name":     "Something else",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, id, body["catalog_entry_id"])
	assert.Equal(t, "tcg:12345", body["catalog_key"])
	assert.Equal(t, false, body["created"])

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/catalog/%d", id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	entry := decode(t, w)
	assert.Equal(t, "Charizard", entry["canonical_name"])
	assert.Equal(t, "12345", entry["identifiers"].(map[string]any)["tcgplayer_id"])
	assert.Empty(t, entry["prices"])
}

func TestGetEntry_Errors(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/catalog/abc", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/catalog/999", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/v1/catalog/999/refresh", nil, "").Code)
}

func TestSearchAndLookup(t *testing.T) {
	s := newTestServer(t)
	id := s.resolve(t)

	w := s.do(t, http.MethodGet, "/api/v1/catalog/search?q=chari&category=trading%20card", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = s.do(t, http.MethodGet, "/api/v1/catalog/lookup?kind=tcgplayer_id&value=12345", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, id, decode(t, w)["id"])

	w = s.do(t, http.MethodGet, "/api/v1/catalog/lookup?kind=isbn&value=1", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "lego_set")
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/catalog/lookup?kind=ean&value=1", nil, "").Code)
}

func TestInfoLinks_Privilege(t *testing.T) {
	s := newTestServer(t)
	id := s.resolve(t)
	path := fmt.Sprintf("/api/v1/catalog/%d/info-links", id)
	body := map[string]any{"links": []any{
		" https://example.com/a ",
		map[string]any{"url": "https://example.com/b"},
		"ftp://example.com/c",
		"https://example.com/a",
	}}

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, path, body, "").Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, path, body, s.token(t, Claims{Username: "someone"})).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPut, path, body, "not-a-jwt").Code)

	w := s.do(t, http.MethodPut, path, body, s.token(t, Claims{Username: "curator"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{"https://example.com/a", "https://example.com/b"}, decode(t, w)["links"])

	w = s.do(t, http.MethodPut, path, map[string]any{"links": []any{"https://example.com/z"}}, s.token(t, Claims{Username: "x", Role: "admin"}))
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"https://example.com/z"}, decode(t, w)["links"])
}

func TestRefreshHistoryAndExport(t *testing.T) {
	s := newTestServer(t)
	id := s.resolve(t)

	w := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/catalog/%d/refresh", id), nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["snapshots"], 1)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/catalog/%d/prices?source=justtcg&since=2024-01-01", id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	prices := decode(t, w)["prices"].([]any)
	require.Len(t, prices, 1)
	row := prices[0].(map[string]any)
	assert.Equal(t, "2024-09-01", row["ref_date"])
	assert.Equal(t, 100.0, row["median"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/catalog/%d/prices?since=yesterday", id), nil, "").Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/catalog/%d/prices/latest", id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["prices"], 1)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/catalog/%d/prices/trend", id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	trends := decode(t, w)["trends"].([]any)
	require.Len(t, trends, 1)
	assert.Equal(t, "justtcg", trends[0].(map[string]any)["source"])

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/catalog/%d/prices/export", id), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	date, err := f.GetCellValue(pricesSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "2024-09-01", date)
	display, err := f.GetCellValue(pricesSheet, "I3")
	require.NoError(t, err)
	assert.Equal(t, "$100.00", display)
}

func TestEstimate(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/v1/valuation/estimate", map[string]any{
		"name": "Charizard", "category": "trading card", "currency": "USD",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, 120.0, body["fair_value"])
	assert.Equal(t, 80.0, body["price_low"])
	assert.Equal(t, 140.0, body["price_high"])
	assert.Equal(t, "2024-09-01", body["valuation_date"])

	w = s.do(t, http.MethodPost, "/api/v1/valuation/estimate", map[string]any{"category": "sneakers"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["fair_value"])
}

func TestSweep(t *testing.T) {
	s := newTestServer(t)
	s.resolve(t)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/v1/refresh/run", nil, "").Code)

	w := s.do(t, http.MethodPost, "/api/v1/refresh/run", nil, s.token(t, Claims{Username: "curator"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 1, decode(t, w)["succeeded"])

	w = s.do(t, http.MethodGet, "/api/v1/refresh/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["running"])
}
