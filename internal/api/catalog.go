package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"collectibles-vault/internal/apperr"
	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/models"
	"collectibles-vault/internal/snapshot"

	"github.com/gin-gonic/gin"
)

type resolveRequest struct {
	Category     string         `json:"category"`
	MarketParams map[string]any `json:"market_params"`
	HintName     string         `json:"hint_name"`
}

// ResolveEntry: POST /api/v1/catalog/resolve
func (h *APIHandler) ResolveEntry(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	res, err := h.catalog.EnsureEntry(c.Request.Context(), actorFrom(c), catalog.EnsureRequest{
		Category:     req.Category,
		MarketParams: req.MarketParams,
		HintName:     req.HintName,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

// SearchEntries: GET /api/v1/catalog/search?q=&category=&limit=
func (h *APIHandler) SearchEntries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	entries, err := h.catalog.Search(c.Request.Context(), catalog.SearchFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Limit:    limit,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	items := make([]gin.H, 0, len(entries))
	for i := range entries {
		items = append(items, entryView(&entries[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// LookupEntry: GET /api/v1/catalog/lookup?kind=ean&value=0602547
func (h *APIHandler) LookupEntry(c *gin.Context) {
	kind, ok := catalog.ParseKind(c.Query("kind"))
	if !ok {
		h.writeError(c, fmt.Errorf("unknown identifier kind %q, want one of %v: %w", c.Query("kind"), catalog.Kinds(), apperr.ErrInvalidArgument))
		return
	}
	entry, err := h.catalog.FindByIdentifier(c.Request.Context(), kind, c.Query("value"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryView(entry))
}

// GetEntry: GET /api/v1/catalog/:id
func (h *APIHandler) GetEntry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	summary, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	view := entryView(&summary.Entry)
	view["prices"] = summary.Prices
	c.JSON(http.StatusOK, view)
}

// GetPriceHistory: GET /api/v1/catalog/:id/prices?source=&since=YYYY-MM-DD
func (h *APIHandler) GetPriceHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := h.catalog.Entry(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	rows, err := h.snapshots.History(c.Request.Context(), id, snapshot.HistoryFilter{
		Source: c.Query("source"),
		Since:  c.Query("since"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"catalog_entry_id": id, "prices": rows})
}

// GetLatestPrices: GET /api/v1/catalog/:id/prices/latest
func (h *APIHandler) GetLatestPrices(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := h.catalog.Entry(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	rows, err := h.snapshots.Latest(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"catalog_entry_id": id, "prices": rows})
}

// GetPriceTrend: GET /api/v1/catalog/:id/prices/trend?source=&since=
func (h *APIHandler) GetPriceTrend(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := h.catalog.Entry(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	rows, err := h.snapshots.History(c.Request.Context(), id, snapshot.HistoryFilter{
		Source: c.Query("source"),
		Since:  c.Query("since"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"catalog_entry_id": id, "trends": snapshot.Trends(rows)})
}

// RefreshEntry: POST /api/v1/catalog/:id/refresh
func (h *APIHandler) RefreshEntry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	report, err := h.aggregator.Refresh(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetInfoLinks: GET /api/v1/catalog/:id/info-links
func (h *APIHandler) GetInfoLinks(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	links, err := h.catalog.InfoLinks(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"catalog_entry_id": id, "links": links})
}

// UpdateInfoLinks: PUT /api/v1/catalog/:id/info-links
// Body: {"links": ["https://...", {"url": "https://..."}]}
func (h *APIHandler) UpdateInfoLinks(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body struct {
		Links any `json:"links"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	links, err := h.catalog.UpdateInfoLinks(c.Request.Context(), actorFrom(c), id, catalog.LinksFromAny(body.Links))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"catalog_entry_id": id, "links": links})
}

func entryView(e *models.CatalogEntry) gin.H {
	identifiers := map[string]interface{}(e.Identifiers)
	if identifiers == nil {
		identifiers = map[string]interface{}{}
	}
	params := map[string]interface{}(e.MarketParams)
	if params == nil {
		params = map[string]interface{}{}
	}
	links := []string(e.InfoLinks)
	if links == nil {
		links = []string{}
	}
	return gin.H{
		"id":             e.ID,
		"catalog_key":    e.CatalogKey,
		"canonical_name": e.CanonicalName,
		"category":       strings.TrimSpace(e.Category),
		"identifiers":    identifiers,
		"market_params":  params,
		"info_links":     links,
		"updated_at":     e.UpdatedAt,
	}
}
