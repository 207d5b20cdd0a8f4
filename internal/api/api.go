package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"collectibles-vault/internal/apperr"
	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/logger"
	"collectibles-vault/internal/refresh"
	"collectibles-vault/internal/snapshot"
	"collectibles-vault/internal/valuation"

	"github.com/gin-gonic/gin"
)

// Deps are the services the HTTP surface is built on. Sampler may be nil.
type Deps struct {
	Catalog    *catalog.Store
	Snapshots  *snapshot.Store
	Estimator  *valuation.Estimator
	Aggregator *valuation.Aggregator
	Sampler    *refresh.Sampler
	Log        *logger.Logger
}

type APIHandler struct {
	catalog    *catalog.Store
	snapshots  *snapshot.Store
	estimator  *valuation.Estimator
	aggregator *valuation.Aggregator
	sampler    *refresh.Sampler
	log        *logger.Logger
}

func SetupRoutes(r *gin.RouterGroup, deps Deps, auth *Auth) *APIHandler {
	handler := &APIHandler{
		catalog:    deps.Catalog,
		snapshots:  deps.Snapshots,
		estimator:  deps.Estimator,
		aggregator: deps.Aggregator,
		sampler:    deps.Sampler,
		log:        logger.OrNop(deps.Log).With("component", "api"),
	}

	r.Use(RequestID(), auth.Optional())
	r.GET("/health", handler.Health)

	cat := r.Group("/catalog")
	{
		cat.POST("/resolve", handler.ResolveEntry)
		cat.GET("/search", handler.SearchEntries)
		cat.GET("/lookup", handler.LookupEntry)
		cat.GET("/:id", handler.GetEntry)
		cat.GET("/:id/prices", handler.GetPriceHistory)
		cat.GET("/:id/prices/latest", handler.GetLatestPrices)
		cat.GET("/:id/prices/trend", handler.GetPriceTrend)
		cat.GET("/:id/prices/export", handler.ExportPriceHistory)
		cat.POST("/:id/refresh", handler.RefreshEntry)
		cat.GET("/:id/info-links", handler.GetInfoLinks)
		cat.PUT("/:id/info-links", handler.UpdateInfoLinks)
	}

	r.POST("/valuation/estimate", handler.EstimateItem)

	sweep := r.Group("/refresh")
	{
		sweep.GET("/status", handler.SweepStatus)
		sweep.POST("/run", handler.RunSweep)
	}
	return handler
}

func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps sentinel errors onto HTTP status codes.
func (h *APIHandler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrInvalidArgument):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err.Error())
		c.JSON(status, gin.H{"error": "internal error", "request_id": c.GetString(requestIDKey)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
