package api

import (
	"net/http"

	"collectibles-vault/internal/apperr"
	"collectibles-vault/internal/valuation"

	"github.com/gin-gonic/gin"
)

// EstimateItem: POST /api/v1/valuation/estimate
// Body: {"name", "category", "market_params", "currency", "sale_price", "purchase_price"}
func (h *APIHandler) EstimateItem(c *gin.Context) {
	var item valuation.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.estimator.Estimate(c.Request.Context(), item))
}

// SweepStatus: GET /api/v1/refresh/status
func (h *APIHandler) SweepStatus(c *gin.Context) {
	if h.sampler == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled": true,
		"running": h.sampler.Running(),
		"stats":   h.sampler.Stats(),
	})
}

// RunSweep: POST /api/v1/refresh/run (privileged)
func (h *APIHandler) RunSweep(c *gin.Context) {
	if !actorFrom(c).Privileged {
		h.writeError(c, apperr.ErrForbidden)
		return
	}
	if h.sampler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sweep sampler disabled"})
		return
	}
	res, err := h.sampler.RunOnce(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
