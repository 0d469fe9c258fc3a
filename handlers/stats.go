package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetStats godoc
// @Summary Get network statistics
// @Description Returns aggregated network statistics for a network filter
// @Tags stats
// @Produce json
// @Param network query string false "Network filter (mainnet, devnet, all)"
// @Success 200 {object} models.NetworkStats
// @Failure 503 {object} ErrorResponse
// @Router /api/stats [get]
func (h *Handler) GetStats(c echo.Context) error {
	network := c.QueryParam("network")
	if network == "" {
		network = "all"
	}

	stats, stale, found := h.Cache.GetNetworkStats(network, false)
	if !found {
		stats, stale, found = h.Cache.GetNetworkStats(network, true)
	}

	// Last resort: recompute from the poller's latest cycle.
	if !found {
		h.Cache.Refresh()
		stats, stale, found = h.Cache.GetNetworkStats(network, true)
		if !found {
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error: "Network statistics temporarily unavailable",
			})
		}
	}

	if stale {
		c.Response().Header().Set("X-Data-Stale", "true")
		c.Response().Header().Set("Cache-Control", "max-age=30")
	} else {
		c.Response().Header().Set("Cache-Control", "max-age=60")
	}

	return c.JSON(http.StatusOK, stats)
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
