package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pnodewatch/services"
)

type HistoryHandlers struct {
	historyService *services.HistoryService
}

func NewHistoryHandlers(historyService *services.HistoryService) *HistoryHandlers {
	return &HistoryHandlers{
		historyService: historyService,
	}
}

// GetNetworkHistory - GET /api/history/network?network=mainnet&hours=24
func (hh *HistoryHandlers) GetNetworkHistory(c echo.Context) error {
	network := c.QueryParam("network")
	if network == "" {
		network = "all"
	}

	hours := parseHours(c.QueryParam("hours"))

	snapshots, err := hh.historyService.GetNetworkHistory(c.Request().Context(), network, hours)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "History temporarily unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"network":   network,
		"hours":     hours,
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}

// GetNodeHistory - GET /api/history/nodes/:id?hours=24
func (hh *HistoryHandlers) GetNodeHistory(c echo.Context) error {
	id := c.Param("id")
	hours := parseHours(c.QueryParam("hours"))

	snapshots, err := hh.historyService.GetNodeHistory(c.Request().Context(), id, hours)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "History temporarily unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"node_id":   id,
		"hours":     hours,
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}

func parseHours(raw string) int {
	hours := 24
	if raw != "" {
		if h, err := strconv.Atoi(raw); err == nil && h > 0 && h <= 24*30 {
			hours = h
		}
	}
	return hours
}
