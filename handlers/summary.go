package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pnodewatch/services"
)

type SummaryHandlers struct {
	summaryService *services.SummaryService
}

func NewSummaryHandlers(summaryService *services.SummaryService) *SummaryHandlers {
	return &SummaryHandlers{
		summaryService: summaryService,
	}
}

// GetSummary - GET /api/summary?network=mainnet|devnet|all
func (sh *SummaryHandlers) GetSummary(c echo.Context) error {
	network := c.QueryParam("network")
	if network == "" {
		network = "all"
	}

	summary := sh.summaryService.GetSummary(network)
	return c.JSON(http.StatusOK, summary)
}

// FlushSummary - POST /api/summary/flush
func (sh *SummaryHandlers) FlushSummary(c echo.Context) error {
	sh.summaryService.Flush()
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Summary cache flushed",
	})
}
