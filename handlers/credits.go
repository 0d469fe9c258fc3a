package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pnodewatch/models"
	"pnodewatch/services"
)

type CreditsHandlers struct {
	creditsService *services.CreditsService
}

func NewCreditsHandlers(creditsService *services.CreditsService) *CreditsHandlers {
	return &CreditsHandlers{
		creditsService: creditsService,
	}
}

// GetAllCredits - GET /api/credits?network=devnet|mainnet|all
// Serves the same shape the upstream credits source speaks, so consumers
// can point at either interchangeably.
func (ch *CreditsHandlers) GetAllCredits(c echo.Context) error {
	network := c.QueryParam("network")
	if network == "" {
		network = "all"
	}

	credits := ch.creditsService.AllCredits(network)

	entries := make([]models.PodCreditsEntry, 0, len(credits))
	for _, credit := range credits {
		entries = append(entries, models.PodCreditsEntry{
			PodID:   credit.Pubkey,
			Credits: credit.Credits,
		})
	}

	return c.JSON(http.StatusOK, models.PodCreditsResponse{
		Status:      "success",
		PodsCredits: entries,
	})
}

// GetTopCredits - GET /api/credits/top?network=all&limit=20
func (ch *CreditsHandlers) GetTopCredits(c echo.Context) error {
	network := c.QueryParam("network")
	if network == "" {
		network = "all"
	}

	limit := 20
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	credits := ch.creditsService.TopCredits(network, limit)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"network":     network,
		"limit":       limit,
		"count":       len(credits),
		"top_credits": credits,
	})
}

// GetNodeCredits - GET /api/credits/:pubkey
func (ch *CreditsHandlers) GetNodeCredits(c echo.Context) error {
	pubkey := c.Param("pubkey")
	if pubkey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "pubkey parameter required",
		})
	}

	credits, exists := ch.creditsService.GetCredits(pubkey)
	if !exists {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error":  "credits not found for this pubkey",
			"pubkey": pubkey,
		})
	}

	return c.JSON(http.StatusOK, credits)
}
