package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pnodewatch/models"
	"pnodewatch/services"
)

type AlertHandlers struct {
	alertService *services.AlertService
	mongo        *services.MongoDBService
}

func NewAlertHandlers(alertService *services.AlertService, mongo *services.MongoDBService) *AlertHandlers {
	return &AlertHandlers{
		alertService: alertService,
		mongo:        mongo,
	}
}

// ListRules - GET /api/alerts
func (ah *AlertHandlers) ListRules(c echo.Context) error {
	rules := ah.alertService.ListRules()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(rules),
		"rules": rules,
	})
}

// CreateRule - POST /api/alerts
func (ah *AlertHandlers) CreateRule(c echo.Context) error {
	var rule models.AlertRule
	if err := c.Bind(&rule); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
	}

	if err := ah.alertService.CreateRule(&rule); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, rule)
}

// DeleteRule - DELETE /api/alerts/:id
func (ah *AlertHandlers) DeleteRule(c echo.Context) error {
	id := c.Param("id")
	if err := ah.alertService.DeleteRule(id); err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Rule deleted",
	})
}

// GetEvents - GET /api/alerts/events?limit=50
func (ah *AlertHandlers) GetEvents(c echo.Context) error {
	limit := int64(50)
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.ParseInt(limitStr, 10, 64); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}

	events, err := ah.mongo.GetRecentAlertEvents(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Alert history unavailable",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":  len(events),
		"events": events,
	})
}
