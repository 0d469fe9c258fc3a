package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"pnodewatch/models"
)

// PRPCProxyRequest is the accepted request body.
type PRPCProxyRequest struct {
	Method  string `json:"method"`
	Network string `json:"network,omitempty"`
}

// PRPCProxyResponse mirrors the upstream proxy contract.
type PRPCProxyResponse struct {
	Success      bool                 `json:"success"`
	Data         *models.PodsResponse `json:"data,omitempty"`
	Error        string               `json:"error,omitempty"`
	ResponseTime int64                `json:"responseTime"`
}

// ProxyPods godoc
// @Summary Proxy a pod-stats request to the seed node
// @Description Forwards get-pods-with-stats upstream and returns the raw pod batch
// @Tags prpc
// @Accept json
// @Produce json
// @Success 200 {object} PRPCProxyResponse
// @Failure 400 {object} PRPCProxyResponse
// @Router /api/prpc [post]
func (h *Handler) ProxyPods(c echo.Context) error {
	var req PRPCProxyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, PRPCProxyResponse{
			Success: false,
			Error:   "invalid request body",
		})
	}

	if req.Method != "get-pods-with-stats" {
		return c.JSON(http.StatusBadRequest, PRPCProxyResponse{
			Success: false,
			Error:   "unsupported method",
		})
	}

	network := req.Network
	if network == "" {
		network = c.QueryParam("network")
	}
	if network == "" {
		network = "mainnet"
	}

	pods, responseTime, err := h.PRPC.FetchPods(c.Request().Context(), network)
	if err != nil {
		msg := "upstream request failed"
		status := http.StatusBadGateway
		var fe *models.FetchError
		if errors.As(err, &fe) {
			msg = fe.UserMessage
			if !fe.Retryable {
				status = http.StatusBadRequest
			}
		}
		return c.JSON(status, PRPCProxyResponse{
			Success:      false,
			Error:        msg,
			ResponseTime: responseTime,
		})
	}

	return c.JSON(http.StatusOK, PRPCProxyResponse{
		Success:      true,
		Data:         pods,
		ResponseTime: responseTime,
	})
}
