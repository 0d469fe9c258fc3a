package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"pnodewatch/config"
	"pnodewatch/models"
	"pnodewatch/services"
)

type Handler struct {
	Cfg    *config.Config
	Cache  *services.CacheService
	Poller *services.Poller
	PRPC   *services.PRPCClient
}

func NewHandler(cfg *config.Config, cache *services.CacheService, poller *services.Poller, prpc *services.PRPCClient) *Handler {
	return &Handler{
		Cfg:    cfg,
		Cache:  cache,
		Poller: poller,
		PRPC:   prpc,
	}
}

// GetNodes godoc
// @Summary Get all nodes with pagination
// @Description Returns a paginated list of pNodes from the latest poll cycle
// @Tags nodes
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Items per page (default: 50, max: 500)"
// @Param network query string false "Filter by network (mainnet, devnet, all)"
// @Param status query string false "Filter by status (online, degraded, offline)"
// @Param sort query string false "Sort field (uptime, health, credits, storage, latency)"
// @Param order query string false "Sort order (asc, desc) (default: desc)"
// @Success 200 {object} NodesResponse
// @Router /api/nodes [get]
func (h *Handler) GetNodes(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	network := c.QueryParam("network")
	if network == "" {
		network = "all"
	}
	statusFilter := c.QueryParam("status")
	sortField := c.QueryParam("sort")
	sortOrder := c.QueryParam("order")
	if sortOrder == "" {
		sortOrder = "desc"
	}

	includeOffline := c.QueryParam("include_offline") != "false"

	nodes, stale, found := h.Cache.GetNodes(network, false)
	if !found {
		nodes, stale, found = h.Cache.GetNodes(network, true)
	}
	if !found {
		nodes = h.Poller.GetNodes(network)
	}

	// The cache hands out its stored slice; copy before filtering and
	// sorting so concurrent requests never reorder the shared array.
	nodes = append([]*models.Node(nil), nodes...)

	if statusFilter != "" {
		filtered := make([]*models.Node, 0)
		for _, node := range nodes {
			if node.Status == statusFilter {
				filtered = append(filtered, node)
			}
		}
		nodes = filtered
	} else if !includeOffline {
		filtered := make([]*models.Node, 0)
		for _, node := range nodes {
			if node.Status != models.StatusOffline {
				filtered = append(filtered, node)
			}
		}
		nodes = filtered
	}

	h.sortNodes(nodes, sortField, sortOrder)

	totalNodes := len(nodes)
	totalPages := (totalNodes + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	startIdx := (page - 1) * limit
	endIdx := startIdx + limit

	if startIdx >= totalNodes {
		startIdx = 0
		endIdx = 0
		page = 1
	}
	if endIdx > totalNodes {
		endIdx = totalNodes
	}

	paginatedNodes := make([]*models.Node, 0)
	if startIdx < endIdx {
		paginatedNodes = nodes[startIdx:endIdx]
	}

	response := NodesResponse{
		Nodes: paginatedNodes,
		Pagination: PaginationMeta{
			Page:       page,
			Limit:      limit,
			TotalItems: totalNodes,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}

	if stale {
		c.Response().Header().Set("X-Data-Stale", "true")
	}

	return c.JSON(http.StatusOK, response)
}

// GetNode godoc
// @Summary Get a single node by ID
// @Description Returns detailed information about a specific pNode
// @Tags nodes
// @Produce json
// @Param id path string true "Node ID (id, pubkey or address)"
// @Success 200 {object} models.Node
// @Failure 404 {object} ErrorResponse
// @Router /api/nodes/{id} [get]
func (h *Handler) GetNode(c echo.Context) error {
	id := c.Param("id")

	node, stale, found := h.Cache.GetNode(id, false)
	if !found {
		node, stale, found = h.Cache.GetNode(id, true)
	}

	// Fall back to scanning the latest cycle; callers sometimes pass a
	// pubkey or raw address instead of the derived id.
	if !found {
		for _, n := range h.Poller.GetNodes("all") {
			if n.ID == id || n.Pubkey == id || n.Address == id {
				node = n
				found = true
				break
			}
		}
	}

	if !found {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Node not found",
		})
	}

	if stale {
		c.Response().Header().Set("X-Data-Stale", "true")
	}

	return c.JSON(http.StatusOK, node)
}

// sortNodes sorts nodes based on the specified field and order
func (h *Handler) sortNodes(nodes []*models.Node, field, order string) {
	asc := order == "asc"

	sort.Slice(nodes, func(i, j int) bool {
		var less bool

		switch field {
		case "uptime":
			less = nodes[i].UptimePercent < nodes[j].UptimePercent
		case "health":
			less = nodes[i].HealthScore < nodes[j].HealthScore
		case "credits":
			less = nodes[i].Credits < nodes[j].Credits
		case "storage":
			less = nodes[i].StorageUsed < nodes[j].StorageUsed
		case "latency":
			less = nodes[i].ResponseTime < nodes[j].ResponseTime
		default:
			// Default: status weight first, then uptime.
			statusWeight := func(s string) int {
				switch s {
				case models.StatusOnline:
					return 3
				case models.StatusDegraded:
					return 2
				case models.StatusOffline:
					return 1
				default:
					return 0
				}
			}

			if statusWeight(nodes[i].Status) != statusWeight(nodes[j].Status) {
				less = statusWeight(nodes[i].Status) < statusWeight(nodes[j].Status)
			} else {
				less = nodes[i].UptimePercent < nodes[j].UptimePercent
			}
		}

		if asc {
			return less
		}
		return !less
	})
}

// NodesResponse represents the paginated nodes response
type NodesResponse struct {
	Nodes      []*models.Node `json:"nodes"`
	Pagination PaginationMeta `json:"pagination"`
}

// PaginationMeta represents pagination metadata
type PaginationMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}
