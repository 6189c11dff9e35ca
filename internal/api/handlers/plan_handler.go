package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/service"
)

type PlanHandler struct {
	service *service.PlanningService
}

func NewPlanHandler(service *service.PlanningService) *PlanHandler {
	return &PlanHandler{service: service}
}

// parseFilter reads the store/SKU narrowing from the query string. Both
// repeated params and comma-separated lists are accepted:
//
//	?stores=S1&stores=S2
//	?stores=S1,S2
func parseFilter(c *gin.Context) domain.PlanFilter {
	return domain.PlanFilter{
		Stores: parseStringList(c, "stores"),
		SKUs:   parseStringList(c, "skus"),
	}
}

func parseStringList(c *gin.Context, param string) []string {
	raw := c.QueryArray(param)
	if len(raw) == 0 {
		if single := strings.TrimSpace(c.Query(param)); single != "" {
			raw = []string{single}
		}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	orgID := c.Param("org")
	plan, err := h.service.GetPlan(c.Request.Context(), orgID, parseFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build plan", "details": err.Error()})
		return
	}
	if plan.Rows == nil {
		plan.Rows = make([]domain.PlanRow, 0)
	}

	c.JSON(http.StatusOK, plan)
}

func (h *PlanHandler) GetTransferSuggestions(c *gin.Context) {
	orgID := c.Param("org")
	proposals, err := h.service.SuggestTransfers(c.Request.Context(), orgID, parseFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to suggest transfers", "details": err.Error()})
		return
	}
	if proposals == nil {
		proposals = make([]domain.TransferProposal, 0)
	}

	c.JSON(http.StatusOK, gin.H{
		"transfers": proposals,
		"total":     len(proposals),
	})
}

func (h *PlanHandler) GetProjection(c *gin.Context) {
	orgID := c.Param("org")
	includeOrders := c.DefaultQuery("include_orders", "false") == "true"

	projection, err := h.service.ProjectFuture(c.Request.Context(), orgID, includeOrders, parseFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to project inventory", "details": err.Error()})
		return
	}
	if projection.Rows == nil {
		projection.Rows = make([]domain.ProjectedRow, 0)
	}

	c.JSON(http.StatusOK, projection)
}

func (h *PlanHandler) GetInventory(c *gin.Context) {
	orgID := c.Param("org")
	levels, err := h.service.InventoryLevels(c.Request.Context(), orgID, parseFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch inventory", "details": err.Error()})
		return
	}
	if levels == nil {
		levels = make([]domain.InventoryLevel, 0)
	}

	c.JSON(http.StatusOK, gin.H{
		"levels": levels,
		"total":  len(levels),
	})
}
