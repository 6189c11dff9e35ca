package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/restoklabs/restok/backend-go/internal/domain"
	"github.com/restoklabs/restok/backend-go/internal/service"
)

type LedgerHandler struct {
	service *service.LedgerService
}

func NewLedgerHandler(service *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

type applyOrdersRequest struct {
	Rows       []domain.OrderRow `json:"rows" binding:"required"`
	ApprovedBy string            `json:"approved_by"`
	IdemPrefix string            `json:"idem_prefix"`
}

type applyTransfersRequest struct {
	Rows       []domain.TransferRow `json:"rows" binding:"required"`
	ApprovedBy string               `json:"approved_by"`
	IdemPrefix string               `json:"idem_prefix"`
}

// The idempotency prefix must come from the caller: a server-generated one
// would make every retry look like a fresh submission.
func validPrefix(prefix string) bool {
	return strings.TrimSpace(prefix) != ""
}

func (h *LedgerHandler) ApplyOrders(c *gin.Context) {
	orgID := c.Param("org")

	var req applyOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if !validPrefix(req.IdemPrefix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idem_prefix is required"})
		return
	}

	res, err := h.service.ApplyOrders(c.Request.Context(), orgID, req.Rows, req.ApprovedBy, req.IdemPrefix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply orders", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *LedgerHandler) ApplyTransfers(c *gin.Context) {
	orgID := c.Param("org")

	var req applyTransfersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if !validPrefix(req.IdemPrefix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idem_prefix is required"})
		return
	}

	res, err := h.service.ApplyTransfers(c.Request.Context(), orgID, req.Rows, req.ApprovedBy, req.IdemPrefix)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply transfers", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *LedgerHandler) GetEvents(c *gin.Context) {
	orgID := c.Param("org")

	after, _ := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	events, cursor, err := h.service.Events(c.Request.Context(), orgID, after, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch events", "details": err.Error()})
		return
	}
	if events == nil {
		events = make([]domain.Event, 0)
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"cursor": cursor,
	})
}
