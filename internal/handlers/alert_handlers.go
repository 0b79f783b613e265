package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/repositories"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/services"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AlertHandler exposes threshold alert listing and the operator transitions.
type AlertHandler struct {
	thresholdService services.ThresholdService
}

// NewAlertHandler creates a new instance of AlertHandler.
func NewAlertHandler(thresholdService services.ThresholdService) *AlertHandler {
	return &AlertHandler{thresholdService: thresholdService}
}

// GetAlerts lists alerts for the caller's tenant, optionally filtered by
// status, with pagination.
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	tenantID := c.Query("tenant_id")
	if tenantID == "" {
		tenantID = c.GetString("tenantID")
	}
	if tenantID == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest,
			"tenant_id is required", ""))
		return
	}

	var status *string
	if s := c.Query("status"); s != "" {
		status = &s
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	alerts, total, err := h.thresholdService.ListAlerts(tenantID, status, page, pageSize)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
			"Failed to list alerts", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"alerts":      alerts,
		"total_count": total,
		"page":        page,
		"page_size":   pageSize,
	})
}

// AcknowledgeAlert transitions an alert from active to acknowledged.
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	h.transition(c, h.thresholdService.AcknowledgeAlert, "acknowledged")
}

// ResolveAlert transitions an alert from active or acknowledged to resolved.
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	h.transition(c, h.thresholdService.ResolveAlert, "resolved")
}

func (h *AlertHandler) transition(c *gin.Context, apply func(alertID, actor string) error, resultStatus string) {
	alertID := c.Param("id")
	actor := c.GetString("userID")
	if actor == "" {
		actor = "system"
	}

	if err := apply(alertID, actor); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound,
				"Alert not found", ""))
		case errors.Is(err, repositories.ErrConflict):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict,
				"Alert is not in an eligible state", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
				"Failed to update alert", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": alertID, "status": resultStatus})
}
