package handlers

import (
	"net/http"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/services"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler exposes the run-now wrappers around the scheduled
// expiry and threshold passes.
type MonitoringHandler struct {
	expiryService    services.ExpiryService
	thresholdService services.ThresholdService
}

// NewMonitoringHandler creates a new instance of MonitoringHandler.
func NewMonitoringHandler(expiryService services.ExpiryService, thresholdService services.ThresholdService) *MonitoringHandler {
	return &MonitoringHandler{expiryService: expiryService, thresholdService: thresholdService}
}

// RunExpiryCheck runs the expiry lifecycle pass for one tenant synchronously.
func (h *MonitoringHandler) RunExpiryCheck(c *gin.Context) {
	tenantID := c.Param("tenantId")
	summary, err := h.expiryService.CheckTenant(c.Request.Context(), tenantID)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
			"Expiry check failed", err.Error()))
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RunThresholdCheck evaluates every configured threshold for one tenant
// synchronously and returns the alerts that were created.
func (h *MonitoringHandler) RunThresholdCheck(c *gin.Context) {
	tenantID := c.Param("tenantId")
	alerts, err := h.thresholdService.EvaluateTenant(c.Request.Context(), tenantID)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
			"Threshold evaluation failed", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts_created": len(alerts), "alerts": alerts})
}
