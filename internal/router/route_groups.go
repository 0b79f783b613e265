package router

import (
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/handlers"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAllocationRoutes sets up the FEFO allocation routes.
func SetupAllocationRoutes(authenticatedGroup *gin.RouterGroup, allocationHandler *handlers.AllocationHandler) {
	allocationRoutes := authenticatedGroup.Group("/allocations")
	{
		allocationRoutes.POST("/fefo", allocationHandler.AllocateFEFO)
	}
}

// SetupMonitoringRoutes sets up the run-now monitoring trigger routes.
func SetupMonitoringRoutes(authenticatedGroup *gin.RouterGroup, monitoringHandler *handlers.MonitoringHandler) {
	monitoringRoutes := authenticatedGroup.Group("/monitoring")
	monitoringRoutes.Use(middleware.TenantScopeMiddleware())
	{
		monitoringRoutes.POST("/tenants/:tenantId/expiry-check", monitoringHandler.RunExpiryCheck)
		monitoringRoutes.POST("/tenants/:tenantId/threshold-check", monitoringHandler.RunThresholdCheck)
	}
}

// SetupAlertRoutes sets up the threshold alert routes.
func SetupAlertRoutes(authenticatedGroup *gin.RouterGroup, alertHandler *handlers.AlertHandler) {
	alertRoutes := authenticatedGroup.Group("/alerts")
	{
		alertRoutes.GET("", alertHandler.GetAlerts)
		alertRoutes.POST("/:id/acknowledge", alertHandler.AcknowledgeAlert)
		alertRoutes.POST("/:id/resolve", alertHandler.ResolveAlert)
	}
}
