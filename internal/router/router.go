package router

import (
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/handlers"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/middleware"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// Dependencies carries the services the HTTP surface wraps. They are built in
// main because the scheduler shares the same instances.
type Dependencies struct {
	AllocationService services.AllocationService
	ExpiryService     services.ExpiryService
	ThresholdService  services.ThresholdService
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, deps Dependencies) {
	allocationHandler := handlers.NewAllocationHandler(deps.AllocationService)
	monitoringHandler := handlers.NewMonitoringHandler(deps.ExpiryService, deps.ThresholdService)
	alertHandler := handlers.NewAlertHandler(deps.ThresholdService)

	apiV1 := engine.Group("/api/v1")
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())

	SetupAllocationRoutes(authenticated, allocationHandler)
	SetupMonitoringRoutes(authenticated, monitoringHandler)
	SetupAlertRoutes(authenticated, alertHandler)
}
