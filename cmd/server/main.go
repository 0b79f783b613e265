package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/cache"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/database"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/events"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/notifications"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/repositories"
	router_pkg "github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/router"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/scheduler"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/internal/services"
	"github.com/NTEKIMJOHN/Genesis-WMS-DIY-sub000/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	utils.InitLogger()
	utils.InitJWT(utils.Getenv("JWT_SECRET", "dev-only-insecure-secret"))

	// Database
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "wms_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "wms_password")
	dbName := utils.Getenv("DB_NAME", "wms_inventory_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)
	db := database.GetDB()
	utils.LogInfo("Database initialized", map[string]interface{}{"host": dbHost, "database": dbName})

	// Shared infrastructure
	bus := events.NewBus(utils.GetenvInt("EVENT_BUS_BUFFER", 128))
	velocityCache := cache.NewVelocityCache(utils.GetenvDuration("VELOCITY_CACHE_TTL", 30*time.Minute))

	var dispatcher notifications.Dispatcher = notifications.LogDispatcher{}
	if webhookURL := utils.Getenv("ALERT_WEBHOOK_URL", ""); webhookURL != "" {
		dispatcher = notifications.NewWebhookDispatcher(webhookURL, utils.GetenvDuration("ALERT_WEBHOOK_TIMEOUT", 10*time.Second))
	}

	// Repositories
	batchRepo := repositories.NewBatchRepository(db)
	movementRepo := repositories.NewMovementRepository(db)
	configRepo := repositories.NewThresholdConfigRepository(db)
	alertRepo := repositories.NewAlertRepository(db)

	// Services
	allocationService := services.NewAllocationService(batchRepo, bus)
	velocityService := services.NewVelocityService(movementRepo, batchRepo, velocityCache,
		utils.GetenvInt("VELOCITY_MIN_SAMPLE_DAYS", 3))

	expiryConfig := services.DefaultExpiryConfig()
	expiryConfig.LookaheadDays = utils.GetenvInt("EXPIRY_LOOKAHEAD_DAYS", expiryConfig.LookaheadDays)
	expiryConfig.WarningDays = utils.GetenvInt("EXPIRY_WARNING_DAYS", expiryConfig.WarningDays)
	expiryConfig.CriticalDays = utils.GetenvInt("EXPIRY_CRITICAL_DAYS", expiryConfig.CriticalDays)
	expiryService := services.NewExpiryService(batchRepo, bus, expiryConfig)

	thresholdOptions := services.DefaultThresholdOptions()
	thresholdOptions.DedupWindow = utils.GetenvDuration("ALERT_DEDUP_WINDOW", thresholdOptions.DedupWindow)
	thresholdOptions.VelocityLookbackDays = utils.GetenvInt("VELOCITY_LOOKBACK_DAYS", thresholdOptions.VelocityLookbackDays)
	thresholdService := services.NewThresholdService(configRepo, batchRepo, alertRepo,
		velocityService, dispatcher, bus, thresholdOptions)

	// Scheduler, owned by this process's lifecycle and stopped via context
	// cancellation on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := scheduler.New(
		scheduler.Job{
			Name:       "expiry-monitor",
			Interval:   utils.GetenvDuration("EXPIRY_CHECK_INTERVAL", 6*time.Hour),
			RunAtStart: true,
			Run: func(ctx context.Context) error {
				_, err := expiryService.Run(ctx)
				return err
			},
		},
		scheduler.Job{
			Name:       "threshold-detector",
			Interval:   utils.GetenvDuration("THRESHOLD_CHECK_INTERVAL", 2*time.Hour),
			RunAtStart: true,
			Run: func(ctx context.Context) error {
				_, err := thresholdService.Run(ctx)
				return err
			},
		},
	)
	jobs.Start(ctx)

	// HTTP surface
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router_pkg.Setup(engine, router_pkg.Dependencies{
		AllocationService: allocationService,
		ExpiryService:     expiryService,
		ThresholdService:  thresholdService,
	})

	port := utils.Getenv("PORT", "8080")
	server := &http.Server{Addr: ":" + port, Handler: engine}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Block until a shutdown signal, then stop the scheduler mid-loop and
	// drain the HTTP server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.LogInfo("Shutdown signal received")

	cancel()
	jobs.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Server shutdown failed")
	}
	utils.LogInfo("Server stopped")
}
