package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/univops/timetable-api/api/swagger"
	"github.com/univops/timetable-api/internal/handler"
	"github.com/univops/timetable-api/internal/middleware"
	"github.com/univops/timetable-api/internal/repository"
	"github.com/univops/timetable-api/internal/service"
	"github.com/univops/timetable-api/pkg/cache"
	"github.com/univops/timetable-api/pkg/config"
	"github.com/univops/timetable-api/pkg/database"
	"github.com/univops/timetable-api/pkg/logger"
	corsmiddleware "github.com/univops/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/univops/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 0.1.0
// @description Automated university timetable generation and conflict checking
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, snapshots disabled", "error", err)
		redisClient = nil
	}

	indexRepo := repository.NewIndexRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)

	metrics := service.NewMetricsService()
	planningSvc := service.NewPlanningService(indexRepo, sessionRepo, cfg.Scheduler, metrics, logr)
	conflictSvc := service.NewConflictService(indexRepo, sessionRepo, redisClient, cfg.Snapshots.TTL, metrics, logr)
	availabilitySvc := service.NewAvailabilityService(indexRepo, sessionRepo, logr)
	sessionSvc := service.NewSessionService(sessionRepo, indexRepo, logr)
	solverDefaults, err := service.BaseSolverConfig(cfg.Scheduler)
	if err != nil {
		logr.Sugar().Fatalw("invalid scheduler config", "error", err)
	}
	slotSvc := service.NewTimeSlotService(slotRepo, solverDefaults, logr)

	planningHandler := handler.NewPlanningHandler(planningSvc)
	conflictHandler := handler.NewConflictHandler(conflictSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	slotHandler := handler.NewTimeSlotHandler(slotSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/planning/generate", planningHandler.Generate)
		api.GET("/conflicts", conflictHandler.Detect)
		api.GET("/rooms/available", availabilityHandler.FreeRooms)

		api.GET("/sessions", sessionHandler.List)
		api.POST("/sessions", sessionHandler.Create)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.PATCH("/sessions/:id", sessionHandler.Update)
		api.DELETE("/sessions/:id", sessionHandler.Delete)

		api.GET("/time-slots", slotHandler.List)
		api.POST("/time-slots/seed-grid", slotHandler.SeedGrid)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
