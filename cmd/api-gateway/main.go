package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/oselz/projecthub-api/api/swagger"
	"github.com/oselz/projecthub-api/internal/gateway"
	"github.com/oselz/projecthub-api/internal/handler"
	"github.com/oselz/projecthub-api/internal/middleware"
	"github.com/oselz/projecthub-api/internal/models"
	"github.com/oselz/projecthub-api/internal/repository"
	"github.com/oselz/projecthub-api/internal/service"
	"github.com/oselz/projecthub-api/pkg/cache"
	"github.com/oselz/projecthub-api/pkg/config"
	"github.com/oselz/projecthub-api/pkg/database"
	"github.com/oselz/projecthub-api/pkg/jobs"
	"github.com/oselz/projecthub-api/pkg/logger"
	corsmiddleware "github.com/oselz/projecthub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/oselz/projecthub-api/pkg/middleware/requestid"
	"github.com/oselz/projecthub-api/pkg/storage"
)

// @title ProjectHub API
// @version 0.1.0
// @description Project and task management backend with remote calendar mirroring
// @BasePath /api/v1
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, agenda caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Agenda.CacheTTL, logr, true)
	}

	var calendarGateway gateway.CalendarGateway
	if cfg.Calendar.SyncEnabled {
		gw, err := gateway.NewGoogleGateway(context.Background(), cfg.Calendar, logr)
		if err != nil {
			logr.Fatal("failed to init calendar gateway", zap.Error(err))
		}
		calendarGateway = gw
	}

	reminderQueue := jobs.NewQueue("reminder-notifications", reminderHandler(logr), jobs.QueueConfig{
		Workers: cfg.Generation.NotifyWorkerConcurrency,
		Logger:  logr,
	})
	reminderQueue.Start(context.Background())
	defer reminderQueue.Stop()

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	deliverableRepo := repository.NewDeliverableRepository(db)
	eventRepo := repository.NewEventRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     "projecthub-api",
	})
	userSvc := service.NewUserService(userRepo, logr)
	eventSvc := service.NewEventSyncService(eventRepo, calendarGateway, validate, metricsSvc, cacheSvc, logr)
	generatorSvc := service.NewEventGeneratorService(eventRepo, cfg.Generation, reminderQueue, cacheSvc, logr)
	projectSvc := service.NewProjectService(projectRepo, generatorSvc, validate, logr)
	taskSvc := service.NewTaskService(taskRepo, projectRepo, generatorSvc, validate, logr)
	deliverableSvc := service.NewDeliverableService(deliverableRepo, projectRepo, generatorSvc, validate, logr)
	agendaSvc := service.NewAgendaService(eventSvc, cacheSvc, cfg.Agenda, logr)
	if store, err := storage.NewLocalStorage(cfg.Agenda.ExportDir); err != nil {
		logr.Warn("export storage unavailable, saved exports disabled", zap.Error(err))
	} else {
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Agenda.ExportLinkTTL)
		agendaSvc.WithStorage(store, signer)
		agendaSvc.CleanupExports(cfg.Agenda.ExportRetention)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	projectHandler := handler.NewProjectHandler(projectSvc)
	taskHandler := handler.NewTaskHandler(taskSvc)
	deliverableHandler := handler.NewDeliverableHandler(deliverableSvc)
	eventHandler := handler.NewEventHandler(eventSvc, agendaSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/users", middleware.RequireRoles(models.RoleAdmin, models.RoleManager), userHandler.List)
	authed.GET("/users/:id", userHandler.Get)

	authed.GET("/projects", projectHandler.List)
	authed.POST("/projects", projectHandler.Create)
	authed.GET("/projects/:id", projectHandler.Get)
	authed.PUT("/projects/:id", projectHandler.Update)
	authed.DELETE("/projects/:id", projectHandler.Delete)

	authed.GET("/tasks", taskHandler.List)
	authed.POST("/tasks", taskHandler.Create)
	authed.GET("/tasks/:id", taskHandler.Get)
	authed.PUT("/tasks/:id", taskHandler.Update)
	authed.DELETE("/tasks/:id", taskHandler.Delete)

	authed.GET("/deliverables", deliverableHandler.List)
	authed.POST("/deliverables", deliverableHandler.Create)
	authed.GET("/deliverables/:id", deliverableHandler.Get)
	authed.PUT("/deliverables/:id", deliverableHandler.Update)
	authed.DELETE("/deliverables/:id", deliverableHandler.Delete)

	authed.GET("/events", eventHandler.List)
	authed.POST("/events", eventHandler.Create)
	authed.GET("/events/upcoming", eventHandler.Upcoming)
	authed.GET("/events/range", eventHandler.ListRange)
	authed.GET("/events/remote", eventHandler.ListRemote)
	authed.GET("/events/export", eventHandler.Export)
	authed.POST("/events/export", eventHandler.SaveExport)
	authed.GET("/events/export/download", eventHandler.DownloadExport)
	authed.GET("/events/:id", eventHandler.Get)
	authed.PUT("/events/:id", eventHandler.Update)
	authed.DELETE("/events/:id", eventHandler.Delete)
	authed.POST("/events/:id/sync", eventHandler.TriggerSync)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "calendar_sync", cfg.Calendar.SyncEnabled)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func reminderHandler(logr *zap.Logger) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		logr.Info("reminder notification dispatched",
			zap.String("job_id", job.ID),
			zap.Any("payload", job.Payload))
		return nil
	}
}
