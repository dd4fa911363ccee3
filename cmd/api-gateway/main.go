package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/peoplehub/hr-access-api/api/swagger"
	"github.com/peoplehub/hr-access-api/internal/handler"
	"github.com/peoplehub/hr-access-api/internal/middleware"
	"github.com/peoplehub/hr-access-api/internal/models"
	"github.com/peoplehub/hr-access-api/internal/repository"
	"github.com/peoplehub/hr-access-api/internal/service"
	"github.com/peoplehub/hr-access-api/pkg/cache"
	"github.com/peoplehub/hr-access-api/pkg/config"
	"github.com/peoplehub/hr-access-api/pkg/database"
	"github.com/peoplehub/hr-access-api/pkg/logger"
	corsmiddleware "github.com/peoplehub/hr-access-api/pkg/middleware/cors"
	reqidmiddleware "github.com/peoplehub/hr-access-api/pkg/middleware/requestid"
)

// @title HR Access API
// @version 1.0.0
// @description Access request validation and fulfillment engine
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
		logr.Warn("redis unavailable, inbox caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	configRepo := repository.NewValidatorConfigRepository(db)
	requestRepo := repository.NewAccessRequestRepository(db)
	validationRepo := repository.NewValidationRepository(db)
	fulfillmentRepo := repository.NewFulfillmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	checklistRepo := repository.NewChecklistRepository(db)
	transferRepo := repository.NewTransferRepository(db)

	metricsSvc := service.NewMetricsService()

	notifySvc := service.NewNotificationService(notificationRepo, logr, cfg.Notifications)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	notifySvc.Start(ctx)
	defer notifySvc.Stop()

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "hr-access-api",
		Audience:          []string{"hr-access-api"},
	})

	requestSvc := service.NewAccessRequestService(requestRepo, validationRepo, configRepo, userRepo, departmentRepo, notifySvc, auditRepo, validate, logr, cfg.Requests.ReferencePrefix)
	requestSvc.SetMetrics(metricsSvc)

	validationSvc := service.NewValidationService(validationRepo, requestRepo, fulfillmentRepo, cacheRepo, notifySvc, auditRepo, logr, cfg.Requests.InboxCacheTTL)
	validationSvc.SetMetrics(metricsSvc)

	fulfillmentSvc := service.NewFulfillmentService(fulfillmentRepo, requestRepo, notifySvc, auditRepo, logr)
	fulfillmentSvc.SetMetrics(metricsSvc)

	configSvc := service.NewValidatorConfigService(configRepo, userRepo, auditRepo, validate, logr)
	transferSvc := service.NewTransferService(transferRepo, requestSvc, auditRepo, validate, logr)
	checklistSvc := service.NewChecklistService(checklistRepo, userRepo, notifySvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	requestHandler := handler.NewAccessRequestHandler(requestSvc)
	validationHandler := handler.NewValidationHandler(validationSvc)
	fulfillmentHandler := handler.NewFulfillmentHandler(fulfillmentSvc)
	configHandler := handler.NewValidatorConfigHandler(configSvc)
	transferHandler := handler.NewTransferHandler(transferSvc)
	checklistHandler := handler.NewChecklistHandler(checklistSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.GET("/auth/me", authHandler.Me)

	authed.POST("/requests", requestHandler.Create)
	authed.GET("/requests", requestHandler.List)
	authed.GET("/requests/:id", requestHandler.Get)

	authed.GET("/validations/inbox", validationHandler.Inbox)
	authed.POST("/validations/:id/approve", validationHandler.Approve)
	authed.POST("/validations/:id/reject", validationHandler.Reject)

	tasks := authed.Group("/tasks")
	tasks.Use(middleware.RequireRoles(models.RoleIT, models.RoleAdmin, models.RoleSuperAdmin))
	tasks.GET("", fulfillmentHandler.ListPool)
	tasks.POST("/:id/complete", fulfillmentHandler.Complete)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	admin.Use(middleware.Audit(auditRepo, models.AuditActionAdminAPI, "validator_configuration"))
	admin.GET("/systems/:systemId/validators", configHandler.List)
	admin.POST("/systems/:systemId/validators", configHandler.Create)
	admin.PUT("/validators/:id", configHandler.Update)
	admin.DELETE("/validators/:id", configHandler.Disable)
	admin.POST("/validators/:id/enable", configHandler.Enable)

	if cfg.Transfers.Enabled {
		transfers := authed.Group("")
		transfers.Use(middleware.RequireRoles(models.RoleHR, models.RoleAdmin, models.RoleSuperAdmin))
		transfers.POST("/transfers/preview", transferHandler.Preview)
		transfers.POST("/transfers", transferHandler.Create)
		transfers.GET("/employees/:employeeId/transfers", transferHandler.History)
	}

	if cfg.Checklists.Enabled {
		checklists := authed.Group("/checklists")
		checklists.POST("", middleware.RequireRoles(models.RoleHR, models.RoleAdmin, models.RoleSuperAdmin), checklistHandler.Create)
		checklists.GET("/:id", checklistHandler.Get)
		checklists.POST("/tasks/:id/complete", checklistHandler.CompleteTask)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
