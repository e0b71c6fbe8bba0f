package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/cscinfonest/portal-api/api/swagger"
	"github.com/cscinfonest/portal-api/internal/handler"
	"github.com/cscinfonest/portal-api/internal/middleware"
	"github.com/cscinfonest/portal-api/internal/repository"
	"github.com/cscinfonest/portal-api/internal/service"
	rediscache "github.com/cscinfonest/portal-api/pkg/cache"
	"github.com/cscinfonest/portal-api/pkg/config"
	"github.com/cscinfonest/portal-api/pkg/database"
	"github.com/cscinfonest/portal-api/pkg/logger"
	"github.com/cscinfonest/portal-api/pkg/mailer"
	corsmiddleware "github.com/cscinfonest/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/cscinfonest/portal-api/pkg/middleware/requestid"
	"github.com/cscinfonest/portal-api/pkg/storage"
)

// @title CSCInfoNest Portal API
// @version 1.0.0
// @description Department student information portal: events, results, timetables and announcements.
// @BasePath /api
// @schemes http https

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := rediscache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logr.Fatal("object storage init failed", zap.Error(err))
	}

	// Repositories.
	eventRepo := repository.NewEventRepository(db)
	resultRepo := repository.NewResultRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, cfg.Portal.CacheTTL, logr, metricsSvc)
	eventSvc := service.NewEventService(eventRepo, blobs, cacheSvc, logr,
		cfg.Storage.EventsBucket, cfg.Storage.PublicBaseURL, cfg.Portal.MaxUploadBytes)
	resultSvc := service.NewResultService(resultRepo, blobs, cacheSvc, logr,
		cfg.Storage.ResultsBucket, cfg.Storage.PublicBaseURL, cfg.Portal.MaxUploadBytes)
	timetableSvc := service.NewTimetableService(timetableRepo, blobs, cacheSvc, logr,
		cfg.Storage.TimetableBucket, cfg.Storage.PublicBaseURL, cfg.Portal.MaxUploadBytes)
	announcementSvc := service.NewAnnouncementService(announcementRepo, cacheSvc, logr)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, logr)
	dashboardSvc := service.NewDashboardService(eventRepo, resultRepo, timetableRepo, announcementRepo,
		cacheSvc, logr, cfg.Portal.CurrentSession)
	contactSvc := service.NewContactService(mailer.New(cfg.Mail), nil, logr, metricsSvc)
	exportSvc := service.NewExportService(resultRepo, eventRepo, timetableRepo)

	// Handlers.
	eventHandler := handler.NewEventHandler(eventSvc, exportSvc)
	resultHandler := handler.NewResultHandler(resultSvc, exportSvc, cfg.Portal.CurrentSession)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, exportSvc, cfg.Portal.CurrentSession)
	announcementHandler := handler.NewAnnouncementHandler(announcementSvc)
	authHandler := handler.NewAuthHandler(authSvc, cfg.JWT)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	contactHandler := handler.NewContactHandler(contactSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api")
	{
		api.GET("/events", eventHandler.List)
		api.GET("/events/months", eventHandler.Months)
		api.GET("/events/:id", eventHandler.Get)
		api.GET("/results", resultHandler.List)
		api.GET("/results/grouped", resultHandler.Grouped)
		api.GET("/results/:id", resultHandler.Get)
		api.GET("/timetables", timetableHandler.List)
		api.GET("/timetables/grouped", timetableHandler.Grouped)
		api.GET("/timetables/:id", timetableHandler.Get)
		api.GET("/announcements", announcementHandler.List)
		api.GET("/announcements/:id", announcementHandler.Get)
		api.POST("/contact", contactHandler.Submit)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/logout", authHandler.Logout)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.SessionGate(authSvc, cfg.JWT.CookieName, cfg.Portal.LoginPath))
	{
		admin.GET("/auth/me", authHandler.Me)

		admin.POST("/events", eventHandler.Create)
		admin.PUT("/events/:id", eventHandler.Update)
		admin.DELETE("/events/:id", eventHandler.Delete)
		admin.GET("/events/export", eventHandler.Export)

		admin.POST("/results", resultHandler.Create)
		admin.PUT("/results/:id", resultHandler.Update)
		admin.PATCH("/results/:id/publish", resultHandler.Publish)
		admin.DELETE("/results/:id", resultHandler.Delete)
		admin.GET("/results/export", resultHandler.Export)

		admin.POST("/timetables", timetableHandler.Create)
		admin.PUT("/timetables/:id", timetableHandler.Update)
		admin.PATCH("/timetables/:id/publish", timetableHandler.Publish)
		admin.DELETE("/timetables/:id", timetableHandler.Delete)
		admin.GET("/timetables/export", timetableHandler.Export)

		admin.POST("/announcements", announcementHandler.Create)
		admin.PUT("/announcements/:id", announcementHandler.Update)
		admin.DELETE("/announcements/:id", announcementHandler.Delete)

		admin.GET("/dashboard/stats", dashboardHandler.Stats)
		admin.GET("/dashboard/activity", dashboardHandler.Activity)
		admin.GET("/dashboard/analytics", dashboardHandler.Analytics)
		admin.GET("/dashboard/metrics", dashboardHandler.QuickMetrics)
		admin.GET("/dashboard/search", dashboardHandler.Search)
		admin.GET("/dashboard/session-content", dashboardHandler.SessionContent)
		admin.POST("/dashboard/bulk-publish", dashboardHandler.BulkPublish)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("shutdown incomplete", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
