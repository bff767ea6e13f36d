package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/kougiview/kougiview-api/api/swagger"
	"github.com/kougiview/kougiview-api/internal/handler"
	"github.com/kougiview/kougiview-api/internal/middleware"
	"github.com/kougiview/kougiview-api/internal/repository"
	"github.com/kougiview/kougiview-api/internal/service"
	"github.com/kougiview/kougiview-api/pkg/cache"
	"github.com/kougiview/kougiview-api/pkg/config"
	"github.com/kougiview/kougiview-api/pkg/database"
	"github.com/kougiview/kougiview-api/pkg/logger"
	corsmiddleware "github.com/kougiview/kougiview-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kougiview/kougiview-api/pkg/middleware/requestid"
)

// @title Kougiview API
// @version 1.0.0
// @description Course review platform backend
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

	if err := database.Migrate(db); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			cfg.Cache.Enabled = false
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	lectureRepo := repository.NewLectureRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	periodRepo := repository.NewReviewPeriodRepository(db)
	countRepo := repository.NewPeriodCountRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	thankRepo := repository.NewThankRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, cfg.Cache.Enabled, cfg.Cache.LatestFeedTTL, logr)
	googleVerifier := service.NewGoogleVerifier(cfg.Google)
	recaptchaSvc := service.NewRecaptchaService(cfg.Recaptcha, logr)
	authSvc := service.NewAuthService(userRepo, googleVerifier, cfg.JWT, logr)
	accessSvc := service.NewAccessService(periodRepo, countRepo, userRepo, logr)
	periodSvc := service.NewReviewPeriodService(periodRepo, validate, logr)
	lectureSvc := service.NewLectureService(lectureRepo, cacheSvc, validate, logr)
	reviewSvc := service.NewReviewService(reviewRepo, lectureRepo, userRepo, periodRepo, countRepo, recaptchaSvc, accessSvc, cacheSvc, validate, logr, cfg.Reviews.LatestLimit)
	bookmarkSvc := service.NewBookmarkService(bookmarkRepo, lectureRepo, logr)
	thankSvc := service.NewThankService(thankRepo, reviewRepo, logr)
	mypageSvc := service.NewMypageService(userRepo, reviewRepo, bookmarkRepo, thankRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	lectureHandler := handler.NewLectureHandler(lectureSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc, metricsSvc)
	periodHandler := handler.NewReviewPeriodHandler(periodSvc)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarkSvc)
	thankHandler := handler.NewThankHandler(thankSvc)
	mypageHandler := handler.NewMypageHandler(mypageSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

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
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	requireAuth := middleware.JWT(authSvc)
	optionalAuth := middleware.OptionalJWT(authSvc)
	adminOnly := middleware.AdminOnly(cfg.Admin.Emails)

	api.POST("/auth/google", authHandler.GoogleLogin)
	api.GET("/auth/me", requireAuth, authHandler.Me)
	api.POST("/auth/logout", requireAuth, authHandler.Logout)

	api.GET("/lectures", lectureHandler.List)
	api.POST("/lectures", lectureHandler.Create)
	api.GET("/lectures/:id", lectureHandler.Get)
	api.GET("/lectures/:id/reviews", optionalAuth, reviewHandler.ListByLecture)
	api.POST("/lectures/:id/reviews", optionalAuth, reviewHandler.Create)

	api.GET("/reviews/latest", optionalAuth, reviewHandler.Latest)
	api.GET("/reviews/total", reviewHandler.Total)
	api.DELETE("/reviews/:id", requireAuth, reviewHandler.Delete)

	api.POST("/reviews/:id/thanks", requireAuth, thankHandler.Add)
	api.DELETE("/reviews/:id/thanks", requireAuth, thankHandler.Remove)
	api.GET("/reviews/:id/thanks", requireAuth, thankHandler.Status)

	api.POST("/lectures/:id/bookmark", requireAuth, bookmarkHandler.Add)
	api.DELETE("/lectures/:id/bookmark", requireAuth, bookmarkHandler.Remove)
	api.GET("/lectures/:id/bookmark", requireAuth, bookmarkHandler.Status)

	api.GET("/review-periods/current", periodHandler.GetCurrent)

	admin := api.Group("/admin", requireAuth, adminOnly)
	admin.GET("/review-periods", periodHandler.List)
	admin.POST("/review-periods", periodHandler.Create)
	admin.GET("/review-periods/:id", periodHandler.Get)
	admin.PUT("/review-periods/:id", periodHandler.Update)
	admin.POST("/review-periods/:id/activate", periodHandler.Activate)
	admin.POST("/review-periods/:id/deactivate", periodHandler.Deactivate)
	admin.DELETE("/review-periods/:id", periodHandler.Delete)

	mypage := api.Group("/mypage", requireAuth)
	mypage.GET("", mypageHandler.Profile)
	mypage.GET("/profile", mypageHandler.Profile)
	mypage.GET("/statistics", mypageHandler.Statistics)
	mypage.GET("/reviews", mypageHandler.Reviews)
	mypage.GET("/bookmarks", mypageHandler.Bookmarks)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
