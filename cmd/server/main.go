package main

import (
	"context"
	"time"

	config "smart-product-analyzer/configs"
	"smart-product-analyzer/pkg/handlers"
	"smart-product-analyzer/pkg/logger"
	"smart-product-analyzer/pkg/middleware"
	"smart-product-analyzer/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	sessionCleanupInterval = time.Minute
	limiterCleanupInterval = 5 * time.Minute
	limiterMaxIdle         = 10 * time.Minute
	healthProbeTimeout     = 5 * time.Second
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		logger.Log.Warnf(".env file not found or could not be loaded: %v", err)
	}

	// 設定の読み込み
	cfg := config.LoadConfig()
	if err := logger.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		logger.Log.Fatalf("failed to initialize logger: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Log.Fatalf("failed to load catalog: %v", err)
	}

	ctx := context.Background()

	// サービスの初期化
	analysisClient := services.NewAnalysisClient(cfg.AnalysisAPIURL, nil)
	sessionService := services.NewSessionService(analysisClient, cfg.SessionTTL)
	sessionService.StartCleanup(ctx, sessionCleanupInterval)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	rateLimiter.StartCleanup(ctx, limiterCleanupInterval, limiterMaxIdle)

	r := handlers.NewRouter(handlers.Dependencies{
		Config:      cfg,
		Catalog:     catalog,
		Sessions:    sessionService,
		Monitoring:  services.NewMonitoringService(),
		Export:      services.NewExportService(),
		RateLimiter: rateLimiter,
	})

	// 分析サービスの疎通確認。失敗しても起動は続ける
	go probeAnalysisService(ctx, analysisClient, cfg.AnalysisAPIURL)

	logger.Log.WithFields(logrus.Fields{
		"port":         cfg.Port,
		"analysis_api": cfg.AnalysisAPIURL,
		"environment":  cfg.Environment,
	}).Info("Starting Smart Product Analyzer server")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Log.Fatalf("failed to start server: %v", err)
	}
}

func probeAnalysisService(ctx context.Context, client *services.AnalysisClient, baseURL string) {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	health, err := client.Health(ctx)
	if err != nil {
		logger.Log.WithError(err).WithField("analysis_api", baseURL).Warn("analysis service is not reachable")
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"status":     health.Status,
		"service":    health.Service,
		"openrouter": health.OpenRouterAvailable,
	}).Info("analysis service is reachable")
}
