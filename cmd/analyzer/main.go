package main

import (
	config "smart-product-analyzer/configs"
	"smart-product-analyzer/pkg/handlers"
	"smart-product-analyzer/pkg/logger"
	"smart-product-analyzer/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// 開発用の分析サービス。表示サーバーの ANALYSIS_API_URL が指す先として動きます。
func main() {
	if err := godotenv.Load(); err != nil {
		logger.Log.Warnf(".env file not found or could not be loaded: %v", err)
	}

	cfg := config.LoadConfig()
	if err := logger.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		logger.Log.Fatalf("failed to initialize logger: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	llm := services.NewOpenRouterService(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.OpenRouterModel)
	if !llm.Available() {
		logger.Log.Warn("OPENROUTER_API_KEY is not set, serving sample data only")
	}

	r := handlers.NewAnalyzerRouter(services.NewProductAnalysisService(llm), services.NewMonitoringService())

	logger.Log.WithFields(logrus.Fields{
		"port":       cfg.AnalyzerPort,
		"openrouter": llm.Available(),
		"model":      cfg.OpenRouterModel,
	}).Info("Starting analysis service")
	if err := r.Run(":" + cfg.AnalyzerPort); err != nil {
		logger.Log.Fatalf("failed to start analysis service: %v", err)
	}
}
