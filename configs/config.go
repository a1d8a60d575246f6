package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultPlaceholderImageURL は商品画像の読み込みに失敗したときの代替画像です。
const DefaultPlaceholderImageURL = "https://via.placeholder.com/300x200/667eea/white?text=صورة+المنتج"

// Config holds the application configuration
type Config struct {
	Port                string
	Environment         string
	AnalysisAPIURL      string
	LogLevel            string
	LogFile             string
	CatalogPath         string
	SessionTTL          time.Duration
	RateLimitRPS        float64
	RateLimitBurst      int
	PlaceholderImageURL string

	// 開発用分析サービス (cmd/analyzer) の設定
	AnalyzerPort      string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:                getEnv("PORT", "8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		AnalysisAPIURL:      getEnv("ANALYSIS_API_URL", "http://localhost:5000"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFile:             getEnv("LOG_FILE", ""),
		CatalogPath:         getEnv("CATALOG_PATH", ""),
		SessionTTL:          getEnvDuration("SESSION_TTL", 30*time.Minute),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 10),
		PlaceholderImageURL: getEnv("PLACEHOLDER_IMAGE_URL", DefaultPlaceholderImageURL),
		AnalyzerPort:        getEnv("ANALYZER_PORT", "5000"),
		OpenRouterAPIKey:    getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:   getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:     getEnv("OPENROUTER_MODEL", "openai/gpt-3.5-turbo"),
	}
}

// IsProduction 本番環境かどうか
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil && value > 0 {
		return value
	}
	return defaultValue
}
