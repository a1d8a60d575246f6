package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"smart-product-analyzer/pkg/logger"
	"smart-product-analyzer/pkg/models"
	"smart-product-analyzer/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 開発用分析サービスの既定値とメッセージ
const (
	defaultCountry      = "sa"
	defaultPlatform     = "all"
	analyzerServiceName = "Smart Product Analyzer"
	msgQueryMissing     = "يرجى إدخال مجال المنتجات للبحث"
	msgSystemErrorFmt   = "حدث خطأ في النظام: %v"
)

// AnalyzerHandler は開発用分析サービスのハンドラです。
type AnalyzerHandler struct {
	service *services.ProductAnalysisService
	now     func() time.Time
}

// NewAnalyzerHandler は新しいAnalyzerHandlerを生成します。
func NewAnalyzerHandler(service *services.ProductAnalysisService) *AnalyzerHandler {
	return &AnalyzerHandler{
		service: service,
		now:     time.Now,
	}
}

// Analyze は POST /api/analyze を処理します。
func (h *AnalyzerHandler) Analyze(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("panic", r).Error("analysis failed")
			errorResponse(c, http.StatusInternalServerError, fmt.Sprintf(msgSystemErrorFmt, r))
		}
	}()

	// 不正なボディは空のリクエストとして扱う
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = models.AnalysisRequest{}
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		errorResponse(c, http.StatusBadRequest, msgQueryMissing)
		return
	}
	country := req.Country
	if country == "" {
		country = defaultCountry
	}
	platform := req.Platform
	if platform == "" {
		platform = defaultPlatform
	}

	logger.Log.WithFields(logrus.Fields{
		"query":    query,
		"country":  country,
		"platform": platform,
	}).Info("analysis request")

	products := h.service.Search(c.Request.Context(), query, country, platform)

	c.JSON(http.StatusOK, models.AnalysisResponse{
		Success:       true,
		Query:         query,
		Country:       country,
		Platform:      platform,
		ProductsCount: len(products),
		Products:      products,
		Timestamp:     h.now().Format(time.RFC3339),
	})
}

// Health は GET /api/health を処理します。
func (h *AnalyzerHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthStatus{
		Status:              "running",
		Service:             analyzerServiceName,
		Timestamp:           h.now().Format(time.RFC3339),
		OpenRouterAvailable: h.service.LLMAvailable(),
	})
}
