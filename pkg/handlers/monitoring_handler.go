package handlers

import (
	"net/http"

	"smart-product-analyzer/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler はモニタリング関連の操作のハンドラです。
type MonitoringHandler struct {
	Service  *services.MonitoringService
	sessions *services.SessionService
}

// NewMonitoringHandler は新しいMonitoringHandlerを生成します。
func NewMonitoringHandler(service *services.MonitoringService, sessions *services.SessionService) *MonitoringHandler {
	return &MonitoringHandler{
		Service:  service,
		sessions: sessions,
	}
}

// GetLogs は集計されたログデータを返します。period は 1h, 24h, 7d のいずれかです。
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	hours := services.ParsePeriod(c.DefaultQuery("period", "24h"))
	c.JSON(http.StatusOK, h.Service.GetDashboardData(hours))
}

// HealthCheck は外部のヘルスチェッカーからのリクエストに応答します。
func (h *MonitoringHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.sessions.Count(),
	})
}
