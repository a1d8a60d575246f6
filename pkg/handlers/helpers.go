package handlers

import (
	"net/http"
	"strings"

	config "smart-product-analyzer/configs"
	"smart-product-analyzer/pkg/models"
	"smart-product-analyzer/pkg/services"

	"github.com/gin-gonic/gin"
)

// SessionCookieName はセッションIDを保持するクッキー名です。
const SessionCookieName = "spa_session"

// currentSession はクッキーからセッションを取得し、なければ作成してクッキーを設定します。
func currentSession(c *gin.Context, sessions *services.SessionService) *services.Session {
	id, _ := c.Cookie(SessionCookieName)
	session, _ := sessions.GetOrCreate(id)
	if session.ID != id {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookieName, session.ID, 0, "/", "", false, true)
	}
	return session
}

// normalizeFilters は国とプラットフォームをカタログの選択肢に揃えます。
func normalizeFilters(catalog *config.Catalog, req models.AnalysisRequest) models.AnalysisRequest {
	req.Country = catalog.NormalizeCountry(strings.TrimSpace(req.Country))
	req.Platform = catalog.NormalizePlatform(strings.TrimSpace(req.Platform))
	return req
}

// errorResponse は共通のエラーレスポンスを返します。
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}
