package handlers

import (
	"bytes"
	"errors"
	"net/http"

	config "smart-product-analyzer/configs"
	"smart-product-analyzer/pkg/logger"
	"smart-product-analyzer/pkg/models"
	"smart-product-analyzer/pkg/services"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// APIHandler はセッション状態を操作するJSON APIのハンドラです。
type APIHandler struct {
	sessions *services.SessionService
	catalog  *config.Catalog
	export   *services.ExportService
}

// NewAPIHandler は新しいAPIHandlerを生成します。
func NewAPIHandler(sessions *services.SessionService, catalog *config.Catalog, export *services.ExportService) *APIHandler {
	return &APIHandler{
		sessions: sessions,
		catalog:  catalog,
		export:   export,
	}
}

// GetState は現在の状態を返します。
func (h *APIHandler) GetState(c *gin.Context) {
	session := currentSession(c, h.sessions)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session.ID,
		"state":   session.State().Snapshot(),
	})
}

// Submit は分析を実行し、完了後の状態を返します。
// 分析結果の成否は状態に含まれ、HTTPステータスは常に200です。
func (h *APIHandler) Submit(c *gin.Context) {
	session := currentSession(c, h.sessions)

	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req = normalizeFilters(h.catalog, req)

	if err := session.Orchestrator.Submit(c.Request.Context(), req); err != nil {
		if errors.Is(err, services.ErrAnalysisInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error":   err.Error(),
				"state":   session.State().Snapshot(),
			})
			return
		}
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": session.ID,
		"state":   session.State().Snapshot(),
	})
}

// Reset は状態をIdleに戻します。
func (h *APIHandler) Reset(c *gin.Context) {
	session := currentSession(c, h.sessions)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"state":   session.Orchestrator.Reset(),
	})
}

// GetCatalog は国とプラットフォームの選択肢を返します。
func (h *APIHandler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"countries": h.catalog.Countries,
		"platforms": h.catalog.Platforms,
	})
}

// Export は現在の結果をExcelファイルとして返します。
func (h *APIHandler) Export(c *gin.Context) {
	session := currentSession(c, h.sessions)
	state := session.State().Snapshot()

	var buf bytes.Buffer
	if err := h.export.WriteResults(&buf, state); err != nil {
		if errors.Is(err, services.ErrNoResults) {
			errorResponse(c, http.StatusConflict, err.Error())
			return
		}
		logger.Log.WithError(err).WithField("session", session.ID).Error("export failed")
		errorResponse(c, http.StatusInternalServerError, "failed to export results")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+services.ExportFileName(state)+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
