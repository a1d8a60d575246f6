package handlers

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	config "smart-product-analyzer/configs"
	"smart-product-analyzer/pkg/logger"
	"smart-product-analyzer/pkg/models"
	"smart-product-analyzer/pkg/services"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

// LoadTemplates は埋め込みのHTMLテンプレートを読み込みます。
func LoadTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
}

// UIHandler は画面（フォームと結果カード）のハンドラです。
type UIHandler struct {
	sessions            *services.SessionService
	catalog             *config.Catalog
	placeholderImageURL string
}

// NewUIHandler は新しいUIHandlerを生成します。
func NewUIHandler(sessions *services.SessionService, catalog *config.Catalog, placeholderImageURL string) *UIHandler {
	return &UIHandler{
		sessions:            sessions,
		catalog:             catalog,
		placeholderImageURL: placeholderImageURL,
	}
}

// pageData はテンプレートに渡すデータです。
type pageData struct {
	State       services.UIState
	Catalog     *config.Catalog
	Query       string
	Country     string
	Platform    string
	Loading     bool
	Placeholder string
}

// Index は現在のセッションの画面を表示します。
func (h *UIHandler) Index(c *gin.Context) {
	session := currentSession(c, h.sessions)
	state := session.State().Snapshot()

	data := pageData{
		State:       state,
		Catalog:     h.catalog,
		Country:     h.catalog.Countries[0].Value,
		Platform:    h.catalog.Platforms[0].Value,
		Loading:     state.IsLoading(),
		Placeholder: h.placeholderImageURL,
	}
	if state.Request != nil {
		data.Query = state.Request.Query
		data.Country = h.catalog.NormalizeCountry(state.Request.Country)
		data.Platform = h.catalog.NormalizePlatform(state.Request.Platform)
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "index.html", data)
}

// Analyze はフォーム送信を受け付けます。ボタンとEnterキーの両方がここに届きます。
func (h *UIHandler) Analyze(c *gin.Context) {
	session := currentSession(c, h.sessions)

	var req models.AnalysisRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Log.WithError(err).Warn("failed to bind analyze form")
	}
	req = normalizeFilters(h.catalog, req)

	// リクエスト終了後も分析を続けるため、キャンセルを引き継がない
	ctx := context.WithoutCancel(c.Request.Context())
	if err := session.Orchestrator.SubmitAsync(ctx, req); errors.Is(err, services.ErrAnalysisInProgress) {
		logger.Log.WithField("session", session.ID).Debug("form submit ignored while loading")
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// Reset は表示中の結果やエラーを閉じてIdleに戻します。
func (h *UIHandler) Reset(c *gin.Context) {
	session := currentSession(c, h.sessions)
	session.Orchestrator.Reset()
	c.Redirect(http.StatusSeeOther, "/")
}
