package handlers

import (
	config "smart-product-analyzer/configs"
	"smart-product-analyzer/pkg/middleware"
	"smart-product-analyzer/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Dependencies は表示サーバーのルーター構築に必要な依存関係です。
type Dependencies struct {
	Config      *config.Config
	Catalog     *config.Catalog
	Sessions    *services.SessionService
	Monitoring  *services.MonitoringService
	Export      *services.ExportService
	RateLimiter *middleware.RateLimiter
}

// NewRouter は表示サーバーのGinルーターを構築します。
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(LoadTemplates())

	// ハンドラーの初期化
	uiHandler := NewUIHandler(deps.Sessions, deps.Catalog, deps.Config.PlaceholderImageURL)
	apiHandler := NewAPIHandler(deps.Sessions, deps.Catalog, deps.Export)
	wsHandler := NewWSHandler(deps.Sessions)
	monitoringHandler := NewMonitoringHandler(deps.Monitoring, deps.Sessions)

	// セッション作成時に状態の配信と集計を開始
	deps.Sessions.OnCreate(wsHandler.TrackSession)
	deps.Sessions.OnCreate(deps.Monitoring.TrackSession)

	// ミドルウェアの登録
	r.Use(deps.Monitoring.LoggingMiddleware())
	r.Use(cors.Default())

	// ヘルスチェックエンドポイント
	r.GET("/health", monitoringHandler.HealthCheck)

	// 画面
	r.GET("/", uiHandler.Index)
	r.GET("/ws", wsHandler.HandleWS)

	// 分析を起動する経路のみレート制限をかける
	limited := r.Group("/")
	if deps.RateLimiter != nil {
		limited.Use(deps.RateLimiter.Middleware())
	}
	{
		limited.POST("/analyze", uiHandler.Analyze)
		limited.POST("/reset", uiHandler.Reset)
	}

	api := r.Group("/api")
	{
		api.GET("/state", apiHandler.GetState)
		api.GET("/catalog", apiHandler.GetCatalog)
		api.GET("/export", apiHandler.Export)

		limitedAPI := api.Group("")
		if deps.RateLimiter != nil {
			limitedAPI.Use(deps.RateLimiter.Middleware())
		}
		limitedAPI.POST("/submit", apiHandler.Submit)
		limitedAPI.POST("/reset", apiHandler.Reset)

		// モニタリングAPI
		monitoring := api.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	return r
}

// NewAnalyzerRouter は開発用分析サービスのGinルーターを構築します。
func NewAnalyzerRouter(service *services.ProductAnalysisService, monitoring *services.MonitoringService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(monitoring.LoggingMiddleware())
	r.Use(cors.Default())

	analyzerHandler := NewAnalyzerHandler(service)

	api := r.Group("/api")
	{
		api.POST("/analyze", analyzerHandler.Analyze)
		api.GET("/health", analyzerHandler.Health)
	}

	return r
}
