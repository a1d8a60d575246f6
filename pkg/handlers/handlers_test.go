package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	config "smart-product-analyzer/configs"
	"smart-product-analyzer/pkg/models"
	"smart-product-analyzer/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAnalyzer は固定の応答を返すAnalyzerです。release が設定されていれば閉じられるまで待ちます。
type stubAnalyzer struct {
	mu      sync.Mutex
	result  *services.AnalysisResult
	err     error
	release chan struct{}
	calls   []models.AnalysisRequest
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (*services.AnalysisResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	release := s.release
	s.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func (s *stubAnalyzer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubAnalyzer) lastCall() models.AnalysisRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

func okResult() *services.AnalysisResult {
	return &services.AnalysisResult{
		StatusCode: http.StatusOK,
		Body: models.AnalysisResponse{
			Success:       true,
			Query:         "مصابيح",
			ProductsCount: 1,
			Products: models.ProductList{{
				NameAr:           models.NewText("مصباح LED"),
				ShortDescription: models.NewText("مصباح موفر للطاقة"),
			}},
		},
	}
}

type testServer struct {
	router   *gin.Engine
	sessions *services.SessionService
	monitor  *services.MonitoringService
}

func newTestServer(analyzer services.Analyzer) *testServer {
	cfg := &config.Config{PlaceholderImageURL: config.DefaultPlaceholderImageURL}
	sessions := services.NewSessionService(analyzer, time.Minute)
	monitor := services.NewMonitoringService()

	router := NewRouter(Dependencies{
		Config:     cfg,
		Catalog:    config.DefaultCatalog(),
		Sessions:   sessions,
		Monitoring: monitor,
		Export:     services.NewExportService(),
	})
	return &testServer{router: router, sessions: sessions, monitor: monitor}
}

// do はリクエストを実行します。cookie が空でなければセッションCookieを付けます。
func (ts *testServer) do(method, path, contentType string, body []byte, cookie string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// newSession はトップページを開いてセッションIDを取得します。
func (ts *testServer) newSession(t *testing.T) string {
	w := ts.do(http.MethodGet, "/", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c.Value
		}
	}
	t.Fatal("session cookie was not set")
	return ""
}

func (ts *testServer) state(t *testing.T, id string) services.UIState {
	session, err := ts.sessions.Get(id)
	require.NoError(t, err)
	return session.State().Snapshot()
}

func formBody(values url.Values) []byte {
	return []byte(values.Encode())
}

const formContentType = "application/x-www-form-urlencoded"

func TestIndexRendersIdlePage(t *testing.T) {
	ts := newTestServer(&stubAnalyzer{result: okResult()})

	w := ts.do(http.MethodGet, "/", "", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	body := w.Body.String()
	assert.Contains(t, body, `action="/analyze"`)
	assert.Contains(t, body, `value="sa" selected`)
	assert.NotContains(t, body, `http-equiv="refresh"`)
	assert.Equal(t, 1, ts.sessions.Count())
}

func TestIndexKeepsSessionCookie(t *testing.T) {
	ts := newTestServer(&stubAnalyzer{result: okResult()})
	id := ts.newSession(t)

	w := ts.do(http.MethodGet, "/", "", nil, id)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, 1, ts.sessions.Count())
}

func TestFormAnalyzeShowsResults(t *testing.T) {
	analyzer := &stubAnalyzer{result: okResult()}
	ts := newTestServer(analyzer)
	id := ts.newSession(t)

	w := ts.do(http.MethodPost, "/analyze", formContentType, formBody(url.Values{
		"query":    {"  مصابيح  "},
		"country":  {"eg"},
		"platform": {"unknown"},
	}), id)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	require.Eventually(t, func() bool {
		return ts.state(t, id).Kind == services.StateResults
	}, time.Second, 5*time.Millisecond)

	// 国はカタログの値を維持し、不明なプラットフォームは先頭の選択肢になる
	assert.Equal(t, models.AnalysisRequest{Query: "مصابيح", Country: "eg", Platform: "all"}, analyzer.lastCall())

	page := ts.do(http.MethodGet, "/", "", nil, id).Body.String()
	assert.Contains(t, page, "مصباح LED")
	assert.Contains(t, page, `<p class="product-description">مصباح موفر للطاقة</p>`)
	assert.Contains(t, page, `href="/api/export"`)
}

func TestFormAnalyzeEmptyQueryShowsValidationError(t *testing.T) {
	analyzer := &stubAnalyzer{result: okResult()}
	ts := newTestServer(analyzer)
	id := ts.newSession(t)

	w := ts.do(http.MethodPost, "/analyze", formContentType, formBody(url.Values{"query": {"   "}}), id)
	require.Equal(t, http.StatusSeeOther, w.Code)

	state := ts.state(t, id)
	assert.Equal(t, services.StateError, state.Kind)
	assert.Equal(t, services.MsgQueryRequired, state.Message)
	assert.Zero(t, analyzer.callCount())

	page := ts.do(http.MethodGet, "/", "", nil, id).Body.String()
	assert.Contains(t, page, services.MsgQueryRequired)
}

func TestLoadingPageDisablesForm(t *testing.T) {
	analyzer := &stubAnalyzer{result: okResult(), release: make(chan struct{})}
	ts := newTestServer(analyzer)
	id := ts.newSession(t)

	ts.do(http.MethodPost, "/analyze", formContentType, formBody(url.Values{"query": {"مصابيح"}}), id)
	require.Equal(t, services.StateLoading, ts.state(t, id).Kind)

	page := ts.do(http.MethodGet, "/", "", nil, id).Body.String()
	assert.Contains(t, page, `http-equiv="refresh"`)
	assert.Contains(t, page, `name="country" disabled>`)

	close(analyzer.release)
	require.Eventually(t, func() bool {
		return ts.state(t, id).Kind == services.StateResults
	}, time.Second, 5*time.Millisecond)
}

func TestFormResetReturnsToIdle(t *testing.T) {
	ts := newTestServer(&stubAnalyzer{result: okResult()})
	id := ts.newSession(t)
	ts.do(http.MethodPost, "/analyze", formContentType, formBody(url.Values{"query": {""}}), id)
	require.Equal(t, services.StateError, ts.state(t, id).Kind)

	w := ts.do(http.MethodPost, "/reset", "", nil, id)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, services.StateIdle, ts.state(t, id).Kind)
}

func TestAPISubmit(t *testing.T) {
	ts := newTestServer(&stubAnalyzer{result: okResult()})
	id := ts.newSession(t)

	w := ts.do(http.MethodPost, "/api/submit", "application/json",
		[]byte(`{"query":"مصابيح","country":"sa","platform":"amazon"}`), id)

	require.Equal(t, http.StatusOK, w.Code)
	body := gjson.ParseBytes(w.Body.Bytes())
	assert.True(t, body.Get("success").Bool())
	assert.Equal(t, id, body.Get("session").String())
	assert.Equal(t, "results", body.Get("state.kind").String())
	assert.Equal(t, int64(1), body.Get("state.header.count").Int())
	assert.Equal(t, "مصباح LED", body.Get("state.products.0.title").String())
	assert.Equal(t, "مصباح موفر للطاقة", body.Get("state.products.0.description").String())
}

func TestAPISubmitAnalysisFailureIsState(t *testing.T) {
	ts := newTestServer(&stubAnalyzer{result: &services.AnalysisResult{
		StatusCode: http.StatusInternalServerError,
		Body:       models.AnalysisResponse{},
	}})
	id := ts.newSession(t)

	w := ts.do(http.MethodPost, "/api/submit", "application/json", []byte(`{"query":"مصابيح"}`), id)

	require.Equal(t, http.StatusOK, w.Code)
	body := gjson.ParseBytes(w.Body.Bytes())
	assert.Equal(t, "error", body.Get("state.kind").String())
	assert.Equal(t, "server", body.Get("state.error_kind").String())
	assert.Equal(t, services.MsgServerError, body.Get("state.message").String())
}

func TestAPISubmitBadBody(t *testing.T) {
	ts := newTestServer(&stubAnalyzer{result: okResult()})

	w := ts.do(http.MethodPost, "/api/submit", "application/json", []byte(`{`), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, gjson.GetBytes(w.Body.Bytes(), "success").Bool())
}

func TestAPISubmitWhileLoadingConflicts(t *testing.T) {
	analyzer := &stubAnalyzer{result: okResult(), release: make(chan struct{})}
	ts := newTestServer(analyzer)
	id := ts.newSession(t)

	ts.do(http.MethodPost, "/analyze", formContentType, formBody(url.Values{"query": {"مصابيح"}}), id)
	require.Equal(t, services.StateLoading, ts.state(t, id).Kind)

	w := ts.do(http.MethodPost, "/api/submit", "application/json", []byte(`{"query":"ساعات"}`), id)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "loading", gjson.GetBytes(w.Body.Bytes(), "state.kind").String())

	close(analyzer.release)
	require.Eventually(t, func() bool {
		return ts.state(t, id).Kind == services.StateResults
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, analyzer.callCount())
}

func TestAPIGetStateAndReset(t *testing.T) {
	ts := newTestServer(&stubAnalyzer{result: okResult()})
	id := ts.newSession(t)
	ts.do(http.MethodPost, "/api/submit", "application/json", []byte(`{"query":"مصابيح"}`), id)

	w := ts.do(http.MethodGet, "/api/state", "", nil, id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "results", gjson.GetBytes(w.Body.Bytes(), "state.kind").String())

	w = ts.do(http.MethodPost, "/api/reset", "", nil, id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", gjson.GetBytes(w.Body.Bytes(), "state.kind").String())
	assert.False(t, gjson.GetBytes(w.Body.Bytes(), "state.products").Exists())
}

func TestAPIGetCatalog(t *testing.T) {
	ts := newTestServer(&stubAnalyzer{result: okResult()})

	w := ts.do(http.MethodGet, "/api/catalog", "", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	body := gjson.ParseBytes(w.Body.Bytes())
	assert.Equal(t, "sa", body.Get("countries.0.value").String())
	assert.Equal(t, "all", body.Get("platforms.0.value").String())
}

func TestAPIExport(t *testing.T) {
	ts := newTestServer(&stubAnalyzer{result: okResult()})
	id := ts.newSession(t)

	w := ts.do(http.MethodGet, "/api/export", "", nil, id)
	assert.Equal(t, http.StatusConflict, w.Code)

	ts.do(http.MethodPost, "/api/submit", "application/json", []byte(`{"query":"مصابيح"}`), id)
	w = ts.do(http.MethodGet, "/api/export", "", nil, id)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment;"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	cell, err := f.GetCellValue(services.ExportSheetName, "B2")
	require.NoError(t, err)
	assert.Equal(t, "مصباح LED", cell)
}

func TestMonitoringEndpoints(t *testing.T) {
	ts := newTestServer(&stubAnalyzer{result: okResult()})
	id := ts.newSession(t)
	ts.do(http.MethodPost, "/api/submit", "application/json", []byte(`{"query":"مصابيح"}`), id)

	w := ts.do(http.MethodGet, "/health", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.GetBytes(w.Body.Bytes(), "status").String())
	assert.Equal(t, int64(1), gjson.GetBytes(w.Body.Bytes(), "sessions").Int())

	w = ts.do(http.MethodGet, "/api/monitoring/logs?period=1h", "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := gjson.ParseBytes(w.Body.Bytes())
	assert.Len(t, body.Get("requestsOverTime").Array(), 1)
	assert.Equal(t, int64(1), body.Get("outcomes.results").Int())
	assert.Contains(t, body.Get("endpoints").Map(), "/api/submit")
}
