package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"smart-product-analyzer/pkg/models"
)

// AnalysisResult は分析サービスの応答です。HTTPステータスとデコード済みボディを保持します。
type AnalysisResult struct {
	StatusCode int
	Body       models.AnalysisResponse
}

// OK はHTTPステータスが2xxかどうかを返します。
func (r *AnalysisResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// AnalysisClient は外部の分析サービスへのリクエストを管理します。
// タイムアウトは設定せず、キャンセルはcontextのみで行います。
type AnalysisClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAnalysisClient は新しいAnalysisClientを作成します。
func NewAnalysisClient(baseURL string, httpClient *http.Client) *AnalysisClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &AnalysisClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Analyze は POST /api/analyze を実行します。
// ステータスに関係なくボディをデコードし、デコードできない場合は TransportError を返します。
func (c *AnalysisClient) Analyze(ctx context.Context, req models.AnalysisRequest) (*AnalysisResult, error) {
	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: "encode analysis request", Err: err}
	}

	status, body, err := c.doRequest(ctx, http.MethodPost, "/api/analyze", bytes.NewReader(requestBody))
	if err != nil {
		return nil, err
	}

	result := &AnalysisResult{StatusCode: status}
	if err := json.Unmarshal(body, &result.Body); err != nil {
		return nil, &TransportError{Op: "decode analysis response", Err: err}
	}
	return result, nil
}

// Health は GET /api/health を実行します。2xx以外はエラーです。
func (c *AnalysisClient) Health(ctx context.Context) (*models.HealthStatus, error) {
	status, body, err := c.doRequest(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &TransportError{Op: "health check", Err: fmt.Errorf("unexpected status %d", status)}
	}

	var health models.HealthStatus
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, &TransportError{Op: "decode health response", Err: err}
	}
	return &health, nil
}

// doRequest はHTTPリクエストの実行とボディの読み取りを行う共通メソッドです。
func (c *AnalysisClient) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, &TransportError{Op: "create request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Op: "read response", Err: err}
	}
	return resp.StatusCode, data, nil
}
