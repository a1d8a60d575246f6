package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "Smart Product Analyzer", r.Header.Get("X-Title"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
			return
		}
		resp := map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "test-model",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenRouterServiceUnavailableWithoutKey(t *testing.T) {
	service := NewOpenRouterService("", "http://127.0.0.1:1/v1/", "test-model")

	assert.False(t, service.Available())
	_, err := service.AnalyzeProducts(context.Background(), "ساعة", "sa", "all")
	assert.ErrorIs(t, err, ErrLLMUnavailable)
}

func TestOpenRouterServiceAnalyzeProducts(t *testing.T) {
	server := newChatServer(t, http.StatusOK, "تحليل المنتجات")
	defer server.Close()

	service := NewOpenRouterService("test-key", server.URL+"/v1/", "test-model", option.WithMaxRetries(0))
	require.True(t, service.Available())

	content, err := service.AnalyzeProducts(context.Background(), "ساعة", "sa", "all")
	require.NoError(t, err)
	assert.Equal(t, "تحليل المنتجات", content)
}

func TestOpenRouterServiceErrors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		server := newChatServer(t, http.StatusBadRequest, "")
		defer server.Close()

		service := NewOpenRouterService("test-key", server.URL+"/v1/", "test-model", option.WithMaxRetries(0))
		_, err := service.AnalyzeProducts(context.Background(), "ساعة", "sa", "all")
		assert.Error(t, err)
	})

	t.Run("empty content", func(t *testing.T) {
		server := newChatServer(t, http.StatusOK, "   ")
		defer server.Close()

		service := NewOpenRouterService("test-key", server.URL+"/v1/", "test-model", option.WithMaxRetries(0))
		_, err := service.AnalyzeProducts(context.Background(), "ساعة", "sa", "all")
		assert.Error(t, err)
	})
}

func TestBuildProductPrompt(t *testing.T) {
	prompt := buildProductPrompt("ساعة", "sa", "noon")

	assert.Contains(t, prompt, "قم بتحليل فرص الربح للمنتج: ساعة")
	assert.Contains(t, prompt, "للأسواق العربية خاصة: sa على المنصة: noon")
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "مصب", truncateRunes("مصباح", 3))
}
