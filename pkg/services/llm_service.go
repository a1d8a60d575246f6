package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smart-product-analyzer/pkg/logger"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrLLMUnavailable はAPIキーが設定されていない場合のエラーです。
var ErrLLMUnavailable = errors.New("llm provider is not configured")

// LLMProvider は商品分析のためのチャット補完を提供します。
type LLMProvider interface {
	Available() bool
	AnalyzeProducts(ctx context.Context, query, country, platform string) (string, error)
}

const productAnalystPrompt = `أنت محلل منتجات اقتصادي خبير في السوق العربي.
قدم تحليلات واقعية وقابلة للتنفيذ للمنتجات الرابحة.
أرجع البيانات في شكل منظم وجاهز للبرمجة.`

// OpenRouterService はOpenAI互換API（OpenRouter）を使って商品分析を行います。
type OpenRouterService struct {
	client  *openai.Client
	model   string
	enabled bool
}

// NewOpenRouterService は新しいOpenRouterServiceを作成します。apiKeyが空の場合は無効です。
func NewOpenRouterService(apiKey, baseURL, model string, opts ...option.RequestOption) *OpenRouterService {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHeader("HTTP-Referer", "https://localhost"),
		option.WithHeader("X-Title", "Smart Product Analyzer"),
	}
	clientOpts = append(clientOpts, opts...)

	return &OpenRouterService{
		client:  openai.NewClient(clientOpts...),
		model:   model,
		enabled: apiKey != "",
	}
}

// Available はAPIキーが設定されているかどうかを返します。
func (s *OpenRouterService) Available() bool {
	return s != nil && s.enabled
}

// AnalyzeProducts は商品の収益機会を分析し、モデルの応答テキストを返します。
func (s *OpenRouterService) AnalyzeProducts(ctx context.Context, query, country, platform string) (string, error) {
	if !s.Available() {
		return "", ErrLLMUnavailable
	}

	resp, err := s.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Model: openai.F(s.model),
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(productAnalystPrompt),
				openai.UserMessage(buildProductPrompt(query, country, platform)),
			}),
			Temperature: openai.F(0.7),
			MaxTokens:   openai.F(int64(2000)),
		},
	)
	if err != nil {
		return "", fmt.Errorf("チャット補完の呼び出しに失敗: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("モデルからの応答が空です")
	}

	content := resp.Choices[0].Message.Content
	logger.Log.WithField("model", s.model).Debugf("llm response: %s", truncateRunes(content, 500))
	return content, nil
}

func buildProductPrompt(query, country, platform string) string {
	return fmt.Sprintf(`قم بتحليل فرص الربح للمنتج: %s
للأسواق العربية خاصة: %s على المنصة: %s

المطلوب تحليل 3 منتجات مقترحة مع البيانات التالية لكل منتج:
- اسم عربي للمنتج
- اسم إنجليزي للمنتج
- وصف قصير
- فئة المنتج
- سبب الربحية
- الجمهور المستهدف
- الفئة العمرية
- الاهتمامات
- المشكلة التي يحلها
- تحليل ربحي (سعر شراء، سعر بيع، هامش ربح)
- نصائح تسويقية
- تحليل السوق
- نصائح الخبراء

يجب أن تكون البيانات واقعية وقابلة للتنفيذ في السوق العربي.`, query, country, platform)
}

// truncateRunes は文字数（rune）で切り詰めます
func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
