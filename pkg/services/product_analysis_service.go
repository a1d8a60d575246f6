package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smart-product-analyzer/pkg/logger"
	"smart-product-analyzer/pkg/models"

	"github.com/sirupsen/logrus"
)

// サンプルデータの設定
const (
	sampleProductCount = 5
	homeCountry        = "sa"
	aiRawResponseLimit = 200
	// AnalyzedBySample はサンプルデータの analyzed_by の値です。
	AnalyzedBySample = "sample"
	// SourceAIAnalysis はAI分析結果の source の値です。
	SourceAIAnalysis = "ai-analysis"
)

// ProductAnalysisService は開発用分析サービスの商品分析を行います。
// LLMが使える場合は先に呼び出し、失敗した場合はサンプルデータに戻ります。
type ProductAnalysisService struct {
	llm LLMProvider
	now func() time.Time
}

// NewProductAnalysisService は新しいProductAnalysisServiceを生成します。llmはnilでも構いません。
func NewProductAnalysisService(llm LLMProvider) *ProductAnalysisService {
	return &ProductAnalysisService{
		llm: llm,
		now: time.Now,
	}
}

// LLMAvailable はLLMが設定されているかどうかを返します。
func (s *ProductAnalysisService) LLMAvailable() bool {
	return s.llm != nil && s.llm.Available()
}

// Search は商品を検索して分析結果を返します。
func (s *ProductAnalysisService) Search(ctx context.Context, query, country, platform string) []models.ProductReport {
	log := logger.Log.WithFields(logrus.Fields{
		"query":    query,
		"country":  country,
		"platform": platform,
	})

	if s.LLMAvailable() {
		raw, err := s.llm.AnalyzeProducts(ctx, query, country, platform)
		if err == nil {
			products := s.GenerateSampleData(query, country, platform, models.AnalyzedByAI)
			tagAIProducts(products, raw)
			log.WithField("products", len(products)).Info("ai analysis applied")
			return products
		}
		log.WithError(err).Warn("ai analysis failed, using sample data")
	}

	return s.GenerateSampleData(query, country, platform, AnalyzedBySample)
}

// tagAIProducts はAI分析結果であることを示す項目を設定します。
func tagAIProducts(products []models.ProductReport, raw string) {
	excerpt := raw
	if len([]rune(raw)) > aiRawResponseLimit {
		excerpt = truncateRunes(raw, aiRawResponseLimit) + "..."
	}
	for i := range products {
		products[i].AnalyzedBy = models.NewText(models.AnalyzedByAI)
		products[i].Source = models.NewText(SourceAIAnalysis)
		products[i].AIRawResponse = models.NewText(excerpt)
	}
}

// GenerateSampleData は決定的なサンプル商品を生成します。
func (s *ProductAnalysisService) GenerateSampleData(query, country, platform, analyzedBy string) []models.ProductReport {
	basePrice := 500
	currency := "جنيه"
	if country == homeCountry {
		basePrice = 100
		currency = "ريال"
	}

	now := s.now()
	timestamp := now.Format(time.RFC3339)
	products := make([]models.ProductReport, 0, sampleProductCount)

	for i := 0; i < sampleProductCount; i++ {
		price := basePrice + i*20

		target, ageRange, demand := "شباب ومراهقين", "18-35", "مستمر"
		if i%2 == 1 {
			target, ageRange, demand = "عائلات ومحترفين", "25-45", "موسمي"
		}
		gender := []string{"ذكر", "أنثى", "كلا"}[i%3]
		competition := []string{"منخفض", "متوسط", "عالي"}[i%3]

		products = append(products, models.ProductReport{
			ID:               models.NewText(fmt.Sprintf("%s-%d", platform, i+1)),
			NameAr:           models.NewText(fmt.Sprintf("%s الذكي #%d", query, i+1)),
			NameEn:           models.NewText(fmt.Sprintf("Smart %s #%d", query, i+1)),
			Image:            models.NewText(fmt.Sprintf("https://picsum.photos/300/200?random=%d", i)),
			ShortDescription: models.NewText(fmt.Sprintf("أحدث %s في السوق بتقنيات متطورة وتصميم عصري", query)),
			Category:         models.NewText(query),
			Difficulty:       models.NewText(strings.Repeat("⭐", i%3+1)),
			WhyWin:           models.NewText("طلب مرتفع وتكلفة منخفضة وهامش ربح عالي"),
			Target:           models.NewText(target),
			AgeRange:         models.NewText(ageRange),
			Gender:           models.NewText(gender),
			Interests:        models.TextList{"تسوق", "موضة", "تقنية", "لياقة بدنية"},
			Problem:          models.NewText("يحل مشكلة الحاجة لمنتج عملي بجودة عالية وسعر معقول"),
			ProfitAnalysis: &models.ProfitAnalysis{
				PurchasePrice:  models.NewNumber(float64(price)),
				SuggestedPrice: models.NewNumber(float64(price * 2)),
				ProfitMargin:   models.NewText("45%"),
				TotalCosts:     models.NewNumber(float64(price*3) / 10),
				NetProfit:      models.NewNumber(float64(price*7) / 10),
				Currency:       models.NewText(currency),
			},
			Suppliers: &models.Suppliers{
				ShippingDays: models.NewText("7-14 يوم"),
				MinOrder:     models.NewText("1 قطعة"),
			},
			Marketing: &models.Marketing{
				Platform:  models.NewText("تيك توك وإنستغرام"),
				AdCopy:    models.NewText(fmt.Sprintf("🔥 اكتشف أفضل %s في السوق! 🔥\nجودة ممتازة ⭐ سعر لا يُنافس 🎯 توصيل سريع 🚚", query)),
				VideoIdea: models.NewText("عرض عملي للمنتج مع مقارنة الأسعار والجودة"),
				Hashtags:  models.TextList{"#" + query, "#تسوق", "#عروض", "#جودة"},
				AdBudget:  models.NewText(fmt.Sprintf("%d %s/يوم", 50+i*10, currency)),
			},
			MarketAnalysis: &models.MarketAnalysis{
				Competition:      models.NewText(competition),
				Demand:           models.NewText(demand),
				UniquePoint:      models.NewText("جودة عالية وسعر تنافسي وتصميم مميز"),
				GrowthPrediction: models.NewText(fmt.Sprintf("+%d%% خلال %d", 15+i*5, now.Year())),
			},
			Tips: models.TextList{
				"ركز على التسويق عبر منصات الفيديو القصيرة",
				"التقط صور احترافية للمنتج من زوايا متعددة",
				"قدم ضمان مجاني لأول 30 يوم",
				"استخدم التوصيل السريع كعامل تمييز",
			},
			Timestamp:  models.NewText(timestamp),
			Source:     models.NewText(platform),
			Country:    models.NewText(country),
			AnalyzedBy: models.NewText(analyzedBy),
		})
	}
	return products
}
