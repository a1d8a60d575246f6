// Package render は分析結果を表示用のカードデータへ変換します。
// すべての関数は純粋関数で、入力を変更せず、失敗もしません。
package render

import (
	"strconv"

	"smart-product-analyzer/pkg/models"
)

// セクションキー（表示順）
const (
	SectionBasic     = "basic"
	SectionProfit    = "profit"
	SectionAudience  = "audience"
	SectionMarketing = "marketing"
	SectionMarket    = "market"
	SectionTips      = "tips"
	SectionSuppliers = "suppliers"
)

// SectionOrder はカード内のセクションの表示順です。
var SectionOrder = []string{
	SectionBasic,
	SectionProfit,
	SectionAudience,
	SectionMarketing,
	SectionMarket,
	SectionTips,
	SectionSuppliers,
}

var sectionTitles = map[string]string{
	SectionBasic:     "📊 المعلومات الأساسية",
	SectionProfit:    "💰 تحليل الربحية",
	SectionAudience:  "🎯 الجمهور المستهدف",
	SectionMarketing: "📢 الاستراتيجية التسويقية",
	SectionMarket:    "📊 تحليل السوق",
	SectionTips:      "⚡ نصائح الخبراء",
	SectionSuppliers: "🛒 معلومات الموردين",
}

// バッジ種別
const (
	BadgeProfitMargin = "profit_margin"
	BadgeDifficulty   = "difficulty"
	BadgeTarget       = "target"
)

// Field はラベル付きの1項目です。
type Field struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Missing bool   `json:"missing"`
}

// Section はカード内の1セクションです。Items はリスト形式のセクションのみ使います。
type Section struct {
	Key    string   `json:"key"`
	Title  string   `json:"title"`
	Fields []Field  `json:"fields,omitempty"`
	Items  []string `json:"items,omitempty"`
}

// Badge はカードヘッダーのバッジです。
type Badge struct {
	Kind    string `json:"kind"`
	Text    string `json:"text"`
	Missing bool   `json:"missing"`
}

// ProductView は商品カード1枚分の表示データです。
type ProductView struct {
	Ordinal      int       `json:"ordinal"`
	Label        string    `json:"label"`
	Title        string    `json:"title"`
	TitleMissing bool      `json:"title_missing"`
	Description  string    `json:"description"`
	Image        string    `json:"image,omitempty"`
	HasImage     bool      `json:"has_image"`
	ImageAlt     string    `json:"image_alt"`
	AIAnalyzed   bool      `json:"ai_analyzed"`
	Badges       []Badge   `json:"badges"`
	Sections     []Section `json:"sections"`
}

// Section はキーに対応するセクションを返します。
func (v ProductView) Section(key string) (Section, bool) {
	for _, s := range v.Sections {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// ResultsHeader は結果一覧の見出し情報です。
type ResultsHeader struct {
	Count      int    `json:"count"`
	CountLabel string `json:"count_label"`
	Query      string `json:"query"`
	QueryLabel string `json:"query_label"`
	AIAnalyzed bool   `json:"ai_analyzed"`
}

// Render は成功レスポンスの商品を順番どおりにカードへ変換します。
func Render(resp *models.AnalysisResponse) []ProductView {
	if resp == nil {
		return []ProductView{}
	}

	views := make([]ProductView, 0, len(resp.Products))
	for i := range resp.Products {
		views = append(views, RenderProduct(&resp.Products[i], i+1))
	}
	return views
}

// Header は結果一覧の見出しを組み立てます。
func Header(resp *models.AnalysisResponse) ResultsHeader {
	if resp == nil {
		return ResultsHeader{CountLabel: "0 منتج", QueryLabel: "عنوان البحث: "}
	}

	count := resp.ProductsCount
	if count == 0 {
		count = len(resp.Products)
	}

	aiAnalyzed := false
	for i := range resp.Products {
		if resp.Products[i].IsAIAnalyzed() {
			aiAnalyzed = true
			break
		}
	}

	return ResultsHeader{
		Count:      count,
		CountLabel: strconv.Itoa(count) + " منتج",
		Query:      resp.Query,
		QueryLabel: "عنوان البحث: " + resp.Query,
		AIAnalyzed: aiAnalyzed,
	}
}

// RenderProduct は商品1件をカードへ変換します。ordinal は1始まりの位置です。
func RenderProduct(p *models.ProductReport, ordinal int) ProductView {
	if p == nil {
		p = &models.ProductReport{}
	}

	profit := p.Profit()
	marketing := p.MarketingPlan()
	market := p.Market()
	supply := p.Supply()

	viewTitle, titleMissing := title(p.NameAr, p.NameEn)
	tips := itemList(p.Tips, NoTipsText)

	imageAlt := viewTitle
	if p.NameAr.Present() {
		imageAlt = p.NameAr.Value
	}

	return ProductView{
		Ordinal:      ordinal,
		Label:        strconv.Itoa(ordinal),
		Title:        viewTitle,
		TitleMissing: titleMissing,
		Description:  textField("", p.ShortDescription).Value,
		Image:        p.Image.String(),
		HasImage:     p.Image.Present(),
		ImageAlt:     imageAlt,
		AIAnalyzed:   p.IsAIAnalyzed(),
		Badges: []Badge{
			badge(BadgeProfitMargin, "💰 هامش ربح: ", profit.ProfitMargin),
			badge(BadgeDifficulty, "📊 ", p.Difficulty),
			badge(BadgeTarget, "🎯 ", p.Target),
		},
		Sections: []Section{
			fieldSection(SectionBasic,
				textField("الفئة", p.Category),
				textField("سبب الربحية", p.WhyWin),
				textField("المشكلة التي يحلها", p.Problem),
			),
			fieldSection(SectionProfit,
				amountField("سعر الشراء", profit.PurchasePrice, profit.Currency),
				amountField("سعر البيع المقترح", profit.SuggestedPrice, profit.Currency),
				amountField("صافي الربح", profit.NetProfit, profit.Currency),
			),
			fieldSection(SectionAudience,
				textField("الفئة العمرية", p.AgeRange),
				textField("الجنس", p.Gender),
				joinedField("الاهتمامات", p.Interests, interestsSeparator),
			),
			fieldSection(SectionMarketing,
				textField("منصة البيع", marketing.Platform),
				textField("ميزانية الإعلان", marketing.AdBudget),
				textField("النص الإعلاني", marketing.AdCopy),
				joinedField("الهاشتاقات", marketing.Hashtags, hashtagsSeparator),
			),
			fieldSection(SectionMarket,
				textField("مستوى المنافسة", market.Competition),
				textField("حجم الطلب", market.Demand),
				textField("توقعات النمو", market.GrowthPrediction),
			),
			{Key: SectionTips, Title: sectionTitles[SectionTips], Items: tips},
			fieldSection(SectionSuppliers,
				textField("مدة الشحن", supply.ShippingDays),
				textField("حد الأدنى للطلب", supply.MinOrder),
			),
		},
	}
}

func fieldSection(key string, fields ...Field) Section {
	return Section{Key: key, Title: sectionTitles[key], Fields: fields}
}
