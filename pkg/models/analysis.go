package models

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// AnalysisRequest represents a product opportunity analysis request
type AnalysisRequest struct {
	Query    string `json:"query" form:"query"`
	Country  string `json:"country" form:"country"`
	Platform string `json:"platform" form:"platform"`
}

// AnalysisResponse represents the analysis service response envelope.
// The envelope itself is decoded strictly, except products_count; products are decoded tolerantly.
type AnalysisResponse struct {
	Success       bool        `json:"success"`
	Query         string      `json:"query,omitempty"`
	Country       string      `json:"country,omitempty"`
	Platform      string      `json:"platform,omitempty"`
	ProductsCount int         `json:"products_count"`
	Products      ProductList `json:"products"`
	Error         string      `json:"error,omitempty"`
	Timestamp     string      `json:"timestamp,omitempty"`
}

// UnmarshalJSON は products_count のみ緩やかに読み取ります。
// 1.0 や "3" のような値も件数として扱い、数値にできない値は0になります。
func (r *AnalysisResponse) UnmarshalJSON(data []byte) error {
	type plain AnalysisResponse
	aux := struct {
		*plain
		ProductsCount json.RawMessage `json:"products_count"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.ProductsCount = productCount(aux.ProductsCount)
	return nil
}

func productCount(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	r := gjson.ParseBytes(raw)
	if r.Type != gjson.Number && r.Type != gjson.String {
		return 0
	}
	if n := r.Float(); n > 0 {
		return int(n)
	}
	return 0
}

// HealthStatus 分析サービスのヘルスチェック応答
type HealthStatus struct {
	Status              string `json:"status"`
	Service             string `json:"service"`
	Timestamp           string `json:"timestamp"`
	OpenRouterAvailable bool   `json:"openrouter_available"`
}

// ProductReport 商品1件の分析レポート。すべての項目は省略可能です。
type ProductReport struct {
	ID               Text            `json:"id"`
	NameAr           Text            `json:"name_ar"`
	NameEn           Text            `json:"name_en"`
	Image            Text            `json:"image"`
	ShortDescription Text            `json:"short_description"`
	Category         Text            `json:"category"`
	Difficulty       Text            `json:"difficulty"`
	WhyWin           Text            `json:"why_win"`
	Target           Text            `json:"target"`
	AgeRange         Text            `json:"age_range"`
	Gender           Text            `json:"gender"`
	Interests        TextList        `json:"interests,omitempty"`
	Problem          Text            `json:"problem"`
	ProfitAnalysis   *ProfitAnalysis `json:"profit_analysis,omitempty"`
	Suppliers        *Suppliers      `json:"suppliers,omitempty"`
	Marketing        *Marketing      `json:"marketing,omitempty"`
	MarketAnalysis   *MarketAnalysis `json:"market_analysis,omitempty"`
	Tips             TextList        `json:"tips,omitempty"`
	Timestamp        Text            `json:"timestamp"`
	Source           Text            `json:"source"`
	Country          Text            `json:"country"`
	AnalyzedBy       Text            `json:"analyzed_by"`
	AIRawResponse    Text            `json:"ai_raw_response"`
}

// ProfitAnalysis 収益性分析
type ProfitAnalysis struct {
	PurchasePrice  Text `json:"purchase_price"`
	SuggestedPrice Text `json:"suggested_price"`
	ProfitMargin   Text `json:"profit_margin"`
	TotalCosts     Text `json:"total_costs"`
	NetProfit      Text `json:"net_profit"`
	Currency       Text `json:"currency"`
}

// Marketing マーケティング戦略
type Marketing struct {
	Platform  Text     `json:"platform"`
	AdCopy    Text     `json:"ad_copy"`
	VideoIdea Text     `json:"video_idea"`
	Hashtags  TextList `json:"hashtags,omitempty"`
	AdBudget  Text     `json:"ad_budget"`
}

// MarketAnalysis 市場分析
type MarketAnalysis struct {
	Competition      Text `json:"competition"`
	Demand           Text `json:"demand"`
	UniquePoint      Text `json:"unique_point"`
	GrowthPrediction Text `json:"growth_prediction"`
}

// Suppliers 仕入れ先情報
type Suppliers struct {
	ShippingDays Text `json:"shipping_days"`
	MinOrder     Text `json:"min_order"`
}

// AnalyzedByAI はAIによる分析結果の場合の analyzed_by の値です。
const AnalyzedByAI = "openrouter"

// IsAIAnalyzed AIによって分析された商品かどうか
func (p *ProductReport) IsAIAnalyzed() bool {
	return p.AnalyzedBy.String() == AnalyzedByAI
}

// Profit は収益性分析を返します。存在しない場合はゼロ値のグループです。
func (p *ProductReport) Profit() ProfitAnalysis {
	if p.ProfitAnalysis == nil {
		return ProfitAnalysis{}
	}
	return *p.ProfitAnalysis
}

// MarketingPlan はマーケティング戦略を返します。存在しない場合はゼロ値のグループです。
func (p *ProductReport) MarketingPlan() Marketing {
	if p.Marketing == nil {
		return Marketing{}
	}
	return *p.Marketing
}

// Market は市場分析を返します。存在しない場合はゼロ値のグループです。
func (p *ProductReport) Market() MarketAnalysis {
	if p.MarketAnalysis == nil {
		return MarketAnalysis{}
	}
	return *p.MarketAnalysis
}

// Supply は仕入れ先情報を返します。存在しない場合はゼロ値のグループです。
func (p *ProductReport) Supply() Suppliers {
	if p.Suppliers == nil {
		return Suppliers{}
	}
	return *p.Suppliers
}

// UnmarshalJSON decodes a product and ignores values of the wrong shape.
func (p *ProductReport) UnmarshalJSON(data []byte) error {
	type plain ProductReport
	return decodeObject(data, (*plain)(p))
}

// UnmarshalJSON ignores a non-object group.
func (g *ProfitAnalysis) UnmarshalJSON(data []byte) error {
	type plain ProfitAnalysis
	return decodeObject(data, (*plain)(g))
}

// UnmarshalJSON ignores a non-object group.
func (g *Marketing) UnmarshalJSON(data []byte) error {
	type plain Marketing
	return decodeObject(data, (*plain)(g))
}

// UnmarshalJSON ignores a non-object group.
func (g *MarketAnalysis) UnmarshalJSON(data []byte) error {
	type plain MarketAnalysis
	return decodeObject(data, (*plain)(g))
}

// UnmarshalJSON ignores a non-object group.
func (g *Suppliers) UnmarshalJSON(data []byte) error {
	type plain Suppliers
	return decodeObject(data, (*plain)(g))
}

// ProductList 商品レポートの配列。配列以外の値は空リストとして扱います。
type ProductList []ProductReport

// UnmarshalJSON implements json.Unmarshaler and never fails on shape mismatches.
func (l *ProductList) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		*l = nil
		return nil
	}

	products := make(ProductList, 0)
	var err error
	r.ForEach(func(_, value gjson.Result) bool {
		var product ProductReport
		if err = json.Unmarshal([]byte(value.Raw), &product); err != nil {
			return false
		}
		products = append(products, product)
		return true
	})
	if err != nil {
		return err
	}
	*l = products
	return nil
}
