package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextUnmarshalScalars(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    string
		valid   bool
		numeric bool
	}{
		{"string", `"مصباح"`, "مصباح", true, false},
		{"integer", `120`, "120", true, true},
		{"float keeps token", `70.0`, "70.0", true, true},
		{"bool", `true`, "true", true, false},
		{"null", `null`, "", false, false},
		{"object", `{"a":1}`, "", false, false},
		{"array", `[1,2]`, "", false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var text Text
			require.NoError(t, json.Unmarshal([]byte(tc.input), &text))
			assert.Equal(t, tc.want, text.String())
			assert.Equal(t, tc.valid, text.Valid)
			assert.Equal(t, tc.numeric, text.Numeric)
		})
	}
}

func TestTextPresent(t *testing.T) {
	assert.True(t, NewText("x").Present())
	assert.False(t, NewText("   ").Present())
	assert.False(t, Text{}.Present())
	assert.True(t, NewNumber(0).Present())
}

func TestTextMarshalKeepsKind(t *testing.T) {
	data, err := json.Marshal(struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
	}{A: NewText("45%"), B: NewNumber(140), C: Text{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"45%","b":140,"c":null}`, string(data))
}

func TestTextListUnmarshal(t *testing.T) {
	var list TextList
	require.NoError(t, json.Unmarshal([]byte(`["تسوق", 3, "  ", null, "موضة"]`), &list))
	assert.Equal(t, TextList{"تسوق", "3", "  ", "موضة"}, list)

	require.NoError(t, json.Unmarshal([]byte(`"not a list"`), &list))
	assert.Nil(t, list)
}

func TestProductReportTolerantDecode(t *testing.T) {
	input := `{
		"name_ar": "مصباح",
		"name_en": 42,
		"interests": "تسوق",
		"profit_analysis": "broken",
		"marketing": {"platform": "تيك توك", "hashtags": ["#a", "#b"]},
		"market_analysis": null,
		"suppliers": [1, 2],
		"tips": ["نصيحة"]
	}`

	var product ProductReport
	require.NoError(t, json.Unmarshal([]byte(input), &product))

	assert.Equal(t, "مصباح", product.NameAr.String())
	assert.Equal(t, "42", product.NameEn.String())
	assert.Nil(t, product.Interests)
	assert.Equal(t, ProfitAnalysis{}, product.Profit())
	assert.Equal(t, "تيك توك", product.MarketingPlan().Platform.String())
	assert.Equal(t, TextList{"#a", "#b"}, product.MarketingPlan().Hashtags)
	assert.Nil(t, product.MarketAnalysis)
	assert.Equal(t, MarketAnalysis{}, product.Market())
	assert.Equal(t, Suppliers{}, product.Supply())
	assert.Equal(t, TextList{"نصيحة"}, product.Tips)
}

func TestAnalysisResponseDecode(t *testing.T) {
	t.Run("products of wrong shape", func(t *testing.T) {
		var resp AnalysisResponse
		require.NoError(t, json.Unmarshal([]byte(`{"success":true,"products":{"x":1}}`), &resp))
		assert.True(t, resp.Success)
		assert.Empty(t, resp.Products)
	})

	t.Run("non-object products are skipped into empty reports", func(t *testing.T) {
		var resp AnalysisResponse
		require.NoError(t, json.Unmarshal([]byte(`{"success":true,"products":[1,{"name_ar":"أ"}]}`), &resp))
		require.Len(t, resp.Products, 2)
		assert.False(t, resp.Products[0].NameAr.Present())
		assert.Equal(t, "أ", resp.Products[1].NameAr.String())
	})

	t.Run("envelope is strict", func(t *testing.T) {
		var resp AnalysisResponse
		assert.Error(t, json.Unmarshal([]byte(`{"success":"yes"}`), &resp))
		assert.Error(t, json.Unmarshal([]byte(`{"success":true,"query":1}`), &resp))
	})

	t.Run("products_count is read loosely", func(t *testing.T) {
		testCases := []struct {
			input string
			want  int
		}{
			{`1`, 1},
			{`1.0`, 1},
			{`"3"`, 3},
			{`null`, 0},
			{`-2`, 0},
			{`"many"`, 0},
			{`{"n":1}`, 0},
		}
		for _, tc := range testCases {
			var resp AnalysisResponse
			data := `{"success":true,"query":"q","products_count":` + tc.input + `,"products":[{}]}`
			require.NoError(t, json.Unmarshal([]byte(data), &resp), tc.input)
			assert.Equal(t, tc.want, resp.ProductsCount, tc.input)
			assert.True(t, resp.Success)
			assert.Equal(t, "q", resp.Query)
			assert.Len(t, resp.Products, 1)
		}

		var resp AnalysisResponse
		require.NoError(t, json.Unmarshal([]byte(`{"success":true}`), &resp))
		assert.Zero(t, resp.ProductsCount)
	})
}

func TestIsAIAnalyzed(t *testing.T) {
	p := ProductReport{AnalyzedBy: NewText(AnalyzedByAI)}
	assert.True(t, p.IsAIAnalyzed())

	p.AnalyzedBy = NewText("sample")
	assert.False(t, p.IsAIAnalyzed())
}
