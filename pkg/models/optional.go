package models

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Text は分析サービスから届く任意のスカラー値を文字列として保持します。
// 数値は元のトークンのまま保持するため、70.0 は "70.0" になります。
// null・オブジェクト・配列は「値なし」として扱い、デコードは失敗しません。
type Text struct {
	Value   string
	Valid   bool
	Numeric bool
}

// NewText 文字列値のTextを作成
func NewText(value string) Text {
	return Text{Value: value, Valid: true}
}

// NewNumber 数値のTextを作成
func NewNumber(value float64) Text {
	return Text{Value: strconv.FormatFloat(value, 'f', -1, 64), Valid: true, Numeric: true}
}

// Present 空白以外の値を持つかどうか
func (t Text) Present() bool {
	return t.Valid && strings.TrimSpace(t.Value) != ""
}

// String 値を返します（値なしなら空文字列）
func (t Text) String() string {
	if !t.Valid {
		return ""
	}
	return t.Value
}

// UnmarshalJSON implements json.Unmarshaler and never fails.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = textFromResult(gjson.ParseBytes(data))
	return nil
}

// MarshalJSON 元のスカラー種別（文字列・数値）を保って出力します。
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	if t.Numeric {
		return []byte(t.Value), nil
	}
	return json.Marshal(t.Value)
}

func textFromResult(r gjson.Result) Text {
	switch r.Type {
	case gjson.String:
		return Text{Value: r.Str, Valid: true}
	case gjson.Number:
		return Text{Value: r.Raw, Valid: true, Numeric: true}
	case gjson.True, gjson.False:
		return Text{Value: r.Raw, Valid: true}
	default:
		return Text{}
	}
}

// TextList はスカラー値の配列です。配列以外の値は「値なし」になります。
// スカラー以外の要素は取り除き、文字列はそのまま保持します。
type TextList []string

// UnmarshalJSON implements json.Unmarshaler and never fails.
func (l *TextList) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	if !r.IsArray() {
		*l = nil
		return nil
	}

	items := make(TextList, 0)
	r.ForEach(func(_, value gjson.Result) bool {
		if t := textFromResult(value); t.Valid {
			items = append(items, t.Value)
		}
		return true
	})
	*l = items
	return nil
}

// decodeObject はJSONオブジェクトの場合のみvへデコードします。
// それ以外の形の値は無視して、ゼロ値のまま残します。
func decodeObject(data []byte, v interface{}) error {
	if !gjson.ParseBytes(data).IsObject() {
		return nil
	}
	return json.Unmarshal(data, v)
}
