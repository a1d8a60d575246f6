package render

import (
	"strings"

	"smart-product-analyzer/pkg/models"
)

// Placeholder は値がない項目に表示する文字列です。
const Placeholder = "N/A"

// NoTipsText はアドバイスがない場合に表示する唯一の項目です。
const NoTipsText = "لا توجد نصائح متاحة"

const (
	interestsSeparator = "، "
	hashtagsSeparator  = " "
	titleSeparator     = " / "
)

// textField 単一のスカラー値を解決します
func textField(label string, value models.Text) Field {
	if !value.Present() {
		return Field{Label: label, Value: Placeholder, Missing: true}
	}
	return Field{Label: label, Value: value.Value}
}

// amountField 金額を「値 通貨」の形で解決します。通貨がなければ値のみ。
func amountField(label string, amount, currency models.Text) Field {
	if !amount.Present() {
		return Field{Label: label, Value: Placeholder, Missing: true}
	}
	if !currency.Present() {
		return Field{Label: label, Value: amount.Value}
	}
	return Field{Label: label, Value: amount.Value + " " + currency.Value}
}

// joinedField リストを区切り文字で連結します。空なら空文字列です。
func joinedField(label string, list models.TextList, sep string) Field {
	if len(list) == 0 {
		return Field{Label: label, Value: "", Missing: true}
	}
	return Field{Label: label, Value: strings.Join(list, sep)}
}

// itemList リストを複製して返します。空ならfallbackの1件になります。
func itemList(list models.TextList, fallback string) []string {
	if len(list) == 0 {
		return []string{fallback}
	}
	items := make([]string, len(list))
	copy(items, list)
	return items
}

// title 2つの言語の商品名を連結します
func title(ar, en models.Text) (string, bool) {
	switch {
	case ar.Present() && en.Present():
		return ar.Value + titleSeparator + en.Value, false
	case ar.Present():
		return ar.Value, false
	case en.Present():
		return en.Value, false
	default:
		return Placeholder, true
	}
}

// badge バッジ文字列を組み立てます
func badge(kind, prefix string, value models.Text) Badge {
	f := textField("", value)
	return Badge{Kind: kind, Text: prefix + f.Value, Missing: f.Missing}
}
