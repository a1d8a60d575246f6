package services

import (
	"fmt"
	"io"
	"strings"

	"smart-product-analyzer/pkg/render"

	"github.com/xuri/excelize/v2"
)

// ExportSheetName はエクスポートするシート名です。
const ExportSheetName = "Results"

// ExportService は分析結果をExcelファイルに書き出します。
type ExportService struct{}

// NewExportService は新しいExportServiceを生成します。
func NewExportService() *ExportService {
	return &ExportService{}
}

// ExportHeaders はエクスポートの列見出しを返します。セクションの表示順に並びます。
func ExportHeaders() []string {
	headers := []string{"#", "المنتج", "الوصف"}
	for _, section := range render.RenderProduct(nil, 0).Sections {
		if len(section.Fields) == 0 {
			headers = append(headers, section.Title)
			continue
		}
		for _, f := range section.Fields {
			headers = append(headers, f.Label)
		}
	}
	return headers
}

// exportRow は商品カード1枚を1行に変換します。
func exportRow(view render.ProductView) []interface{} {
	row := []interface{}{view.Ordinal, view.Title, view.Description}
	for _, section := range view.Sections {
		if len(section.Fields) == 0 {
			row = append(row, strings.Join(section.Items, "\n"))
			continue
		}
		for _, f := range section.Fields {
			row = append(row, f.Value)
		}
	}
	return row
}

// BuildWorkbook は結果状態からワークブックを作成します。結果状態でなければ ErrNoResults です。
func (s *ExportService) BuildWorkbook(state UIState) (*excelize.File, error) {
	if state.Kind != StateResults {
		return nil, ErrNoResults
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), ExportSheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("シート名の設定に失敗: %w", err)
	}

	headers := ExportHeaders()
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &headerRow); err != nil {
		f.Close()
		return nil, fmt.Errorf("見出し行の書き込みに失敗: %w", err)
	}

	for i, view := range state.Products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := exportRow(view)
		if err := f.SetSheetRow(ExportSheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("%d行目の書き込みに失敗: %w", i+2, err)
		}
	}
	return f, nil
}

// WriteResults は結果をxlsx形式でwに書き出します。
func (s *ExportService) WriteResults(w io.Writer, state UIState) error {
	f, err := s.BuildWorkbook(state)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("ワークブックの書き出しに失敗: %w", err)
	}
	return nil
}

// ExportFileName はダウンロード時のファイル名を返します。
func ExportFileName(state UIState) string {
	return fmt.Sprintf("analysis-%d.xlsx", state.Seq)
}
