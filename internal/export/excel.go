package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"hms-listview/internal/domain"
	"hms-listview/internal/listscreen"

	"github.com/xuri/excelize/v2"
)

// ContentType xlsx
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header 导出列
type Header struct {
	Key   string
	Title string
}

// HeadersFor 按视图中的可见列顺序生成表头
func HeadersFor(cfg *listscreen.EntityConfig, columns []string) []Header {
	out := make([]Header, 0, len(columns))
	for _, key := range columns {
		if _, ok := cfg.Column(key); !ok {
			continue
		}
		out = append(out, Header{Key: key, Title: titleize(key)})
	}
	return out
}

// GenerateViewExport 导出当前筛选/排序后的完整列表（不分页）
func GenerateViewExport(cfg *listscreen.EntityConfig, v listscreen.View) ([]byte, error) {
	sheet := titleize(cfg.Plural)
	return generateExcel(sheet, HeadersFor(cfg, v.Columns), v.Items)
}

func generateExcel(sheetName string, headers []Header, items []domain.ListItem) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h.Title); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}

		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, columnWidth(h.Title)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, item := range items {
		row := rowIdx + 2 // 第1行是表头
		for colIdx, h := range headers {
			value := cellValue(item, h.Key)
			if value == nil || value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, row)
			if err != nil {
				f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, colIdx+1, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(item domain.ListItem, key string) any {
	v, ok := item.Value(key)
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case float64, int, int64:
		return val
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	default:
		return domain.Stringify(val)
	}
}

func columnWidth(title string) float64 {
	w := float64(len(title) + 4)
	if w < 12 {
		return 12
	}
	return w
}

// titleize room_number -> Room Number
func titleize(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
