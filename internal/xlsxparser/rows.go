package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/annis-souames/edifact-generator/internal/config"
	"github.com/annis-souames/edifact-generator/internal/types"
)

// ReadRows reads an XLSX invoice source. The header row names the columns;
// every following non-empty row becomes one types.Row.
func ReadRows(path string, settings config.XLSXSettings) ([]string, []types.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := settings.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if index, err := f.GetSheetIndex(sheet); err != nil || index < 0 {
		return nil, nil, fmt.Errorf("sheet %q not found in %s", sheet, path)
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}

	headerRow := max(settings.HeaderRow, 1)
	if len(cells) < headerRow {
		return nil, nil, fmt.Errorf("sheet %q has no header row %d", sheet, headerRow)
	}

	headers := make([]string, len(cells[headerRow-1]))
	for i, h := range cells[headerRow-1] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		headers[i] = h
	}

	rows := make([]types.Row, 0, len(cells)-headerRow)
	for i := headerRow; i < len(cells); i++ {
		if isRowEmpty(cells[i]) {
			continue
		}
		fields := make(map[string]string, len(headers))
		for col, header := range headers {
			if col < len(cells[i]) {
				fields[header] = strings.TrimSpace(cells[i][col])
			} else {
				fields[header] = ""
			}
		}
		rows = append(rows, types.Row{Number: i + 1, Fields: fields})
	}
	return headers, rows, nil
}
