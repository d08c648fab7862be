// internal/output/excel.go
package output

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/valpere/jobharvest/internal/extract"
)

const excelSheetName = "Listings"

// columnWidths by header; unlisted columns get 15.
var columnWidths = map[string]float64{
	"title":   40,
	"company": 25,
	"summary": 80,
	"url":     50,
}

// ExcelWriter writes listings to one worksheet and saves the workbook on Close.
type ExcelWriter struct {
	file     *excelize.File
	filename string
	row      int
}

// NewExcelWriter creates a workbook with a styled header row.
func NewExcelWriter(filename string) (*ExcelWriter, error) {
	if filename == "" {
		return nil, fmt.Errorf("Excel file path is required")
	}
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	file.SetSheetName(file.GetSheetName(0), excelSheetName)

	w := &ExcelWriter{file: file, filename: filename, row: 1}
	if err := w.writeHeaders(); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

func (w *ExcelWriter) writeHeaders() error {
	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := w.file.SetSheetRow(excelSheetName, "A1", &header); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return err
	}
	if err := w.file.SetCellStyle(excelSheetName, "A1", last, style); err != nil {
		return err
	}
	w.row = 2
	return nil
}

func (w *ExcelWriter) Write(ctx context.Context, listings []extract.Listing) error {
	if w.file == nil {
		return fmt.Errorf("excel writer is closed")
	}
	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			return err
		}
		values := row(l)
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		// scraped_from_page stays numeric.
		cells[9] = l.Page

		cell, err := excelize.CoordinatesToCellName(1, w.row)
		if err != nil {
			return err
		}
		if err := w.file.SetSheetRow(excelSheetName, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", w.row, err)
		}
		w.row++
	}
	return nil
}

// Close sizes the columns, freezes the header and saves the workbook.
func (w *ExcelWriter) Close() error {
	if w.file == nil {
		return nil
	}
	defer func() {
		w.file.Close()
		w.file = nil
	}()

	for i, header := range Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width, ok := columnWidths[header]
		if !ok {
			width = 15
		}
		if err := w.file.SetColWidth(excelSheetName, col, col, width); err != nil {
			return err
		}
	}

	if err := w.file.SetPanes(excelSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return w.file.SaveAs(w.filename)
}
