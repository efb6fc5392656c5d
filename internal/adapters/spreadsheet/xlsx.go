package spreadsheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"tubescout/internal/core/domain"
)

const sheetName = "Sheet1"

// Columns is the fixed header row of an exported catalog.
var Columns = []string{"Title", "Channel", "Published Date", "URL", "Description", "ID", "Duration", "Tags", "Type"}

// Table is a sheet read back for display.
type Table struct {
	Header []string
	Rows   []map[string]string
}

// XLSXWriter implements ports.WorkbookWriter with excelize.
type XLSXWriter struct{}

// NewXLSXWriter creates a new XLSXWriter.
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// Write saves records to path, one row per record under a header row.
func (w *XLSXWriter) Write(path string, records []domain.VideoRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.Title, r.Channel, r.PublishedDate, r.URL, r.Description, r.ID, r.Duration, r.Tags, r.Type}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// Read loads the first sheet of the workbook at path. The first row is
// treated as the header; short rows are padded with empty cells.
func Read(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Table{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	table := &Table{Header: rows[0]}
	for _, raw := range rows[1:] {
		row := make(map[string]string, len(table.Header))
		for i, col := range table.Header {
			if i < len(raw) {
				row[col] = raw[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
