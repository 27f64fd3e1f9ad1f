package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
)

// Sheet names of the plan workbook
const (
	SheetSummary   = "Summary"
	SheetTreePlan  = "Tree Plan"
	SheetEmissions = "Monthly Emissions"
)

// ExcelOptions configures Excel export behavior
type ExcelOptions struct {
	FreezeHeader bool              `json:"freeze_header"`
	AutoFilter   bool              `json:"auto_filter"`
	NumberFormat string            `json:"number_format"`
	HeaderStyle  *ExcelStyleConfig `json:"header_style,omitempty"`
	AutoWidth    bool              `json:"auto_width"`
}

// ExcelStyleConfig defines style for cells
type ExcelStyleConfig struct {
	FontBold  bool   `json:"font_bold"`
	FontSize  int    `json:"font_size"`
	FontColor string `json:"font_color"`
	FillColor string `json:"fill_color"`
	Alignment string `json:"alignment"` // left, center, right
	Border    bool   `json:"border"`
}

// DefaultExcelOptions returns default Excel export options
func DefaultExcelOptions() ExcelOptions {
	return ExcelOptions{
		FreezeHeader: true,
		AutoFilter:   true,
		NumberFormat: "#,##0.00",
		AutoWidth:    true,
		HeaderStyle: &ExcelStyleConfig{
			FontBold:  true,
			FontSize:  11,
			FillColor: "2E7D32",
			FontColor: "FFFFFF",
			Alignment: "center",
			Border:    true,
		},
	}
}

// WorkbookExporter writes tabular data to multiple Excel sheets
type WorkbookExporter struct {
	file    *excelize.File
	options ExcelOptions
	numFmt  int
}

// NewWorkbookExporter creates an empty workbook
func NewWorkbookExporter(options ExcelOptions) (*WorkbookExporter, error) {
	e := &WorkbookExporter{file: excelize.NewFile(), options: options}
	if options.NumberFormat != "" {
		style, err := e.file.NewStyle(&excelize.Style{CustomNumFmt: &options.NumberFormat})
		if err != nil {
			return nil, fmt.Errorf("failed to create number style: %w", err)
		}
		e.numFmt = style
	}
	return e, nil
}

// AddSheet adds a sheet with a header row and data
func (e *WorkbookExporter) AddSheet(name string, columns []string, rows []map[string]interface{}) error {
	if _, err := e.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyleID := 0
	if e.options.HeaderStyle != nil {
		style, err := e.createStyle(e.options.HeaderStyle)
		if err != nil {
			return fmt.Errorf("failed to create header style: %w", err)
		}
		headerStyleID = style
	}

	widths := make([]float64, len(columns))
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := e.file.SetCellValue(name, cell, col); err != nil {
			return err
		}
		if headerStyleID > 0 {
			e.file.SetCellStyle(name, cell, cell, headerStyleID)
		}
		widths[i] = float64(len(col)) * 1.2
	}

	for r, row := range rows {
		for c, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := e.setCellValue(name, cell, row[col]); err != nil {
				return fmt.Errorf("failed to set cell value: %w", err)
			}
			if w := float64(len(fmt.Sprintf("%v", row[col]))) * 1.2; w > widths[c] {
				widths[c] = w
			}
		}
	}

	if e.options.FreezeHeader {
		e.file.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}

	if e.options.AutoFilter && len(rows) > 0 {
		lastCol, _ := excelize.CoordinatesToCellName(len(columns), 1)
		e.file.AutoFilter(name, "A1:"+lastCol, nil)
	}

	if e.options.AutoWidth {
		for i, width := range widths {
			col, _ := excelize.ColumnNumberToName(i + 1)
			// Min width 10, max width 50
			e.file.SetColWidth(name, col, col, math.Min(math.Max(width, 10), 50))
		}
	}
	return nil
}

// WriteTo writes the workbook to w, dropping the default sheet first
func (e *WorkbookExporter) WriteTo(w io.Writer) error {
	if len(e.file.GetSheetList()) > 1 {
		if idx, _ := e.file.GetSheetIndex("Sheet1"); idx >= 0 {
			e.file.DeleteSheet("Sheet1")
		}
	}
	return e.file.Write(w)
}

// Close closes the workbook
func (e *WorkbookExporter) Close() error {
	return e.file.Close()
}

// createStyle creates an Excel style from config
func (e *WorkbookExporter) createStyle(config *ExcelStyleConfig) (int, error) {
	style := &excelize.Style{
		Font: &excelize.Font{Bold: config.FontBold, Size: float64(config.FontSize), Color: config.FontColor},
	}

	if config.FillColor != "" {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{config.FillColor}}
	}
	if config.Alignment != "" {
		style.Alignment = &excelize.Alignment{Horizontal: config.Alignment}
	}
	if config.Border {
		style.Border = []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		}
	}

	return e.file.NewStyle(style)
}

// setCellValue sets a cell value, leaving non-finite numbers blank
func (e *WorkbookExporter) setCellValue(sheet, cell string, val interface{}) error {
	switch v := val.(type) {
	case nil:
		return e.file.SetCellValue(sheet, cell, "")
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return e.file.SetCellValue(sheet, cell, "")
		}
		if err := e.file.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if e.numFmt > 0 {
			return e.file.SetCellStyle(sheet, cell, cell, e.numFmt)
		}
		return nil
	default:
		return e.file.SetCellValue(sheet, cell, v)
	}
}

// WritePlanWorkbook writes the plan as a three-sheet workbook
func WritePlanWorkbook(w io.Writer, plan *planner.OffsetPlan, options ExcelOptions) error {
	e, err := NewWorkbookExporter(options)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.AddSheet(SheetSummary, MetricColumns, metricRows(plan)); err != nil {
		return err
	}
	if err := e.AddSheet(SheetTreePlan, SpeciesColumns, speciesRows(plan)); err != nil {
		return err
	}
	if err := e.AddSheet(SheetEmissions, EmissionColumns, emissionRows(plan)); err != nil {
		return err
	}
	return e.WriteTo(w)
}
