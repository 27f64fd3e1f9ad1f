package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
)

// CSVExporter exports data to CSV format
type CSVExporter struct {
	writer        *csv.Writer
	options       CSVOptions
	headerWritten bool
}

// CSVOptions configures CSV export behavior
type CSVOptions struct {
	Delimiter       rune   `json:"delimiter"`        // Field delimiter (default: comma)
	UseCRLF         bool   `json:"use_crlf"`         // Use \r\n for line terminator
	IncludeHeader   bool   `json:"include_header"`   // Include column headers
	TimestampFormat string `json:"timestamp_format"` // Format for timestamp fields
	NumberFormat    string `json:"number_format"`    // Format for floats (e.g., "%.2f")
	NullValue       string `json:"null_value"`       // String for missing or non-finite values
}

// DefaultCSVOptions returns default CSV export options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:       ',',
		IncludeHeader:   true,
		TimestampFormat: time.RFC3339,
	}
}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter(w io.Writer, options CSVOptions) *CSVExporter {
	writer := csv.NewWriter(w)
	if options.Delimiter != 0 {
		writer.Comma = options.Delimiter
	}
	writer.UseCRLF = options.UseCRLF

	return &CSVExporter{
		writer:  writer,
		options: options,
	}
}

// WriteHeader writes the CSV header row
func (e *CSVExporter) WriteHeader(columns []string) error {
	if !e.options.IncludeHeader {
		return nil
	}

	if err := e.writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	e.headerWritten = true
	return nil
}

// WriteMapRows writes rows from a slice of maps
func (e *CSVExporter) WriteMapRows(rows []map[string]interface{}, columns []string) error {
	if !e.headerWritten && e.options.IncludeHeader {
		if err := e.WriteHeader(columns); err != nil {
			return err
		}
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = e.formatValue(row[col])
		}

		if err := e.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer
func (e *CSVExporter) Flush() error {
	e.writer.Flush()
	return e.writer.Error()
}

// formatValue formats a value for CSV output
func (e *CSVExporter) formatValue(val interface{}) string {
	if val == nil {
		return e.options.NullValue
	}

	switch v := val.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return e.options.NullValue
		}
		if e.options.NumberFormat != "" {
			return fmt.Sprintf(e.options.NumberFormat, v)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.IsZero() {
			return e.options.NullValue
		}
		return v.Format(e.options.TimestampFormat)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// WritePlanCSV writes the plan as section/metric/value rows followed by the
// species allocation and the monthly emission series, each in the same
// three-column layout.
func WritePlanCSV(w io.Writer, plan *planner.OffsetPlan, options CSVOptions) error {
	e := NewCSVExporter(w, options)

	rows := metricRows(plan)
	for _, s := range speciesRows(plan) {
		section := "tree_plan." + s["species"].(string)
		for _, col := range SpeciesColumns[1:] {
			rows = append(rows, map[string]interface{}{"section": section, "metric": col, "value": s[col]})
		}
	}
	for _, p := range emissionRows(plan) {
		rows = append(rows, map[string]interface{}{
			"section": "graphs.monthly_emissions",
			"metric":  p["month_year"],
			"value":   p["emission_index"],
		})
	}

	if err := e.WriteMapRows(rows, MetricColumns); err != nil {
		return err
	}
	return e.Flush()
}
