package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"
	"gonum.org/v1/plot/vg"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
)

// PDFGenerator generates plan reports
type PDFGenerator struct {
	pdf       *gofpdf.Fpdf
	options   PDFOptions
	translate func(string) string
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	PageSize       string     `json:"page_size"`   // A4, Letter, Legal
	Orientation    string     `json:"orientation"` // portrait, landscape
	Title          string     `json:"title"`
	DateFormat     string     `json:"date_format"`
	IncludeDate    bool       `json:"include_date"`
	IncludePageNum bool       `json:"include_page_num"`
	IncludeChart   bool       `json:"include_chart"`
	HeaderColor    PDFColor   `json:"header_color"`
	AlternateColor PDFColor   `json:"alternate_color"`
	FontFamily     string     `json:"font_family"`
	FontSize       float64    `json:"font_size"`
	TitleFontSize  float64    `json:"title_font_size"`
	Margins        PDFMargins `json:"margins"`
}

// PDFColor represents an RGB color
type PDFColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// PDFMargins represents page margins
type PDFMargins struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PageSize:       "A4",
		Orientation:    "portrait",
		Title:          "Carbon Offset Plan",
		DateFormat:     "2006-01-02",
		IncludeDate:    true,
		IncludePageNum: true,
		IncludeChart:   true,
		HeaderColor:    PDFColor{R: 46, G: 125, B: 50},
		AlternateColor: PDFColor{R: 242, G: 242, B: 242},
		FontFamily:     "Arial",
		FontSize:       10,
		TitleFontSize:  16,
		Margins:        PDFMargins{Left: 15, Right: 15, Top: 20, Bottom: 20},
	}
}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	orientation := "P"
	if options.Orientation == "landscape" {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", options.PageSize, "")
	pdf.SetMargins(options.Margins.Left, options.Margins.Top, options.Margins.Right)
	pdf.SetAutoPageBreak(true, options.Margins.Bottom)

	g := &PDFGenerator{
		pdf:       pdf,
		options:   options,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
	}
	g.setFooter()
	return g
}

// GeneratePlanReport lays out the plan: headline KPIs, the species table,
// the emission trend chart and the monthly series.
func (g *PDFGenerator) GeneratePlanReport(plan *planner.OffsetPlan, generatedAt time.Time) error {
	g.pdf.AddPage()
	g.addTitle(g.options.Title)
	g.addSubtitle(fmt.Sprintf("%s - %s, %s", plan.Metadata.MineName, plan.Metadata.District, plan.Metadata.State))
	if g.options.IncludeDate {
		g.addDate(generatedAt)
	}

	k := plan.KPIs
	g.AddSummarySection("Key Indicators", [][2]string{
		{"Status", plan.Metadata.Status},
		{"Annual offset target (t)", formatFloat(k.AnnualOffsetTargetTonnes)},
		{"Total trees required", fmt.Sprintf("%d", k.TotalTreesRequired)},
		{"Estimated budget (INR)", formatFloat(k.EstimatedBudgetINR)},
		{"Land required (ha)", formatFloat(k.LandRequiredHa)},
		{"Land available (ha)", formatFloat(k.LandAvailableHa)},
		{"Land status", k.LandStatus},
		{"Credit revenue potential (INR)", formatFloat(plan.CarbonCredits.TotalRevenuePotentialINR)},
		{"Ethanol revenue (INR)", formatFloat(plan.WasteToWealth.EstimatedRevenueINR)},
		{"Water conserved (kL)", formatFloat(plan.WaterConservation.TotalWaterConservedKilolitres)},
	})
	for _, w := range plan.Metadata.Warnings {
		g.addNote("Warning: " + w)
	}

	g.addSectionTitle("Tree Plan")
	g.addTable(
		[]string{"Species", "Count", "Total cost", "ASR (kg/tree)", "Offset (t)"},
		SpeciesColumns,
		speciesRows(plan),
	)

	if g.options.IncludeChart {
		if err := g.addTrendChart(plan); err != nil && !errors.Is(err, ErrNoChartData) {
			return err
		}
	}

	if len(plan.Graphs.MonthlyEmissions) > 0 {
		g.addSectionTitle("Monthly Emissions")
		g.addTable([]string{"Month", "Emission index"}, EmissionColumns, emissionRows(plan))
	}

	return g.pdf.Error()
}

func (g *PDFGenerator) addTitle(title string) {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 10, g.translate(title), "", 1, "C", false, 0, "")
}

func (g *PDFGenerator) addSubtitle(subtitle string) {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize+2)
	g.pdf.SetTextColor(100, 100, 100)
	g.pdf.CellFormat(0, 8, g.translate(subtitle), "", 1, "C", false, 0, "")
}

func (g *PDFGenerator) addDate(at time.Time) {
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize-1)
	g.pdf.SetTextColor(128, 128, 128)
	g.pdf.CellFormat(0, 6, "Generated: "+at.Format(g.options.DateFormat), "", 1, "R", false, 0, "")
}

func (g *PDFGenerator) addSectionTitle(title string) {
	g.pdf.Ln(6)
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+2)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 8, g.translate(title), "", 1, "L", false, 0, "")
}

func (g *PDFGenerator) addNote(text string) {
	g.pdf.SetFont(g.options.FontFamily, "I", g.options.FontSize)
	g.pdf.SetTextColor(176, 0, 32)
	g.pdf.MultiCell(0, 5, g.translate(text), "", "L", false)
	g.pdf.SetTextColor(0, 0, 0)
}

// AddSummarySection adds ordered label/value pairs under a section title
func (g *PDFGenerator) AddSummarySection(title string, items [][2]string) {
	g.addSectionTitle(title)
	for _, item := range items {
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
		g.pdf.CellFormat(70, 6, g.translate(item[0]+":"), "", 0, "L", false, 0, "")
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
		g.pdf.CellFormat(0, 6, g.translate(item[1]), "", 1, "L", false, 0, "")
	}
}

// addTable draws a bordered table with equal column widths
func (g *PDFGenerator) addTable(labels, columns []string, rows []map[string]interface{}) {
	pageWidth, pageHeight := g.pdf.GetPageSize()
	width := (pageWidth - g.options.Margins.Left - g.options.Margins.Right) / float64(len(columns))

	header := func() {
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
		g.pdf.SetFillColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
		g.pdf.SetTextColor(255, 255, 255)
		for _, label := range labels {
			g.pdf.CellFormat(width, 8, g.translate(label), "1", 0, "C", true, 0, "")
		}
		g.pdf.Ln(-1)
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
		g.pdf.SetTextColor(0, 0, 0)
	}
	header()

	for i, row := range rows {
		if g.pdf.GetY()+7 > pageHeight-g.options.Margins.Bottom {
			g.pdf.AddPage()
			header()
		}
		if i%2 == 1 {
			g.pdf.SetFillColor(g.options.AlternateColor.R, g.options.AlternateColor.G, g.options.AlternateColor.B)
		} else {
			g.pdf.SetFillColor(255, 255, 255)
		}
		for _, col := range columns {
			g.pdf.CellFormat(width, 7, g.translate(formatCell(row[col])), "1", 0, "L", true, 0, "")
		}
		g.pdf.Ln(-1)
	}
}

// addTrendChart embeds the emission trend rendered by gonum/plot
func (g *PDFGenerator) addTrendChart(plan *planner.OffsetPlan) error {
	png, err := EmissionTrendPNG(plan, 16*vg.Centimeter, 8*vg.Centimeter)
	if err != nil {
		return err
	}

	g.addSectionTitle("Emission Trend")
	name := "emission-trend"
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	g.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	g.pdf.ImageOptions(name, g.options.Margins.Left, g.pdf.GetY(), 160, 80, true, opts, 0, "")
	return g.pdf.Error()
}

// WriteTo writes the PDF to a writer
func (g *PDFGenerator) WriteTo(w io.Writer) error {
	return g.pdf.Output(w)
}

// setFooter sets up the page footer
func (g *PDFGenerator) setFooter() {
	g.pdf.SetFooterFunc(func() {
		if !g.options.IncludePageNum {
			return
		}
		g.pdf.SetY(-15)
		g.pdf.SetFont(g.options.FontFamily, "", 8)
		g.pdf.SetTextColor(128, 128, 128)
		g.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", g.pdf.PageNo()), "", 0, "C", false, 0, "")
	})
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatCell(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// WritePlanPDF renders the plan as a PDF report
func WritePlanPDF(w io.Writer, plan *planner.OffsetPlan, generatedAt time.Time, options PDFOptions) error {
	g := NewPDFGenerator(options)
	if err := g.GeneratePlanReport(plan, generatedAt); err != nil {
		return fmt.Errorf("failed to generate pdf: %w", err)
	}
	return g.WriteTo(w)
}
