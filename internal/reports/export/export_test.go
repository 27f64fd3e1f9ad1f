package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
)

func samplePlan() *planner.OffsetPlan {
	return &planner.OffsetPlan{
		Metadata: planner.Metadata{
			MineName: "Angul Mine",
			District: "Angul",
			State:    "Odisha",
			Status:   planner.StatusSuccess,
			Warnings: []string{"teak share exceeds site limit"},
		},
		KPIs: planner.KPIs{
			AnnualOffsetTargetTonnes: 146000,
			TotalTreesRequired:       9542484,
			EstimatedBudgetINR:       2.3e9,
			LandRequiredHa:           4771.24,
			LandAvailableHa:          150,
			LandStatus:               planner.LandCritical,
			TotalOffsetAchieved:      146000,
		},
		TreePlan: planner.TreePlan{
			Teak:    planner.SpeciesAllocation{Count: 3816994, TotalCost: 1.1e9, ASRPerTreeKg: 18.3, OffsetContributionTonnes: 69851},
			Acacia:  planner.SpeciesAllocation{Count: 2862745, TotalCost: 5.7e8, ASRPerTreeKg: 15.25, OffsetContributionTonnes: 43657},
			Pioneer: planner.SpeciesAllocation{Count: 2862745, TotalCost: 4.2e8, ASRPerTreeKg: 12.2, OffsetContributionTonnes: 34925},
		},
		CarbonCredits:     planner.CarbonCredits{TotalOffsetCreditsTonnes: 146000, MarketPricePerCreditINR: 830, TotalRevenuePotentialINR: 1.2118e8},
		WaterConservation: planner.WaterConservation{TotalWaterConservedKilolitres: 14313726, Status: "High Efficiency"},
		Graphs: planner.Graphs{MonthlyEmissions: []planner.EmissionPoint{
			{MonthYear: planner.Month{Year: 2024, Month: time.January}, EmissionIndex: 400},
			{MonthYear: planner.Month{Year: 2024, Month: time.February}, EmissionIndex: 410.5},
		}},
	}
}

func TestWritePlanCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlanCSV(&buf, samplePlan(), DefaultCSVOptions()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, MetricColumns, records[0])

	assert.Contains(t, records, []string{"kpis", "land_status", "CRITICAL"})
	assert.Contains(t, records, []string{"kpis", "total_trees_required", "9542484"})
	assert.Contains(t, records, []string{"tree_plan.teak", "count", "3816994"})
	assert.Contains(t, records, []string{"graphs.monthly_emissions", "2024-02", "410.5"})
	assert.Contains(t, records, []string{"mine_metadata", "warning", "teak share exceeds site limit"})
}

func TestCSVExporter_NonFiniteIsNull(t *testing.T) {
	e := NewCSVExporter(io.Discard, CSVOptions{NullValue: "NA"})
	assert.Equal(t, "NA", e.formatValue(math.NaN()))
	assert.Equal(t, "NA", e.formatValue(nil))
	assert.Equal(t, "1.5", e.formatValue(1.5))
}

func TestWritePlanWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlanWorkbook(&buf, samplePlan(), DefaultExcelOptions()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetTreePlan, SheetEmissions}, f.GetSheetList())

	rows, err := f.GetRows(SheetTreePlan)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, SpeciesColumns, rows[0])
	assert.Equal(t, "teak", rows[1][0])

	rows, err = f.GetRows(SheetEmissions)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-01", rows[1][0])
}

func TestWritePlanPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePlanPDF(&buf, samplePlan(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), DefaultPDFOptions()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestWritePlanPDF_NoEmissions(t *testing.T) {
	plan := samplePlan()
	plan.Graphs.MonthlyEmissions = nil

	var buf bytes.Buffer
	require.NoError(t, WritePlanPDF(&buf, plan, time.Now(), DefaultPDFOptions()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestEmissionTrendPNG(t *testing.T) {
	png, err := EmissionTrendPNG(samplePlan(), 400, 200)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	empty := samplePlan()
	empty.Graphs.MonthlyEmissions = nil
	_, err = EmissionTrendPNG(empty, 400, 200)
	assert.ErrorIs(t, err, ErrNoChartData)
}

func TestSummarize(t *testing.T) {
	plan := samplePlan()

	en := Summarize(plan, language.English)
	assert.Contains(t, en, "Offset plan for Angul Mine (Angul, Odisha)")
	assert.Contains(t, en, "CRITICAL")
	assert.Contains(t, en, "Warning: teak share exceeds site limit")
	assert.NotContains(t, en, "simulated")

	hi := Summarize(plan, language.Hindi)
	assert.Contains(t, hi, "Angul Mine के लिए ऑफसेट योजना")

	plan.Metadata.Status = planner.StatusSimulation
	assert.Contains(t, Summarize(plan, language.English), "This plan is simulated")
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, language.English, ParseLanguage(""))
	assert.Equal(t, language.English, ParseLanguage("not a tag!"))
	assert.Equal(t, language.Hindi, ParseLanguage("hi"))
	assert.Equal(t, language.Hindi, ParseLanguage("hi-IN"))
	assert.Equal(t, language.English, ParseLanguage("en-GB"))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{"xlsx", FormatExcel, false},
		{"excel", FormatExcel, false},
		{"pdf", FormatPDF, false},
		{"txt", FormatText, false},
		{"docx", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Render(t *testing.T) {
	svc := NewService(nil, "")
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	doc, err := svc.Render(samplePlan(), FormatJSON, RenderOptions{GeneratedAt: at})
	require.NoError(t, err)
	assert.Equal(t, "application/json", doc.ContentType)
	assert.Equal(t, "angul-mine-20240301.json", doc.Filename)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(doc.Body, &decoded))
	assert.Contains(t, decoded, "mine_metadata")

	doc, err = svc.Render(samplePlan(), FormatText, RenderOptions{Language: language.Hindi, GeneratedAt: at})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(doc.Filename, ".txt"))
	assert.Contains(t, string(doc.Body), "के लिए")

	_, err = svc.Render(samplePlan(), Format("docx"), RenderOptions{})
	assert.Error(t, err)
}

type recordingS3 struct {
	keys []string
	body []byte
}

func (r *recordingS3) Upload(_ context.Context, _, key string, body io.Reader) error {
	r.keys = append(r.keys, key)
	r.body, _ = io.ReadAll(body)
	return nil
}

func (r *recordingS3) Download(context.Context, string, string) (io.ReadCloser, error) {
	return nil, nil
}

func (r *recordingS3) Delete(context.Context, string, string) error { return nil }

func (r *recordingS3) GetPresignedURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://" + bucket + ".example/" + key, nil
}

func TestService_Archive(t *testing.T) {
	assert.False(t, NewService(nil, "bucket").ArchiveEnabled())

	s3 := &recordingS3{}
	svc := NewService(s3, "reports")
	require.True(t, svc.ArchiveEnabled())

	doc, err := svc.Render(samplePlan(), FormatCSV, RenderOptions{})
	require.NoError(t, err)

	key, url, err := svc.Archive(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "offset-plans/csv/"))
	assert.True(t, strings.HasSuffix(key, doc.Filename))
	assert.Equal(t, "https://reports.example/"+key, url)
	assert.Equal(t, doc.Body, s3.body)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "angul-mine", slug("Angul Mine"))
	assert.Equal(t, "jharia-coal-field", slug("  Jharia / Coal Field "))
	assert.Equal(t, "offset-plan", slug("अंगुल"))
}
