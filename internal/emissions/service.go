package emissions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"carbon-offset/offset-portal/offset-portal-backend/internal/dataset"
	"carbon-offset/offset-portal/offset-portal-backend/internal/notifications"
)

const (
	// LatestLimit is the number of records served by the latest feed
	LatestLimit = 20
	// DefaultHistoryDays is the look-back window when none is given
	DefaultHistoryDays = 30
)

// RequiredUploadColumns must all appear in an uploaded monthly summary CSV
var RequiredUploadColumns = []string{"Month", KeyCO2, KeyCH4, KeyPM25, KeyPM10}

var (
	ErrMineIDRequired = errors.New("mine id is required")
	ErrNoHistory      = errors.New("no historical data found")
	ErrNoSummary      = errors.New("summary data not found")
)

// ValidationError describes a rejected CSV upload
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "data validation error: " + e.Reason
}

// Service manages emission records and summaries
type Service struct {
	repo   Repository
	events notifications.Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates an emissions service. events may be nil.
func NewService(repo Repository, events notifications.Publisher, logger *zap.Logger) *Service {
	if events == nil {
		events = notifications.NopPublisher{}
	}
	return &Service{
		repo:   repo,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// CreateRecord stores one emission record, dating it now when no date is given
func (s *Service) CreateRecord(ctx context.Context, input RecordInput) (*Record, error) {
	record := &Record{
		MineID:        strings.TrimSpace(input.MineID),
		MineName:      strings.TrimSpace(input.MineName),
		Date:          s.now().UTC(),
		CO2Tons:       deref(input.CO2Tons),
		CH4Tons:       deref(input.CH4Tons),
		TotalCarbonEq: deref(input.TotalCarbonEq),
		ModelVersion:  input.ModelVersion,
	}
	if record.MineID == "" {
		return nil, ErrMineIDRequired
	}
	if input.Date != nil {
		record.Date = input.Date.UTC()
	}

	if err := s.repo.InsertRecord(ctx, record); err != nil {
		return nil, err
	}

	s.events.Publish(notifications.Message{
		Type:      notifications.EventRecordIngested,
		Target:    record.MineName,
		Timestamp: s.now(),
		Data: map[string]any{
			"mine_id":         record.MineID,
			"total_carbon_eq": record.TotalCarbonEq,
		},
	})
	return record, nil
}

// Latest returns the most recent records across all mines
func (s *Service) Latest(ctx context.Context) ([]Record, error) {
	return s.repo.Latest(ctx, LatestLimit)
}

// Historical returns one mine's records from the last days days, oldest first
func (s *Service) Historical(ctx context.Context, mineID string, days int) ([]Record, error) {
	mineID = strings.TrimSpace(mineID)
	if mineID == "" {
		return nil, ErrMineIDRequired
	}
	if days <= 0 {
		days = DefaultHistoryDays
	}

	since := s.now().UTC().AddDate(0, 0, -days)
	records, err := s.repo.Historical(ctx, mineID, since)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w for mine id %s", ErrNoHistory, mineID)
	}
	return records, nil
}

// Monthly returns the stored monthly summaries
func (s *Service) Monthly(ctx context.Context) ([]MonthlySummary, error) {
	docs, err := s.repo.Monthly(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("monthly %w", ErrNoSummary)
	}
	return docs, nil
}

// Overall returns the stored overall averages
func (s *Service) Overall(ctx context.Context) (*OverallSummary, error) {
	doc, err := s.repo.Overall(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil || len(doc.Averages) == 0 {
		return nil, fmt.Errorf("overall average %w", ErrNoSummary)
	}
	return doc, nil
}

// UploadMonthlyCSV replaces the monthly summaries with the rows of r
func (s *Service) UploadMonthlyCSV(ctx context.Context, r io.Reader) (*UploadResult, error) {
	docs, err := parseMonthlyCSV(r, s.now().UTC())
	if err != nil {
		return nil, err
	}

	n, err := s.repo.ReplaceMonthly(ctx, docs)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Monthly summaries replaced from upload", zap.Int("rows", n))

	return &UploadResult{
		Status:        "success",
		InsertedCount: n,
		Collection:    CollectionMonthly,
		Timestamp:     docs[0].IngestedAt,
	}, nil
}

// RebuildSummaries recomputes and stores the monthly and overall summaries
func (s *Service) RebuildSummaries(ctx context.Context, rows []dataset.EmissionObservation) (*Summaries, error) {
	summaries := BuildSummaries(rows, s.now().UTC())
	if summaries.Overall == nil {
		return nil, &ValidationError{Reason: "no rows with a date and complete gas readings"}
	}

	if _, err := s.repo.ReplaceMonthly(ctx, summaries.Monthly); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceOverall(ctx, summaries.Overall); err != nil {
		return nil, err
	}

	s.logger.Info("Emission summaries rebuilt",
		zap.Int("rows_used", summaries.Used),
		zap.Int("rows_dropped", summaries.Dropped),
	)
	s.events.Publish(notifications.Message{
		Type:      notifications.EventSummariesRefreshed,
		Timestamp: s.now(),
		Data:      map[string]any{"rows_used": summaries.Used},
	})
	return summaries, nil
}

func parseMonthlyCSV(r io.Reader, at time.Time) ([]MonthlySummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	if len(records) == 0 {
		return nil, &ValidationError{Reason: "file is empty"}
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range RequiredUploadColumns {
		if _, ok := index[col]; !ok {
			return nil, &ValidationError{
				Reason: fmt.Sprintf("uploaded CSV is missing required columns: %s", strings.Join(RequiredUploadColumns, ", ")),
			}
		}
	}

	cell := func(row []string, col string) string {
		if i := index[col]; i < len(row) {
			return row[i]
		}
		return ""
	}
	number := func(row []string, col string) *float64 {
		v := dataset.ParseNumber(cell(row, col))
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}

	docs := make([]MonthlySummary, 0, len(records)-1)
	for _, row := range records[1:] {
		docs = append(docs, MonthlySummary{
			Position:   len(docs),
			Month:      strings.TrimSpace(cell(row, "Month")),
			CO2:        number(row, KeyCO2),
			CH4:        number(row, KeyCH4),
			PM25:       number(row, KeyPM25),
			PM10:       number(row, KeyPM10),
			IngestedAt: at,
		})
	}
	if len(docs) == 0 {
		return nil, &ValidationError{Reason: "file has no data rows"}
	}
	return docs, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
