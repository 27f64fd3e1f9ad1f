package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
	"carbon-offset/offset-portal/offset-portal-backend/internal/response"
	"carbon-offset/offset-portal/offset-portal-backend/pkg/storage"
)

// Format is an export file format
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
	FormatJSON  Format = "json"
	FormatText  Format = "text"
)

// ParseFormat validates a format name; empty means JSON
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case "xlsx":
		return FormatExcel, nil
	case "txt":
		return FormatText, nil
	case FormatCSV, FormatExcel, FormatPDF, FormatJSON, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

var formatInfo = map[Format]struct {
	contentType string
	extension   string
}{
	FormatCSV:   {"text/csv", "csv"},
	FormatExcel: {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"},
	FormatPDF:   {"application/pdf", "pdf"},
	FormatJSON:  {"application/json", "json"},
	FormatText:  {"text/plain; charset=utf-8", "txt"},
}

// Document is a rendered export
type Document struct {
	Format      Format
	ContentType string
	Filename    string
	Body        []byte
}

// RenderOptions tunes a single render
type RenderOptions struct {
	Language    language.Tag
	GeneratedAt time.Time
}

// Service renders plan documents and optionally archives them to S3
type Service struct {
	s3     storage.S3Client
	bucket string
	csv    CSVOptions
	excel  ExcelOptions
	pdf    PDFOptions
}

// NewService creates an export service. Archiving is disabled when s3 is
// nil or bucket is empty.
func NewService(s3 storage.S3Client, bucket string) *Service {
	return &Service{
		s3:     s3,
		bucket: bucket,
		csv:    DefaultCSVOptions(),
		excel:  DefaultExcelOptions(),
		pdf:    DefaultPDFOptions(),
	}
}

// ArchiveEnabled reports whether Archive can store documents
func (s *Service) ArchiveEnabled() bool {
	return s.s3 != nil && s.bucket != ""
}

// Render produces the plan in the requested format
func (s *Service) Render(plan *planner.OffsetPlan, format Format, opts RenderOptions) (*Document, error) {
	info, ok := formatInfo[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatCSV:
		err = WritePlanCSV(&buf, plan, s.csv)
	case FormatExcel:
		err = WritePlanWorkbook(&buf, plan, s.excel)
	case FormatPDF:
		err = WritePlanPDF(&buf, plan, opts.GeneratedAt, s.pdf)
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		err = enc.Encode(response.Normalize(plan))
	case FormatText:
		_, err = buf.WriteString(Summarize(plan, opts.Language))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s export: %w", format, err)
	}

	return &Document{
		Format:      format,
		ContentType: info.contentType,
		Filename:    fmt.Sprintf("%s-%s.%s", slug(plan.Metadata.MineName), opts.GeneratedAt.Format("20060102"), info.extension),
		Body:        buf.Bytes(),
	}, nil
}

// Archive uploads doc and returns its key and a time-limited download URL
func (s *Service) Archive(ctx context.Context, doc *Document) (string, string, error) {
	if !s.ArchiveEnabled() {
		return "", "", fmt.Errorf("report archive is not configured")
	}
	key := fmt.Sprintf("offset-plans/%s/%d-%s", doc.Format, time.Now().UnixNano(), doc.Filename)
	if err := s.s3.Upload(ctx, s.bucket, key, bytes.NewReader(doc.Body)); err != nil {
		return "", "", err
	}
	url, err := s.s3.GetPresignedURL(ctx, s.bucket, key, 15*time.Minute)
	if err != nil {
		return key, "", err
	}
	return key, url, nil
}

// slug turns a site name into a filename-safe token
func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "offset-plan"
	}
	return out
}
