package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"

	"carbon-offset/offset-portal/offset-portal-backend/pkg/storage"
)

// Opener resolves a dataset URI to a readable stream
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// SourceOpener reads local files and, when S3 is set, s3:// URIs
type SourceOpener struct {
	S3 storage.S3Client
}

// Open implements Opener
func (o *SourceOpener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if bucket, key, ok := storage.ParseS3URI(uri); ok {
		if o.S3 == nil {
			return nil, fmt.Errorf("no s3 client configured for %s", uri)
		}
		return o.S3.Download(ctx, bucket, key)
	}
	return os.Open(uri)
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrObjectNotFound)
}

// table is a header-indexed view over raw records
type table struct {
	columns map[string]int
	rows    [][]string
}

func newTable(records [][]string) *table {
	t := &table{columns: make(map[string]int)}
	if len(records) == 0 {
		return t
	}
	for i, h := range records[0] {
		name := CanonicalHeader(h)
		if _, dup := t.columns[name]; !dup {
			t.columns[name] = i
		}
	}
	t.rows = records[1:]
	return t
}

func (t *table) has(col string) bool {
	_, ok := t.columns[col]
	return ok
}

func (t *table) get(row []string, col string) string {
	i, ok := t.columns[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (t *table) number(row []string, col string) float64 {
	return ParseNumber(t.get(row, col))
}

// readRecords decodes CSV, or the first sheet of an .xlsx workbook
func readRecords(uri string, r io.Reader) ([][]string, error) {
	if strings.EqualFold(path.Ext(uri), ".xlsx") {
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
		}
		return rows, nil
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return records, nil
}
