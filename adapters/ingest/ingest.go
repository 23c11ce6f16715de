package ingest

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"datastudio/domain/table"
	"datastudio/internal/coerce"
	"datastudio/internal/errors"
)

// SourceType identifies the detected input format
type SourceType string

const (
	SourceCSV     SourceType = "csv"
	SourceText    SourceType = "text"
	SourceExcel   SourceType = "excel"
	SourceJSON    SourceType = "json"
	SourceParquet SourceType = "parquet"
	SourcePDF     SourceType = "pdf"
)

// Result contains the ingested table plus basic metadata
type Result struct {
	Table      *table.Table `json:"table"`
	SourceType SourceType   `json:"source_type"`
	Filename   string       `json:"filename"`
	Notes      []string     `json:"notes"`
}

// Reader turns uploaded bytes into a typed table
type Reader struct {
	coercer *coerce.TypeCoercer
}

// NewReader creates an ingestion reader with default coercion rules
func NewReader() *Reader {
	return &Reader{coercer: coerce.New(coerce.DefaultConfig())}
}

// Ingest detects the format from the filename extension and parses the
// payload. Unsupported or corrupt input yields a READ_ERROR; there are no
// retries, the failure is surfaced to the caller immediately.
func (r *Reader) Ingest(filename string, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, errors.ReadError("uploaded file is empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	log.Printf("[Ingest] Reading %s (%d bytes, extension %q)", filename, len(data), ext)

	var (
		result *Result
		err    error
	)
	switch ext {
	case ".csv":
		result, err = r.readDelimited(data, ',', SourceCSV)
	case ".tsv":
		result, err = r.readDelimited(data, '\t', SourceText)
	case ".txt":
		result, err = r.readDelimited(data, sniffDelimiter(data), SourceText)
	case ".xlsx", ".xls":
		result, err = r.readExcel(data)
	case ".json":
		result, err = r.readJSON(data)
	case ".parquet":
		result, err = r.readParquet(data)
	case ".pdf":
		result, err = r.readPDF(data)
	default:
		return nil, errors.ReadError(fmt.Sprintf(
			"unsupported file type %q: upload CSV, Excel, JSON, Parquet, PDF, TXT or TSV", ext))
	}
	if err != nil {
		return nil, err
	}

	result.Filename = filename
	result.Table.RefreshFieldStats()
	log.Printf("[Ingest] %s parsed: %d rows, %d columns",
		strings.ToUpper(string(result.SourceType)), result.Table.RowCount(), result.Table.ColumnCount())
	return result, nil
}

// buildTable converts raw string rows into a typed table. Column types are
// inferred from a sample via the coercer's threshold analysis; cells that do
// not conform to the column type become missing.
func (r *Reader) buildTable(headers []string, rows [][]string) *table.Table {
	t := table.New(headers)

	sampleSize := len(rows)
	if sampleSize > 500 {
		sampleSize = 500
	}

	types := make([]table.ValueType, len(headers))
	for col, name := range headers {
		sample := make([]string, 0, sampleSize)
		for i := 0; i < sampleSize; i++ {
			if col < len(rows[i]) {
				sample = append(sample, rows[i][col])
			}
		}
		analysis := r.coercer.AnalyzeTypeDistribution(sample)
		types[col] = analysis.RecommendedType
		t.SetFieldType(name, analysis.RecommendedType)
	}

	t.Rows = make([]table.Row, len(rows))
	for i, raw := range rows {
		row := make(table.Row, len(headers))
		for col, name := range headers {
			if col < len(raw) {
				row[name] = r.coercer.CoerceValue(raw[col], types[col])
			} else {
				row[name] = table.NewMissingValue()
			}
		}
		t.Rows[i] = row
	}
	return t
}

// normalizeHeaders trims header cells and synthesizes names for blanks.
// When every header cell looks like data (all numeric), the row is kept as
// data and all names are synthesized.
func (r *Reader) normalizeHeaders(first []string) (headers []string, headerIsData bool) {
	numeric := 0
	nonEmpty := 0
	headers = make([]string, len(first))
	for i, h := range first {
		h = strings.TrimSpace(h)
		if h != "" {
			nonEmpty++
			if _, ok := r.coercer.TryParseNumeric(h); ok {
				numeric++
			}
		}
		headers[i] = h
	}
	if nonEmpty > 0 && numeric == nonEmpty {
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		return headers, true
	}
	for i, h := range headers {
		if h == "" {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
	}
	return headers, false
}
