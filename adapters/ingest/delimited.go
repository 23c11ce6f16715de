package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"strings"

	"datastudio/internal/errors"
)

// delimiterCandidates are tried when sniffing plain-text files
var delimiterCandidates = []rune{',', '\t', ';', '|'}

// sniffDelimiter picks the delimiter with the highest count on the first
// non-empty line
func sniffDelimiter(data []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		best := ','
		bestCount := 0
		for _, cand := range delimiterCandidates {
			if n := strings.Count(line, string(cand)); n > bestCount {
				best = cand
				bestCount = n
			}
		}
		return best
	}
	return ','
}

// readDelimited parses CSV/TSV/TXT content
func (r *Reader) readDelimited(data []byte, delimiter rune, source SourceType) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // ragged rows become missing cells
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ReadErrorf(err, "failed to parse delimited text")
	}
	if len(records) == 0 {
		return nil, errors.ReadError("delimited file contains no rows")
	}

	headers, headerIsData := r.normalizeHeaders(records[0])
	rows := records[1:]
	var notes []string
	if headerIsData {
		rows = records
		notes = append(notes, "No header row detected; synthesized column names.")
	}
	if len(rows) == 0 {
		return nil, errors.ReadError("delimited file has a header but no data rows")
	}

	return &Result{
		Table:      r.buildTable(headers, rows),
		SourceType: source,
		Notes:      notes,
	}, nil
}
