package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"datastudio/domain/table"
	"datastudio/internal/errors"
)

// sourcePageColumn records which PDF page a row came from when multiple
// tables are concatenated
const sourcePageColumn = "_source_page"

// readPDF recovers tabular data from a PDF by grouping extracted text into
// rows and clustering words into cells by horizontal gaps. Tables on later
// pages matching the first table's column count are concatenated.
func (r *Reader) readPDF(data []byte) (*Result, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.ReadErrorf(err, "failed to open PDF document")
	}

	var (
		headers   []string
		dataRows  [][]string
		pageOfRow []int
		notes     []string
		tables    int
	)

	for pageNum := 1; pageNum <= doc.NumPage(); pageNum++ {
		page := doc.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		textRows, err := page.GetTextByRow()
		if err != nil {
			continue
		}

		cells := make([][]string, 0, len(textRows))
		for _, tr := range textRows {
			row := clusterWords(tr.Content)
			if len(row) >= 2 {
				cells = append(cells, row)
			}
		}
		pageTable := extractUniformRun(cells)
		if len(pageTable) < 2 {
			continue
		}
		tables++

		if headers == nil {
			headers, _ = r.normalizeHeaders(pageTable[0])
			for _, row := range pageTable[1:] {
				dataRows = append(dataRows, row)
				pageOfRow = append(pageOfRow, pageNum)
			}
			continue
		}
		if len(pageTable[0]) != len(headers) {
			notes = append(notes, fmt.Sprintf("Skipped table on page %d: column count differs.", pageNum))
			continue
		}
		// Later pages repeat the header when the table continues
		body := pageTable
		if sameCells(pageTable[0], headers) {
			body = pageTable[1:]
		}
		for _, row := range body {
			dataRows = append(dataRows, row)
			pageOfRow = append(pageOfRow, pageNum)
		}
	}

	if headers == nil || len(dataRows) == 0 {
		return nil, errors.ReadError("no tables detected in PDF document")
	}
	notes = append(notes, fmt.Sprintf("Extracted %d table(s) from PDF.", tables))

	t := r.buildTable(headers, dataRows)
	pages := make([]table.Value, len(pageOfRow))
	for i, p := range pageOfRow {
		pages[i] = table.NewNumericValue(float64(p))
	}
	if err := t.AddColumn(sourcePageColumn, table.ValueTypeNumeric, pages); err != nil {
		return nil, errors.ReadErrorf(err, "failed to annotate PDF source pages")
	}

	return &Result{Table: t, SourceType: SourcePDF, Notes: notes}, nil
}

// clusterWords merges adjacent words into cells when the horizontal gap is
// small relative to the font size
func clusterWords(words []pdf.Text) []string {
	var cells []string
	var current strings.Builder
	var prev *pdf.Text

	for i := range words {
		w := words[i]
		if strings.TrimSpace(w.S) == "" {
			continue
		}
		if prev != nil {
			gap := w.X - (prev.X + prev.W)
			threshold := prev.FontSize * 0.75
			if threshold <= 0 {
				threshold = 6
			}
			if gap > threshold {
				cells = append(cells, strings.TrimSpace(current.String()))
				current.Reset()
			} else if current.Len() > 0 {
				current.WriteByte(' ')
			}
		}
		current.WriteString(w.S)
		prev = &words[i]
	}
	if current.Len() > 0 {
		cells = append(cells, strings.TrimSpace(current.String()))
	}
	return cells
}

// extractUniformRun returns the longest contiguous run of rows sharing the
// modal cell count, which is the best guess at the page's table
func extractUniformRun(rows [][]string) [][]string {
	if len(rows) == 0 {
		return nil
	}
	counts := make(map[int]int)
	for _, row := range rows {
		counts[len(row)]++
	}
	modal := 0
	modalFreq := 0
	for width, freq := range counts {
		if freq > modalFreq || (freq == modalFreq && width > modal) {
			modal = width
			modalFreq = freq
		}
	}

	var best, current [][]string
	for _, row := range rows {
		if len(row) == modal {
			current = append(current, row)
			continue
		}
		if len(current) > len(best) {
			best = current
		}
		current = nil
	}
	if len(current) > len(best) {
		best = current
	}
	return best
}

func sameCells(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(strings.TrimSpace(a[i]), strings.TrimSpace(b[i])) {
			return false
		}
	}
	return true
}
