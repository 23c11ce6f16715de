package ingest

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"datastudio/internal/errors"
)

// readExcel parses the first sheet of an XLSX/XLS workbook
func (r *Reader) readExcel(data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.ReadErrorf(err, "failed to open Excel workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ReadError("Excel workbook has no sheets")
	}
	sheet := sheets[0]

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.ReadErrorf(err, "failed to read sheet %q", sheet)
	}
	if len(records) < 2 {
		return nil, errors.ReadError("Excel sheet must have at least a header row and one data row")
	}

	headers, headerIsData := r.normalizeHeaders(records[0])
	rows := records[1:]
	var notes []string
	if headerIsData {
		rows = records
		notes = append(notes, "No header row detected; synthesized column names.")
	}

	return &Result{
		Table:      r.buildTable(headers, rows),
		SourceType: SourceExcel,
		Notes:      notes,
	}, nil
}
