package ingest

import (
	"strings"
	"testing"

	"datastudio/domain/table"
	apperrors "datastudio/internal/errors"
)

func TestIngestCSV(t *testing.T) {
	data := []byte("name,age,signup\nalice,30,2024-01-15\nbob,25,2024-02-20\ncarol,41,2024-03-05\n")
	r := NewReader()

	result, err := r.Ingest("users.csv", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.SourceType != SourceCSV {
		t.Errorf("source type = %s, want csv", result.SourceType)
	}
	tbl := result.Table
	if tbl.RowCount() != 3 || tbl.ColumnCount() != 3 {
		t.Fatalf("shape = %dx%d, want 3x3", tbl.RowCount(), tbl.ColumnCount())
	}

	f, _ := tbl.Field("age")
	if f.Type != table.ValueTypeNumeric {
		t.Errorf("age type = %s, want numeric", f.Type)
	}
	f, _ = tbl.Field("signup")
	if f.Type != table.ValueTypeTimestamp {
		t.Errorf("signup type = %s, want timestamp", f.Type)
	}
	f, _ = tbl.Field("name")
	if f.Type != table.ValueTypeString {
		t.Errorf("name type = %s, want string", f.Type)
	}
	if tbl.Rows[1]["age"].AsFloat64() != 25 {
		t.Errorf("row 1 age = %v", tbl.Rows[1]["age"])
	}
}

func TestIngestTSV(t *testing.T) {
	data := []byte("a\tb\n1\t2\n3\t4\n")
	r := NewReader()
	result, err := r.Ingest("data.tsv", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.Table.RowCount() != 2 {
		t.Errorf("rows = %d, want 2", result.Table.RowCount())
	}
}

func TestIngestTXTSniffsDelimiter(t *testing.T) {
	data := []byte("x;y;z\n1;2;3\n4;5;6\n")
	r := NewReader()
	result, err := r.Ingest("data.txt", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.Table.ColumnCount() != 3 {
		t.Errorf("columns = %d, want 3 (semicolon not sniffed)", result.Table.ColumnCount())
	}
}

func TestIngestSynthesizesHeaders(t *testing.T) {
	// First row is all numeric, so it is data, not a header
	data := []byte("1,2,3\n4,5,6\n7,8,9\n")
	r := NewReader()
	result, err := r.Ingest("raw.csv", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	tbl := result.Table
	if tbl.RowCount() != 3 {
		t.Errorf("rows = %d, want 3 (header row should be kept as data)", tbl.RowCount())
	}
	if tbl.Columns[0] != "column_1" || tbl.Columns[2] != "column_3" {
		t.Errorf("columns = %v, want synthesized names", tbl.Columns)
	}
	if len(result.Notes) == 0 {
		t.Error("expected an ingestion note about synthesized headers")
	}
}

func TestIngestBlankHeaderCell(t *testing.T) {
	data := []byte("name,,city\nalice,x,NYC\n")
	r := NewReader()
	result, err := r.Ingest("partial.csv", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.Table.Columns[1] != "column_2" {
		t.Errorf("blank header = %q, want column_2", result.Table.Columns[1])
	}
}

func TestIngestRaggedRows(t *testing.T) {
	data := []byte("a,b,c\n1,2\n3,4,5\n")
	r := NewReader()
	result, err := r.Ingest("ragged.csv", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if !result.Table.Rows[0]["c"].IsMissing {
		t.Error("short row should pad with missing cells")
	}
}

func TestIngestJSONArray(t *testing.T) {
	data := []byte(`[
		{"name": "alice", "age": 30, "active": true},
		{"name": "bob", "age": 25, "active": false, "extra": "x"}
	]`)
	r := NewReader()
	result, err := r.Ingest("users.json", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	tbl := result.Table
	if tbl.RowCount() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.RowCount())
	}
	// First-seen key order, union of keys
	want := []string{"name", "age", "active", "extra"}
	for i, col := range want {
		if tbl.Columns[i] != col {
			t.Fatalf("columns = %v, want %v", tbl.Columns, want)
		}
	}
	if f, _ := tbl.Field("age"); f.Type != table.ValueTypeNumeric {
		t.Errorf("age type = %s, want numeric", f.Type)
	}
	if f, _ := tbl.Field("active"); f.Type != table.ValueTypeBoolean {
		t.Errorf("active type = %s, want boolean", f.Type)
	}
	if !tbl.Rows[0]["extra"].IsMissing {
		t.Error("absent key should be missing in first row")
	}
}

func TestIngestJSONTableOrientation(t *testing.T) {
	data := []byte(`{"count": 2, "records": [{"id": 1}, {"id": 2}]}`)
	r := NewReader()
	result, err := r.Ingest("wrapped.json", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.Table.RowCount() != 2 {
		t.Errorf("rows = %d, want 2 from wrapped records", result.Table.RowCount())
	}
	found := false
	for _, note := range result.Notes {
		if strings.Contains(note, "records") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a note naming the wrapping key, got %v", result.Notes)
	}
}

func TestIngestJSONSingleObject(t *testing.T) {
	data := []byte(`{"name": "alice", "age": 30}`)
	r := NewReader()
	result, err := r.Ingest("one.json", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if result.Table.RowCount() != 1 {
		t.Errorf("rows = %d, want 1", result.Table.RowCount())
	}
}

func TestIngestInvalidJSON(t *testing.T) {
	r := NewReader()
	_, err := r.Ingest("broken.json", []byte("{not json"))
	if err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
	if apperrors.GetCode(err) != apperrors.CodeReadError {
		t.Errorf("error code = %s, want READ_ERROR", apperrors.GetCode(err))
	}
}

func TestIngestUnsupportedExtension(t *testing.T) {
	r := NewReader()
	_, err := r.Ingest("image.png", []byte("data"))
	if err == nil {
		t.Fatal("expected an error for unsupported extension")
	}
	if apperrors.GetCode(err) != apperrors.CodeReadError {
		t.Errorf("error code = %s, want READ_ERROR", apperrors.GetCode(err))
	}
}

func TestIngestEmptyFile(t *testing.T) {
	r := NewReader()
	if _, err := r.Ingest("empty.csv", nil); err == nil {
		t.Fatal("expected an error for an empty file")
	}
}

func TestIngestHeaderOnly(t *testing.T) {
	r := NewReader()
	if _, err := r.Ingest("header.csv", []byte("a,b,c\n")); err == nil {
		t.Fatal("expected an error for a header-only file")
	}
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		data string
		want rune
	}{
		{"a,b,c\n", ','},
		{"a\tb\tc\n", '\t'},
		{"a;b;c\n", ';'},
		{"a|b|c\n", '|'},
		{"single\n", ','},
	}
	for _, tt := range tests {
		if got := sniffDelimiter([]byte(tt.data)); got != tt.want {
			t.Errorf("sniffDelimiter(%q) = %q, want %q", tt.data, got, tt.want)
		}
	}
}

func TestIngestNonConformingCellBecomesMissing(t *testing.T) {
	// 4 of 5 values numeric: column is numeric, the outlier cell goes missing
	data := []byte("v\n1\n2\n3\n4\nnope\n")
	r := NewReader()
	result, err := r.Ingest("mostly.csv", data)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	tbl := result.Table
	if f, _ := tbl.Field("v"); f.Type != table.ValueTypeNumeric {
		t.Fatalf("v type = %s, want numeric", f.Type)
	}
	if !tbl.Rows[4]["v"].IsMissing {
		t.Error("non-numeric cell in numeric column should be missing")
	}
	if tbl.MissingCount("v") != 1 {
		t.Errorf("missing count = %d, want 1", tbl.MissingCount("v"))
	}
}
