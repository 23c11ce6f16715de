package table

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNewStringValueEmptyIsMissing(t *testing.T) {
	v := NewStringValue("")
	if !v.IsMissing {
		t.Error("empty string should produce a missing value")
	}
	v = NewStringValue("hello")
	if v.IsMissing || v.AsString() != "hello" {
		t.Errorf("expected string value 'hello', got %+v", v)
	}
}

func TestValueRender(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"string", NewStringValue("abc"), "abc"},
		{"integer-like numeric", NewNumericValue(42), "42"},
		{"fractional numeric", NewNumericValue(3.14), "3.14"},
		{"boolean", NewBooleanValue(true), "true"},
		{"timestamp", NewTimestampValue(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)), "2024-01-15T00:00:00Z"},
		{"missing", NewMissingValue(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Render(); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValueEqual(t *testing.T) {
	if !NewNumericValue(1.5).Equal(NewNumericValue(1.5)) {
		t.Error("equal numerics should compare equal")
	}
	if NewNumericValue(1.5).Equal(NewStringValue("1.5")) {
		t.Error("values of different types should not compare equal")
	}
	if !NewMissingValue().Equal(NewMissingValue()) {
		t.Error("missing values should compare equal")
	}
}

func newTestTable() *Table {
	t := New([]string{"name", "score"})
	t.SetFieldType("score", ValueTypeNumeric)
	t.Rows = []Row{
		{"name": NewStringValue("alice"), "score": NewNumericValue(10)},
		{"name": NewStringValue("bob"), "score": NewNumericValue(20)},
		{"name": NewStringValue("alice"), "score": NewNumericValue(10)},
	}
	return t
}

func TestRowKeyDistinguishesRows(t *testing.T) {
	tbl := newTestTable()
	if tbl.RowKey(tbl.Rows[0]) != tbl.RowKey(tbl.Rows[2]) {
		t.Error("identical rows should share a key")
	}
	if tbl.RowKey(tbl.Rows[0]) == tbl.RowKey(tbl.Rows[1]) {
		t.Error("different rows should have different keys")
	}
}

func TestRowKeyIncludesType(t *testing.T) {
	tbl := New([]string{"a"})
	r1 := Row{"a": NewStringValue("10")}
	r2 := Row{"a": NewNumericValue(10)}
	if tbl.RowKey(r1) == tbl.RowKey(r2) {
		t.Error("string '10' and numeric 10 must not collide")
	}
}

func TestCloneIsDeep(t *testing.T) {
	tbl := newTestTable()
	clone := tbl.Clone()
	clone.Rows[0]["name"] = NewStringValue("mallory")
	clone.DropColumn("score")

	if tbl.Rows[0]["name"].AsString() != "alice" {
		t.Error("mutating the clone changed the original rows")
	}
	if tbl.ColumnCount() != 2 {
		t.Error("mutating the clone changed the original columns")
	}
}

func TestDropColumn(t *testing.T) {
	tbl := newTestTable()
	tbl.DropColumn("score")
	if tbl.ColumnCount() != 1 || tbl.Columns[0] != "name" {
		t.Errorf("unexpected columns after drop: %v", tbl.Columns)
	}
	if _, ok := tbl.Rows[0]["score"]; ok {
		t.Error("dropped column still present in rows")
	}
}

func TestRefreshFieldStats(t *testing.T) {
	tbl := newTestTable()
	tbl.Rows = append(tbl.Rows, Row{"name": NewMissingValue(), "score": NewNumericValue(30)})
	tbl.RefreshFieldStats()

	f, _ := tbl.Field("name")
	if f.MissingCount != 1 {
		t.Errorf("name missing count = %d, want 1", f.MissingCount)
	}
	if f.UniqueCount != 2 {
		t.Errorf("name unique count = %d, want 2", f.UniqueCount)
	}
	f, _ = tbl.Field("score")
	if f.UniqueCount != 3 {
		t.Errorf("score unique count = %d, want 3", f.UniqueCount)
	}
}

func TestWriteCSV(t *testing.T) {
	tbl := newTestTable()
	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "name,score" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "alice,10" {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestHead(t *testing.T) {
	tbl := newTestTable()
	head := tbl.Head(2)
	if len(head) != 2 {
		t.Fatalf("Head(2) returned %d rows", len(head))
	}
	head = tbl.Head(10)
	if len(head) != 3 {
		t.Fatalf("Head beyond row count should clamp, got %d rows", len(head))
	}
}
