package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Field describes a single column in a table
type Field struct {
	Name         string    `json:"name"`
	Type         ValueType `json:"type"`
	MissingCount int       `json:"missing_count"`
	UniqueCount  int       `json:"unique_count"`
}

// Row is a single record keyed by column name
type Row map[string]Value

// Table is an in-memory dataset: ordered columns plus typed rows.
// It is created by ingestion, replaced by the cleaning pipeline and
// read-only afterwards.
type Table struct {
	Columns []string `json:"columns"`
	Fields  []Field  `json:"fields"`
	Rows    []Row    `json:"rows"`
}

// New creates an empty table with the given column order
func New(columns []string) *Table {
	fields := make([]Field, len(columns))
	for i, name := range columns {
		fields[i] = Field{Name: name, Type: ValueTypeString}
	}
	return &Table{Columns: columns, Fields: fields}
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int {
	return len(t.Columns)
}

// Field returns the metadata for a named column
func (t *Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SetFieldType updates the inferred type of a column
func (t *Table) SetFieldType(name string, vt ValueType) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			t.Fields[i].Type = vt
			return
		}
	}
}

// ColumnsOfType returns column names whose inferred type matches
func (t *Table) ColumnsOfType(vt ValueType) []string {
	var out []string
	for _, f := range t.Fields {
		if f.Type == vt {
			out = append(out, f.Name)
		}
	}
	return out
}

// NumericColumn extracts the non-missing numeric values of a column,
// preserving row order
func (t *Table) NumericColumn(name string) []float64 {
	out := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if v, ok := row[name]; ok && v.IsNumeric() {
			out = append(out, v.AsFloat64())
		}
	}
	return out
}

// MissingCount returns the number of missing cells in a column
func (t *Table) MissingCount(name string) int {
	count := 0
	for _, row := range t.Rows {
		v, ok := row[name]
		if !ok || v.IsMissing {
			count++
		}
	}
	return count
}

// DropColumn removes a column and its cells from the table
func (t *Table) DropColumn(name string) {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != name {
			cols = append(cols, c)
		}
	}
	fields := make([]Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Name != name {
			fields = append(fields, f)
		}
	}
	t.Columns = cols
	t.Fields = fields
	for _, row := range t.Rows {
		delete(row, name)
	}
}

// AddColumn appends a column with the given values; values must match
// the current row count
func (t *Table) AddColumn(name string, vt ValueType, values []Value) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %s has %d values for %d rows", name, len(values), len(t.Rows))
	}
	t.Columns = append(t.Columns, name)
	t.Fields = append(t.Fields, Field{Name: name, Type: vt})
	for i, row := range t.Rows {
		row[name] = values[i]
	}
	return nil
}

// Clone produces a deep copy so transformations never mutate their input
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Fields:  append([]Field(nil), t.Fields...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		out.Rows[i] = copied
	}
	return out
}

// RowKey builds a canonical representation of a row across all columns,
// used for exact-duplicate detection
func (t *Table) RowKey(row Row) string {
	var sb strings.Builder
	for _, col := range t.Columns {
		v := row[col]
		sb.WriteString(string(v.Type))
		sb.WriteByte(':')
		sb.WriteString(v.Render())
		sb.WriteByte('\x1f')
	}
	return sb.String()
}

// RefreshFieldStats recomputes per-column missing and unique counts
func (t *Table) RefreshFieldStats() {
	for i := range t.Fields {
		name := t.Fields[i].Name
		missing := 0
		unique := make(map[string]struct{})
		for _, row := range t.Rows {
			v, ok := row[name]
			if !ok || v.IsMissing {
				missing++
				continue
			}
			unique[v.Render()] = struct{}{}
		}
		t.Fields[i].MissingCount = missing
		t.Fields[i].UniqueCount = len(unique)
	}
}

// WriteCSV renders the table as CSV with a header row
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col].Render()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Head returns up to n leading rows rendered as strings for previews
func (t *Table) Head(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		rec := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			rec[j] = t.Rows[i][col].Render()
		}
		out[i] = rec
	}
	return out
}
