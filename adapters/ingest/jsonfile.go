package ingest

import (
	"fmt"

	"github.com/tidwall/gjson"

	"datastudio/domain/table"
	"datastudio/internal/errors"
)

// readJSON parses a JSON payload into a table. Accepted shapes: a top-level
// array of record objects, an object wrapping the first array of objects
// (table orientation), or a single object treated as one row.
func (r *Reader) readJSON(data []byte) (*Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.ReadError("invalid JSON document")
	}

	root := gjson.ParseBytes(data)
	var records []gjson.Result
	var notes []string

	switch {
	case root.IsArray():
		records = root.Array()
	case root.IsObject():
		// Table orientation: find the first array-of-objects field
		root.ForEach(func(key, value gjson.Result) bool {
			if value.IsArray() {
				arr := value.Array()
				if len(arr) > 0 && arr[0].IsObject() {
					records = arr
					notes = append(notes, fmt.Sprintf("Used records under JSON key %q.", key.String()))
					return false
				}
			}
			return true
		})
		if records == nil {
			records = []gjson.Result{root}
			notes = append(notes, "Single JSON object treated as one row.")
		}
	default:
		return nil, errors.ReadError("JSON document is neither an array nor an object")
	}

	if len(records) == 0 {
		return nil, errors.ReadError("JSON document contains no records")
	}

	// Column order: first-seen key order across records
	var columns []string
	seen := make(map[string]struct{})
	for _, rec := range records {
		if !rec.IsObject() {
			return nil, errors.ReadError("JSON records must be objects")
		}
		rec.ForEach(func(key, _ gjson.Result) bool {
			if _, ok := seen[key.String()]; !ok {
				seen[key.String()] = struct{}{}
				columns = append(columns, key.String())
			}
			return true
		})
	}

	t := table.New(columns)
	t.Rows = make([]table.Row, len(records))
	for i, rec := range records {
		row := make(table.Row, len(columns))
		for _, col := range columns {
			row[col] = r.jsonValue(rec.Get(col))
		}
		t.Rows[i] = row
	}
	inferTypesFromValues(t)

	return &Result{Table: t, SourceType: SourceJSON, Notes: notes}, nil
}

func (r *Reader) jsonValue(v gjson.Result) table.Value {
	switch v.Type {
	case gjson.Null:
		return table.NewMissingValue()
	case gjson.Number:
		return table.NewNumericValue(v.Float())
	case gjson.True:
		return table.NewBooleanValue(true)
	case gjson.False:
		return table.NewBooleanValue(false)
	case gjson.String:
		// Dates arrive as strings; keep the coercer's timestamp rules
		if ts, ok := r.coercer.TryParseTimestamp(v.String()); ok {
			return table.NewTimestampValue(ts)
		}
		return table.NewStringValue(v.String())
	default:
		if !v.Exists() {
			return table.NewMissingValue()
		}
		// Nested arrays/objects are flattened to their JSON text
		return table.NewStringValue(v.Raw)
	}
}

// inferTypesFromValues sets each field type to the majority type among
// non-missing cells, used by sources that produce typed values directly
func inferTypesFromValues(t *table.Table) {
	for _, col := range t.Columns {
		counts := make(map[table.ValueType]int)
		for _, row := range t.Rows {
			v := row[col]
			if v.IsMissing {
				continue
			}
			counts[v.Type]++
		}
		best := table.ValueTypeString
		bestCount := 0
		for vt, n := range counts {
			if n > bestCount {
				best = vt
				bestCount = n
			}
		}
		t.SetFieldType(col, best)
	}
}
