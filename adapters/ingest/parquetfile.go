package ingest

import (
	"bytes"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"

	"datastudio/domain/table"
	"datastudio/internal/errors"
)

// readParquet parses a Parquet payload by walking row groups and mapping
// leaf columns to table columns
func (r *Reader) readParquet(data []byte) (*Result, error) {
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.ReadErrorf(err, "failed to open Parquet file")
	}

	paths := pf.Schema().Columns()
	if len(paths) == 0 {
		return nil, errors.ReadError("Parquet file has no columns")
	}
	columns := make([]string, len(paths))
	for i, path := range paths {
		columns[i] = strings.Join(path, ".")
	}

	t := table.New(columns)
	buf := make([]parquet.Row, 256)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, readErr := rows.ReadRows(buf)
			for _, pqRow := range buf[:n] {
				row := make(table.Row, len(columns))
				for _, col := range columns {
					row[col] = table.NewMissingValue()
				}
				for _, v := range pqRow {
					idx := v.Column()
					if idx < 0 || idx >= len(columns) {
						continue
					}
					row[columns[idx]] = r.parquetValue(v)
				}
				t.Rows = append(t.Rows, row)
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				rows.Close()
				return nil, errors.ReadErrorf(readErr, "failed to read Parquet rows")
			}
		}
		rows.Close()
	}

	if len(t.Rows) == 0 {
		return nil, errors.ReadError("Parquet file contains no rows")
	}
	inferTypesFromValues(t)

	return &Result{Table: t, SourceType: SourceParquet}, nil
}

func (r *Reader) parquetValue(v parquet.Value) table.Value {
	if v.IsNull() {
		return table.NewMissingValue()
	}
	switch v.Kind() {
	case parquet.Boolean:
		return table.NewBooleanValue(v.Boolean())
	case parquet.Int32:
		return table.NewNumericValue(float64(v.Int32()))
	case parquet.Int64:
		return table.NewNumericValue(float64(v.Int64()))
	case parquet.Float:
		return table.NewNumericValue(float64(v.Float()))
	case parquet.Double:
		return table.NewNumericValue(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		s := strings.TrimSpace(v.String())
		if ts, ok := r.coercer.TryParseTimestamp(s); ok {
			return table.NewTimestampValue(ts)
		}
		return table.NewStringValue(s)
	default:
		return table.NewStringValue(v.String())
	}
}
