package eda

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"datastudio/domain/table"
)

// Correlation is a pairwise Pearson correlation matrix over numeric columns
type Correlation struct {
	Columns []string    `json:"columns"`
	Matrix  [][]float64 `json:"matrix"`
}

// CorrelationMatrix computes pairwise Pearson correlations over rows where
// every numeric column has a value. Returns nil with fewer than two numeric
// columns or fewer than three complete rows.
func CorrelationMatrix(t *table.Table) *Correlation {
	cols := t.ColumnsOfType(table.ValueTypeNumeric)
	if len(cols) < 2 {
		return nil
	}

	var complete []table.Row
	for _, row := range t.Rows {
		ok := true
		for _, col := range cols {
			if !row[col].IsNumeric() {
				ok = false
				break
			}
		}
		if ok {
			complete = append(complete, row)
		}
	}
	if len(complete) < 3 {
		return nil
	}

	data := mat.NewDense(len(complete), len(cols), nil)
	for i, row := range complete {
		for j, col := range cols {
			data.Set(i, j, row[col].AsFloat64())
		}
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, data, nil)

	matrix := make([][]float64, len(cols))
	for i := range cols {
		matrix[i] = make([]float64, len(cols))
		for j := range cols {
			matrix[i][j] = corr.At(i, j)
		}
	}
	return &Correlation{Columns: cols, Matrix: matrix}
}
