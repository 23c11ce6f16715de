package eda

import (
	"sort"

	"github.com/montanaflynn/stats"

	"datastudio/domain/table"
)

// ColumnSummary holds descriptive statistics for one numeric column
type ColumnSummary struct {
	Column  string  `json:"column"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Q25     float64 `json:"q25"`
	Median  float64 `json:"median"`
	Q75     float64 `json:"q75"`
	Max     float64 `json:"max"`
}

// CategoryCount is one categorical frequency entry
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CategorySummary holds frequency statistics for one categorical column
type CategorySummary struct {
	Column      string          `json:"column"`
	Cardinality int             `json:"cardinality"`
	Missing     int             `json:"missing"`
	Top         []CategoryCount `json:"top"`
}

// topCategories caps the frequency table size
const topCategories = 15

// NumericSummary computes descriptive statistics for every numeric column.
// Pure function of the table; recomputed on demand, never cached here.
func NumericSummary(t *table.Table) []ColumnSummary {
	var out []ColumnSummary
	for _, col := range t.ColumnsOfType(table.ValueTypeNumeric) {
		values := t.NumericColumn(col)
		if len(values) == 0 {
			continue
		}
		s := ColumnSummary{
			Column:  col,
			Count:   len(values),
			Missing: t.MissingCount(col),
		}
		s.Mean, _ = stats.Mean(values)
		s.StdDev, _ = stats.StandardDeviationSample(values)
		s.Min, _ = stats.Min(values)
		s.Q25, _ = stats.Percentile(values, 25)
		s.Median, _ = stats.Median(values)
		s.Q75, _ = stats.Percentile(values, 75)
		s.Max, _ = stats.Max(values)
		out = append(out, s)
	}
	return out
}

// Categories computes cardinality and top category frequencies for a
// single non-numeric column
func Categories(t *table.Table, col string) CategorySummary {
	counts := make(map[string]int)
	missing := 0
	for _, row := range t.Rows {
		v := row[col]
		if v.IsMissing {
			missing++
			continue
		}
		counts[v.Render()]++
	}

	entries := make([]CategoryCount, 0, len(counts))
	for value, count := range counts {
		entries = append(entries, CategoryCount{Value: value, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})

	summary := CategorySummary{
		Column:      col,
		Cardinality: len(entries),
		Missing:     missing,
	}
	if len(entries) > topCategories {
		entries = entries[:topCategories]
	}
	summary.Top = entries
	return summary
}

// CategoricalColumns lists columns eligible for category summaries
func CategoricalColumns(t *table.Table) []string {
	var out []string
	for _, f := range t.Fields {
		if f.Type == table.ValueTypeString || f.Type == table.ValueTypeBoolean {
			out = append(out, f.Name)
		}
	}
	return out
}
