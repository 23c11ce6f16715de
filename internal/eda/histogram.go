package eda

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"datastudio/domain/table"
	apperrors "datastudio/internal/errors"
)

// HistogramBin is one chart-ready distribution bucket
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Label string  `json:"label"`
	Count int     `json:"count"`
}

// Histogram describes the distribution of a numeric column
type Histogram struct {
	Column string         `json:"column"`
	Bins   []HistogramBin `json:"bins"`
	Mean   float64        `json:"mean"`
	Median float64        `json:"median"`
}

// defaultBins matches the distribution chart bucket count
const defaultBins = 40

// NewHistogram buckets a numeric column into chart-ready bins
func NewHistogram(t *table.Table, col string) (*Histogram, error) {
	field, ok := t.Field(col)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown column %q", col))
	}
	if field.Type != table.ValueTypeNumeric {
		return nil, apperrors.InvalidInput(fmt.Sprintf("column %q is not numeric", col))
	}
	values := t.NumericColumn(col)
	if len(values) == 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("column %q has no numeric values", col))
	}

	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	mean, _ := stats.Mean(values)
	median, _ := stats.Median(values)

	bins := defaultBins
	if max == min {
		bins = 1
	}
	width := (max - min) / float64(bins)
	h := &Histogram{Column: col, Mean: mean, Median: median}
	h.Bins = make([]HistogramBin, bins)
	for i := range h.Bins {
		lower := min + float64(i)*width
		upper := lower + width
		h.Bins[i] = HistogramBin{
			Lower: lower,
			Upper: upper,
			Label: fmt.Sprintf("%.4g", lower),
		}
	}
	for _, v := range values {
		idx := bins - 1
		if width > 0 {
			idx = int((v - min) / width)
			if idx >= bins {
				idx = bins - 1
			}
		} else {
			idx = 0
		}
		h.Bins[idx].Count++
	}
	return h, nil
}
