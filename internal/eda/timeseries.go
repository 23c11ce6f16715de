package eda

import (
	"fmt"
	"sort"
	"time"

	"datastudio/domain/table"
	apperrors "datastudio/internal/errors"
)

// Bucket granularity for time series aggregation
type Bucket string

const (
	BucketDaily   Bucket = "daily"
	BucketMonthly Bucket = "monthly"
)

// TimePoint is one aggregated bucket of a time series
type TimePoint struct {
	Bucket string  `json:"bucket"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}

// TimeSeries is the bucketed aggregate of a metric over a datetime column
type TimeSeries struct {
	TimeColumn  string      `json:"time_column"`
	ValueColumn string      `json:"value_column"`
	Granularity Bucket      `json:"granularity"`
	Points      []TimePoint `json:"points"`
}

// NewTimeSeries buckets the mean of a numeric column by a timestamp column.
// Rows missing either value are dropped from the aggregate.
func NewTimeSeries(t *table.Table, timeCol, valueCol string, granularity Bucket) (*TimeSeries, error) {
	tf, ok := t.Field(timeCol)
	if !ok || tf.Type != table.ValueTypeTimestamp {
		return nil, apperrors.InvalidInput(fmt.Sprintf("column %q is not a datetime column", timeCol))
	}
	vf, ok := t.Field(valueCol)
	if !ok || vf.Type != table.ValueTypeNumeric {
		return nil, apperrors.InvalidInput(fmt.Sprintf("column %q is not numeric", valueCol))
	}
	if granularity != BucketDaily && granularity != BucketMonthly {
		granularity = BucketDaily
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, row := range t.Rows {
		tv := row[timeCol]
		vv := row[valueCol]
		if !tv.IsTimestamp() || !vv.IsNumeric() {
			continue
		}
		key := bucketKey(tv.AsTime(), granularity)
		sums[key] += vv.AsFloat64()
		counts[key]++
	}
	if len(counts) == 0 {
		return nil, apperrors.InvalidInput("no rows with both a timestamp and a metric value")
	}

	series := &TimeSeries{
		TimeColumn:  timeCol,
		ValueColumn: valueCol,
		Granularity: granularity,
	}
	for key, count := range counts {
		series.Points = append(series.Points, TimePoint{
			Bucket: key,
			Mean:   sums[key] / float64(count),
			Count:  count,
		})
	}
	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Bucket < series.Points[j].Bucket
	})
	return series, nil
}

func bucketKey(ts time.Time, granularity Bucket) string {
	if granularity == BucketMonthly {
		return ts.Format("2006-01")
	}
	return ts.Format("2006-01-02")
}

// DatetimeColumns lists columns eligible as time axes
func DatetimeColumns(t *table.Table) []string {
	return t.ColumnsOfType(table.ValueTypeTimestamp)
}

// NumericColumns lists columns eligible as metrics
func NumericColumns(t *table.Table) []string {
	return t.ColumnsOfType(table.ValueTypeNumeric)
}
