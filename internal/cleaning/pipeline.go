package cleaning

import (
	"log"
	"strings"

	"github.com/montanaflynn/stats"

	"datastudio/domain/table"
	"datastudio/internal/coerce"
)

// Options controls the fixed cleaning pipeline. Every step can be toggled
// off; the step order itself is not configurable.
type Options struct {
	DropDuplicates bool `json:"drop_duplicates"`
	TrimWhitespace bool `json:"trim_whitespace"`
	ImputeMissing  bool `json:"impute_missing"`
	ParseDatetimes bool `json:"parse_datetimes"`
	CapOutliers    bool `json:"cap_outliers"`

	// Numeric columns with a higher missing ratio are dropped instead of imputed
	MissingDropRatio float64 `json:"missing_drop_ratio"`
	// Quantile bounds for outlier capping, computed on pre-capping values
	LowerQuantile float64 `json:"lower_quantile"`
	UpperQuantile float64 `json:"upper_quantile"`
	// Fill value for categorical columns with no mode
	CategoricalFill string `json:"categorical_fill"`
	// Minimum parse ratio for a string column to become a timestamp column
	DatetimeParseRatio float64 `json:"datetime_parse_ratio"`
}

// DefaultOptions returns the pipeline defaults
func DefaultOptions() Options {
	return Options{
		DropDuplicates:     true,
		TrimWhitespace:     true,
		ImputeMissing:      true,
		ParseDatetimes:     true,
		CapOutliers:        true,
		MissingDropRatio:   0.6,
		LowerQuantile:      0.01,
		UpperQuantile:      0.99,
		CategoricalFill:    "Unknown",
		DatetimeParseRatio: 0.8,
	}
}

// Result contains the cleaned table plus the run's log
type Result struct {
	Cleaned           *table.Table `json:"-"`
	Log               Log          `json:"log"`
	DroppedDuplicates int          `json:"dropped_duplicates"`
	ImputedCells      int          `json:"imputed_cells"`
	DroppedColumns    []string     `json:"dropped_columns,omitempty"`
}

// Pipeline applies the fixed ordered cleaning steps:
// deduplicate, trim, impute, datetime coercion, outlier capping.
// Steps are pure transformations; the input table is never mutated.
type Pipeline struct {
	opts    Options
	coercer *coerce.TypeCoercer
}

// New creates a pipeline with the given options
func New(opts Options) *Pipeline {
	return &Pipeline{opts: opts, coercer: coerce.New(coerce.DefaultConfig())}
}

// Run executes the pipeline over a copy of the source table. A step that
// encounters data it cannot transform records a log entry and is skipped;
// the run itself never fails.
func (p *Pipeline) Run(src *table.Table) *Result {
	work := src.Clone()
	result := &Result{}

	if p.opts.DropDuplicates {
		p.dropDuplicates(work, result)
	}
	if p.opts.TrimWhitespace {
		p.trimWhitespace(work, result)
	}
	if p.opts.ImputeMissing {
		p.imputeMissing(work, result)
	}
	if p.opts.ParseDatetimes {
		p.parseDatetimes(work, result)
	}
	if p.opts.CapOutliers {
		p.capOutliers(work, result)
	}

	work.RefreshFieldStats()
	result.Cleaned = work
	log.Printf("[cleaning] Pipeline complete: %d -> %d rows, %d entries logged",
		src.RowCount(), work.RowCount(), len(result.Log))
	return result
}

// dropDuplicates removes exact duplicate rows, keeping the first occurrence
func (p *Pipeline) dropDuplicates(t *table.Table, result *Result) {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0:0]
	for _, row := range t.Rows {
		key := t.RowKey(row)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	dropped := len(t.Rows) - len(kept)
	t.Rows = kept
	result.DroppedDuplicates = dropped
	if dropped > 0 {
		result.Log.add("drop_duplicates", dropped, "removed %d duplicate rows", dropped)
	}
}

// trimWhitespace strips surrounding whitespace from string cells
func (p *Pipeline) trimWhitespace(t *table.Table, result *Result) {
	changed := 0
	for _, col := range t.ColumnsOfType(table.ValueTypeString) {
		for _, row := range t.Rows {
			v := row[col]
			if !v.IsString() {
				continue
			}
			trimmed := strings.TrimSpace(v.AsString())
			if trimmed != v.AsString() {
				row[col] = table.NewStringValue(trimmed)
				changed++
			}
		}
	}
	if changed > 0 {
		result.Log.add("trim_whitespace", changed, "trimmed surrounding whitespace in %d cells", changed)
	}
}

// imputeMissing fills missing values per column type: numeric columns get
// the pre-imputation median (or are dropped above the missing-ratio
// threshold), categorical columns get the most frequent value, timestamp
// columns are forward filled.
func (p *Pipeline) imputeMissing(t *table.Table, result *Result) {
	total := len(t.Rows)
	if total == 0 {
		return
	}

	for _, field := range append([]table.Field(nil), t.Fields...) {
		col := field.Name
		missing := t.MissingCount(col)
		if missing == 0 {
			continue
		}

		switch field.Type {
		case table.ValueTypeNumeric:
			ratio := float64(missing) / float64(total)
			if ratio > p.opts.MissingDropRatio {
				t.DropColumn(col)
				result.DroppedColumns = append(result.DroppedColumns, col)
				result.Log.add("drop_column", missing,
					"dropped column '%s': %.0f%% missing exceeds threshold", col, ratio*100)
				continue
			}
			values := t.NumericColumn(col)
			median, err := stats.Median(values)
			if err != nil {
				result.Log.add("skipped", 0,
					"skipped imputation for '%s': no usable numeric values", col)
				continue
			}
			p.fillMissing(t, col, table.NewNumericValue(median))
			result.ImputedCells += missing
			result.Log.add("impute_median", missing,
				"imputed %d missing values in '%s' with median %g", missing, col, median)

		case table.ValueTypeTimestamp:
			filled := p.forwardFill(t, col)
			result.ImputedCells += filled
			if filled > 0 {
				result.Log.add("impute_ffill", filled,
					"forward-filled %d missing datetime values in '%s'", filled, col)
			}

		default:
			fill, ok := p.modeValue(t, col)
			if !ok {
				fill = table.NewStringValue(p.opts.CategoricalFill)
			}
			p.fillMissing(t, col, fill)
			result.ImputedCells += missing
			result.Log.add("impute_mode", missing,
				"imputed %d missing values in '%s' with '%s'", missing, col, fill.Render())
		}
	}
}

// parseDatetimes coerces string columns that are date-like to timestamps;
// unparseable cells become missing and are forward filled, since the
// missing-value step has already run.
func (p *Pipeline) parseDatetimes(t *table.Table, result *Result) {
	for _, col := range t.ColumnsOfType(table.ValueTypeString) {
		parseable := 0
		nonMissing := 0
		for _, row := range t.Rows {
			v := row[col]
			if v.IsMissing {
				continue
			}
			nonMissing++
			if _, ok := p.coercer.TryParseTimestamp(v.AsString()); ok {
				parseable++
			}
		}
		if nonMissing == 0 || float64(parseable)/float64(nonMissing) < p.opts.DatetimeParseRatio {
			continue
		}

		unparseable := 0
		for _, row := range t.Rows {
			v := row[col]
			if v.IsMissing {
				continue
			}
			if ts, ok := p.coercer.TryParseTimestamp(v.AsString()); ok {
				row[col] = table.NewTimestampValue(ts)
			} else {
				row[col] = table.NewMissingValue()
				unparseable++
			}
		}
		t.SetFieldType(col, table.ValueTypeTimestamp)
		result.Log.add("parse_datetime", nonMissing, "parsed column '%s' as datetime", col)
		if unparseable > 0 {
			filled := p.forwardFill(t, col)
			result.Log.add("impute_ffill", filled,
				"forward-filled %d unparseable datetime values in '%s'", filled, col)
		}
	}
}

// capOutliers clips numeric columns to the configured quantile range,
// with bounds computed on the pre-capping values
func (p *Pipeline) capOutliers(t *table.Table, result *Result) {
	for _, col := range t.ColumnsOfType(table.ValueTypeNumeric) {
		values := t.NumericColumn(col)
		if len(values) < 3 {
			continue
		}
		lower, errLo := stats.Percentile(values, p.opts.LowerQuantile*100)
		upper, errHi := stats.Percentile(values, p.opts.UpperQuantile*100)
		if errLo != nil || errHi != nil || lower >= upper {
			result.Log.add("skipped", 0,
				"skipped outlier capping for '%s': degenerate quantile bounds", col)
			continue
		}

		capped := 0
		for _, row := range t.Rows {
			v := row[col]
			if !v.IsNumeric() {
				continue
			}
			x := v.AsFloat64()
			switch {
			case x < lower:
				row[col] = table.NewNumericValue(lower)
				capped++
			case x > upper:
				row[col] = table.NewNumericValue(upper)
				capped++
			}
		}
		if capped > 0 {
			result.Log.add("cap_outliers", capped,
				"capped %d outlier values in '%s' to [%g, %g]", capped, col, lower, upper)
		}
	}
}

func (p *Pipeline) fillMissing(t *table.Table, col string, fill table.Value) {
	for _, row := range t.Rows {
		if v, ok := row[col]; !ok || v.IsMissing {
			row[col] = fill
		}
	}
}

// forwardFill propagates the last seen value into missing cells; leading
// missing cells stay missing
func (p *Pipeline) forwardFill(t *table.Table, col string) int {
	filled := 0
	var last *table.Value
	for _, row := range t.Rows {
		v := row[col]
		if v.IsMissing {
			if last != nil {
				row[col] = *last
				filled++
			}
			continue
		}
		copied := v
		last = &copied
	}
	return filled
}

// modeValue returns the most frequent non-missing value of a column,
// breaking ties by render order for determinism
func (p *Pipeline) modeValue(t *table.Table, col string) (table.Value, bool) {
	counts := make(map[string]int)
	values := make(map[string]table.Value)
	for _, row := range t.Rows {
		v := row[col]
		if v.IsMissing {
			continue
		}
		key := v.Render()
		counts[key]++
		values[key] = v
	}
	bestKey := ""
	bestCount := 0
	for key, n := range counts {
		if n > bestCount || (n == bestCount && key < bestKey) {
			bestKey = key
			bestCount = n
		}
	}
	if bestCount == 0 {
		return table.Value{}, false
	}
	return values[bestKey], true
}
