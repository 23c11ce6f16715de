package coerce

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"datastudio/domain/table"
)

// TypeCoercer handles deterministic type coercion with fixed rules so that
// re-running ingestion over the same bytes always yields the same table
type TypeCoercer struct {
	config Config
}

// Config defines the coercion thresholds
type Config struct {
	NumericThreshold   float64 `json:"numeric_threshold"`   // % of values that must parse as numbers
	BooleanThreshold   float64 `json:"boolean_threshold"`   // % of values that must parse as booleans
	TimestampThreshold float64 `json:"timestamp_threshold"` // % of values that must parse as timestamps
	MaxCategories      int     `json:"max_categories"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		NumericThreshold:   0.8,
		BooleanThreshold:   0.9,
		TimestampThreshold: 0.8,
		MaxCategories:      100,
	}
}

// New creates a coercer with the given config
func New(config Config) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// timestampFormats are tried in order; first match wins
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
}

// CoerceValue converts a raw cell to a typed Value using the target type
// the column analysis recommended
func (c *TypeCoercer) CoerceValue(raw string, target table.ValueType) table.Value {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return table.NewMissingValue()
	}

	switch target {
	case table.ValueTypeNumeric:
		if v, ok := c.TryParseNumeric(raw); ok {
			return table.NewNumericValue(v)
		}
		return table.NewMissingValue()
	case table.ValueTypeBoolean:
		if v, ok := c.TryParseBoolean(raw); ok {
			return table.NewBooleanValue(v)
		}
		return table.NewMissingValue()
	case table.ValueTypeTimestamp:
		if v, ok := c.TryParseTimestamp(raw); ok {
			return table.NewTimestampValue(v)
		}
		return table.NewMissingValue()
	default:
		return table.NewStringValue(raw)
	}
}

// CoerceAny converts values of unknown dynamic type (JSON, Parquet cells)
// to a typed Value without consulting a column recommendation
func (c *TypeCoercer) CoerceAny(raw interface{}) table.Value {
	switch v := raw.(type) {
	case nil:
		return table.NewMissingValue()
	case float64:
		return table.NewNumericValue(v)
	case float32:
		return table.NewNumericValue(float64(v))
	case int:
		return table.NewNumericValue(float64(v))
	case int32:
		return table.NewNumericValue(float64(v))
	case int64:
		return table.NewNumericValue(float64(v))
	case bool:
		return table.NewBooleanValue(v)
	case time.Time:
		return table.NewTimestampValue(v)
	case string:
		return table.NewStringValue(strings.TrimSpace(v))
	default:
		return table.NewStringValue(fmt.Sprintf("%v", raw))
	}
}

// AnalyzeTypeDistribution analyzes a sample of raw strings to determine the
// best type for a column
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}

	validCount := 0
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		validCount++
		if _, ok := c.TryParseNumeric(raw); ok {
			analysis.NumericCount++
		}
		if _, ok := c.TryParseBoolean(raw); ok {
			analysis.BooleanCount++
		}
		if _, ok := c.TryParseTimestamp(raw); ok {
			analysis.TimestampCount++
		}
	}

	analysis.ValidCount = validCount
	if validCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(validCount)
		analysis.BooleanRatio = float64(analysis.BooleanCount) / float64(validCount)
		analysis.TimestampRatio = float64(analysis.TimestampCount) / float64(validCount)
	}
	analysis.RecommendedType = c.determineRecommendedType(analysis)

	return analysis
}

// TryParseNumeric attempts to parse as numeric with strict rules.
// Handles parentheses negatives, currency symbols and thousands separators.
func (c *TypeCoercer) TryParseNumeric(strVal string) (float64, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	// Thousands separators: 1,234,567 or 1 234 567
	if strings.Contains(cleanVal, ",") && !strings.Contains(cleanVal, ".") {
		// A single trailing comma group of <= 2 digits is a European decimal
		commaIdx := strings.LastIndex(cleanVal, ",")
		if len(cleanVal)-commaIdx-1 <= 2 && strings.Count(cleanVal, ",") == 1 {
			cleanVal = strings.Replace(cleanVal, ",", ".", 1)
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		}
	} else {
		cleanVal = strings.ReplaceAll(cleanVal, ",", "")
	}
	cleanVal = strings.ReplaceAll(cleanVal, " ", "")

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	if val, err := strconv.ParseFloat(cleanVal, 64); err == nil {
		if !math.IsInf(val, 0) && !math.IsNaN(val) {
			return val, true
		}
	}
	return 0, false
}

// TryParseBoolean attempts to parse as boolean with strict rules
func (c *TypeCoercer) TryParseBoolean(strVal string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(strVal)) {
	case "true", "yes", "y", "on":
		return true, true
	case "false", "no", "n", "off":
		return false, true
	}
	return false, false
}

// TryParseTimestamp attempts to parse as timestamp with multiple formats
func (c *TypeCoercer) TryParseTimestamp(strVal string) (time.Time, bool) {
	strVal = strings.TrimSpace(strVal)
	if strVal == "" {
		return time.Time{}, false
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, strVal); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// determineRecommendedType chooses the best type based on analysis, most
// restrictive first
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) table.ValueType {
	if analysis.ValidCount == 0 {
		return table.ValueTypeString
	}
	if analysis.BooleanRatio >= c.config.BooleanThreshold {
		return table.ValueTypeBoolean
	}
	if analysis.NumericRatio >= c.config.NumericThreshold {
		return table.ValueTypeNumeric
	}
	if analysis.TimestampRatio >= c.config.TimestampThreshold {
		return table.ValueTypeTimestamp
	}
	return table.ValueTypeString
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int             `json:"total_count"`
	ValidCount      int             `json:"valid_count"`
	NumericCount    int             `json:"numeric_count"`
	BooleanCount    int             `json:"boolean_count"`
	TimestampCount  int             `json:"timestamp_count"`
	NumericRatio    float64         `json:"numeric_ratio"`
	BooleanRatio    float64         `json:"boolean_ratio"`
	TimestampRatio  float64         `json:"timestamp_ratio"`
	RecommendedType table.ValueType `json:"recommended_type"`
}
