package coerce

import (
	"testing"
	"time"

	"datastudio/domain/table"
)

func TestTryParseNumeric(t *testing.T) {
	c := New(DefaultConfig())
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"42", 42, true},
		{"3.14", 3.14, true},
		{"-17", -17, true},
		{"$1,234.56", 1234.56, true},
		{"€500", 500, true},
		{"(500)", -500, true},
		{"1,234,567", 1234567, true},
		{"1234,5", 1234.5, true},
		{"12%", 12, true},
		{"  99  ", 99, true},
		{"abc", 0, false},
		{"", 0, false},
		{"12abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := c.TryParseNumeric(tt.input)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("TryParseNumeric(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTryParseBoolean(t *testing.T) {
	c := New(DefaultConfig())
	truthy := []string{"true", "TRUE", "yes", "Y", "on"}
	falsy := []string{"false", "no", "n", "OFF"}
	for _, s := range truthy {
		if v, ok := c.TryParseBoolean(s); !ok || !v {
			t.Errorf("TryParseBoolean(%q) should be true", s)
		}
	}
	for _, s := range falsy {
		if v, ok := c.TryParseBoolean(s); !ok || v {
			t.Errorf("TryParseBoolean(%q) should be false", s)
		}
	}
	// Numeric 1/0 stay numeric, not boolean
	for _, s := range []string{"1", "0", "maybe", ""} {
		if _, ok := c.TryParseBoolean(s); ok {
			t.Errorf("TryParseBoolean(%q) should not parse", s)
		}
	}
}

func TestTryParseTimestamp(t *testing.T) {
	c := New(DefaultConfig())
	inputs := []string{
		"2024-01-15T10:30:00Z",
		"2024-01-15T10:30:00",
		"2024-01-15 10:30:00",
		"2024-01-15",
		"01/15/2024",
		"2024/01/15",
		"15-Jan-2024",
	}
	for _, s := range inputs {
		ts, ok := c.TryParseTimestamp(s)
		if !ok {
			t.Errorf("TryParseTimestamp(%q) failed", s)
			continue
		}
		if ts.Year() != 2024 || ts.Month() != time.January || ts.Day() != 15 {
			t.Errorf("TryParseTimestamp(%q) = %v, wrong date", s, ts)
		}
	}
	if _, ok := c.TryParseTimestamp("not a date"); ok {
		t.Error("garbage should not parse as timestamp")
	}
}

func TestAnalyzeTypeDistribution(t *testing.T) {
	c := New(DefaultConfig())

	tests := []struct {
		name   string
		values []string
		want   table.ValueType
	}{
		{"all numeric", []string{"1", "2", "3.5", "4"}, table.ValueTypeNumeric},
		{"numeric above threshold", []string{"1", "2", "3", "4", "x"}, table.ValueTypeNumeric},
		{"numeric below threshold", []string{"1", "2", "x", "y", "z"}, table.ValueTypeString},
		{"booleans", []string{"yes", "no", "yes", "no"}, table.ValueTypeBoolean},
		{"dates", []string{"2024-01-01", "2024-01-02", "2024-01-03"}, table.ValueTypeTimestamp},
		{"plain strings", []string{"red", "green", "blue"}, table.ValueTypeString},
		{"empty sample", nil, table.ValueTypeString},
		{"blanks ignored", []string{"", "", "5", "6"}, table.ValueTypeNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.AnalyzeTypeDistribution(tt.values)
			if got.RecommendedType != tt.want {
				t.Errorf("RecommendedType = %s, want %s (analysis: %+v)", got.RecommendedType, tt.want, got)
			}
		})
	}
}

func TestCoerceValueNonConformingBecomesMissing(t *testing.T) {
	c := New(DefaultConfig())
	v := c.CoerceValue("not-a-number", table.ValueTypeNumeric)
	if !v.IsMissing {
		t.Errorf("non-numeric cell in numeric column should be missing, got %+v", v)
	}
	v = c.CoerceValue("7.5", table.ValueTypeNumeric)
	if !v.IsNumeric() || v.AsFloat64() != 7.5 {
		t.Errorf("expected numeric 7.5, got %+v", v)
	}
	v = c.CoerceValue("   ", table.ValueTypeString)
	if !v.IsMissing {
		t.Error("whitespace-only cell should be missing")
	}
}

func TestCoerceAny(t *testing.T) {
	c := New(DefaultConfig())
	if v := c.CoerceAny(nil); !v.IsMissing {
		t.Error("nil should be missing")
	}
	if v := c.CoerceAny(int64(7)); !v.IsNumeric() || v.AsFloat64() != 7 {
		t.Errorf("int64 should coerce to numeric, got %+v", v)
	}
	if v := c.CoerceAny(true); !v.IsBoolean() {
		t.Errorf("bool should coerce to boolean, got %+v", v)
	}
	if v := c.CoerceAny(" padded "); v.AsString() != "padded" {
		t.Errorf("strings should be trimmed, got %q", v.AsString())
	}
}
