package report

import (
	"fmt"
	"strings"
	"time"

	"datastudio/internal/eda"
)

// Meta carries the dataset facts the report needs
type Meta struct {
	SourceType  string
	RawRows     int
	RawColumns  int
	CleanRows   int
	CleanCols   int
	Columns     []string
	Notes       []string // ingestion notes
	ProcessLog  []string // cleaning log lines
	GeneratedAt time.Time
}

// Build renders the markdown analysis report. Pure function: identical
// inputs (including GeneratedAt) produce byte-identical output.
func Build(meta Meta, summary []eda.ColumnSummary) string {
	var sb strings.Builder

	sb.WriteString("# Automated Data Analysis Report\n\n")
	fmt.Fprintf(&sb, "Generated: **%s**\n", meta.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&sb, "Source format: **%s**\n\n", strings.ToUpper(meta.SourceType))

	sb.WriteString("## 1) Dataset Overview\n")
	fmt.Fprintf(&sb, "- Raw shape: `%d rows x %d columns`\n", meta.RawRows, meta.RawColumns)
	fmt.Fprintf(&sb, "- Cleaned shape: `%d rows x %d columns`\n", meta.CleanRows, meta.CleanCols)
	fmt.Fprintf(&sb, "- Columns: `%s`\n\n", strings.Join(meta.Columns, ", "))

	sb.WriteString("## 2) Ingestion Notes\n")
	if len(meta.Notes) > 0 {
		for _, note := range meta.Notes {
			fmt.Fprintf(&sb, "- %s\n", note)
		}
	} else {
		sb.WriteString("- No ingestion warnings.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## 3) Processing Steps\n")
	if len(meta.ProcessLog) > 0 {
		for _, line := range meta.ProcessLog {
			fmt.Fprintf(&sb, "- %s\n", line)
		}
	} else {
		sb.WriteString("- No explicit transformations were needed.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## 4) Numeric Summary\n")
	if len(summary) > 0 {
		sb.WriteString("\n")
		writeSummaryTable(&sb, summary)
	} else {
		sb.WriteString("- No numeric columns available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## 5) Recommended Next Actions\n")
	sb.WriteString("- Validate business rules and domain constraints for key variables.\n")
	sb.WriteString("- Review top correlated features and assess causality before using them in models.\n")
	sb.WriteString("- Consider exporting cleaned data to cloud storage for team collaboration.\n")

	return sb.String()
}

func writeSummaryTable(sb *strings.Builder, summary []eda.ColumnSummary) {
	sb.WriteString("| column | count | mean | std | min | 25% | 50% | 75% | max |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, s := range summary {
		fmt.Fprintf(sb, "| %s | %d | %s | %s | %s | %s | %s | %s | %s |\n",
			s.Column, s.Count,
			num(s.Mean), num(s.StdDev), num(s.Min),
			num(s.Q25), num(s.Median), num(s.Q75), num(s.Max))
	}
}

func num(v float64) string {
	return fmt.Sprintf("%.6g", v)
}
