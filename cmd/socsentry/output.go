package main

// ---------------------------------------------------------------------------
// output.go — format flag, table rendering, detection result printing
// ---------------------------------------------------------------------------

import (
	"fmt"
	"io"
	"strings"

	"github.com/socsentry-project/socsentry/internal/core"
)

// OutputFormat enumerates supported output formats.
type OutputFormat int

const (
	FormatTable OutputFormat = iota
	FormatJSON
)

// parseFormat converts a --format string to an OutputFormat.
func parseFormat(s string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatTable
}

// ---------------------------------------------------------------------------
// Table renderer — auto-sized columns
// ---------------------------------------------------------------------------

// Table renders aligned tables to a writer.
type Table struct {
	headers []string
	rows    [][]string
	w       io.Writer
}

// NewTable creates a table with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{headers: headers, w: w}
}

// AddRow appends a row. Values are matched positionally to headers.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		}
	}
	t.rows = append(t.rows, row)
}

// Render writes the table with aligned columns.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var sb strings.Builder
	for i, h := range t.headers {
		fmt.Fprintf(&sb, "%-*s  ", widths[i], h)
	}
	fmt.Fprintln(t.w, bold(strings.TrimRight(sb.String(), " ")))

	sb.Reset()
	for i := range t.headers {
		sb.WriteString(strings.Repeat("-", widths[i]) + "  ")
	}
	fmt.Fprintln(t.w, dim(strings.TrimRight(sb.String(), " ")))

	for _, row := range t.rows {
		sb.Reset()
		for i, cell := range row {
			fmt.Fprintf(&sb, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(t.w, strings.TrimRight(sb.String(), " "))
	}
}

// ---------------------------------------------------------------------------
// Detection result rendering
// ---------------------------------------------------------------------------

func colorStatus(status core.PhishingStatus) string {
	s := status.String()
	switch status {
	case core.StatusPhishing:
		return red(s)
	case core.StatusSuspicious:
		return yellow(s)
	default:
		return green(s)
	}
}

func colorSeverity(sev core.Severity) string {
	s := sev.String()
	switch sev {
	case core.SeverityCritical:
		return red(bold(s))
	case core.SeverityHigh:
		return red(s)
	case core.SeverityMedium:
		return magenta(s)
	case core.SeverityLow:
		return green(s)
	default:
		return yellow(s)
	}
}

func colorTier(tier core.RiskTier) string {
	s := tier.String()
	switch tier {
	case core.RiskCritical:
		return red(bold(s))
	case core.RiskHigh:
		return red(s)
	case core.RiskMedium:
		return yellow(s)
	default:
		return green(s)
	}
}

// printResult renders one detection result in the classic SOC console style.
func printResult(w io.Writer, result core.DetectionResult) {
	fmt.Fprintln(w, cyan("=== Detection Result ==="))
	fmt.Fprintf(w, "Status   : %s\n", colorStatus(result.Status))
	fmt.Fprintf(w, "Severity : %s\n", colorSeverity(result.Severity))
	if len(result.Reasons) > 0 {
		fmt.Fprintln(w, cyan("Reasons:"))
		for _, reason := range result.Reasons {
			fmt.Fprintf(w, "- %s\n", reason)
		}
	}
	fmt.Fprintln(w, dim(strings.Repeat("-", 60)))
}
