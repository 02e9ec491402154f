package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/akscheck/akscheck/internal/models"
)

// ANSI color codes for severity output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiYellow  = "\033[0;33m"
	ansiBlue    = "\033[0;34m"
)

// TableOptions controls how RenderTable renders findings.
type TableOptions struct {
	// Colored wraps severity labels with ANSI codes. Default false (CI-safe).
	Colored bool
}

// categoryTitles maps categories to their report section headings, in the
// fixed models.Categories order.
var categoryTitles = map[models.Category]string{
	models.CategoryDevelopment:      "Development",
	models.CategoryImageManagement:  "Image Management",
	models.CategoryClusterSetup:     "Cluster Setup",
	models.CategoryDisasterRecovery: "Disaster Recovery",
}

// ColorSeverity wraps a severity string with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorSeverity(sev models.Severity, colored bool) string {
	s := string(sev)
	if !colored {
		return s
	}
	switch sev {
	case models.SeverityCritical:
		return ansiBoldRed + s + ansiReset
	case models.SeverityWarning:
		return ansiYellow + s + ansiReset
	case models.SeverityInfo:
		return ansiBlue + s + ansiReset
	default:
		return s
	}
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// severityCell returns the severity padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned regardless of terminal ANSI support.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := string(sev)
	if !colored {
		return fmt.Sprintf("%-*s", width, text)
	}
	var code string
	switch sev {
	case models.SeverityCritical:
		code = ansiBoldRed
	case models.SeverityWarning:
		code = ansiYellow
	case models.SeverityInfo:
		code = ansiBlue
	default:
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max bytes for ID/label columns.
// A single-char ellipsis replaces the last byte when truncation occurs.
func truncateField(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// RenderTable writes the findings table to w, one section per category in
// the fixed report order. Findings are printed in the order received; the
// engine already fixed it, so rendering never re-sorts.
//
// Column order per section:
//
//	SCOPE  SEVERITY  RULE  MESSAGE
func RenderTable(w io.Writer, findings []models.Finding, opts TableOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No findings.")
		return
	}

	// Fixed column display widths.
	const (
		wScope    = 40
		wSeverity = 10
		wRule     = 34
		wMessage  = 70
	)

	header := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s",
		wScope, "SCOPE", wSeverity, "SEVERITY", wRule, "RULE", wMessage, "MESSAGE")

	for _, cat := range models.Categories {
		var section []models.Finding
		for _, f := range findings {
			if f.Category == cat {
				section = append(section, f)
			}
		}
		if len(section) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n== %s (%d) ==\n", categoryTitles[cat], len(section))
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, strings.Repeat("-", len(header)))

		for _, f := range section {
			var rb strings.Builder
			rb.WriteString(fmt.Sprintf("%-*s", wScope, truncateField(f.Scope(), wScope)))
			rb.WriteString("  " + severityCell(f.Severity, wSeverity, opts.Colored))
			rb.WriteString(fmt.Sprintf("  %-*s", wRule, truncateField(f.RuleID, wRule)))
			rb.WriteString(fmt.Sprintf("  %-*s", wMessage, ShortenMessage(f.Message, wMessage)))
			fmt.Fprintln(w, rb.String())
		}
	}
}

// RenderSummary writes the aggregate severity and category counts to w.
func RenderSummary(w io.Writer, report *models.AuditReport, colored bool) {
	s := report.Summary
	fmt.Fprintf(w, "\nCluster %q (%s): %d finding(s)\n",
		report.ClusterName, report.ResourceGroup, s.TotalFindings)
	fmt.Fprintf(w, "  %s: %d  %s: %d  %s: %d\n",
		ColorSeverity(models.SeverityCritical, colored), s.CriticalFindings,
		ColorSeverity(models.SeverityWarning, colored), s.WarningFindings,
		ColorSeverity(models.SeverityInfo, colored), s.InfoFindings)
	for _, cat := range models.Categories {
		if n := s.ByCategory[cat]; n > 0 {
			fmt.Fprintf(w, "  %s: %d\n", categoryTitles[cat], n)
		}
	}
}
