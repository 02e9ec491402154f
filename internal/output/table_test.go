package output

import (
	"strings"
	"testing"

	"github.com/akscheck/akscheck/internal/models"
)

func TestColorSeverity(t *testing.T) {
	if got := ColorSeverity(models.SeverityCritical, false); got != "CRITICAL" {
		t.Errorf("uncolored = %q; want plain CRITICAL", got)
	}
	got := ColorSeverity(models.SeverityCritical, true)
	if !strings.HasPrefix(got, ansiBoldRed) || !strings.HasSuffix(got, ansiReset) {
		t.Errorf("colored CRITICAL = %q; want bold red wrapping", got)
	}
	if got := ColorSeverity(models.SeverityWarning, true); !strings.HasPrefix(got, ansiYellow) {
		t.Errorf("colored WARNING = %q; want yellow", got)
	}
	if got := ColorSeverity(models.SeverityInfo, true); !strings.HasPrefix(got, ansiBlue) {
		t.Errorf("colored INFO = %q; want blue", got)
	}
}

func TestShortenMessage(t *testing.T) {
	if got := ShortenMessage("short", 70); got != "short" {
		t.Errorf("ShortenMessage(short) = %q", got)
	}
	long := strings.Repeat("x", 80)
	got := ShortenMessage(long, 70)
	if len([]rune(got)) != 70 || !strings.HasSuffix(got, "...") {
		t.Errorf("ShortenMessage(long, 70) = %q (len %d)", got, len([]rune(got)))
	}
}

func TestSeverityCell_PaddingOutsideANSI(t *testing.T) {
	cell := severityCell(models.SeverityInfo, 10, true)
	if !strings.HasSuffix(cell, ansiReset+strings.Repeat(" ", 6)) {
		t.Errorf("cell = %q; padding must follow the reset code", cell)
	}
	plain := severityCell(models.SeverityInfo, 10, false)
	if plain != "INFO      " {
		t.Errorf("plain cell = %q", plain)
	}
}

func TestRenderTable_NoFindings(t *testing.T) {
	var sb strings.Builder
	RenderTable(&sb, nil, TableOptions{})
	if strings.TrimSpace(sb.String()) != "No findings." {
		t.Errorf("output = %q", sb.String())
	}
}

func TestRenderTable_SectionsInFixedOrder(t *testing.T) {
	findings := []models.Finding{
		{
			RuleID:   "AKS_FREE_SLA_TIER",
			Category: models.CategoryDisasterRecovery,
			Severity: models.SeverityWarning,
			Message:  "Cluster uses the Free SLA tier",
		},
		{
			RuleID:   "AKS_POD_NO_LIVENESS_PROBE",
			Category: models.CategoryDevelopment,
			Severity: models.SeverityWarning,
			Resource: &models.ResourceRef{Kind: models.KindPod, Namespace: "app", Name: "web-1"},
			Message:  "Container web has no liveness probe",
		},
	}

	var sb strings.Builder
	RenderTable(&sb, findings, TableOptions{})
	out := sb.String()

	dev := strings.Index(out, "== Development (1) ==")
	dr := strings.Index(out, "== Disaster Recovery (1) ==")
	if dev == -1 || dr == -1 {
		t.Fatalf("missing section headings in output:\n%s", out)
	}
	if dev > dr {
		t.Error("Development section must precede Disaster Recovery regardless of input order")
	}
	if strings.Contains(out, "== Image Management") {
		t.Error("empty categories must not render a section")
	}
	if !strings.Contains(out, "app/web-1") {
		t.Error("scoped finding must render namespace/name")
	}
	if !strings.Contains(out, "cluster") {
		t.Error("cluster-scoped finding must render the cluster scope")
	}
}

func TestRenderSummary(t *testing.T) {
	report := &models.AuditReport{
		ClusterName:   "prod-aks",
		ResourceGroup: "prod-rg",
		Summary: models.AuditSummary{
			TotalFindings:    3,
			CriticalFindings: 1,
			WarningFindings:  2,
			ByCategory: map[models.Category]int{
				models.CategoryDevelopment:  2,
				models.CategoryClusterSetup: 1,
			},
		},
	}

	var sb strings.Builder
	RenderSummary(&sb, report, false)
	out := sb.String()

	for _, want := range []string{`"prod-aks"`, "prod-rg", "3 finding(s)", "CRITICAL: 1", "WARNING: 2", "Development: 2", "Cluster Setup: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Image Management") {
		t.Error("zero-count categories must be omitted")
	}
}
