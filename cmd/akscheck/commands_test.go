package main

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/akscheck/akscheck/internal/models"
)

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(name, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestBuildRegistry_AllRulesRegistered(t *testing.T) {
	// Registering a duplicate ID panics, so constructing the registry is
	// itself the uniqueness check.
	all := buildRegistry(nil).All()
	if len(all) != 25 {
		t.Errorf("registered rules = %d; want 25", len(all))
	}

	// Rules report in pack order: development first, disaster recovery last.
	if first := all[0].ID(); !strings.HasPrefix(first, "AKS_POD_") {
		t.Errorf("first rule = %s; want a development pod rule", first)
	}
	if last := all[len(all)-1].ID(); last != "AKS_NO_VELERO" {
		t.Errorf("last rule = %s; want AKS_NO_VELERO", last)
	}
}

func TestAllRuleIDs_KnownIDs(t *testing.T) {
	ids := allRuleIDs()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, want := range []string{
		"AKS_POD_NO_LIVENESS_PROBE",
		"AKS_ACR_NO_ACRPULL",
		"AKS_NO_MANAGED_AAD",
		"AKS_FREE_SLA_TIER",
	} {
		if !seen[want] {
			t.Errorf("missing rule ID %s", want)
		}
	}
}

func TestLoadPolicy_DefaultAbsent(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := loadPolicy("")
	if err != nil || cfg != nil {
		t.Errorf("loadPolicy(\"\") = %v, %v; absent default file must be a no-op", cfg, err)
	}
}

func TestLoadPolicy_DefaultPresent(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "akscheck.yaml", "version: 1\ntagging:\n  required_labels: [team]\n")

	cfg, err := loadPolicy("")
	if err != nil {
		t.Fatalf("loadPolicy: %v", err)
	}
	if cfg == nil || len(cfg.Tagging.RequiredLabels) != 1 {
		t.Errorf("cfg = %+v; want tagging labels loaded", cfg)
	}
}

func TestLoadPolicy_InvalidIsFatal(t *testing.T) {
	t.Chdir(t.TempDir())
	writeFile(t, "bad.yaml", "version: 1\nrules:\n  AKS_NO_SUCH_RULE: {}\n")

	if _, err := loadPolicy("bad.yaml"); err == nil {
		t.Fatal("expected error for policy referencing an unknown rule")
	}
}

func TestPrintJSON_WritesToGivenWriter(t *testing.T) {
	report := &models.AuditReport{ReportID: "aks-1", ClusterName: "prod-aks"}

	var sb strings.Builder
	if err := printJSON(&sb, report); err != nil {
		t.Fatalf("printJSON: %v", err)
	}

	var decoded models.AuditReport
	if err := json.Unmarshal([]byte(sb.String()), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.ReportID != "aks-1" || decoded.ClusterName != "prod-aks" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestVersionCmd(t *testing.T) {
	cmd := newRootCmd()
	var sb strings.Builder
	cmd.SetOut(&sb)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute version: %v", err)
	}
	if !strings.Contains(sb.String(), "akscheck version") {
		t.Errorf("output = %q", sb.String())
	}
}
