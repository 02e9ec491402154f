package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "akscheck.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write policy file: %v", err)
	}
	return path
}

func TestLoad_FullPolicy(t *testing.T) {
	path := writePolicyFile(t, `
version: 1
categories:
  development:
    enabled: true
rules:
  AKS_POD_NO_STARTUP_PROBE:
    enabled: false
  AKS_FREE_SLA_TIER:
    severity: CRITICAL
enforcement:
  cluster_setup:
    fail_on_severity: CRITICAL
tagging:
  required_labels: [app, team]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d; want 1", cfg.Version)
	}
	rc, ok := cfg.Rules["AKS_POD_NO_STARTUP_PROBE"]
	if !ok || rc.Enabled == nil || *rc.Enabled {
		t.Errorf("rules.AKS_POD_NO_STARTUP_PROBE = %+v; want enabled=false", rc)
	}
	if cfg.Rules["AKS_FREE_SLA_TIER"].Severity != "CRITICAL" {
		t.Errorf("severity override not parsed")
	}
	if cfg.Enforcement["cluster_setup"].FailOnSeverity != "CRITICAL" {
		t.Errorf("enforcement not parsed")
	}
	if len(cfg.Tagging.RequiredLabels) != 2 || cfg.Tagging.RequiredLabels[1] != "team" {
		t.Errorf("tagging.required_labels = %v; want [app team]", cfg.Tagging.RequiredLabels)
	}
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	path := writePolicyFile(t, "version: 2\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InitialisesEmptyMaps(t *testing.T) {
	path := writePolicyFile(t, "version: 1\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Categories == nil || cfg.Rules == nil || cfg.Enforcement == nil {
		t.Error("maps must be initialised for a minimal policy")
	}
}
