package policy

import (
	"strings"
	"testing"
)

var knownRules = []string{"AKS_POD_NO_LIVENESS_PROBE", "AKS_FREE_SLA_TIER"}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		Version:    1,
		Categories: map[string]CategoryConfig{"development": {}},
		Rules: map[string]RuleConfig{
			"AKS_FREE_SLA_TIER": {Severity: "critical"},
		},
		Enforcement: map[string]EnforcementConfig{
			"cluster_setup": {FailOnSeverity: "CRITICAL"},
		},
	}
	if errs := Validate(cfg, knownRules); len(errs) != 0 {
		t.Errorf("expected no errors; got %v", errs)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Version:    2,
		Categories: map[string]CategoryConfig{"networking": {}},
		Rules: map[string]RuleConfig{
			"AKS_UNKNOWN_RULE":  {},
			"AKS_FREE_SLA_TIER": {Severity: "HIGH"},
		},
		Enforcement: map[string]EnforcementConfig{
			"development": {FailOnSeverity: "FATAL"},
		},
	}

	errs := Validate(cfg, knownRules)
	if len(errs) != 5 {
		t.Fatalf("expected 5 errors (version, category, rule ID, severity, enforcement severity); got %d: %v", len(errs), errs)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	errs := Validate(nil, knownRules)
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), "nil") {
		t.Errorf("expected single nil-config error; got %v", errs)
	}
}
