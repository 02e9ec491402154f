package policy

import (
	"fmt"
	"strings"
)

// validCategories is the set of recognised category names in the policy file.
var validCategories = map[string]struct{}{
	"development":       {},
	"image_management":  {},
	"cluster_setup":     {},
	"disaster_recovery": {},
}

// validSeverities is the set of allowed severity strings (upper-case canonical form).
var validSeverities = map[string]struct{}{
	"CRITICAL": {},
	"WARNING":  {},
	"INFO":     {},
}

const (
	categoryHint = "valid values: development, image_management, cluster_setup, disaster_recovery"
	severityHint = "valid values: CRITICAL, WARNING, INFO"
)

// Validate checks cfg for semantic correctness and returns all validation
// errors found. An empty slice means the config is valid.
//
// Checks performed:
//   - version must be 1
//   - category names must be known
//   - rule IDs must appear in availableRuleIDs
//   - rule severity overrides must be valid severity values if set
//   - enforcement category names must be known
//   - enforcement fail_on_severity must be a valid severity value if set
//
// All errors are collected before returning; Validate never stops at the
// first error.
func Validate(cfg *Config, availableRuleIDs []string) []error {
	if cfg == nil {
		return []error{fmt.Errorf("policy config is nil")}
	}

	knownIDs := make(map[string]struct{}, len(availableRuleIDs))
	for _, id := range availableRuleIDs {
		knownIDs[id] = struct{}{}
	}

	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	for name := range cfg.Categories {
		if _, ok := validCategories[name]; !ok {
			errs = append(errs, fmt.Errorf("categories.%s: unknown category; %s", name, categoryHint))
		}
	}

	for ruleID, rcfg := range cfg.Rules {
		if _, ok := knownIDs[ruleID]; !ok {
			errs = append(errs, fmt.Errorf("rules.%s: unknown rule ID", ruleID))
		}
		if rcfg.Severity != "" {
			upper := strings.ToUpper(rcfg.Severity)
			if _, ok := validSeverities[upper]; !ok {
				errs = append(errs, fmt.Errorf("rules.%s.severity: invalid value %q; %s", ruleID, rcfg.Severity, severityHint))
			}
		}
	}

	for name, enfCfg := range cfg.Enforcement {
		if _, ok := validCategories[name]; !ok {
			errs = append(errs, fmt.Errorf("enforcement.%s: unknown category; %s", name, categoryHint))
		}
		if enfCfg.FailOnSeverity != "" {
			upper := strings.ToUpper(enfCfg.FailOnSeverity)
			if _, ok := validSeverities[upper]; !ok {
				errs = append(errs, fmt.Errorf("enforcement.%s.fail_on_severity: invalid value %q; %s", name, enfCfg.FailOnSeverity, severityHint))
			}
		}
	}

	return errs
}
