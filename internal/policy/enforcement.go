package policy

import (
	"strings"

	"github.com/akscheck/akscheck/internal/models"
)

// severityRank orders severities for threshold comparison
// (CRITICAL (3) > WARNING (2) > INFO (1)).
var severityRank = map[models.Severity]int{
	models.SeverityCritical: 3,
	models.SeverityWarning:  2,
	models.SeverityInfo:     1,
}

// ShouldFail reports whether any finding has a severity at or above the
// configured fail_on_severity threshold for its category. Without a policy,
// or without an enforcement block, the audit always exits zero no matter how
// many findings it reports.
func ShouldFail(findings []models.Finding, cfg *Config) bool {
	if cfg == nil || len(cfg.Enforcement) == 0 {
		return false
	}
	for _, f := range findings {
		enfCfg, ok := cfg.Enforcement[categoryKey[f.Category]]
		if !ok || enfCfg.FailOnSeverity == "" {
			continue
		}
		threshold, ok := severityRank[models.Severity(strings.ToUpper(enfCfg.FailOnSeverity))]
		if !ok {
			continue
		}
		if r, ok := severityRank[f.Severity]; ok && r >= threshold {
			return true
		}
	}
	return false
}
