package policy

import (
	"strings"

	"github.com/akscheck/akscheck/internal/models"
)

// categoryKey maps the report category constants to the lowercase names used
// in the policy file.
var categoryKey = map[models.Category]string{
	models.CategoryDevelopment:      "development",
	models.CategoryImageManagement:  "image_management",
	models.CategoryClusterSetup:     "cluster_setup",
	models.CategoryDisasterRecovery: "disaster_recovery",
}

// Apply filters and rewrites findings according to cfg. Findings from
// disabled categories or disabled rules are dropped; severity overrides are
// rewritten. The relative order of surviving findings is preserved. A nil
// cfg returns findings unchanged.
func Apply(findings []models.Finding, cfg *Config) []models.Finding {
	if cfg == nil {
		return findings
	}

	var result []models.Finding
	for _, f := range findings {
		if cat, ok := cfg.Categories[categoryKey[f.Category]]; ok {
			if cat.Enabled != nil && !*cat.Enabled {
				continue
			}
		}

		ruleCfg, hasRule := cfg.Rules[f.RuleID]
		if hasRule && ruleCfg.Enabled != nil && !*ruleCfg.Enabled {
			continue
		}
		if hasRule && ruleCfg.Severity != "" {
			f.Severity = models.Severity(strings.ToUpper(ruleCfg.Severity))
		}

		result = append(result, f)
	}
	return result
}
