package policy

// Config is the parsed policy file. It tunes which categories and rules are
// active, overrides severities, and optionally configures enforcement and
// the cluster tagging convention. A nil *Config means "no policy": every
// rule runs with its built-in severity and the audit never fails the process.
type Config struct {
	Version     int                          `yaml:"version"`
	Categories  map[string]CategoryConfig    `yaml:"categories"`
	Rules       map[string]RuleConfig        `yaml:"rules"`
	Enforcement map[string]EnforcementConfig `yaml:"enforcement"`
	Tagging     TaggingConfig                `yaml:"tagging"`
}

// CategoryConfig enables or disables a whole report category.
type CategoryConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// RuleConfig tunes a single rule by ID.
type RuleConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Severity string `yaml:"severity,omitempty"`
}

// EnforcementConfig makes the audit exit non-zero when findings at or above
// the threshold severity remain in a category after filtering.
type EnforcementConfig struct {
	FailOnSeverity string `yaml:"fail_on_severity,omitempty"`
}

// TaggingConfig overrides the label keys the consistency rule requires on
// every namespace-scoped object.
type TaggingConfig struct {
	RequiredLabels []string `yaml:"required_labels,omitempty"`
}
