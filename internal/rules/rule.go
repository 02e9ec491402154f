package rules

import (
	"github.com/akscheck/akscheck/internal/models"
)

// RuleContext carries all collected data for a single audit run.
// It is the sole input to Rule.Evaluate and must contain everything a rule
// needs. The inventory has already been namespace-filtered by the engine;
// rules must never re-apply or bypass the filter, and must never mutate
// the inventory.
type RuleContext struct {
	// Inventory is the immutable, filtered resource snapshot.
	Inventory *models.Inventory

	// Config holds the run configuration (required labels, registry
	// names). May be nil; rules must treat nil as "use defaults".
	Config *models.AuditConfig
}

// inventory returns the context's inventory, substituting an empty one when
// absent so rules degrade to "no findings" instead of panicking.
func (c RuleContext) inventory() *models.Inventory {
	if c.Inventory == nil {
		return &models.Inventory{}
	}
	return c.Inventory
}

// RequiredLabels returns the configured tagging convention, falling back to
// the default when no config is present.
func (c RuleContext) RequiredLabels() []string {
	if c.Config != nil && len(c.Config.RequiredLabels) > 0 {
		return c.Config.RequiredLabels
	}
	return models.DefaultRequiredLabels
}

// Rule is a single deterministic best-practice check.
// Rules must be stateless and produce no observable side effect beyond the
// returned findings. The one sanctioned exception is the registry RBAC rule,
// which performs one injected verification call per registry and degrades
// to a WARNING finding when a call cannot complete.
type Rule interface {
	// ID returns the unique, stable identifier for this rule
	// (e.g. "AKS_POD_NO_LIVENESS_PROBE").
	ID() string

	// Name returns a short human-readable rule name.
	Name() string

	// Category returns the report section this rule belongs to.
	Category() models.Category

	// Requires lists the optional resource capabilities this rule needs.
	// The registry skips the rule entirely — no findings, no error — when
	// any required capability is absent from the inventory.
	Requires() []models.Capability

	// Evaluate inspects the provided context and returns zero or more
	// findings. An empty slice means no issue was detected.
	Evaluate(ctx RuleContext) []models.Finding
}

// RuleRegistry manages the set of active rules and drives evaluation.
type RuleRegistry interface {
	// Register adds a rule to the registry. Panics on duplicate ID.
	Register(rule Rule)

	// All returns all registered rules in registration order.
	All() []Rule

	// EvaluateAll runs every registered rule against ctx and merges
	// results in registration order.
	EvaluateAll(ctx RuleContext) []models.Finding
}
