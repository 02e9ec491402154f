package rules

import (
	"fmt"
	"log/slog"

	"github.com/akscheck/akscheck/internal/models"
)

// DefaultRuleRegistry is a simple, ordered, in-memory registry.
// Rules are evaluated in registration order, which fixes the report order.
// Register panics on duplicate rule IDs to catch wiring mistakes at startup.
type DefaultRuleRegistry struct {
	rules []Rule
	index map[string]struct{}
}

// NewDefaultRuleRegistry returns an empty registry ready for rule registration.
func NewDefaultRuleRegistry() *DefaultRuleRegistry {
	return &DefaultRuleRegistry{
		index: make(map[string]struct{}),
	}
}

// Register adds rule to the registry. Panics if the same ID is registered twice.
func (r *DefaultRuleRegistry) Register(rule Rule) {
	if _, exists := r.index[rule.ID()]; exists {
		panic(fmt.Sprintf("duplicate rule ID: %q", rule.ID()))
	}
	r.rules = append(r.rules, rule)
	r.index[rule.ID()] = struct{}{}
}

// All returns all registered rules in registration order.
func (r *DefaultRuleRegistry) All() []Rule {
	return r.rules
}

// EvaluateAll runs every registered rule against ctx and returns the merged
// findings slice in registration order.
//
// Rules whose required capabilities are absent from the inventory are
// skipped silently. A rule that panics is isolated: the panic is logged,
// the rule contributes no findings, and evaluation proceeds to the next
// rule. No rule ever observes another rule's findings.
func (r *DefaultRuleRegistry) EvaluateAll(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, rule := range r.rules {
		if skip(rule, ctx.Inventory) {
			continue
		}
		findings = append(findings, evaluateIsolated(rule, ctx)...)
	}
	return findings
}

// skip reports whether a required optional capability is missing.
func skip(rule Rule, inv *models.Inventory) bool {
	if inv == nil {
		return false
	}
	for _, c := range rule.Requires() {
		if !inv.Has(c) {
			return true
		}
	}
	return false
}

// evaluateIsolated invokes a single rule, converting a panic into an empty
// result so one broken rule cannot abort the run.
func evaluateIsolated(rule Rule, ctx RuleContext) (findings []models.Finding) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("rule evaluation failed", "rule", rule.ID(), "panic", rec)
			findings = nil
		}
	}()
	return rule.Evaluate(ctx)
}
