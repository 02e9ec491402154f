package models

import "time"

// Capability names an optional resource kind whose absence is a valid
// cluster state. Rules declare required capabilities; the engine skips a
// rule when a required capability is missing from the inventory.
type Capability string

// CapabilityConstraintTemplates is present when the Gatekeeper policy
// engine CRD is installed. "Installed but no templates" is distinct from
// "not installed": only the latter removes the capability.
const CapabilityConstraintTemplates Capability = "constraint_templates"

// Inventory is the normalized snapshot of all cluster and Azure resources
// collected for one audit run. It is fully populated before evaluation
// begins and must never be mutated afterward; every rule result is then
// reproducible given the same Inventory and AuditConfig, and evaluation
// order cannot cause divergence.
type Inventory struct {
	// CollectedAt is the snapshot timestamp. The engine stamps it onto
	// every finding so repeated evaluation of one inventory is
	// byte-identical.
	CollectedAt time.Time

	// ClusterDetails holds AKS control-plane attributes. Nil only in
	// partial test fixtures; collection always populates it.
	ClusterDetails *ClusterDetails

	// Namespace-scoped collections, in API list order.
	Namespaces  []NamespaceData
	Pods        []PodData
	Deployments []DeploymentData
	Services    []ServiceData
	ConfigMaps  []ConfigMapData
	Secrets     []SecretData
	HPAs        []HPAData

	// ConstraintTemplates lists installed Gatekeeper templates.
	// ConstraintTemplatesPresent tracks CRD availability separately from
	// emptiness: false means the policy engine is not installed and
	// dependent rules are skipped rather than failed.
	ConstraintTemplates        []ConstraintTemplateData
	ConstraintTemplatesPresent bool

	// Registries lists the container registries referenced by
	// configuration, pre-filtered upstream.
	Registries []RegistryDetails
}

// Has reports whether the named optional capability is present in this
// inventory.
func (inv *Inventory) Has(c Capability) bool {
	switch c {
	case CapabilityConstraintTemplates:
		return inv.ConstraintTemplatesPresent
	default:
		return false
	}
}

// AuditConfig carries the run configuration consumed by the engine and rules.
type AuditConfig struct {
	// ResourceGroup and ClusterName identify the AKS cluster. They are
	// used only to build the inventory, not by rule logic.
	ResourceGroup string
	ClusterName   string

	// RegistryNames lists the container registries to audit.
	RegistryNames []string

	// RequiredLabels lists the label keys every namespace-scoped object
	// is expected to carry. The label-consistency rule fires once per key
	// that is missing on at least one object.
	RequiredLabels []string
}

// DefaultRequiredLabels is the label key expected on every object when the
// policy file does not override the tagging convention.
var DefaultRequiredLabels = []string{"app"}
