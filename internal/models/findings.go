package models

import "time"

// Severity represents the impact level of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// Category groups rules into the four fixed report sections.
// Report order is: Development, Image Management, Cluster Setup,
// Disaster Recovery.
type Category string

const (
	CategoryDevelopment      Category = "DEVELOPMENT"
	CategoryImageManagement  Category = "IMAGE_MANAGEMENT"
	CategoryClusterSetup     Category = "CLUSTER_SETUP"
	CategoryDisasterRecovery Category = "DISASTER_RECOVERY"
)

// Categories lists all categories in fixed report order.
var Categories = []Category{
	CategoryDevelopment,
	CategoryImageManagement,
	CategoryClusterSetup,
	CategoryDisasterRecovery,
}

// ResourceKind identifies the kind of cluster or Azure resource a finding
// refers to.
type ResourceKind string

const (
	KindNamespace          ResourceKind = "NAMESPACE"
	KindPod                ResourceKind = "POD"
	KindDeployment         ResourceKind = "DEPLOYMENT"
	KindService            ResourceKind = "SERVICE"
	KindConfigMap          ResourceKind = "CONFIGMAP"
	KindSecret             ResourceKind = "SECRET"
	KindHPA                ResourceKind = "HORIZONTAL_POD_AUTOSCALER"
	KindConstraintTemplate ResourceKind = "CONSTRAINT_TEMPLATE"
	KindNodePool           ResourceKind = "NODE_POOL"
	KindContainerRegistry  ResourceKind = "CONTAINER_REGISTRY"
	KindCluster            ResourceKind = "CLUSTER"
)

// ResourceRef identifies a concrete object a finding is scoped to.
// Namespace is empty for cluster-scoped kinds. ResourceRefs are used only
// for attribution and are never mutated after creation.
type ResourceRef struct {
	Kind      ResourceKind `json:"kind"`
	Namespace string       `json:"namespace,omitempty"`
	Name      string       `json:"name"`
}

// String renders the ref as "namespace/name", or just "name" for
// cluster-scoped objects.
func (r ResourceRef) String() string {
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "/" + r.Name
}

// Finding is a single detected best-practice violation.
// It is the atomic output unit of the rule engine. Findings are produced,
// never mutated, and have no identity beyond their content: two rules may
// legitimately emit equal findings and the reporter does not deduplicate.
type Finding struct {
	ID             string         `json:"id"`
	RuleID         string         `json:"rule_id"`
	Category       Category       `json:"category"`
	Severity       Severity       `json:"severity"`
	ClusterScoped  bool           `json:"cluster_scoped"`
	Resource       *ResourceRef   `json:"resource,omitempty"`
	Message        string         `json:"message"`
	Recommendation string         `json:"recommendation"`
	DetectedAt     time.Time      `json:"detected_at"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Scope returns the human-locatable scope string for the finding:
// the resource ref for scoped findings, "cluster" otherwise.
func (f Finding) Scope() string {
	if f.Resource != nil {
		return f.Resource.String()
	}
	return "cluster"
}

// AuditSummary aggregates counts across all findings.
type AuditSummary struct {
	TotalFindings    int              `json:"total_findings"`
	CriticalFindings int              `json:"critical_findings"`
	WarningFindings  int              `json:"warning_findings"`
	InfoFindings     int              `json:"info_findings"`
	ByCategory       map[Category]int `json:"by_category,omitempty"`
}

// AuditReport is the top-level output of an audit run.
type AuditReport struct {
	ReportID      string         `json:"report_id"`
	GeneratedAt   time.Time      `json:"generated_at"`
	ClusterName   string         `json:"cluster_name"`
	ResourceGroup string         `json:"resource_group"`
	Summary       AuditSummary   `json:"summary"`
	Findings      []Finding      `json:"findings"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}
