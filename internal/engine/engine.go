package engine

import (
	"context"

	"github.com/akscheck/akscheck/internal/models"
)

// ReportFormat controls the CLI output format.
type ReportFormat string

const (
	ReportFormatJSON  ReportFormat = "json"
	ReportFormatTable ReportFormat = "table"
)

// AuditOptions configures a single audit run.
// It is the sole input to Engine.RunAudit.
type AuditOptions struct {
	// ResourceGroup and ClusterName identify the AKS cluster to audit.
	ResourceGroup string
	ClusterName   string

	// RegistryNames lists the container registries to include in the
	// image management checks. Empty means no registry checks run.
	RegistryNames []string

	// IgnoreNamespaces lists namespaces excluded from evaluation.
	IgnoreNamespaces []string

	// RequiredLabels overrides the tagging convention checked by the
	// label-consistency rule. Empty means the built-in default.
	RequiredLabels []string

	// ReportFormat controls how the CLI renders the returned report.
	ReportFormat ReportFormat
}

// Engine is the central orchestration interface.
// It coordinates provider collection, rule evaluation, and policy filtering,
// returning a fully populated AuditReport. Engine implementations must not
// call the Azure SDK or Kubernetes API directly; they delegate to the
// injected collector interfaces.
type Engine interface {
	RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error)
}

// ClusterDetailsCollector fetches AKS control-plane configuration from the
// Azure Resource Manager API. The interface is defined here (engine layer)
// so the engine remains independent of the Azure provider implementation;
// callers inject the concrete collector.
type ClusterDetailsCollector interface {
	CollectClusterDetails(ctx context.Context, resourceGroup, clusterName string) (*models.ClusterDetails, error)
}

// RegistryCollector fetches container registry configuration for the named
// registries. Nil disables registry collection; the registry rules then see
// an empty registry list.
type RegistryCollector interface {
	CollectRegistries(ctx context.Context, names []string) ([]models.RegistryDetails, error)
}

// ClusterResourceCollector builds the in-cluster half of the inventory from
// the Kubernetes API.
type ClusterResourceCollector interface {
	CollectClusterResources(ctx context.Context) (*models.Inventory, error)
}
