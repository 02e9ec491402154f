package rules

import (
	"fmt"

	"github.com/akscheck/akscheck/internal/models"
)

func clusterFinding(r Rule, sev models.Severity, id, message, recommendation string) models.Finding {
	return models.Finding{
		ID:             id,
		RuleID:         r.ID(),
		Category:       r.Category(),
		Severity:       sev,
		ClusterScoped:  true,
		Message:        message,
		Recommendation: recommendation,
	}
}

// ── AKS_NO_AUTHORIZED_IP_RANGES ──────────────────────────────────────────────

// NoAuthorizedIPRangesRule fires when the API server is public and no
// authorized IP ranges are configured. Private clusters are exempt: the
// API server is not internet-reachable at all.
type NoAuthorizedIPRangesRule struct{}

func (r NoAuthorizedIPRangesRule) ID() string                    { return "AKS_NO_AUTHORIZED_IP_RANGES" }
func (r NoAuthorizedIPRangesRule) Name() string                  { return "API Server Open To All IP Addresses" }
func (r NoAuthorizedIPRangesRule) Category() models.Category     { return models.CategoryClusterSetup }
func (r NoAuthorizedIPRangesRule) Requires() []models.Capability { return nil }

func (r NoAuthorizedIPRangesRule) Evaluate(ctx RuleContext) []models.Finding {
	cd := ctx.inventory().ClusterDetails
	if cd == nil || cd.PrivateCluster || len(cd.AuthorizedIPRanges) > 0 {
		return nil
	}
	return []models.Finding{clusterFinding(r, models.SeverityWarning,
		fmt.Sprintf("%s:%s", r.ID(), cd.Name),
		fmt.Sprintf("Cluster %q exposes its API server publicly with no authorized IP ranges.", cd.Name),
		"Configure API server authorized IP ranges (or convert to a private cluster) so only known "+
			"networks can reach the control plane.")}
}

// ── AKS_NO_MANAGED_AAD ───────────────────────────────────────────────────────

// NoManagedAADRule fires when AKS-managed Entra ID (AAD) integration is not
// enabled, leaving cluster access on local accounts and client certificates.
type NoManagedAADRule struct{}

func (r NoManagedAADRule) ID() string                    { return "AKS_NO_MANAGED_AAD" }
func (r NoManagedAADRule) Name() string                  { return "Managed Entra ID Integration Disabled" }
func (r NoManagedAADRule) Category() models.Category     { return models.CategoryClusterSetup }
func (r NoManagedAADRule) Requires() []models.Capability { return nil }

func (r NoManagedAADRule) Evaluate(ctx RuleContext) []models.Finding {
	cd := ctx.inventory().ClusterDetails
	if cd == nil || cd.ManagedAADEnabled {
		return nil
	}
	f := clusterFinding(r, models.SeverityCritical,
		fmt.Sprintf("%s:%s", r.ID(), cd.Name),
		fmt.Sprintf("Cluster %q does not use AKS-managed Entra ID integration; access relies on local "+
			"accounts and client certificates.", cd.Name),
		"Enable AKS-managed Entra ID integration with Azure RBAC for Kubernetes authorization, then "+
			"disable local accounts.")
	f.Metadata = map[string]any{"azure_rbac_enabled": cd.AzureRBACEnabled}
	return []models.Finding{f}
}

// ── AKS_AUTOSCALER_DISABLED ──────────────────────────────────────────────────

// AutoscalerDisabledRule fires for each agent pool that does not have the
// cluster autoscaler enabled.
type AutoscalerDisabledRule struct{}

func (r AutoscalerDisabledRule) ID() string                    { return "AKS_AUTOSCALER_DISABLED" }
func (r AutoscalerDisabledRule) Name() string                  { return "Node Pool Without Cluster Autoscaler" }
func (r AutoscalerDisabledRule) Category() models.Category     { return models.CategoryClusterSetup }
func (r AutoscalerDisabledRule) Requires() []models.Capability { return nil }

func (r AutoscalerDisabledRule) Evaluate(ctx RuleContext) []models.Finding {
	cd := ctx.inventory().ClusterDetails
	if cd == nil {
		return nil
	}
	var findings []models.Finding
	for _, pool := range cd.NodePools {
		if pool.AutoScalingEnabled {
			continue
		}
		findings = append(findings, models.Finding{
			ID:       fmt.Sprintf("%s:%s", r.ID(), pool.Name),
			RuleID:   r.ID(),
			Category: r.Category(),
			Severity: models.SeverityWarning,
			Resource: &models.ResourceRef{Kind: models.KindNodePool, Name: pool.Name},
			Message: fmt.Sprintf("Node pool %q (%s, %d nodes) has the cluster autoscaler disabled.",
				pool.Name, pool.Mode, pool.Count),
			Recommendation: "Enable the cluster autoscaler on the pool with sensible min/max counts so capacity " +
				"follows demand.",
		})
	}
	return findings
}

// ── AKS_DASHBOARD_DEPLOYED ───────────────────────────────────────────────────

// DashboardDeployedRule fires for each running pod carrying the deprecated
// Kubernetes dashboard, by pod name or container image. The dashboard addon
// was removed from AKS and any remaining instance is an attack surface.
type DashboardDeployedRule struct{}

func (r DashboardDeployedRule) ID() string                    { return "AKS_DASHBOARD_DEPLOYED" }
func (r DashboardDeployedRule) Name() string                  { return "Kubernetes Dashboard Deployed" }
func (r DashboardDeployedRule) Category() models.Category     { return models.CategoryClusterSetup }
func (r DashboardDeployedRule) Requires() []models.Capability { return nil }

func (r DashboardDeployedRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range ctx.inventory().Pods {
		if !podMatchesWorkload(p, "kubernetes-dashboard") {
			continue
		}
		findings = append(findings, models.Finding{
			ID:       fmt.Sprintf("%s:%s/%s", r.ID(), p.Namespace, p.Name),
			RuleID:   r.ID(),
			Category: r.Category(),
			Severity: models.SeverityCritical,
			Resource: podRef(p),
			Message: fmt.Sprintf("Deprecated Kubernetes dashboard pod %q found in namespace %q.",
				p.Name, p.Namespace),
			Recommendation: "Delete the dashboard workload; use the Azure portal Kubernetes resources view " +
				"or kubectl instead.",
		})
	}
	return findings
}

// ── AKS_SINGLE_NODE_POOL ─────────────────────────────────────────────────────

// SingleNodePoolRule fires when the cluster has only one agent pool, so
// system and user workloads share nodes and cannot be isolated or scaled
// independently.
type SingleNodePoolRule struct{}

func (r SingleNodePoolRule) ID() string                    { return "AKS_SINGLE_NODE_POOL" }
func (r SingleNodePoolRule) Name() string                  { return "Cluster Has a Single Node Pool" }
func (r SingleNodePoolRule) Category() models.Category     { return models.CategoryClusterSetup }
func (r SingleNodePoolRule) Requires() []models.Capability { return nil }

func (r SingleNodePoolRule) Evaluate(ctx RuleContext) []models.Finding {
	cd := ctx.inventory().ClusterDetails
	if cd == nil || len(cd.NodePools) != 1 {
		return nil
	}
	pool := cd.NodePools[0]
	f := clusterFinding(r, models.SeverityWarning,
		fmt.Sprintf("%s:%s", r.ID(), cd.Name),
		fmt.Sprintf("Cluster %q runs a single node pool (%q); system and user workloads share nodes.",
			cd.Name, pool.Name),
		"Add a dedicated user node pool and taint the system pool (CriticalAddonsOnly) so platform "+
			"components are isolated from application workloads.")
	f.Metadata = map[string]any{"pool": pool.Name, "mode": pool.Mode}
	return []models.Finding{f}
}
