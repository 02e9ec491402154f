package rules

import (
	"fmt"
	"strings"

	"github.com/akscheck/akscheck/internal/models"
)

// ── AKS_NO_AVAILABILITY_ZONES ────────────────────────────────────────────────

// NoAvailabilityZonesRule fires for each agent pool that spans no
// availability zones, leaving the pool exposed to a datacenter-level outage.
type NoAvailabilityZonesRule struct{}

func (r NoAvailabilityZonesRule) ID() string                    { return "AKS_NO_AVAILABILITY_ZONES" }
func (r NoAvailabilityZonesRule) Name() string                  { return "Node Pool Without Availability Zones" }
func (r NoAvailabilityZonesRule) Category() models.Category     { return models.CategoryDisasterRecovery }
func (r NoAvailabilityZonesRule) Requires() []models.Capability { return nil }

func (r NoAvailabilityZonesRule) Evaluate(ctx RuleContext) []models.Finding {
	cd := ctx.inventory().ClusterDetails
	if cd == nil {
		return nil
	}
	var findings []models.Finding
	for _, pool := range cd.NodePools {
		if len(pool.AvailabilityZones) > 0 {
			continue
		}
		findings = append(findings, models.Finding{
			ID:       fmt.Sprintf("%s:%s", r.ID(), pool.Name),
			RuleID:   r.ID(),
			Category: r.Category(),
			Severity: models.SeverityCritical,
			Resource: &models.ResourceRef{Kind: models.KindNodePool, Name: pool.Name},
			Message: fmt.Sprintf("Node pool %q spans no availability zones; a single zone outage takes down "+
				"every node in the pool.", pool.Name),
			Recommendation: "Recreate the node pool across at least two availability zones (zones cannot be " +
				"changed on an existing pool).",
		})
	}
	return findings
}

// ── AKS_FREE_SLA_TIER ────────────────────────────────────────────────────────

// FreeSLATierRule fires when the control plane runs on the Free tier, which
// carries no uptime SLA.
type FreeSLATierRule struct{}

func (r FreeSLATierRule) ID() string                    { return "AKS_FREE_SLA_TIER" }
func (r FreeSLATierRule) Name() string                  { return "Control Plane On Free SLA Tier" }
func (r FreeSLATierRule) Category() models.Category     { return models.CategoryDisasterRecovery }
func (r FreeSLATierRule) Requires() []models.Capability { return nil }

func (r FreeSLATierRule) Evaluate(ctx RuleContext) []models.Finding {
	cd := ctx.inventory().ClusterDetails
	if cd == nil || !strings.EqualFold(cd.SKUTier, "Free") {
		return nil
	}
	f := clusterFinding(r, models.SeverityWarning,
		fmt.Sprintf("%s:%s", r.ID(), cd.Name),
		fmt.Sprintf("Cluster %q runs its control plane on the Free tier, which has no uptime SLA.", cd.Name),
		"Upgrade the cluster to the Standard tier for a financially backed API server SLA.")
	f.Metadata = map[string]any{"sku_tier": cd.SKUTier}
	return []models.Finding{f}
}

// ── AKS_NO_VELERO ────────────────────────────────────────────────────────────

// NoVeleroRule fires once, cluster-wide, when no Velero pod is running (by
// pod name or container image), indicating the cluster has no backup tooling
// installed.
type NoVeleroRule struct{}

func (r NoVeleroRule) ID() string                    { return "AKS_NO_VELERO" }
func (r NoVeleroRule) Name() string                  { return "No Cluster Backup Tooling Detected" }
func (r NoVeleroRule) Category() models.Category     { return models.CategoryDisasterRecovery }
func (r NoVeleroRule) Requires() []models.Capability { return nil }

func (r NoVeleroRule) Evaluate(ctx RuleContext) []models.Finding {
	for _, p := range ctx.inventory().Pods {
		if podMatchesWorkload(p, "velero") {
			return nil
		}
	}
	return []models.Finding{clusterFinding(r, models.SeverityWarning,
		r.ID(),
		"No Velero pod found; cluster state and persistent volumes have no backup tooling.",
		"Install Velero (or AKS Backup) with scheduled backups to a storage account in a paired region.")}
}
