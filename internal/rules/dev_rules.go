package rules

import (
	"fmt"
	"strings"

	"github.com/akscheck/akscheck/internal/models"
)

// podRef builds the attribution ref for a pod-scoped finding.
func podRef(p models.PodData) *models.ResourceRef {
	return &models.ResourceRef{Kind: models.KindPod, Namespace: p.Namespace, Name: p.Name}
}

// podMatchesWorkload reports whether the pod belongs to the named workload,
// matching the marker case-insensitively against the pod name and every
// container image. Pods are the detection surface so the workload is found
// regardless of which controller (if any) manages it.
func podMatchesWorkload(p models.PodData, marker string) bool {
	if strings.Contains(strings.ToLower(p.Name), marker) {
		return true
	}
	for _, c := range p.Containers {
		if strings.Contains(strings.ToLower(c.Image), marker) {
			return true
		}
	}
	return false
}

// containersMissing returns the names of containers in p for which missing
// reports true. A pod with no containers yields nil: there is nothing to
// violate, and the pod is treated as satisfying the check.
func containersMissing(p models.PodData, missing func(models.ContainerData) bool) []string {
	var names []string
	for _, c := range p.Containers {
		if missing(c) {
			names = append(names, c.Name)
		}
	}
	return names
}

// probeFinding builds the per-pod finding shared by the probe rules.
func probeFinding(r Rule, sev models.Severity, p models.PodData, offending []string, what, why, fix string) models.Finding {
	return models.Finding{
		ID:       fmt.Sprintf("%s:%s/%s", r.ID(), p.Namespace, p.Name),
		RuleID:   r.ID(),
		Category: r.Category(),
		Severity: sev,
		Resource: podRef(p),
		Message: fmt.Sprintf("Pod %q (namespace %q) has containers without %s: %s. %s",
			p.Name, p.Namespace, what, strings.Join(offending, ", "), why),
		Recommendation: fix,
		Metadata:       map[string]any{"containers": offending},
	}
}

// ── AKS_POD_NO_LIVENESS_PROBE ────────────────────────────────────────────────

// PodNoLivenessProbeRule fires for each pod with a container that defines no
// liveness probe. Without one, a deadlocked container is never restarted.
type PodNoLivenessProbeRule struct{}

func (r PodNoLivenessProbeRule) ID() string                      { return "AKS_POD_NO_LIVENESS_PROBE" }
func (r PodNoLivenessProbeRule) Name() string                    { return "Pod Container Missing Liveness Probe" }
func (r PodNoLivenessProbeRule) Category() models.Category       { return models.CategoryDevelopment }
func (r PodNoLivenessProbeRule) Requires() []models.Capability   { return nil }

func (r PodNoLivenessProbeRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range ctx.inventory().Pods {
		offending := containersMissing(p, func(c models.ContainerData) bool { return !c.Probes.Liveness })
		if len(offending) == 0 {
			continue
		}
		findings = append(findings, probeFinding(r, models.SeverityWarning, p, offending,
			"a liveness probe",
			"The kubelet cannot detect and restart a hung container.",
			"Define a livenessProbe on every container so deadlocked processes are restarted automatically."))
	}
	return findings
}

// ── AKS_POD_NO_READINESS_PROBE ───────────────────────────────────────────────

// PodNoReadinessProbeRule fires for each pod with a container that defines no
// readiness probe. Traffic may be routed to a container before it can serve.
type PodNoReadinessProbeRule struct{}

func (r PodNoReadinessProbeRule) ID() string                    { return "AKS_POD_NO_READINESS_PROBE" }
func (r PodNoReadinessProbeRule) Name() string                  { return "Pod Container Missing Readiness Probe" }
func (r PodNoReadinessProbeRule) Category() models.Category     { return models.CategoryDevelopment }
func (r PodNoReadinessProbeRule) Requires() []models.Capability { return nil }

func (r PodNoReadinessProbeRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range ctx.inventory().Pods {
		offending := containersMissing(p, func(c models.ContainerData) bool { return !c.Probes.Readiness })
		if len(offending) == 0 {
			continue
		}
		findings = append(findings, probeFinding(r, models.SeverityWarning, p, offending,
			"a readiness probe",
			"Services may route traffic to the container before it is able to serve requests.",
			"Define a readinessProbe on every container so endpoints receive traffic only when ready."))
	}
	return findings
}

// ── AKS_POD_NO_STARTUP_PROBE ─────────────────────────────────────────────────

// PodNoStartupProbeRule fires for each pod with a container that defines no
// startup probe. Slow-starting containers risk being killed by the liveness
// probe before initialization completes.
type PodNoStartupProbeRule struct{}

func (r PodNoStartupProbeRule) ID() string                    { return "AKS_POD_NO_STARTUP_PROBE" }
func (r PodNoStartupProbeRule) Name() string                  { return "Pod Container Missing Startup Probe" }
func (r PodNoStartupProbeRule) Category() models.Category     { return models.CategoryDevelopment }
func (r PodNoStartupProbeRule) Requires() []models.Capability { return nil }

func (r PodNoStartupProbeRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range ctx.inventory().Pods {
		offending := containersMissing(p, func(c models.ContainerData) bool { return !c.Probes.Startup })
		if len(offending) == 0 {
			continue
		}
		findings = append(findings, probeFinding(r, models.SeverityInfo, p, offending,
			"a startup probe",
			"Slow-starting containers may be restarted by the liveness probe before they finish initializing.",
			"Define a startupProbe on containers with long initialization so liveness checks are held off until startup completes."))
	}
	return findings
}

// ── AKS_POD_NO_PRESTOP_HOOK ──────────────────────────────────────────────────

// PodNoPreStopHookRule fires for each pod with a container that defines no
// preStop lifecycle hook. In-flight requests may be dropped during rollouts.
type PodNoPreStopHookRule struct{}

func (r PodNoPreStopHookRule) ID() string                    { return "AKS_POD_NO_PRESTOP_HOOK" }
func (r PodNoPreStopHookRule) Name() string                  { return "Pod Container Missing PreStop Hook" }
func (r PodNoPreStopHookRule) Category() models.Category     { return models.CategoryDevelopment }
func (r PodNoPreStopHookRule) Requires() []models.Capability { return nil }

func (r PodNoPreStopHookRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range ctx.inventory().Pods {
		offending := containersMissing(p, func(c models.ContainerData) bool { return !c.HasPreStopHook })
		if len(offending) == 0 {
			continue
		}
		findings = append(findings, probeFinding(r, models.SeverityInfo, p, offending,
			"a preStop lifecycle hook",
			"Containers receive SIGTERM with no drain window, so in-flight requests can be dropped during rollouts.",
			"Add a preStop hook (e.g. a short sleep or connection drain) so load balancers deregister the pod before shutdown."))
	}
	return findings
}

// ── AKS_DEPLOYMENT_SINGLE_REPLICA ────────────────────────────────────────────

// DeploymentSingleReplicaRule fires for each deployment whose desired replica
// count is exactly 1, leaving the workload with no redundancy.
type DeploymentSingleReplicaRule struct{}

func (r DeploymentSingleReplicaRule) ID() string                    { return "AKS_DEPLOYMENT_SINGLE_REPLICA" }
func (r DeploymentSingleReplicaRule) Name() string                  { return "Deployment Runs a Single Replica" }
func (r DeploymentSingleReplicaRule) Category() models.Category     { return models.CategoryDevelopment }
func (r DeploymentSingleReplicaRule) Requires() []models.Capability { return nil }

func (r DeploymentSingleReplicaRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, d := range ctx.inventory().Deployments {
		if d.Replicas != 1 {
			continue
		}
		findings = append(findings, models.Finding{
			ID:       fmt.Sprintf("%s:%s/%s", r.ID(), d.Namespace, d.Name),
			RuleID:   r.ID(),
			Category: r.Category(),
			Severity: models.SeverityWarning,
			Resource: &models.ResourceRef{Kind: models.KindDeployment, Namespace: d.Namespace, Name: d.Name},
			Message: fmt.Sprintf("Deployment %q (namespace %q) runs a single replica; any node drain or pod failure causes downtime.",
				d.Name, d.Namespace),
			Recommendation: "Run at least 2 replicas and add a PodDisruptionBudget so voluntary disruptions keep one replica serving.",
		})
	}
	return findings
}

// ── AKS_INCONSISTENT_LABELS ──────────────────────────────────────────────────

// labelKindName pairs a resource kind with an object's namespace/name for
// the label-consistency report.
type labelKindName struct {
	kind models.ResourceKind
	ns   string
	name string
}

// InconsistentLabelsRule fires once per required label key that is missing
// on at least one object across namespaces, pods, deployments, services,
// config maps, and secrets. The required key set is configuration
// (AuditConfig.RequiredLabels); a missing key is the inconsistency, label
// values are not compared.
type InconsistentLabelsRule struct{}

func (r InconsistentLabelsRule) ID() string                    { return "AKS_INCONSISTENT_LABELS" }
func (r InconsistentLabelsRule) Name() string                  { return "Inconsistent Labels Across Resources" }
func (r InconsistentLabelsRule) Category() models.Category     { return models.CategoryDevelopment }
func (r InconsistentLabelsRule) Requires() []models.Capability { return nil }

func (r InconsistentLabelsRule) Evaluate(ctx RuleContext) []models.Finding {
	inv := ctx.inventory()

	// Gather every labeled object in a fixed kind order so the report is
	// deterministic.
	var objects []labelKindName
	var labelSets []map[string]string
	add := func(kind models.ResourceKind, ns, name string, labels map[string]string) {
		objects = append(objects, labelKindName{kind: kind, ns: ns, name: name})
		labelSets = append(labelSets, labels)
	}
	for _, o := range inv.Namespaces {
		add(models.KindNamespace, "", o.Name, o.Labels)
	}
	for _, o := range inv.Pods {
		add(models.KindPod, o.Namespace, o.Name, o.Labels)
	}
	for _, o := range inv.Deployments {
		add(models.KindDeployment, o.Namespace, o.Name, o.Labels)
	}
	for _, o := range inv.Services {
		add(models.KindService, o.Namespace, o.Name, o.Labels)
	}
	for _, o := range inv.ConfigMaps {
		add(models.KindConfigMap, o.Namespace, o.Name, o.Labels)
	}
	for _, o := range inv.Secrets {
		add(models.KindSecret, o.Namespace, o.Name, o.Labels)
	}

	var findings []models.Finding
	for _, key := range ctx.RequiredLabels() {
		var missing []string
		missingKinds := make(map[models.ResourceKind]struct{})
		for i, obj := range objects {
			if _, ok := labelSets[i][key]; ok {
				continue
			}
			ref := models.ResourceRef{Kind: obj.kind, Namespace: obj.ns, Name: obj.name}
			missing = append(missing, string(obj.kind)+":"+ref.String())
			missingKinds[obj.kind] = struct{}{}
		}
		if len(missing) == 0 {
			continue
		}
		findings = append(findings, models.Finding{
			ID:            fmt.Sprintf("%s:%s", r.ID(), key),
			RuleID:        r.ID(),
			Category:      r.Category(),
			Severity:      models.SeverityInfo,
			ClusterScoped: true,
			Message: fmt.Sprintf("Label %q is missing on %d of %d resources; a shared tagging convention is expected cluster-wide.",
				key, len(missing), len(objects)),
			Recommendation: fmt.Sprintf("Apply the %q label to every namespace, pod, deployment, service, config map, and secret.", key),
			Metadata: map[string]any{
				"label":   key,
				"missing": missing,
			},
		})
	}
	return findings
}

// ── AKS_NAMESPACE_NO_HPA ─────────────────────────────────────────────────────

// NamespaceNoHPARule fires for each namespace that contains deployments but
// no HorizontalPodAutoscaler, so workloads cannot scale with load.
type NamespaceNoHPARule struct{}

func (r NamespaceNoHPARule) ID() string                    { return "AKS_NAMESPACE_NO_HPA" }
func (r NamespaceNoHPARule) Name() string                  { return "Namespace Without Horizontal Pod Autoscaler" }
func (r NamespaceNoHPARule) Category() models.Category     { return models.CategoryDevelopment }
func (r NamespaceNoHPARule) Requires() []models.Capability { return nil }

func (r NamespaceNoHPARule) Evaluate(ctx RuleContext) []models.Finding {
	inv := ctx.inventory()

	deployCount := make(map[string]int)
	for _, d := range inv.Deployments {
		deployCount[d.Namespace]++
	}
	hpaCount := make(map[string]int)
	for _, h := range inv.HPAs {
		hpaCount[h.Namespace]++
	}

	var findings []models.Finding
	for _, ns := range inv.Namespaces {
		if deployCount[ns.Name] == 0 || hpaCount[ns.Name] > 0 {
			continue
		}
		findings = append(findings, models.Finding{
			ID:       fmt.Sprintf("%s:%s", r.ID(), ns.Name),
			RuleID:   r.ID(),
			Category: r.Category(),
			Severity: models.SeverityWarning,
			Resource: &models.ResourceRef{Kind: models.KindNamespace, Name: ns.Name},
			Message: fmt.Sprintf("Namespace %q has %d deployment(s) but no HorizontalPodAutoscaler; workloads cannot scale with load.",
				ns.Name, deployCount[ns.Name]),
			Recommendation: "Add a HorizontalPodAutoscaler for each scalable deployment so replica counts track demand.",
			Metadata:       map[string]any{"deployments": deployCount[ns.Name]},
		})
	}
	return findings
}

// ── AKS_NO_SECRETS_STORE_CSI ─────────────────────────────────────────────────

// NoSecretsStoreCSIRule fires once, cluster-wide, when no pod mounts a
// Secrets Store CSI volume, suggesting secrets are handled outside Key Vault.
type NoSecretsStoreCSIRule struct{}

func (r NoSecretsStoreCSIRule) ID() string                    { return "AKS_NO_SECRETS_STORE_CSI" }
func (r NoSecretsStoreCSIRule) Name() string                  { return "Secrets Store CSI Provider Not In Use" }
func (r NoSecretsStoreCSIRule) Category() models.Category     { return models.CategoryDevelopment }
func (r NoSecretsStoreCSIRule) Requires() []models.Capability { return nil }

func (r NoSecretsStoreCSIRule) Evaluate(ctx RuleContext) []models.Finding {
	for _, p := range ctx.inventory().Pods {
		if p.UsesSecretsStoreCSI {
			return nil
		}
	}
	return []models.Finding{
		{
			ID:            r.ID(),
			RuleID:        r.ID(),
			Category:      r.Category(),
			Severity:      models.SeverityInfo,
			ClusterScoped: true,
			Message:       "No pod mounts a Secrets Store CSI volume; secrets are likely stored directly in Kubernetes Secrets.",
			Recommendation: "Install the Secrets Store CSI driver with the Azure Key Vault provider and mount secrets from Key Vault " +
				"instead of embedding them in the cluster.",
		},
	}
}

// ── AKS_LEGACY_POD_IDENTITY ──────────────────────────────────────────────────

// LegacyPodIdentityRule fires when the cluster still uses the deprecated AAD
// pod identity addon instead of workload identity.
type LegacyPodIdentityRule struct{}

func (r LegacyPodIdentityRule) ID() string                    { return "AKS_LEGACY_POD_IDENTITY" }
func (r LegacyPodIdentityRule) Name() string                  { return "Legacy AAD Pod Identity In Use" }
func (r LegacyPodIdentityRule) Category() models.Category     { return models.CategoryDevelopment }
func (r LegacyPodIdentityRule) Requires() []models.Capability { return nil }

func (r LegacyPodIdentityRule) Evaluate(ctx RuleContext) []models.Finding {
	cd := ctx.inventory().ClusterDetails
	if cd == nil || !cd.PodIdentityEnabled {
		return nil
	}
	return []models.Finding{
		{
			ID:            fmt.Sprintf("%s:%s", r.ID(), cd.Name),
			RuleID:        r.ID(),
			Category:      r.Category(),
			Severity:      models.SeverityWarning,
			ClusterScoped: true,
			Message:       fmt.Sprintf("Cluster %q uses the deprecated AAD pod identity addon.", cd.Name),
			Recommendation: "Migrate workloads to Microsoft Entra Workload ID (workload identity federation); " +
				"the pod identity addon is deprecated and no longer receives updates.",
			Metadata: map[string]any{"workload_identity_enabled": cd.WorkloadIdentityEnabled},
		},
	}
}

// ── AKS_POD_IN_DEFAULT_NAMESPACE ─────────────────────────────────────────────

// PodInDefaultNamespaceRule fires for each pod scheduled in the "default"
// namespace, which bypasses namespace-level isolation and governance.
type PodInDefaultNamespaceRule struct{}

func (r PodInDefaultNamespaceRule) ID() string                    { return "AKS_POD_IN_DEFAULT_NAMESPACE" }
func (r PodInDefaultNamespaceRule) Name() string                  { return "Pod Running In Default Namespace" }
func (r PodInDefaultNamespaceRule) Category() models.Category     { return models.CategoryDevelopment }
func (r PodInDefaultNamespaceRule) Requires() []models.Capability { return nil }

func (r PodInDefaultNamespaceRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range ctx.inventory().Pods {
		if p.Namespace != "default" {
			continue
		}
		findings = append(findings, models.Finding{
			ID:       fmt.Sprintf("%s:%s", r.ID(), p.Name),
			RuleID:   r.ID(),
			Category: r.Category(),
			Severity: models.SeverityWarning,
			Resource: podRef(p),
			Message:  fmt.Sprintf("Pod %q runs in the default namespace.", p.Name),
			Recommendation: "Create purpose-specific namespaces and move workloads out of default so quotas, " +
				"network policies, and RBAC can be scoped per team or application.",
		})
	}
	return findings
}

// ── AKS_POD_NO_RESOURCE_LIMITS ───────────────────────────────────────────────

// PodNoResourceLimitsRule fires for each pod with a container missing a CPU
// or memory request or limit. Without them scheduling is inaccurate and a
// single workload can starve the node.
type PodNoResourceLimitsRule struct{}

func (r PodNoResourceLimitsRule) ID() string                    { return "AKS_POD_NO_RESOURCE_LIMITS" }
func (r PodNoResourceLimitsRule) Name() string                  { return "Pod Container Missing Requests or Limits" }
func (r PodNoResourceLimitsRule) Category() models.Category     { return models.CategoryDevelopment }
func (r PodNoResourceLimitsRule) Requires() []models.Capability { return nil }

func (r PodNoResourceLimitsRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range ctx.inventory().Pods {
		offending := containersMissing(p, func(c models.ContainerData) bool {
			return !(c.HasCPURequest && c.HasMemoryRequest && c.HasCPULimit && c.HasMemoryLimit)
		})
		if len(offending) == 0 {
			continue
		}
		findings = append(findings, models.Finding{
			ID:       fmt.Sprintf("%s:%s/%s", r.ID(), p.Namespace, p.Name),
			RuleID:   r.ID(),
			Category: r.Category(),
			Severity: models.SeverityWarning,
			Resource: podRef(p),
			Message: fmt.Sprintf("Pod %q (namespace %q) has containers without complete CPU/memory requests and limits: %s.",
				p.Name, p.Namespace, strings.Join(offending, ", ")),
			Recommendation: "Set CPU and memory requests and limits on every container so the scheduler places pods " +
				"accurately and no workload can exhaust node resources.",
			Metadata: map[string]any{"containers": offending},
		})
	}
	return findings
}

// ── AKS_POD_DEFAULT_SECURITY_CONTEXT ─────────────────────────────────────────

// PodDefaultSecurityContextRule fires for each pod whose containers all run
// with an unmodified security context: neither runAsNonRoot nor
// readOnlyRootFilesystem is set anywhere in the pod.
type PodDefaultSecurityContextRule struct{}

func (r PodDefaultSecurityContextRule) ID() string                    { return "AKS_POD_DEFAULT_SECURITY_CONTEXT" }
func (r PodDefaultSecurityContextRule) Name() string                  { return "Pod Uses Default Security Context" }
func (r PodDefaultSecurityContextRule) Category() models.Category     { return models.CategoryDevelopment }
func (r PodDefaultSecurityContextRule) Requires() []models.Capability { return nil }

func (r PodDefaultSecurityContextRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range ctx.inventory().Pods {
		if len(p.Containers) == 0 {
			continue // nothing to check
		}
		hardened := false
		for _, c := range p.Containers {
			if c.RunAsNonRoot != nil || c.ReadOnlyRootFilesystem != nil {
				hardened = true
				break
			}
		}
		if hardened {
			continue
		}
		findings = append(findings, models.Finding{
			ID:       fmt.Sprintf("%s:%s/%s", r.ID(), p.Namespace, p.Name),
			RuleID:   r.ID(),
			Category: r.Category(),
			Severity: models.SeverityCritical,
			Resource: podRef(p),
			Message: fmt.Sprintf("Pod %q (namespace %q) runs with an entirely default security context: "+
				"no runAsNonRoot enforcement and no read-only root filesystem.", p.Name, p.Namespace),
			Recommendation: "Set securityContext.runAsNonRoot: true and readOnlyRootFilesystem: true (plus a non-zero " +
				"runAsUser) on every container that does not require root.",
		})
	}
	return findings
}
