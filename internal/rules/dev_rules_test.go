package rules_test

import (
	"testing"

	"github.com/akscheck/akscheck/internal/models"
	"github.com/akscheck/akscheck/internal/rules"
)

// newCtx is a helper that builds a RuleContext over the given inventory.
func newCtx(inv *models.Inventory) rules.RuleContext {
	return rules.RuleContext{Inventory: inv}
}

// makeContainer returns a fully provisioned container: all probes, preStop,
// complete requests/limits, hardened security context. Tests knock out the
// one attribute under test.
func makeContainer(name string) models.ContainerData {
	t := true
	return models.ContainerData{
		Name:  name,
		Image: "myacr.azurecr.io/" + name + ":v1",
		Probes: models.ProbeSet{
			Liveness:  true,
			Readiness: true,
			Startup:   true,
		},
		HasPreStopHook:         true,
		HasCPURequest:          true,
		HasMemoryRequest:       true,
		HasCPULimit:            true,
		HasMemoryLimit:         true,
		RunAsNonRoot:           &t,
		ReadOnlyRootFilesystem: &t,
	}
}

func makePod(ns, name string, containers ...models.ContainerData) models.PodData {
	return models.PodData{
		Name:       name,
		Namespace:  ns,
		Labels:     map[string]string{"app": name},
		Containers: containers,
	}
}

// ── AKS_POD_NO_LIVENESS_PROBE ────────────────────────────────────────────────

func TestPodNoLivenessProbe_Fires_PerPod(t *testing.T) {
	c := makeContainer("web")
	c.Probes.Liveness = false
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "web-1", c)}}

	findings := rules.PodNoLivenessProbeRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding; got %d", len(findings))
	}
	f := findings[0]
	if f.RuleID != "AKS_POD_NO_LIVENESS_PROBE" {
		t.Errorf("RuleID = %q; want AKS_POD_NO_LIVENESS_PROBE", f.RuleID)
	}
	if f.Severity != models.SeverityWarning {
		t.Errorf("Severity = %q; want WARNING", f.Severity)
	}
	if f.Resource == nil || f.Resource.String() != "app/web-1" {
		t.Errorf("Resource = %v; want app/web-1", f.Resource)
	}
	if f.Category != models.CategoryDevelopment {
		t.Errorf("Category = %q; want DEVELOPMENT", f.Category)
	}
}

func TestPodNoLivenessProbe_NoFinding_AllProbed(t *testing.T) {
	inv := &models.Inventory{Pods: []models.PodData{
		makePod("app", "web-1", makeContainer("web")),
	}}
	if got := (rules.PodNoLivenessProbeRule{}).Evaluate(newCtx(inv)); len(got) != 0 {
		t.Errorf("expected 0 findings; got %d", len(got))
	}
}

func TestPodNoLivenessProbe_NoFinding_NoContainers(t *testing.T) {
	// A pod with no containers has nothing to violate.
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "bare")}}
	if got := (rules.PodNoLivenessProbeRule{}).Evaluate(newCtx(inv)); len(got) != 0 {
		t.Errorf("expected 0 findings for containerless pod; got %d", len(got))
	}
}

func TestPodNoLivenessProbe_NilInventory(t *testing.T) {
	if got := (rules.PodNoLivenessProbeRule{}).Evaluate(rules.RuleContext{}); len(got) != 0 {
		t.Errorf("expected 0 findings for nil inventory; got %d", len(got))
	}
}

func TestPodNoLivenessProbe_NamesOffendingContainers(t *testing.T) {
	good := makeContainer("good")
	bad := makeContainer("bad")
	bad.Probes.Liveness = false
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "mixed", good, bad)}}

	findings := rules.PodNoLivenessProbeRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding; got %d", len(findings))
	}
	names, ok := findings[0].Metadata["containers"].([]string)
	if !ok || len(names) != 1 || names[0] != "bad" {
		t.Errorf("Metadata[containers] = %v; want [bad]", findings[0].Metadata["containers"])
	}
}

// ── AKS_POD_NO_READINESS_PROBE / STARTUP / PRESTOP ───────────────────────────

func TestPodNoReadinessProbe_Fires(t *testing.T) {
	c := makeContainer("api")
	c.Probes.Readiness = false
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "api-1", c)}}

	findings := rules.PodNoReadinessProbeRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 || findings[0].Severity != models.SeverityWarning {
		t.Fatalf("expected 1 WARNING finding; got %v", findings)
	}
}

func TestPodNoStartupProbe_Fires_Info(t *testing.T) {
	c := makeContainer("api")
	c.Probes.Startup = false
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "api-1", c)}}

	findings := rules.PodNoStartupProbeRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 || findings[0].Severity != models.SeverityInfo {
		t.Fatalf("expected 1 INFO finding; got %v", findings)
	}
}

func TestPodNoPreStopHook_Fires_Info(t *testing.T) {
	c := makeContainer("api")
	c.HasPreStopHook = false
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "api-1", c)}}

	findings := rules.PodNoPreStopHookRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 || findings[0].Severity != models.SeverityInfo {
		t.Fatalf("expected 1 INFO finding; got %v", findings)
	}
}

// ── AKS_DEPLOYMENT_SINGLE_REPLICA ────────────────────────────────────────────

func TestDeploymentSingleReplica_Fires(t *testing.T) {
	inv := &models.Inventory{Deployments: []models.DeploymentData{
		{Name: "api", Namespace: "app", Replicas: 1},
		{Name: "web", Namespace: "app", Replicas: 3},
	}}

	findings := rules.DeploymentSingleReplicaRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding; got %d", len(findings))
	}
	f := findings[0]
	if f.Resource == nil || f.Resource.String() != "app/api" {
		t.Errorf("Resource = %v; want app/api", f.Resource)
	}
	if f.Severity != models.SeverityWarning {
		t.Errorf("Severity = %q; want WARNING", f.Severity)
	}
}

func TestDeploymentSingleReplica_NoFinding_ZeroReplicas(t *testing.T) {
	// Scaled-to-zero is intentional, not a redundancy gap.
	inv := &models.Inventory{Deployments: []models.DeploymentData{
		{Name: "job", Namespace: "app", Replicas: 0},
	}}
	if got := (rules.DeploymentSingleReplicaRule{}).Evaluate(newCtx(inv)); len(got) != 0 {
		t.Errorf("expected 0 findings for 0-replica deployment; got %d", len(got))
	}
}

// ── AKS_INCONSISTENT_LABELS ──────────────────────────────────────────────────

func TestInconsistentLabels_FiresOncePerMissingKey(t *testing.T) {
	inv := &models.Inventory{
		Namespaces: []models.NamespaceData{{Name: "app", Labels: map[string]string{"app": "x"}}},
		Pods: []models.PodData{
			{Name: "web-1", Namespace: "app", Labels: map[string]string{"app": "web"}},
			{Name: "web-2", Namespace: "app"}, // unlabeled
		},
		Services: []models.ServiceData{{Name: "web", Namespace: "app"}}, // unlabeled
	}

	findings := rules.InconsistentLabelsRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 {
		t.Fatalf("expected exactly 1 finding for one missing key; got %d", len(findings))
	}
	f := findings[0]
	if !f.ClusterScoped {
		t.Errorf("expected cluster-scoped finding")
	}
	missing, ok := f.Metadata["missing"].([]string)
	if !ok || len(missing) != 2 {
		t.Errorf("Metadata[missing] = %v; want 2 entries", f.Metadata["missing"])
	}
}

func TestInconsistentLabels_ConfiguredKeys(t *testing.T) {
	inv := &models.Inventory{
		Pods: []models.PodData{{Name: "web-1", Namespace: "app", Labels: map[string]string{"app": "web"}}},
	}
	ctx := rules.RuleContext{
		Inventory: inv,
		Config:    &models.AuditConfig{RequiredLabels: []string{"app", "team"}},
	}

	findings := rules.InconsistentLabelsRule{}.Evaluate(ctx)
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding (team missing, app present); got %d", len(findings))
	}
	if findings[0].Metadata["label"] != "team" {
		t.Errorf("Metadata[label] = %v; want team", findings[0].Metadata["label"])
	}
}

func TestInconsistentLabels_NoFinding_AllLabeled(t *testing.T) {
	inv := &models.Inventory{
		Pods: []models.PodData{{Name: "web-1", Namespace: "app", Labels: map[string]string{"app": "web"}}},
	}
	if got := (rules.InconsistentLabelsRule{}).Evaluate(newCtx(inv)); len(got) != 0 {
		t.Errorf("expected 0 findings; got %d", len(got))
	}
}

// ── AKS_NAMESPACE_NO_HPA ─────────────────────────────────────────────────────

func TestNamespaceNoHPA_Fires_DeploymentsWithoutHPA(t *testing.T) {
	inv := &models.Inventory{
		Namespaces:  []models.NamespaceData{{Name: "app"}, {Name: "scaled"}, {Name: "empty"}},
		Deployments: []models.DeploymentData{{Name: "api", Namespace: "app", Replicas: 2}, {Name: "web", Namespace: "scaled", Replicas: 2}},
		HPAs:        []models.HPAData{{Name: "web", Namespace: "scaled", TargetKind: "Deployment", TargetName: "web"}},
	}

	findings := rules.NamespaceNoHPARule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding; got %d", len(findings))
	}
	if findings[0].Resource == nil || findings[0].Resource.Name != "app" {
		t.Errorf("Resource = %v; want namespace app", findings[0].Resource)
	}
}

// ── AKS_NO_SECRETS_STORE_CSI ─────────────────────────────────────────────────

func TestNoSecretsStoreCSI_Fires_WhenUnused(t *testing.T) {
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "web-1", makeContainer("web"))}}

	findings := rules.NoSecretsStoreCSIRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 || !findings[0].ClusterScoped {
		t.Fatalf("expected 1 cluster-scoped finding; got %v", findings)
	}
}

func TestNoSecretsStoreCSI_NoFinding_WhenAnyPodMounts(t *testing.T) {
	pod := makePod("app", "web-1", makeContainer("web"))
	pod.UsesSecretsStoreCSI = true
	inv := &models.Inventory{Pods: []models.PodData{pod}}

	if got := (rules.NoSecretsStoreCSIRule{}).Evaluate(newCtx(inv)); len(got) != 0 {
		t.Errorf("expected 0 findings; got %d", len(got))
	}
}

// ── AKS_LEGACY_POD_IDENTITY ──────────────────────────────────────────────────

func TestLegacyPodIdentity_Fires(t *testing.T) {
	inv := &models.Inventory{ClusterDetails: &models.ClusterDetails{Name: "prod", PodIdentityEnabled: true}}

	findings := rules.LegacyPodIdentityRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 || findings[0].Severity != models.SeverityWarning {
		t.Fatalf("expected 1 WARNING finding; got %v", findings)
	}
}

func TestLegacyPodIdentity_NoFinding_WorkloadIdentity(t *testing.T) {
	inv := &models.Inventory{ClusterDetails: &models.ClusterDetails{Name: "prod", WorkloadIdentityEnabled: true}}
	if got := (rules.LegacyPodIdentityRule{}).Evaluate(newCtx(inv)); len(got) != 0 {
		t.Errorf("expected 0 findings; got %d", len(got))
	}
}

// ── AKS_POD_IN_DEFAULT_NAMESPACE ─────────────────────────────────────────────

func TestPodInDefaultNamespace_Fires(t *testing.T) {
	inv := &models.Inventory{Pods: []models.PodData{
		makePod("default", "stray", makeContainer("c")),
		makePod("app", "web-1", makeContainer("web")),
	}}

	findings := rules.PodInDefaultNamespaceRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding; got %d", len(findings))
	}
	if findings[0].Resource.String() != "default/stray" {
		t.Errorf("Resource = %v; want default/stray", findings[0].Resource)
	}
}

// ── AKS_POD_NO_RESOURCE_LIMITS ───────────────────────────────────────────────

func TestPodNoResourceLimits_Fires_PartialLimits(t *testing.T) {
	c := makeContainer("api")
	c.HasMemoryLimit = false
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "api-1", c)}}

	findings := rules.PodNoResourceLimitsRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 || findings[0].Severity != models.SeverityWarning {
		t.Fatalf("expected 1 WARNING finding; got %v", findings)
	}
}

func TestPodNoResourceLimits_NoFinding_Complete(t *testing.T) {
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "api-1", makeContainer("api"))}}
	if got := (rules.PodNoResourceLimitsRule{}).Evaluate(newCtx(inv)); len(got) != 0 {
		t.Errorf("expected 0 findings; got %d", len(got))
	}
}

// ── AKS_POD_DEFAULT_SECURITY_CONTEXT ─────────────────────────────────────────

func TestPodDefaultSecurityContext_Fires_Critical(t *testing.T) {
	c := makeContainer("api")
	c.RunAsNonRoot = nil
	c.ReadOnlyRootFilesystem = nil
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "api-1", c)}}

	findings := rules.PodDefaultSecurityContextRule{}.Evaluate(newCtx(inv))
	if len(findings) != 1 || findings[0].Severity != models.SeverityCritical {
		t.Fatalf("expected 1 CRITICAL finding; got %v", findings)
	}
}

func TestPodDefaultSecurityContext_NoFinding_ExplicitFalse(t *testing.T) {
	// An explicit value, even false, means someone configured the context.
	f := false
	c := makeContainer("api")
	c.RunAsNonRoot = &f
	c.ReadOnlyRootFilesystem = nil
	inv := &models.Inventory{Pods: []models.PodData{makePod("app", "api-1", c)}}

	if got := (rules.PodDefaultSecurityContextRule{}).Evaluate(newCtx(inv)); len(got) != 0 {
		t.Errorf("expected 0 findings for explicitly configured context; got %d", len(got))
	}
}
