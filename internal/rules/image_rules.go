package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/akscheck/akscheck/internal/models"
)

// AcrPullOutcome is the result of one role-assignment verification call.
type AcrPullOutcome int

const (
	// AcrPullGranted means the cluster identity holds AcrPull on the registry.
	AcrPullGranted AcrPullOutcome = iota
	// AcrPullAbsent means the assignment was verifiably not found.
	AcrPullAbsent
	// AcrPullIndeterminate means the verification call could not complete;
	// absence was NOT established.
	AcrPullIndeterminate
)

// AcrPullVerifier checks whether a principal holds the AcrPull role on a
// registry. Implementations call out to Azure; tests inject stubs. An error
// return always pairs with AcrPullIndeterminate.
type AcrPullVerifier interface {
	VerifyAcrPull(ctx context.Context, principalID string, registry models.RegistryDetails) (AcrPullOutcome, error)
}

// acrVerifyTimeout bounds each per-registry verification call.
const acrVerifyTimeout = 30 * time.Second

// templateMatches reports whether a Gatekeeper template's name or CRD kind
// contains any of the given markers, case-insensitively.
func templateMatches(t models.ConstraintTemplateData, markers ...string) bool {
	name := strings.ToLower(t.Name)
	kind := strings.ToLower(t.CRDKind)
	for _, m := range markers {
		if strings.Contains(name, m) || strings.Contains(kind, m) {
			return true
		}
	}
	return false
}

// ── AKS_NO_ALLOWED_IMAGES_POLICY ─────────────────────────────────────────────

// NoAllowedImagesPolicyRule fires when Gatekeeper is installed but no
// constraint template restricts which image repositories may be deployed.
// Skipped entirely when Gatekeeper is absent.
type NoAllowedImagesPolicyRule struct{}

func (r NoAllowedImagesPolicyRule) ID() string                { return "AKS_NO_ALLOWED_IMAGES_POLICY" }
func (r NoAllowedImagesPolicyRule) Name() string              { return "No Allowed-Images Admission Policy" }
func (r NoAllowedImagesPolicyRule) Category() models.Category { return models.CategoryImageManagement }
func (r NoAllowedImagesPolicyRule) Requires() []models.Capability {
	return []models.Capability{models.CapabilityConstraintTemplates}
}

func (r NoAllowedImagesPolicyRule) Evaluate(ctx RuleContext) []models.Finding {
	for _, t := range ctx.inventory().ConstraintTemplates {
		if templateMatches(t, "allowedrepos", "allowedimages", "containerallowedimages") {
			return nil
		}
	}
	return []models.Finding{
		{
			ID:            r.ID(),
			RuleID:        r.ID(),
			Category:      r.Category(),
			Severity:      models.SeverityCritical,
			ClusterScoped: true,
			Message:       "Gatekeeper is installed but no constraint template restricts allowed image repositories.",
			Recommendation: "Deploy an allowed-repositories constraint template (e.g. k8sallowedrepos) so only images " +
				"from trusted registries can be admitted.",
		},
	}
}

// ── AKS_NO_PRIVILEGED_POLICY ─────────────────────────────────────────────────

// NoPrivilegedPolicyRule fires when Gatekeeper is installed but no constraint
// template blocks privileged containers. Skipped when Gatekeeper is absent.
type NoPrivilegedPolicyRule struct{}

func (r NoPrivilegedPolicyRule) ID() string                { return "AKS_NO_PRIVILEGED_POLICY" }
func (r NoPrivilegedPolicyRule) Name() string              { return "No Privileged-Container Admission Policy" }
func (r NoPrivilegedPolicyRule) Category() models.Category { return models.CategoryImageManagement }
func (r NoPrivilegedPolicyRule) Requires() []models.Capability {
	return []models.Capability{models.CapabilityConstraintTemplates}
}

func (r NoPrivilegedPolicyRule) Evaluate(ctx RuleContext) []models.Finding {
	for _, t := range ctx.inventory().ConstraintTemplates {
		if templateMatches(t, "privileged", "pspprivileged") {
			return nil
		}
	}
	return []models.Finding{
		{
			ID:            r.ID(),
			RuleID:        r.ID(),
			Category:      r.Category(),
			Severity:      models.SeverityCritical,
			ClusterScoped: true,
			Message:       "Gatekeeper is installed but no constraint template blocks privileged containers.",
			Recommendation: "Deploy a privileged-container constraint template (e.g. k8spspprivilegedcontainer) so " +
				"privileged workloads are rejected at admission.",
		},
	}
}

// ── AKS_ACR_NO_ACRPULL ───────────────────────────────────────────────────────

// AcrPullRule verifies, for every configured registry, that the cluster's
// kubelet identity holds the AcrPull role. This is the one rule that reaches
// outside the inventory: the verifier is injected so the call is testable,
// each call is individually bounded by a timeout, and an indeterminate call
// degrades to a WARNING rather than failing the audit. Output is sorted by
// registry name for determinism.
type AcrPullRule struct {
	Verifier AcrPullVerifier
}

func (r AcrPullRule) ID() string                    { return "AKS_ACR_NO_ACRPULL" }
func (r AcrPullRule) Name() string                  { return "Cluster Identity Missing AcrPull Role" }
func (r AcrPullRule) Category() models.Category     { return models.CategoryImageManagement }
func (r AcrPullRule) Requires() []models.Capability { return nil }

func (r AcrPullRule) Evaluate(ctx RuleContext) []models.Finding {
	inv := ctx.inventory()
	if r.Verifier == nil || inv.ClusterDetails == nil || inv.ClusterDetails.PrincipalID == "" {
		return nil
	}

	registries := make([]models.RegistryDetails, len(inv.Registries))
	copy(registries, inv.Registries)
	sort.Slice(registries, func(i, j int) bool { return registries[i].Name < registries[j].Name })

	principal := inv.ClusterDetails.PrincipalID
	var findings []models.Finding
	for _, reg := range registries {
		callCtx, cancel := context.WithTimeout(context.Background(), acrVerifyTimeout)
		outcome, err := r.Verifier.VerifyAcrPull(callCtx, principal, reg)
		cancel()

		switch {
		case err != nil || outcome == AcrPullIndeterminate:
			findings = append(findings, models.Finding{
				ID:       fmt.Sprintf("%s:%s:indeterminate", r.ID(), reg.Name),
				RuleID:   r.ID(),
				Category: r.Category(),
				Severity: models.SeverityWarning,
				Resource: &models.ResourceRef{Kind: models.KindContainerRegistry, Name: reg.Name},
				Message: fmt.Sprintf("Could not confirm the AcrPull role assignment on registry %q; "+
					"the verification call did not complete.", reg.Name),
				Recommendation: "Re-run the audit with Azure credentials that can read role assignments " +
					"on the registry scope, or verify the assignment manually.",
			})
		case outcome == AcrPullAbsent:
			findings = append(findings, models.Finding{
				ID:       fmt.Sprintf("%s:%s", r.ID(), reg.Name),
				RuleID:   r.ID(),
				Category: r.Category(),
				Severity: models.SeverityCritical,
				Resource: &models.ResourceRef{Kind: models.KindContainerRegistry, Name: reg.Name},
				Message: fmt.Sprintf("Cluster identity has no AcrPull role assignment on registry %q; "+
					"image pulls from it will fail.", reg.Name),
				Recommendation: fmt.Sprintf("Grant the cluster's kubelet identity the AcrPull role on %q "+
					"(az aks update --attach-acr %s).", reg.Name, reg.Name),
			})
		}
	}
	return findings
}

// ── AKS_ACR_NO_PRIVATE_ENDPOINT ──────────────────────────────────────────────

// AcrNoPrivateEndpointRule fires for each audited registry that is reachable
// over the public network: no private endpoint and no default-deny network
// rule set.
type AcrNoPrivateEndpointRule struct{}

func (r AcrNoPrivateEndpointRule) ID() string                    { return "AKS_ACR_NO_PRIVATE_ENDPOINT" }
func (r AcrNoPrivateEndpointRule) Name() string                  { return "Registry Exposed Without Private Endpoint" }
func (r AcrNoPrivateEndpointRule) Category() models.Category     { return models.CategoryImageManagement }
func (r AcrNoPrivateEndpointRule) Requires() []models.Capability { return nil }

func (r AcrNoPrivateEndpointRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, reg := range ctx.inventory().Registries {
		if reg.PrivateEndpointCount > 0 || reg.NetworkDefaultAction == "Deny" {
			continue
		}
		findings = append(findings, models.Finding{
			ID:       fmt.Sprintf("%s:%s", r.ID(), reg.Name),
			RuleID:   r.ID(),
			Category: r.Category(),
			Severity: models.SeverityWarning,
			Resource: &models.ResourceRef{Kind: models.KindContainerRegistry, Name: reg.Name},
			Message: fmt.Sprintf("Registry %q has no private endpoint and its network rule set does not deny "+
				"public access.", reg.Name),
			Recommendation: "Add a private endpoint for the registry (requires Premium SKU) and set the network " +
				"rule set default action to Deny.",
			Metadata: map[string]any{"sku": reg.SKU},
		})
	}
	return findings
}

// ── AKS_POD_NO_RUNTIME_SECURITY ──────────────────────────────────────────────

// runtimeSecurityImageMarkers identify well-known runtime security agents by
// container image substring.
var runtimeSecurityImageMarkers = []string{
	"falco",
	"aqua",
	"twistlock",
	"prisma",
	"sysdig",
	"defender",
}

// runtimeSecurityAnnotations mark pods covered by a runtime security product
// without a sidecar.
var runtimeSecurityAnnotations = []string{
	"container.apparmor.security.beta.kubernetes.io",
	"runtime-security.akscheck.io/enabled",
}

// PodNoRuntimeSecurityRule fires for each pod that carries no recognizable
// runtime security sidecar and no runtime-security annotation.
type PodNoRuntimeSecurityRule struct{}

func (r PodNoRuntimeSecurityRule) ID() string                    { return "AKS_POD_NO_RUNTIME_SECURITY" }
func (r PodNoRuntimeSecurityRule) Name() string                  { return "Pod Without Runtime Security Coverage" }
func (r PodNoRuntimeSecurityRule) Category() models.Category     { return models.CategoryImageManagement }
func (r PodNoRuntimeSecurityRule) Requires() []models.Capability { return nil }

func (r PodNoRuntimeSecurityRule) Evaluate(ctx RuleContext) []models.Finding {
	var findings []models.Finding
	for _, p := range ctx.inventory().Pods {
		if podHasRuntimeSecurity(p) {
			continue
		}
		findings = append(findings, models.Finding{
			ID:       fmt.Sprintf("%s:%s/%s", r.ID(), p.Namespace, p.Name),
			RuleID:   r.ID(),
			Category: r.Category(),
			Severity: models.SeverityInfo,
			Resource: podRef(p),
			Message: fmt.Sprintf("Pod %q (namespace %q) shows no runtime security coverage: no known security "+
				"agent sidecar and no runtime-security annotation.", p.Name, p.Namespace),
			Recommendation: "Deploy a runtime threat detection agent (Microsoft Defender for Containers, Falco, " +
				"or equivalent) covering this workload.",
		})
	}
	return findings
}

func podHasRuntimeSecurity(p models.PodData) bool {
	for _, c := range p.Containers {
		img := strings.ToLower(c.Image)
		for _, marker := range runtimeSecurityImageMarkers {
			if strings.Contains(img, marker) {
				return true
			}
		}
	}
	for key := range p.Annotations {
		for _, marker := range runtimeSecurityAnnotations {
			if strings.HasPrefix(key, marker) {
				return true
			}
		}
	}
	return false
}
