// Package development bundles the workload development best-practice rules.
package development

import (
	"github.com/akscheck/akscheck/internal/rules"
)

// Rules returns the development rule pack in report order.
func Rules() []rules.Rule {
	return []rules.Rule{
		rules.PodNoLivenessProbeRule{},
		rules.PodNoReadinessProbeRule{},
		rules.PodNoStartupProbeRule{},
		rules.PodNoPreStopHookRule{},
		rules.DeploymentSingleReplicaRule{},
		rules.InconsistentLabelsRule{},
		rules.NamespaceNoHPARule{},
		rules.NoSecretsStoreCSIRule{},
		rules.LegacyPodIdentityRule{},
		rules.PodInDefaultNamespaceRule{},
		rules.PodNoResourceLimitsRule{},
		rules.PodDefaultSecurityContextRule{},
	}
}
