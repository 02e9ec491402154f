// Package imagemanagement bundles the image supply-chain and registry rules.
package imagemanagement

import (
	"github.com/akscheck/akscheck/internal/rules"
)

// Rules returns the image management rule pack in report order. The
// verifier backs the registry RBAC rule; pass nil to disable external
// verification (the rule then reports nothing).
func Rules(verifier rules.AcrPullVerifier) []rules.Rule {
	return []rules.Rule{
		rules.NoAllowedImagesPolicyRule{},
		rules.NoPrivilegedPolicyRule{},
		rules.AcrPullRule{Verifier: verifier},
		rules.AcrNoPrivateEndpointRule{},
		rules.PodNoRuntimeSecurityRule{},
	}
}
