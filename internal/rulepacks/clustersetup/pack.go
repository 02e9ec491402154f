// Package clustersetup bundles the control-plane and node-pool setup rules.
package clustersetup

import (
	"github.com/akscheck/akscheck/internal/rules"
)

// Rules returns the cluster setup rule pack in report order.
func Rules() []rules.Rule {
	return []rules.Rule{
		rules.NoAuthorizedIPRangesRule{},
		rules.NoManagedAADRule{},
		rules.AutoscalerDisabledRule{},
		rules.DashboardDeployedRule{},
		rules.SingleNodePoolRule{},
	}
}
