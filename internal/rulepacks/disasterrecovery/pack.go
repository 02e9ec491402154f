// Package disasterrecovery bundles the resilience and backup rules.
package disasterrecovery

import (
	"github.com/akscheck/akscheck/internal/rules"
)

// Rules returns the disaster recovery rule pack in report order.
func Rules() []rules.Rule {
	return []rules.Rule{
		rules.NoAvailabilityZonesRule{},
		rules.FreeSLATierRule{},
		rules.NoVeleroRule{},
	}
}
