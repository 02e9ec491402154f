package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v3"

	"github.com/akscheck/akscheck/internal/models"
	"github.com/akscheck/akscheck/internal/rules"
)

// acrPullRoleDefinitionID is the well-known GUID of the built-in AcrPull role.
const acrPullRoleDefinitionID = "7f951dda-4ed3-4680-a7ca-43fe172d538d"

// RoleAssignmentVerifier checks registry role assignments through the
// authorization API. It implements the rule layer's AcrPullVerifier; a call
// that cannot complete reports indeterminate so the rule degrades to a
// warning instead of failing the audit.
type RoleAssignmentVerifier struct {
	client *armauthorization.RoleAssignmentsClient
}

// NewRoleAssignmentVerifier returns a verifier over the given client.
func NewRoleAssignmentVerifier(client *armauthorization.RoleAssignmentsClient) *RoleAssignmentVerifier {
	return &RoleAssignmentVerifier{client: client}
}

// VerifyAcrPull lists the role assignments held by principalID at the
// registry scope (including inherited assignments) and reports whether any
// of them is the AcrPull role.
func (v *RoleAssignmentVerifier) VerifyAcrPull(ctx context.Context, principalID string, registry models.RegistryDetails) (rules.AcrPullOutcome, error) {
	if registry.ResourceID == "" {
		return rules.AcrPullIndeterminate, fmt.Errorf("registry %q has no resource ID", registry.Name)
	}

	pager := v.client.NewListForScopePager(registry.ResourceID, &armauthorization.RoleAssignmentsClientListForScopeOptions{
		Filter: to.Ptr(fmt.Sprintf("assignedTo('%s')", principalID)),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return rules.AcrPullIndeterminate, fmt.Errorf("list role assignments for %q: %w", registry.Name, err)
		}
		for _, assignment := range page.Value {
			if assignment == nil || assignment.Properties == nil || assignment.Properties.RoleDefinitionID == nil {
				continue
			}
			if strings.HasSuffix(*assignment.Properties.RoleDefinitionID, acrPullRoleDefinitionID) {
				return rules.AcrPullGranted, nil
			}
		}
	}
	return rules.AcrPullAbsent, nil
}
