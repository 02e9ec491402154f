// Package azure implements the Azure Resource Manager side of inventory
// collection: AKS control-plane details, container registry configuration,
// and registry role-assignment verification.
package azure

import (
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v3"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerregistry/armcontainerregistry"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"
)

// ClientFactory builds ARM clients over a single credential and subscription.
// Credentials come from the default Azure credential chain (environment,
// workload identity, managed identity, az CLI).
type ClientFactory struct {
	cred           azcore.TokenCredential
	subscriptionID string
}

// NewClientFactory resolves the default credential chain for the given
// subscription. An empty subscriptionID falls back to $AZURE_SUBSCRIPTION_ID.
func NewClientFactory(subscriptionID string) (*ClientFactory, error) {
	if subscriptionID == "" {
		subscriptionID = os.Getenv("AZURE_SUBSCRIPTION_ID")
	}
	if subscriptionID == "" {
		return nil, fmt.Errorf("no subscription ID: set AZURE_SUBSCRIPTION_ID or pass --subscription")
	}

	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve azure credentials: %w", err)
	}

	return &ClientFactory{cred: cred, subscriptionID: subscriptionID}, nil
}

// SubscriptionID returns the subscription the factory's clients operate on.
func (f *ClientFactory) SubscriptionID() string {
	return f.subscriptionID
}

// ManagedClusters returns a client for the AKS managed cluster API.
func (f *ClientFactory) ManagedClusters() (*armcontainerservice.ManagedClustersClient, error) {
	return armcontainerservice.NewManagedClustersClient(f.subscriptionID, f.cred, nil)
}

// Registries returns a client for the container registry API.
func (f *ClientFactory) Registries() (*armcontainerregistry.RegistriesClient, error) {
	return armcontainerregistry.NewRegistriesClient(f.subscriptionID, f.cred, nil)
}

// RoleAssignments returns a client for the authorization role assignment API.
func (f *ClientFactory) RoleAssignments() (*armauthorization.RoleAssignmentsClient, error) {
	return armauthorization.NewRoleAssignmentsClient(f.subscriptionID, f.cred, nil)
}
