package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerregistry/armcontainerregistry"

	"github.com/akscheck/akscheck/internal/models"
)

// RegistryCollector fetches container registry configuration for the
// registries named in the audit configuration. Registries are looked up in
// the audited cluster's resource group.
type RegistryCollector struct {
	client        *armcontainerregistry.RegistriesClient
	resourceGroup string
}

// NewRegistryCollector returns a collector over the given client, scoped to
// one resource group.
func NewRegistryCollector(client *armcontainerregistry.RegistriesClient, resourceGroup string) *RegistryCollector {
	return &RegistryCollector{client: client, resourceGroup: resourceGroup}
}

// CollectRegistries fetches each named registry. A failure on any registry
// aborts the collection; a missing registry is a configuration error, not a
// finding.
func (c *RegistryCollector) CollectRegistries(ctx context.Context, names []string) ([]models.RegistryDetails, error) {
	registries := make([]models.RegistryDetails, 0, len(names))
	for _, name := range names {
		resp, err := c.client.Get(ctx, c.resourceGroup, name, nil)
		if err != nil {
			return nil, fmt.Errorf("get container registry %q: %w", name, err)
		}
		registries = append(registries, ConvertRegistry(resp.Registry, name))
	}
	return registries, nil
}

// ConvertRegistry normalizes an ARM registry response into RegistryDetails.
func ConvertRegistry(reg armcontainerregistry.Registry, name string) models.RegistryDetails {
	details := models.RegistryDetails{Name: name}
	if reg.Name != nil {
		details.Name = *reg.Name
	}
	if reg.ID != nil {
		details.ResourceID = *reg.ID
	}
	if reg.SKU != nil && reg.SKU.Name != nil {
		details.SKU = string(*reg.SKU.Name)
	}
	if props := reg.Properties; props != nil {
		if props.NetworkRuleSet != nil && props.NetworkRuleSet.DefaultAction != nil {
			details.NetworkDefaultAction = string(*props.NetworkRuleSet.DefaultAction)
		}
		details.PrivateEndpointCount = len(props.PrivateEndpointConnections)
	}
	return details
}
