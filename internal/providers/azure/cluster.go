package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice/v6"

	"github.com/akscheck/akscheck/internal/models"
)

// ClusterCollector fetches AKS managed cluster configuration and normalizes
// it into the rule-facing model. Rules never see raw ARM responses.
type ClusterCollector struct {
	client *armcontainerservice.ManagedClustersClient
}

// NewClusterCollector returns a collector over the given client.
func NewClusterCollector(client *armcontainerservice.ManagedClustersClient) *ClusterCollector {
	return &ClusterCollector{client: client}
}

// CollectClusterDetails fetches the managed cluster and converts it.
func (c *ClusterCollector) CollectClusterDetails(ctx context.Context, resourceGroup, clusterName string) (*models.ClusterDetails, error) {
	resp, err := c.client.Get(ctx, resourceGroup, clusterName, nil)
	if err != nil {
		return nil, fmt.Errorf("get managed cluster %s/%s: %w", resourceGroup, clusterName, err)
	}
	return ConvertManagedCluster(resp.ManagedCluster, resourceGroup, clusterName), nil
}

// ConvertManagedCluster normalizes an ARM managed cluster response into
// ClusterDetails. Every nil pointer collapses to its zero-value meaning:
// feature absent, range empty, tier unknown.
func ConvertManagedCluster(mc armcontainerservice.ManagedCluster, resourceGroup, clusterName string) *models.ClusterDetails {
	details := &models.ClusterDetails{
		Name:          clusterName,
		ResourceGroup: resourceGroup,
	}
	if mc.Name != nil {
		details.Name = *mc.Name
	}
	if mc.Location != nil {
		details.Location = *mc.Location
	}
	if mc.SKU != nil && mc.SKU.Tier != nil {
		details.SKUTier = string(*mc.SKU.Tier)
	}

	props := mc.Properties
	if props == nil {
		return details
	}

	if props.KubernetesVersion != nil {
		details.KubernetesVersion = *props.KubernetesVersion
	}
	if props.PodIdentityProfile != nil && props.PodIdentityProfile.Enabled != nil {
		details.PodIdentityEnabled = *props.PodIdentityProfile.Enabled
	}
	if props.SecurityProfile != nil && props.SecurityProfile.WorkloadIdentity != nil &&
		props.SecurityProfile.WorkloadIdentity.Enabled != nil {
		details.WorkloadIdentityEnabled = *props.SecurityProfile.WorkloadIdentity.Enabled
	}
	if props.AADProfile != nil {
		if props.AADProfile.Managed != nil {
			details.ManagedAADEnabled = *props.AADProfile.Managed
		}
		if props.AADProfile.EnableAzureRBAC != nil {
			details.AzureRBACEnabled = *props.AADProfile.EnableAzureRBAC
		}
	}
	if access := props.APIServerAccessProfile; access != nil {
		if access.EnablePrivateCluster != nil {
			details.PrivateCluster = *access.EnablePrivateCluster
		}
		for _, r := range access.AuthorizedIPRanges {
			if r != nil {
				details.AuthorizedIPRanges = append(details.AuthorizedIPRanges, *r)
			}
		}
	}

	// The kubelet identity is the principal that pulls images; registry
	// role-assignment checks verify against it.
	if kubelet, ok := props.IdentityProfile["kubeletidentity"]; ok && kubelet != nil && kubelet.ObjectID != nil {
		details.PrincipalID = *kubelet.ObjectID
	}

	for _, pool := range props.AgentPoolProfiles {
		if pool == nil {
			continue
		}
		details.NodePools = append(details.NodePools, convertAgentPool(pool))
	}

	return details
}

func convertAgentPool(pool *armcontainerservice.ManagedClusterAgentPoolProfile) models.NodePool {
	np := models.NodePool{}
	if pool.Name != nil {
		np.Name = *pool.Name
	}
	if pool.Mode != nil {
		np.Mode = string(*pool.Mode)
	}
	if pool.Count != nil {
		np.Count = *pool.Count
	}
	if pool.EnableAutoScaling != nil {
		np.AutoScalingEnabled = *pool.EnableAutoScaling
	}
	for _, z := range pool.AvailabilityZones {
		if z != nil {
			np.AvailabilityZones = append(np.AvailabilityZones, *z)
		}
	}
	return np
}
