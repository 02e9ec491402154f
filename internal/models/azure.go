package models

// NodePool holds processed AKS agent pool data consumed by rules.
type NodePool struct {
	// Name is the agent pool name.
	Name string

	// Mode is the agent pool mode ("System" or "User").
	Mode string

	// Count is the current node count.
	Count int32

	// AutoScalingEnabled is true when the cluster autoscaler is enabled
	// for this pool.
	AutoScalingEnabled bool

	// AvailabilityZones lists the zones the pool spans. Empty means the
	// pool is not zone-redundant.
	AvailabilityZones []string
}

// ClusterDetails holds the AKS managed cluster attributes consumed by rules.
// All fields are normalized at the collection boundary; rules never inspect
// raw ARM responses.
type ClusterDetails struct {
	// Name is the managed cluster name.
	Name string

	// ResourceGroup is the Azure resource group containing the cluster.
	ResourceGroup string

	// Location is the Azure region.
	Location string

	// KubernetesVersion is the control-plane version.
	KubernetesVersion string

	// PrincipalID is the object ID of the cluster's kubelet managed
	// identity, used for registry role-assignment verification.
	PrincipalID string

	// PodIdentityEnabled is true when the legacy AAD pod identity addon
	// is enabled.
	PodIdentityEnabled bool

	// WorkloadIdentityEnabled is true when the workload identity security
	// profile is enabled.
	WorkloadIdentityEnabled bool

	// AuthorizedIPRanges lists the API server authorized IP ranges.
	// Empty means the API server accepts traffic from any address.
	AuthorizedIPRanges []string

	// PrivateCluster is true when the API server is private-link only.
	PrivateCluster bool

	// ManagedAADEnabled is true when AKS-managed Azure AD integration is
	// configured.
	ManagedAADEnabled bool

	// AzureRBACEnabled is true when Azure RBAC for Kubernetes
	// authorization is enabled.
	AzureRBACEnabled bool

	// SKUTier is the control-plane SLA tier ("Free", "Standard", "Premium").
	SKUTier string

	// NodePools lists the cluster's agent pools.
	NodePools []NodePool
}

// RegistryDetails holds processed Azure Container Registry data consumed by
// rules. Only registries explicitly referenced by configuration are collected.
type RegistryDetails struct {
	// Name is the registry name.
	Name string

	// SKU is the registry SKU ("Basic", "Standard", "Premium").
	SKU string

	// NetworkDefaultAction is the default network rule set action
	// ("Allow" or "Deny"). Empty means no network rule set is configured,
	// which rules treat as unrestricted.
	NetworkDefaultAction string

	// PrivateEndpointCount is the number of private endpoint connections.
	PrivateEndpointCount int

	// ResourceID is the full ARM resource ID, the scope for
	// role-assignment verification.
	ResourceID string
}
