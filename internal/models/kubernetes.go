package models

// NamespaceData holds processed namespace data consumed by rules.
type NamespaceData struct {
	// Name is the Kubernetes namespace name.
	Name string

	// Labels is a copy of the namespace's label map.
	Labels map[string]string
}

// ProbeSet records which health probes a container defines.
type ProbeSet struct {
	Liveness  bool
	Readiness bool
	Startup   bool
}

// ContainerData holds processed container data consumed by rules.
type ContainerData struct {
	// Name is the container name within the pod spec.
	Name string

	// Image is the full container image reference.
	Image string

	// Probes records which health probes are defined on the container.
	Probes ProbeSet

	// HasPreStopHook is true when a preStop lifecycle hook is defined.
	HasPreStopHook bool

	// HasCPURequest/HasMemoryRequest are true when the container declares a
	// non-zero CPU/memory resource request.
	HasCPURequest    bool
	HasMemoryRequest bool

	// HasCPULimit/HasMemoryLimit are true when the container declares a
	// non-zero CPU/memory resource limit.
	HasCPULimit    bool
	HasMemoryLimit bool

	// RunAsNonRoot is the effective runAsNonRoot flag (container-level
	// overrides pod-level). Nil means not configured.
	RunAsNonRoot *bool

	// ReadOnlyRootFilesystem reflects securityContext.readOnlyRootFilesystem.
	// Nil means not configured.
	ReadOnlyRootFilesystem *bool
}

// PodData holds processed pod data consumed by rules.
type PodData struct {
	// Name is the pod name.
	Name string

	// Namespace is the Kubernetes namespace that owns this pod.
	Namespace string

	// Labels is a copy of the pod's label map.
	Labels map[string]string

	// Annotations is a copy of the pod's annotation map.
	Annotations map[string]string

	// Containers holds per-container probe, resource, and security data.
	// A pod with no containers is valid input; per-container rules simply
	// have nothing to check.
	Containers []ContainerData

	// UsesSecretsStoreCSI is true when the pod mounts a
	// secrets-store.csi.k8s.io CSI volume.
	UsesSecretsStoreCSI bool
}

// DeploymentData holds processed deployment data consumed by rules.
type DeploymentData struct {
	Name      string
	Namespace string
	Labels    map[string]string

	// Replicas is the desired replica count from spec.replicas
	// (1 when the field is unset, matching the API server default).
	Replicas int32
}

// ServiceData holds processed Service data consumed by rules.
type ServiceData struct {
	Name      string
	Namespace string
	Labels    map[string]string
}

// ConfigMapData holds processed ConfigMap metadata consumed by rules.
type ConfigMapData struct {
	Name      string
	Namespace string
	Labels    map[string]string
}

// SecretData holds processed Secret metadata consumed by rules.
// Only metadata is carried; secret values are never collected.
type SecretData struct {
	Name      string
	Namespace string
	Labels    map[string]string
}

// HPAData holds processed HorizontalPodAutoscaler data consumed by rules.
type HPAData struct {
	Name      string
	Namespace string
	Labels    map[string]string

	// TargetKind and TargetName identify the scale target
	// (e.g. Deployment "api").
	TargetKind string
	TargetName string
}

// ConstraintTemplateData holds processed Gatekeeper ConstraintTemplate data.
type ConstraintTemplateData struct {
	// Name is the template's metadata name (e.g. "k8sallowedrepos").
	Name string

	// CRDKind is the constraint kind the template installs
	// (spec.crd.spec.names.kind).
	CRDKind string
}
