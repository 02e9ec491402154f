package kubernetes

import (
	"k8s.io/client-go/dynamic"
	k8sclient "k8s.io/client-go/kubernetes"
)

// KubeClientProvider creates kubernetes clients for named kubeconfig contexts.
// It abstracts kubeconfig loading so callers and tests can inject any
// clientset without touching the filesystem.
type KubeClientProvider interface {
	// ClientsForContext returns a typed clientset, a dynamic client (used
	// for CRD-backed resources such as Gatekeeper constraint templates),
	// and the resolved ClusterInfo for the given kubeconfig context. Pass
	// an empty string to use the current context from the loaded kubeconfig.
	ClientsForContext(contextName string) (k8sclient.Interface, dynamic.Interface, ClusterInfo, error)
}

// DefaultKubeClientProvider loads kubeconfig from $KUBECONFIG or ~/.kube/config
// and builds real kubernetes clients.
type DefaultKubeClientProvider struct{}

// NewDefaultKubeClientProvider returns a provider backed by the system kubeconfig.
func NewDefaultKubeClientProvider() *DefaultKubeClientProvider {
	return &DefaultKubeClientProvider{}
}

// ClientsForContext implements KubeClientProvider.
func (p *DefaultKubeClientProvider) ClientsForContext(contextName string) (k8sclient.Interface, dynamic.Interface, ClusterInfo, error) {
	return LoadClients(resolveKubeconfigPath(), contextName)
}
