package kubernetes

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	k8sclient "k8s.io/client-go/kubernetes"

	"github.com/akscheck/akscheck/internal/models"
)

// secretsStoreCSIDriver is the driver name of the Secrets Store CSI provider.
const secretsStoreCSIDriver = "secrets-store.csi.k8s.io"

// constraintTemplateGVR addresses Gatekeeper constraint templates, which are
// CRD-backed and reachable only through the dynamic client.
var constraintTemplateGVR = schema.GroupVersionResource{
	Group:    "templates.gatekeeper.sh",
	Version:  "v1",
	Resource: "constrainttemplates",
}

// Collector builds the in-cluster half of the audit inventory.
type Collector struct {
	clientset k8sclient.Interface
	dynamic   dynamic.Interface
}

// NewCollector returns a collector over the given clients. The dynamic
// client may be nil; constraint template collection is then skipped and the
// capability is reported absent.
func NewCollector(clientset k8sclient.Interface, dyn dynamic.Interface) *Collector {
	return &Collector{clientset: clientset, dynamic: dyn}
}

// CollectClusterResources lists every resource kind the rules consume and
// returns a fresh, unfiltered inventory stamped with the collection time.
// An error from any typed list aborts the collection; only the absence of
// the Gatekeeper CRD is tolerated (it flips the capability flag instead).
func (c *Collector) CollectClusterResources(ctx context.Context) (*models.Inventory, error) {
	inv := &models.Inventory{CollectedAt: time.Now().UTC()}

	var err error
	if inv.Namespaces, err = collectNamespaces(ctx, c.clientset); err != nil {
		return nil, fmt.Errorf("collect namespaces: %w", err)
	}
	if inv.Pods, err = collectPods(ctx, c.clientset); err != nil {
		return nil, fmt.Errorf("collect pods: %w", err)
	}
	if inv.Deployments, err = collectDeployments(ctx, c.clientset); err != nil {
		return nil, fmt.Errorf("collect deployments: %w", err)
	}
	if inv.Services, err = collectServices(ctx, c.clientset); err != nil {
		return nil, fmt.Errorf("collect services: %w", err)
	}
	if inv.ConfigMaps, err = collectConfigMaps(ctx, c.clientset); err != nil {
		return nil, fmt.Errorf("collect configmaps: %w", err)
	}
	if inv.Secrets, err = collectSecrets(ctx, c.clientset); err != nil {
		return nil, fmt.Errorf("collect secrets: %w", err)
	}
	if inv.HPAs, err = collectHPAs(ctx, c.clientset); err != nil {
		return nil, fmt.Errorf("collect horizontal pod autoscalers: %w", err)
	}

	if c.dynamic != nil {
		templates, present, err := collectConstraintTemplates(ctx, c.dynamic)
		if err != nil {
			return nil, fmt.Errorf("collect constraint templates: %w", err)
		}
		inv.ConstraintTemplates = templates
		inv.ConstraintTemplatesPresent = present
	}

	return inv, nil
}

func collectNamespaces(ctx context.Context, clientset k8sclient.Interface) ([]models.NamespaceData, error) {
	nsList, err := clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	namespaces := make([]models.NamespaceData, 0, len(nsList.Items))
	for _, ns := range nsList.Items {
		namespaces = append(namespaces, models.NamespaceData{
			Name:   ns.Name,
			Labels: copyMap(ns.Labels),
		})
	}
	return namespaces, nil
}

// collectPods lists all pods across all namespaces. For each container it
// records probe presence, the preStop hook, request/limit completeness, and
// the effective security context; pod-level runAsNonRoot applies to every
// container that does not override it.
func collectPods(ctx context.Context, clientset k8sclient.Interface) ([]models.PodData, error) {
	podList, err := clientset.CoreV1().Pods("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	pods := make([]models.PodData, 0, len(podList.Items))
	for _, p := range podList.Items {
		pod := models.PodData{
			Name:        p.Name,
			Namespace:   p.Namespace,
			Labels:      copyMap(p.Labels),
			Annotations: copyMap(p.Annotations),
		}

		var podRunAsNonRoot *bool
		if p.Spec.SecurityContext != nil {
			podRunAsNonRoot = p.Spec.SecurityContext.RunAsNonRoot
		}

		for _, v := range p.Spec.Volumes {
			if v.CSI != nil && v.CSI.Driver == secretsStoreCSIDriver {
				pod.UsesSecretsStoreCSI = true
				break
			}
		}

		for _, c := range p.Spec.Containers {
			pod.Containers = append(pod.Containers, convertContainer(c, podRunAsNonRoot))
		}
		pods = append(pods, pod)
	}
	return pods, nil
}

func convertContainer(c corev1.Container, podRunAsNonRoot *bool) models.ContainerData {
	data := models.ContainerData{
		Name:  c.Name,
		Image: c.Image,
		Probes: models.ProbeSet{
			Liveness:  c.LivenessProbe != nil,
			Readiness: c.ReadinessProbe != nil,
			Startup:   c.StartupProbe != nil,
		},
		HasPreStopHook:   c.Lifecycle != nil && c.Lifecycle.PreStop != nil,
		HasCPURequest:    hasNonZero(c.Resources.Requests, corev1.ResourceCPU),
		HasMemoryRequest: hasNonZero(c.Resources.Requests, corev1.ResourceMemory),
		HasCPULimit:      hasNonZero(c.Resources.Limits, corev1.ResourceCPU),
		HasMemoryLimit:   hasNonZero(c.Resources.Limits, corev1.ResourceMemory),
		RunAsNonRoot:     podRunAsNonRoot,
	}
	if c.SecurityContext != nil {
		if c.SecurityContext.RunAsNonRoot != nil {
			data.RunAsNonRoot = c.SecurityContext.RunAsNonRoot
		}
		data.ReadOnlyRootFilesystem = c.SecurityContext.ReadOnlyRootFilesystem
	}
	return data
}

func hasNonZero(list corev1.ResourceList, name corev1.ResourceName) bool {
	q, ok := list[name]
	return ok && !q.IsZero()
}

// collectDeployments lists all deployments. An unset replica count means the
// API default of 1.
func collectDeployments(ctx context.Context, clientset k8sclient.Interface) ([]models.DeploymentData, error) {
	depList, err := clientset.AppsV1().Deployments("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	deployments := make([]models.DeploymentData, 0, len(depList.Items))
	for _, d := range depList.Items {
		replicas := int32(1)
		if d.Spec.Replicas != nil {
			replicas = *d.Spec.Replicas
		}
		deployments = append(deployments, models.DeploymentData{
			Name:      d.Name,
			Namespace: d.Namespace,
			Labels:    copyMap(d.Labels),
			Replicas:  replicas,
		})
	}
	return deployments, nil
}

func collectServices(ctx context.Context, clientset k8sclient.Interface) ([]models.ServiceData, error) {
	svcList, err := clientset.CoreV1().Services("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	services := make([]models.ServiceData, 0, len(svcList.Items))
	for _, s := range svcList.Items {
		services = append(services, models.ServiceData{
			Name:      s.Name,
			Namespace: s.Namespace,
			Labels:    copyMap(s.Labels),
		})
	}
	return services, nil
}

func collectConfigMaps(ctx context.Context, clientset k8sclient.Interface) ([]models.ConfigMapData, error) {
	cmList, err := clientset.CoreV1().ConfigMaps("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	configMaps := make([]models.ConfigMapData, 0, len(cmList.Items))
	for _, cm := range cmList.Items {
		configMaps = append(configMaps, models.ConfigMapData{
			Name:      cm.Name,
			Namespace: cm.Namespace,
			Labels:    copyMap(cm.Labels),
		})
	}
	return configMaps, nil
}

func collectSecrets(ctx context.Context, clientset k8sclient.Interface) ([]models.SecretData, error) {
	secList, err := clientset.CoreV1().Secrets("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	secrets := make([]models.SecretData, 0, len(secList.Items))
	for _, s := range secList.Items {
		secrets = append(secrets, models.SecretData{
			Name:      s.Name,
			Namespace: s.Namespace,
			Labels:    copyMap(s.Labels),
		})
	}
	return secrets, nil
}

func collectHPAs(ctx context.Context, clientset k8sclient.Interface) ([]models.HPAData, error) {
	hpaList, err := clientset.AutoscalingV2().HorizontalPodAutoscalers("").List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}
	hpas := make([]models.HPAData, 0, len(hpaList.Items))
	for _, h := range hpaList.Items {
		hpas = append(hpas, models.HPAData{
			Name:       h.Name,
			Namespace:  h.Namespace,
			Labels:     copyMap(h.Labels),
			TargetKind: h.Spec.ScaleTargetRef.Kind,
			TargetName: h.Spec.ScaleTargetRef.Name,
		})
	}
	return hpas, nil
}

// collectConstraintTemplates lists Gatekeeper constraint templates through
// the dynamic client. A NotFound from the list call means the CRD itself is
// not installed: present is false and no error is returned, so dependent
// rules are skipped rather than failed.
func collectConstraintTemplates(ctx context.Context, dyn dynamic.Interface) ([]models.ConstraintTemplateData, bool, error) {
	list, err := dyn.Resource(constraintTemplateGVR).List(ctx, metav1.ListOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	templates := make([]models.ConstraintTemplateData, 0, len(list.Items))
	for _, item := range list.Items {
		kind, _, _ := unstructured.NestedString(item.Object, "spec", "crd", "spec", "names", "kind")
		templates = append(templates, models.ConstraintTemplateData{
			Name:    item.GetName(),
			CRDKind: kind,
		})
	}
	return templates, true, nil
}

func copyMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
