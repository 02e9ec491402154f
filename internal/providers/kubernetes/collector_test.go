package kubernetes

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	autoscalingv2 "k8s.io/api/autoscaling/v2"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"
)

func newFakeDynamic(objects ...runtime.Object) *dynamicfake.FakeDynamicClient {
	scheme := runtime.NewScheme()
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme,
		map[schema.GroupVersionResource]string{
			constraintTemplateGVR: "ConstraintTemplateList",
		}, objects...)
}

func makeTestPod() *corev1.Pod {
	truth := true
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "web-1",
			Namespace: "app",
			Labels:    map[string]string{"app": "web"},
		},
		Spec: corev1.PodSpec{
			Volumes: []corev1.Volume{
				{
					Name: "secrets",
					VolumeSource: corev1.VolumeSource{
						CSI: &corev1.CSIVolumeSource{Driver: secretsStoreCSIDriver},
					},
				},
			},
			Containers: []corev1.Container{
				{
					Name:          "web",
					Image:         "myacr.azurecr.io/web:v1",
					LivenessProbe: &corev1.Probe{},
					Lifecycle: &corev1.Lifecycle{
						PreStop: &corev1.LifecycleHandler{},
					},
					Resources: corev1.ResourceRequirements{
						Requests: corev1.ResourceList{
							corev1.ResourceCPU:    resource.MustParse("100m"),
							corev1.ResourceMemory: resource.MustParse("128Mi"),
						},
						Limits: corev1.ResourceList{
							corev1.ResourceCPU: resource.MustParse("200m"),
						},
					},
					SecurityContext: &corev1.SecurityContext{
						ReadOnlyRootFilesystem: &truth,
					},
				},
			},
		},
	}
}

func TestCollectClusterResources_Pods(t *testing.T) {
	truth := true
	pod := makeTestPod()
	pod.Spec.SecurityContext = &corev1.PodSecurityContext{RunAsNonRoot: &truth}

	clientset := fake.NewSimpleClientset(pod)
	inv, err := NewCollector(clientset, newFakeDynamic()).CollectClusterResources(context.Background())
	if err != nil {
		t.Fatalf("CollectClusterResources: %v", err)
	}

	if len(inv.Pods) != 1 {
		t.Fatalf("expected 1 pod; got %d", len(inv.Pods))
	}
	p := inv.Pods[0]
	if p.Name != "web-1" || p.Namespace != "app" {
		t.Errorf("pod = %s/%s; want app/web-1", p.Namespace, p.Name)
	}
	if !p.UsesSecretsStoreCSI {
		t.Error("expected UsesSecretsStoreCSI=true for CSI volume")
	}
	if len(p.Containers) != 1 {
		t.Fatalf("expected 1 container; got %d", len(p.Containers))
	}
	c := p.Containers[0]
	if !c.Probes.Liveness || c.Probes.Readiness || c.Probes.Startup {
		t.Errorf("probes = %+v; want only liveness", c.Probes)
	}
	if !c.HasPreStopHook {
		t.Error("expected HasPreStopHook=true")
	}
	if !c.HasCPURequest || !c.HasMemoryRequest || !c.HasCPULimit || c.HasMemoryLimit {
		t.Errorf("resource flags = %v/%v/%v/%v; want true/true/true/false",
			c.HasCPURequest, c.HasMemoryRequest, c.HasCPULimit, c.HasMemoryLimit)
	}
	// Pod-level runAsNonRoot applies when the container does not override it.
	if c.RunAsNonRoot == nil || !*c.RunAsNonRoot {
		t.Error("expected pod-level RunAsNonRoot to propagate to container")
	}
	if c.ReadOnlyRootFilesystem == nil || !*c.ReadOnlyRootFilesystem {
		t.Error("expected container ReadOnlyRootFilesystem=true")
	}
}

func TestCollectClusterResources_DeploymentReplicasDefault(t *testing.T) {
	two := int32(2)
	clientset := fake.NewSimpleClientset(
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: "implicit", Namespace: "app"},
		},
		&appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{Name: "explicit", Namespace: "app"},
			Spec:       appsv1.DeploymentSpec{Replicas: &two},
		},
	)

	inv, err := NewCollector(clientset, newFakeDynamic()).CollectClusterResources(context.Background())
	if err != nil {
		t.Fatalf("CollectClusterResources: %v", err)
	}
	if len(inv.Deployments) != 2 {
		t.Fatalf("expected 2 deployments; got %d", len(inv.Deployments))
	}
	byName := map[string]int32{}
	for _, d := range inv.Deployments {
		byName[d.Name] = d.Replicas
	}
	if byName["implicit"] != 1 {
		t.Errorf("implicit replicas = %d; unset must default to 1", byName["implicit"])
	}
	if byName["explicit"] != 2 {
		t.Errorf("explicit replicas = %d; want 2", byName["explicit"])
	}
}

func TestCollectClusterResources_NamespacesAndHPAs(t *testing.T) {
	clientset := fake.NewSimpleClientset(
		&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{
			Name: "app", Labels: map[string]string{"app": "x"},
		}},
		&autoscalingv2.HorizontalPodAutoscaler{
			ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "app"},
			Spec: autoscalingv2.HorizontalPodAutoscalerSpec{
				ScaleTargetRef: autoscalingv2.CrossVersionObjectReference{
					Kind: "Deployment", Name: "web",
				},
			},
		},
	)

	inv, err := NewCollector(clientset, newFakeDynamic()).CollectClusterResources(context.Background())
	if err != nil {
		t.Fatalf("CollectClusterResources: %v", err)
	}
	if len(inv.Namespaces) != 1 || inv.Namespaces[0].Labels["app"] != "x" {
		t.Errorf("Namespaces = %v; want app with label", inv.Namespaces)
	}
	if len(inv.HPAs) != 1 || inv.HPAs[0].TargetKind != "Deployment" || inv.HPAs[0].TargetName != "web" {
		t.Errorf("HPAs = %v; want one targeting Deployment/web", inv.HPAs)
	}
}

func TestCollectClusterResources_ConstraintTemplates(t *testing.T) {
	tmpl := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "templates.gatekeeper.sh/v1",
		"kind":       "ConstraintTemplate",
		"metadata":   map[string]any{"name": "k8sallowedrepos"},
		"spec": map[string]any{
			"crd": map[string]any{
				"spec": map[string]any{
					"names": map[string]any{"kind": "K8sAllowedRepos"},
				},
			},
		},
	}}

	inv, err := NewCollector(fake.NewSimpleClientset(), newFakeDynamic(tmpl)).CollectClusterResources(context.Background())
	if err != nil {
		t.Fatalf("CollectClusterResources: %v", err)
	}
	if !inv.ConstraintTemplatesPresent {
		t.Error("expected ConstraintTemplatesPresent=true")
	}
	if len(inv.ConstraintTemplates) != 1 {
		t.Fatalf("expected 1 template; got %d", len(inv.ConstraintTemplates))
	}
	got := inv.ConstraintTemplates[0]
	if got.Name != "k8sallowedrepos" || got.CRDKind != "K8sAllowedRepos" {
		t.Errorf("template = %+v; want k8sallowedrepos/K8sAllowedRepos", got)
	}
}

func TestCollectClusterResources_GatekeeperNotInstalled(t *testing.T) {
	// A NotFound from the CRD list means "not installed", not an error.
	dyn := newFakeDynamic()
	dyn.PrependReactor("list", "constrainttemplates", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewNotFound(schema.GroupResource{
			Group: "templates.gatekeeper.sh", Resource: "constrainttemplates",
		}, "")
	})

	inv, err := NewCollector(fake.NewSimpleClientset(), dyn).CollectClusterResources(context.Background())
	if err != nil {
		t.Fatalf("CollectClusterResources: %v", err)
	}
	if inv.ConstraintTemplatesPresent {
		t.Error("expected ConstraintTemplatesPresent=false when CRD is missing")
	}
	if len(inv.ConstraintTemplates) != 0 {
		t.Errorf("expected 0 templates; got %d", len(inv.ConstraintTemplates))
	}
}

func TestCollectClusterResources_NilDynamicClient(t *testing.T) {
	inv, err := NewCollector(fake.NewSimpleClientset(), nil).CollectClusterResources(context.Background())
	if err != nil {
		t.Fatalf("CollectClusterResources: %v", err)
	}
	if inv.ConstraintTemplatesPresent {
		t.Error("expected capability absent without a dynamic client")
	}
	if inv.CollectedAt.IsZero() {
		t.Error("expected CollectedAt to be stamped")
	}
}
