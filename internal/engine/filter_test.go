package engine

import (
	"testing"

	"github.com/akscheck/akscheck/internal/models"
)

func testInventory() *models.Inventory {
	return &models.Inventory{
		Namespaces: []models.NamespaceData{{Name: "app"}, {Name: "kube-system"}},
		Pods: []models.PodData{
			{Name: "web-1", Namespace: "app"},
			{Name: "coredns", Namespace: "kube-system"},
		},
		Deployments: []models.DeploymentData{
			{Name: "web", Namespace: "app", Replicas: 2},
			{Name: "coredns", Namespace: "kube-system", Replicas: 2},
		},
		Services:   []models.ServiceData{{Name: "kube-dns", Namespace: "kube-system"}},
		ConfigMaps: []models.ConfigMapData{{Name: "cm", Namespace: "app"}},
		Secrets:    []models.SecretData{{Name: "sec", Namespace: "kube-system"}},
		HPAs:       []models.HPAData{{Name: "web", Namespace: "app"}},
		ConstraintTemplates: []models.ConstraintTemplateData{
			{Name: "k8sallowedrepos", CRDKind: "K8sAllowedRepos"},
		},
		ConstraintTemplatesPresent: true,
		Registries:                 []models.RegistryDetails{{Name: "myacr"}},
	}
}

func TestFilterInventory_RemovesIgnoredNamespaces(t *testing.T) {
	inv := testInventory()
	out := filterInventory(inv, ignoreSet([]string{"kube-system"}))

	if len(out.Namespaces) != 1 || out.Namespaces[0].Name != "app" {
		t.Errorf("Namespaces = %v; want only app", out.Namespaces)
	}
	if len(out.Pods) != 1 || out.Pods[0].Name != "web-1" {
		t.Errorf("Pods = %v; want only web-1", out.Pods)
	}
	if len(out.Deployments) != 1 || out.Deployments[0].Name != "web" {
		t.Errorf("Deployments = %v; want only web", out.Deployments)
	}
	if len(out.Services) != 0 {
		t.Errorf("Services = %v; want empty", out.Services)
	}
	if len(out.ConfigMaps) != 1 {
		t.Errorf("ConfigMaps = %v; want cm kept", out.ConfigMaps)
	}
	if len(out.Secrets) != 0 {
		t.Errorf("Secrets = %v; want empty", out.Secrets)
	}
	if len(out.HPAs) != 1 {
		t.Errorf("HPAs = %v; want web kept", out.HPAs)
	}
}

func TestFilterInventory_ClusterScopedDataUntouched(t *testing.T) {
	inv := testInventory()
	out := filterInventory(inv, ignoreSet([]string{"app", "kube-system"}))

	if !out.ConstraintTemplatesPresent || len(out.ConstraintTemplates) != 1 {
		t.Error("constraint templates must pass through the namespace filter")
	}
	if len(out.Registries) != 1 {
		t.Error("registries must pass through the namespace filter")
	}
}

func TestFilterInventory_EmptySetIsIdentity(t *testing.T) {
	inv := testInventory()
	out := filterInventory(inv, nil)
	if out != inv {
		t.Error("empty ignore set should return the inventory unchanged")
	}
}

func TestFilterInventory_DoesNotMutateOriginal(t *testing.T) {
	inv := testInventory()
	_ = filterInventory(inv, ignoreSet([]string{"app"}))

	if len(inv.Pods) != 2 || len(inv.Namespaces) != 2 {
		t.Error("filter must not mutate the source inventory")
	}
}

func TestIgnoreSet_DropsEmptyNames(t *testing.T) {
	set := ignoreSet([]string{"", "kube-system"})
	if _, ok := set[""]; ok {
		t.Error("empty namespace name must not enter the set")
	}
	if _, ok := set["kube-system"]; !ok {
		t.Error("kube-system missing from set")
	}
}
