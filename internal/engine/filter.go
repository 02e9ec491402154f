package engine

import (
	"github.com/akscheck/akscheck/internal/models"
)

// filterInventory returns a copy of inv with every namespace-scoped
// collection reduced to objects outside the ignore set. The filter is the
// single namespace-exclusion point of the whole pipeline: it runs exactly
// once, before any rule sees the inventory, so no rule can observe or
// re-admit an ignored namespace. Cluster-scoped data (cluster details,
// registries, constraint templates) passes through untouched. An empty
// ignore set returns inv unchanged.
func filterInventory(inv *models.Inventory, ignore map[string]struct{}) *models.Inventory {
	if len(ignore) == 0 {
		return inv
	}

	out := *inv
	out.Namespaces = filterSlice(inv.Namespaces, ignore, func(o models.NamespaceData) string { return o.Name })
	out.Pods = filterSlice(inv.Pods, ignore, func(o models.PodData) string { return o.Namespace })
	out.Deployments = filterSlice(inv.Deployments, ignore, func(o models.DeploymentData) string { return o.Namespace })
	out.Services = filterSlice(inv.Services, ignore, func(o models.ServiceData) string { return o.Namespace })
	out.ConfigMaps = filterSlice(inv.ConfigMaps, ignore, func(o models.ConfigMapData) string { return o.Namespace })
	out.Secrets = filterSlice(inv.Secrets, ignore, func(o models.SecretData) string { return o.Namespace })
	out.HPAs = filterSlice(inv.HPAs, ignore, func(o models.HPAData) string { return o.Namespace })
	return &out
}

// filterSlice keeps the elements whose namespace key is not in the ignore
// set, preserving order. It always allocates a fresh slice so the caller's
// inventory is never aliased.
func filterSlice[T any](in []T, ignore map[string]struct{}, key func(T) string) []T {
	out := make([]T, 0, len(in))
	for _, item := range in {
		if _, skip := ignore[key(item)]; skip {
			continue
		}
		out = append(out, item)
	}
	return out
}

// ignoreSet normalizes the CLI namespace list into a set, dropping empties.
func ignoreSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}
