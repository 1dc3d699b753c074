// Package locator finds the instance specific references of a workflow:
// resource locators picked from a list and absolute URLs.
package locator

import (
	"maps"
	"slices"

	"github.com/CompassSecurity/flowleek/pkg/workflow"
)

const (
	// MarkerKey flags an object as a resource locator.
	MarkerKey = "__rl"
	ModeList  = "list"
	ModeID    = "id"
)

// ResourceLocator is a resource locator selected from a list.
type ResourceLocator struct {
	Path       workflow.Path
	Value      string
	CachedName string
}

// IsListLocator reports whether v is a resource locator in list mode.
func IsListLocator(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	marker, _ := obj[MarkerKey].(bool)
	mode, _ := obj["mode"].(string)
	return marker && mode == ModeList
}

// ResourceLocators walks the parameter trees of all nodes depth first and
// returns every list mode resource locator. Object keys are visited in sorted
// order. A matched locator is not descended into.
func ResourceLocators(nodes []workflow.Node) []ResourceLocator {
	var found []ResourceLocator
	for i, node := range nodes {
		walk(node.Parameters, workflow.Path{Node: i}, &found)
	}
	return found
}

func walk(v any, path workflow.Path, found *[]ResourceLocator) {
	if IsListLocator(v) {
		obj := v.(map[string]any)
		cachedName, _ := obj["cachedResultName"].(string)
		*found = append(*found, ResourceLocator{
			Path:       path,
			Value:      workflow.Stringify(obj["value"]),
			CachedName: cachedName,
		})
		return
	}

	switch t := v.(type) {
	case map[string]any:
		for _, key := range slices.Sorted(maps.Keys(t)) {
			walk(t[key], path.Child(key), found)
		}
	case []any:
		for i, item := range t {
			walk(item, path.Child(i), found)
		}
	}
}
