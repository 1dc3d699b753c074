// Package rewrite replaces instance specific values of a workflow definition
// with placeholders. The passes must run in this order: URLs, resource
// locators, credentials. Every pass returns a new definition and leaves its
// input untouched.
package rewrite

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/CompassSecurity/flowleek/pkg/locator"
	"github.com/CompassSecurity/flowleek/pkg/workflow"
)

// URLReplacer substitutes URLs with their placeholders, longest URL first so
// a URL that prefixes another one never splits it. An occurrence is replaced
// only where it stands as a whole URL, so http://example.co leaves
// http://example.co.localhost alone.
type URLReplacer struct {
	urls         []string
	placeholders map[string]string
	empty        bool
}

func NewURLReplacer(placeholders map[string]string) *URLReplacer {
	urls := slices.SortedFunc(maps.Keys(placeholders), func(a, b string) int {
		return cmp.Or(cmp.Compare(len(b), len(a)), strings.Compare(a, b))
	})
	return &URLReplacer{urls: urls, placeholders: placeholders, empty: len(urls) == 0}
}

// Replace substitutes every bounded URL occurrence in s.
func (r *URLReplacer) Replace(s string) string {
	if r.empty {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if u, ok := r.matchAt(s, i); ok {
			b.WriteString(r.placeholders[u])
			i += len(u)
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func (r *URLReplacer) matchAt(s string, i int) (string, bool) {
	if c := s[i]; c != 'h' && c != 'H' {
		return "", false
	}
	for _, u := range r.urls {
		if strings.HasPrefix(s[i:], u) && locator.Bounded(s, i, i+len(u)) {
			return u, true
		}
	}
	return "", false
}

// Definition replaces every URL occurrence in the serialized definition and
// parses the result back.
func (r *URLReplacer) Definition(def *workflow.Definition) (*workflow.Definition, error) {
	if r.empty {
		return def.Clone(), nil
	}
	data, err := workflow.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("serializing definition: %w", err)
	}
	out, err := workflow.Decode([]byte(r.Replace(string(data))))
	if err != nil {
		return nil, fmt.Errorf("parsing rewritten definition: %w", err)
	}
	return out, nil
}

// Path applies the substitution to the object keys of p, so a path recorded
// before the URL pass still addresses the same value afterwards.
func (r *URLReplacer) Path(p workflow.Path) workflow.Path {
	if r.empty {
		return p
	}
	keys := make([]any, len(p.Keys))
	for i, key := range p.Keys {
		if s, ok := key.(string); ok {
			keys[i] = r.Replace(s)
			continue
		}
		keys[i] = key
	}
	return workflow.Path{Node: p.Node, Keys: keys}
}

// URLs is the URL pass. placeholders maps each URL to its placeholder.
func URLs(def *workflow.Definition, placeholders map[string]string) (*workflow.Definition, error) {
	return NewURLReplacer(placeholders).Definition(def)
}

// Replacement targets one resource locator.
type Replacement struct {
	Path        workflow.Path
	Placeholder string
}

// ResourceLocators is the resource locator pass. Each addressed subtree is
// replaced by an id mode locator holding the placeholder; the cached display
// name and URL are dropped with it.
func ResourceLocators(def *workflow.Definition, replacements []Replacement) (*workflow.Definition, error) {
	out := def.Clone()
	for _, r := range replacements {
		value := map[string]any{
			locator.MarkerKey: true,
			"mode":            locator.ModeID,
			"value":           r.Placeholder,
		}
		if err := out.Set(r.Path, value); err != nil {
			return nil, fmt.Errorf("replacing resource locator: %w", err)
		}
	}
	return out, nil
}

// Credentials is the credential pass. Every binding keeps its type key, loses
// its id and gets the placeholder of its type as name.
func Credentials(def *workflow.Definition, placeholder func(credType string) string) *workflow.Definition {
	out := def.Clone()
	for i := range out.Nodes {
		for credType := range out.Nodes[i].Credentials {
			out.Nodes[i].Credentials[credType] = workflow.Credential{ID: nil, Name: placeholder(credType)}
		}
	}
	return out
}
