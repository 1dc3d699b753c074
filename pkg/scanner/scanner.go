// Package scanner applies the rule tables to workflow definitions.
package scanner

import (
	"slices"

	"github.com/CompassSecurity/flowleek/pkg/scanner/rules"
	"github.com/CompassSecurity/flowleek/pkg/workflow"
)

// Hits aggregates the matches of one scan.
type Hits struct {
	// Counts holds the number of matches per category.
	Counts map[rules.Category]int
	// Rules lists the triggered rule names without duplicates, in table order.
	Rules []string
}

func (h Hits) Empty() bool {
	return len(h.Rules) == 0
}

// Add records n matches of a rule.
func (h *Hits) Add(rule string, category rules.Category, n int) {
	if n <= 0 {
		return
	}
	if h.Counts == nil {
		h.Counts = map[rules.Category]int{}
	}
	h.Counts[category] += n
	if !slices.Contains(h.Rules, rule) {
		h.Rules = append(h.Rules, rule)
	}
}

// Merge returns the union of h and other.
func (h Hits) Merge(other Hits) Hits {
	out := Hits{}
	for category, n := range h.Counts {
		out.addCount(category, n)
	}
	for category, n := range other.Counts {
		out.addCount(category, n)
	}
	out.Rules = slices.Clone(h.Rules)
	for _, rule := range other.Rules {
		if !slices.Contains(out.Rules, rule) {
			out.Rules = append(out.Rules, rule)
		}
	}
	return out
}

func (h *Hits) addCount(category rules.Category, n int) {
	if h.Counts == nil {
		h.Counts = map[rules.Category]int{}
	}
	h.Counts[category] += n
}

// ScanText evaluates every rule against the whole text.
func ScanText(table rules.Table, text []byte) Hits {
	hits := Hits{}
	for _, rule := range table {
		hits.Add(rule.Name, rule.Category, len(rule.Matcher.FindAllIndex(text, -1)))
	}
	return hits
}

// ScanCodeFields evaluates every rule against the script bodies of code nodes
// only. Nodes of any other type are ignored.
func ScanCodeFields(table rules.Table, nodes []workflow.Node) Hits {
	hits := Hits{}
	for _, node := range nodes {
		if !IsCodeNode(node.Type) {
			continue
		}
		for _, body := range CodeBodies(node) {
			for _, rule := range table {
				hits.Add(rule.Name, rule.Category, len(rule.Matcher.FindAllStringIndex(body, -1)))
			}
		}
	}
	return hits
}
