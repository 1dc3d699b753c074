package scanner

import "github.com/CompassSecurity/flowleek/pkg/scanner/rules"

// ExpressionMatch is a triggered expression row and its occurrence count.
type ExpressionMatch struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ScanExpressions evaluates the expression table against text. Matches are
// returned in table order.
func ScanExpressions(table rules.ExpressionTable, text []byte) []ExpressionMatch {
	var matches []ExpressionMatch
	for _, expr := range table {
		if n := len(expr.Matcher.FindAllIndex(text, -1)); n > 0 {
			matches = append(matches, ExpressionMatch{Label: expr.Label, Count: n})
		}
	}
	return matches
}
