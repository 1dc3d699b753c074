package sanitize

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/CompassSecurity/flowleek/pkg/scanner"
	"github.com/CompassSecurity/flowleek/pkg/scanner/rules"
)

type Kind string

const (
	KindSecretDetected           Kind = "SecretDetected"
	KindCodeSecretDetected       Kind = "CodeSecretDetected"
	KindExpressionSecretDetected Kind = "ExpressionSecretDetected"
)

var (
	ErrSecretDetected           = errors.New("secret detected")
	ErrCodeSecretDetected       = errors.New("secret detected in code")
	ErrExpressionSecretDetected = errors.New("secret referenced by expression")
)

// Error is returned when a definition is rejected. It deliberately carries
// no part of the definition.
type Error struct {
	// Kind is the most severe kind that triggered.
	Kind Kind
	// Rules lists every triggered rule name and expression label.
	Rules []string
	// Counts holds the pattern hits per category on the whole definition.
	Counts map[rules.Category]int
	// CodeCounts holds the pattern hits per category inside script bodies.
	CodeCounts map[rules.Category]int
	// SecretRules are the rules triggered on the whole definition.
	SecretRules []string
	// CodeRules are the rules triggered inside script bodies.
	CodeRules []string
	// DetectorRules are the SecretRules reported by an extended detector bank.
	DetectorRules []string
	// Expressions are the triggered expression rows.
	Expressions []scanner.ExpressionMatch
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.sentinel(), strings.Join(e.Rules, ", "))
}

// Is matches the sentinel of every kind that triggered, not only Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrSecretDetected:
		return len(e.SecretRules) > 0
	case ErrCodeSecretDetected:
		return len(e.CodeRules) > 0
	case ErrExpressionSecretDetected:
		return len(e.Expressions) > 0
	}
	return false
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindCodeSecretDetected:
		return ErrCodeSecretDetected
	case KindExpressionSecretDetected:
		return ErrExpressionSecretDetected
	default:
		return ErrSecretDetected
	}
}

// rejection builds the error for a failed scan, or returns nil when nothing
// triggered.
func rejection(text, code scanner.Hits, expressions []scanner.ExpressionMatch) *Error {
	if text.Empty() && code.Empty() && len(expressions) == 0 {
		return nil
	}

	e := &Error{
		Counts:      counts(text),
		CodeCounts:  counts(code),
		SecretRules: text.Rules,
		CodeRules:   code.Rules,
		Expressions: expressions,
	}
	switch {
	case !code.Empty():
		e.Kind = KindCodeSecretDetected
	case !text.Empty():
		e.Kind = KindSecretDetected
	default:
		e.Kind = KindExpressionSecretDetected
	}

	e.Rules = append(e.Rules, code.Rules...)
	for _, rule := range text.Rules {
		if !slices.Contains(e.Rules, rule) {
			e.Rules = append(e.Rules, rule)
		}
	}
	for _, expr := range expressions {
		e.Rules = append(e.Rules, expr.Label)
	}
	return e
}

// counts returns the hit counts with an entry for every category.
func counts(hits scanner.Hits) map[rules.Category]int {
	out := make(map[rules.Category]int, len(rules.Categories))
	for _, category := range rules.Categories {
		out[category] = 0
	}
	for category, n := range hits.Counts {
		out[category] += n
	}
	return out
}
