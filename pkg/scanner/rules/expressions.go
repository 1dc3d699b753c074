package rules

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"
)

// Expression is a row of the expression table. It matches templated
// expressions that pull a secret in indirectly.
type Expression struct {
	Label string `yaml:"label" json:"label"`
	Regex string `yaml:"regex" json:"regex"`
}

// CompiledExpression is an Expression with its matcher.
type CompiledExpression struct {
	Expression
	Matcher *regexp.Regexp
}

// ExpressionTable is a compiled expression table.
type ExpressionTable []CompiledExpression

var defaultExpressions = []Expression{
	{
		Label: "Environment variable with secret-like name",
		Regex: `(?i)\$env(?:\.|\[\s*\\?["'])[A-Za-z0-9_]*(?:KEY|TOKEN|SECRET|PASSWORD|API)[A-Za-z0-9_]*`,
	},
	{
		Label: "Instance variable with secret-like name",
		Regex: `(?i)\$vars(?:\.|\[\s*\\?["'])[A-Za-z0-9_]*(?:KEY|TOKEN|SECRET|PASSWORD)[A-Za-z0-9_]*`,
	},
	{
		Label: "Payload field with secret-like name",
		Regex: `(?i)(?:\$json|\.json|\$binary|\.binary)(?:\.[A-Za-z0-9_$]+|\[\s*\\?["'][^"'\\\]]*\\?["']\s*\]|\[\d+\])*(?:\.|\[\s*\\?["'])(?:api[_-]?key|token|secret|password)\b`,
	},
	{
		Label: "Process environment secret in code",
		Regex: `(?i)\bprocess\.env(?:\.|\[\s*\\?["'])[A-Za-z0-9_]*(?:KEY|TOKEN|SECRET|PASSWORD)[A-Za-z0-9_]*`,
	},
}

// DefaultExpressions returns a copy of the built-in expression table.
func DefaultExpressions() []Expression {
	return slices.Clone(defaultExpressions)
}

var defaultExpressionTable = sync.OnceValue(func() ExpressionTable {
	table, err := CompileExpressions(defaultExpressions)
	if err != nil {
		panic(err)
	}
	return table
})

// DefaultExpressionTable returns the compiled built-in expression table.
func DefaultExpressionTable() ExpressionTable {
	return defaultExpressionTable()
}

// CompileExpressions validates and compiles expression rows.
func CompileExpressions(expressions []Expression) (ExpressionTable, error) {
	table := make(ExpressionTable, 0, len(expressions))
	for _, expr := range expressions {
		if expr.Label == "" {
			return nil, errors.New("expression without label")
		}
		m, err := regexp.Compile(expr.Regex)
		if err != nil {
			return nil, fmt.Errorf("expression %q: %w", expr.Label, err)
		}
		table = append(table, CompiledExpression{Expression: expr, Matcher: m})
	}
	return table, nil
}
