// Package rules holds the detection tables used by the secret and expression
// scanners. The tables are plain data: covering a new provider means adding a
// row, never a new code path.
package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Category groups rules for aggregate hit counts.
type Category string

const (
	CategoryAPIKey   Category = "api_key"
	CategoryToken    Category = "token"
	CategoryPassword Category = "password"
)

// Categories lists all categories in reporting order.
var Categories = []Category{CategoryAPIKey, CategoryToken, CategoryPassword}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

// Rule is one row of the pattern table. Name is shown to users as is.
type Rule struct {
	Name     string   `yaml:"name" json:"name"`
	Category Category `yaml:"category" json:"category"`
	Regex    string   `yaml:"regex" json:"regex"`
}

// CompiledRule is a Rule with its matcher.
type CompiledRule struct {
	Rule
	Matcher *regexp.Regexp
}

// Table is a compiled pattern table.
type Table []CompiledRule

// RuleFile is the layout of a YAML file with additional table rows.
type RuleFile struct {
	Rules       []Rule       `yaml:"rules"`
	Expressions []Expression `yaml:"expressions"`
}

// Quoted values may be JSON escaped (\") when scanning serialized definitions.
var defaultRules = []Rule{
	{
		Name:     "Generic API Key Assignment",
		Category: CategoryAPIKey,
		Regex:    `(?i)\b(?:api[_-]?key|apikey|access[_-]?key|secret[_-]?key|private[_-]?key|client[_-]?secret|key)\\?["']?\s*[:=]\s*\\?["'][A-Za-z0-9_\-+/=]{20,}\\?["']`,
	},
	{
		Name:     "Named API Key Parameter",
		Category: CategoryAPIKey,
		Regex:    `(?i)"name"\s*:\s*"(?:x-)?(?:api[_-]?key|apikey|token|access[_-]?token|auth[_-]?token)"\s*,\s*"value"\s*:\s*"[^"={$\s][^"\s]{15,}"`,
	},
	{
		Name:     "Bearer Token",
		Category: CategoryToken,
		Regex:    `(?i)\bbearer\s+[A-Za-z0-9\-._~+/]{20,}=*`,
	},
	{
		Name:     "OpenAI/Anthropic Secret Key",
		Category: CategoryAPIKey,
		Regex:    `\bsk-(?:proj-|svcacct-|admin-|ant-)?[A-Za-z0-9_\-]{20,}`,
	},
	{
		Name:     "Stripe Live Key",
		Category: CategoryAPIKey,
		Regex:    `\b(?:sk|rk)_live_[0-9A-Za-z]{24,}`,
	},
	{
		Name:     "Google API Key",
		Category: CategoryAPIKey,
		Regex:    `\bAIza[0-9A-Za-z\-_]{35}`,
	},
	{
		Name:     "GitHub Personal Access Token",
		Category: CategoryToken,
		Regex:    `\bgh[pousr]_[A-Za-z0-9]{36}\b`,
	},
	{
		Name:     "GitHub Fine-Grained Access Token",
		Category: CategoryToken,
		Regex:    `\bgithub_pat_[A-Za-z0-9_]{82}\b`,
	},
	{
		Name:     "GitLab Personal Access Token",
		Category: CategoryToken,
		Regex:    `\bglpat-[A-Za-z0-9_\-]{20}\b`,
	},
	{
		Name:     "Slack Token",
		Category: CategoryToken,
		Regex:    `\bxox[abposr]-[A-Za-z0-9-]{10,}`,
	},
	{
		Name:     "AWS Access Key ID",
		Category: CategoryAPIKey,
		Regex:    `\b(?:AKIA|ASIA|ABIA|ACCA)[A-Z0-9]{16}\b`,
	},
	{
		Name:     "JSON Web Token",
		Category: CategoryToken,
		Regex:    `\beyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`,
	},
	{
		Name:     "Private Key Block",
		Category: CategoryAPIKey,
		Regex:    `-----BEGIN (?:[A-Z0-9]+ )*PRIVATE KEY(?: BLOCK)?-----`,
	},
	{
		Name:     "Generic Password Assignment",
		Category: CategoryPassword,
		Regex:    `(?i)\b(?:password|passwd|pwd)\\?["']?\s*[:=]\s*\\?["'][^"'\s\\$={][^"'\s\\]{3,}\\?["']`,
	},
	{
		Name:     "Credentials In URL",
		Category: CategoryPassword,
		Regex:    `(?i)\b[a-z][a-z0-9+.-]*://[^/\s:@"'$]{1,64}:[^/\s:@"'${}]{3,64}@[^\s"'/]+`,
	},
}

// Defaults returns a copy of the built-in pattern table.
func Defaults() []Rule {
	return slices.Clone(defaultRules)
}

var defaultTable = sync.OnceValue(func() Table {
	table, err := Compile(defaultRules)
	if err != nil {
		panic(err)
	}
	return table
})

// DefaultTable returns the compiled built-in pattern table.
func DefaultTable() Table {
	return defaultTable()
}

// Compile validates and compiles rules. An invalid row is an error.
func Compile(rules []Rule) (Table, error) {
	table := make(Table, 0, len(rules))
	for _, rule := range rules {
		if rule.Name == "" {
			return nil, errors.New("rule without name")
		}
		if !rule.Category.Valid() {
			return nil, fmt.Errorf("rule %q: unknown category %q", rule.Name, rule.Category)
		}
		m, err := regexp.Compile(rule.Regex)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		table = append(table, CompiledRule{Rule: rule, Matcher: m})
	}
	return table, nil
}

// LoadFile reads additional rules and expressions from a YAML file.
func LoadFile(path string) (*RuleFile, error) {
	log.Debug().Str("file", path).Msg("Loading rules file")
	// #nosec G304 - rules file path is chosen by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed opening rules file: %w", err)
	}

	ruleFile := &RuleFile{}
	if err := yaml.Unmarshal(data, ruleFile); err != nil {
		return nil, fmt.Errorf("failed unmarshalling rules file: %w", err)
	}

	if _, err := Compile(ruleFile.Rules); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	if _, err := CompileExpressions(ruleFile.Expressions); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}

	log.Debug().Int("rules", len(ruleFile.Rules)).Int("expressions", len(ruleFile.Expressions)).Msg("Loaded custom rules")
	return ruleFile, nil
}
