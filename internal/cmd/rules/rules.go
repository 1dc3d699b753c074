package rules

import (
	"github.com/CompassSecurity/flowleek/pkg/format"
	pkgrules "github.com/CompassSecurity/flowleek/pkg/scanner/rules"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	filter    string
	rulesFile string
)

func NewRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "List the secret detection rules",
		Long:  "List the pattern rules and expression rows a workflow is checked against, including those of an additional rules file.",
		Example: `
# List all built-in rules
flowleek rules

# Show the token rules including custom ones
flowleek rules --rules custom.yml --filter token
		`,
		Args: cobra.NoArgs,
		Run:  ListRules,
	}

	rulesCmd.Flags().StringVarP(&filter, "filter", "", "", "Only list rows whose name, category or label contains this text (case insensitive)")
	rulesCmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "YAML file with additional rules and expressions")

	return rulesCmd
}

func ListRules(cmd *cobra.Command, args []string) {
	ruleRows, expressionRows, err := load(rulesFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", rulesFile).Msg("Failed loading rules")
	}

	shown := 0
	for _, rule := range matchingRules(ruleRows, filter) {
		log.Info().Str("name", rule.Name).Str("category", string(rule.Category)).Str("regex", rule.Regex).Msg("Rule")
		shown++
	}
	for _, expr := range matchingExpressions(expressionRows, filter) {
		log.Info().Str("label", expr.Label).Str("regex", expr.Regex).Msg("Expression")
		shown++
	}
	log.Info().Int("shown", shown).Int("total", len(ruleRows)+len(expressionRows)).Msg("Done")
}

func load(path string) ([]pkgrules.Rule, []pkgrules.Expression, error) {
	ruleRows := pkgrules.Defaults()
	expressionRows := pkgrules.DefaultExpressions()
	if path == "" {
		return ruleRows, expressionRows, nil
	}
	ruleFile, err := pkgrules.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return append(ruleRows, ruleFile.Rules...), append(expressionRows, ruleFile.Expressions...), nil
}

func matchingRules(rows []pkgrules.Rule, filter string) []pkgrules.Rule {
	out := []pkgrules.Rule{}
	for _, rule := range rows {
		if format.ContainsI(rule.Name, filter) || format.ContainsI(string(rule.Category), filter) {
			out = append(out, rule)
		}
	}
	return out
}

func matchingExpressions(rows []pkgrules.Expression, filter string) []pkgrules.Expression {
	out := []pkgrules.Expression{}
	for _, expr := range rows {
		if format.ContainsI(expr.Label, filter) {
			out = append(out, expr)
		}
	}
	return out
}
