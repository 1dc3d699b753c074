// Package report logs sanitizer outcomes. Rejections are emitted as hits so
// they show up at every log level.
package report

import (
	"slices"

	"github.com/CompassSecurity/flowleek/pkg/format"
	"github.com/CompassSecurity/flowleek/pkg/logging"
	"github.com/CompassSecurity/flowleek/pkg/sanitize"
	"github.com/CompassSecurity/flowleek/pkg/scanner/rules"
	"github.com/rs/zerolog/log"
)

// Rejection logs one hit per triggered rule followed by the per category
// counts. A rejection carries rule names only, never the matched text.
func Rejection(rejected *sanitize.Error) {
	for _, rule := range rejected.CodeRules {
		reportRule(logging.SourceCode, rule)
	}
	for _, rule := range rejected.SecretRules {
		if slices.Contains(rejected.CodeRules, rule) {
			continue
		}
		source := logging.SourceDefinition
		if slices.Contains(rejected.DetectorRules, rule) {
			source = logging.SourceDetector
		}
		reportRule(source, rule)
	}
	for _, expr := range rejected.Expressions {
		logging.Hit().
			Source(logging.SourceExpression).
			Str("rule", format.CleanLine(expr.Label)).
			Int("count", expr.Count).
			Msg("SECRET")
	}

	event := log.Error().Str("kind", string(rejected.Kind))
	for _, category := range rules.Categories {
		event = event.Int(string(category), rejected.Counts[category])
	}
	event.Msg("Workflow rejected")
}

func reportRule(source logging.Source, rule string) {
	logging.Hit().
		Source(source).
		Str("rule", format.CleanLine(rule)).
		Msg("SECRET")
}

// Result logs the placeholders a consumer has to fill in and the warnings
// of an accepted workflow.
func Result(result *sanitize.Result) {
	for _, v := range result.Detected.Variables {
		log.Info().
			Str("name", v.Name).
			Str("example", format.CleanLine(v.Example)).
			Str("description", format.CleanLine(v.Description)).
			Msg("Variable")
	}

	for _, cred := range result.Detected.Credentials {
		log.Info().
			Str("type", format.CleanLine(cred.Type)).
			Str("variable", cred.Variable.Name).
			Strs("nodes", cleanAll(cred.Nodes)).
			Strs("displayNames", cleanAll(cred.DisplayNames)).
			Msg("Credential")
	}

	for _, w := range result.Warnings {
		log.Warn().Str("node", format.CleanLine(w.Node)).Msg(format.CleanLine(w.Message))
	}

	log.Info().
		Int("variables", len(result.Detected.Variables)).
		Int("credentials", len(result.Detected.Credentials)).
		Int("warnings", len(result.Warnings)).
		Str("fingerprint", result.Fingerprint).
		Msg("Workflow sanitized")
}

func cleanAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = format.CleanLine(v)
	}
	return out
}
