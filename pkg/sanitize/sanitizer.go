// Package sanitize turns an exported workflow definition into an artifact
// that can be published: it rejects definitions holding secrets and replaces
// instance specific URLs, resource locators and credential bindings with
// named placeholders.
//
// A run either returns a complete Result or an *Error, never both.
package sanitize

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/CompassSecurity/flowleek/pkg/config"
	"github.com/CompassSecurity/flowleek/pkg/locator"
	"github.com/CompassSecurity/flowleek/pkg/naming"
	"github.com/CompassSecurity/flowleek/pkg/rewrite"
	"github.com/CompassSecurity/flowleek/pkg/scanner"
	"github.com/CompassSecurity/flowleek/pkg/scanner/engine"
	"github.com/CompassSecurity/flowleek/pkg/scanner/rules"
	"github.com/CompassSecurity/flowleek/pkg/workflow"
	"github.com/rs/zerolog/log"
	"github.com/rxwycdh/rxhash"
)

// Sanitizer holds the compiled tables of one configuration. It is safe for
// concurrent use.
type Sanitizer struct {
	opts        config.SanitizeOptions
	table       rules.Table
	expressions rules.ExpressionTable
	detectors   engine.Bank
}

// New builds a sanitizer. Rules from opts.RulesFile are appended to the
// built-in tables.
func New(opts config.SanitizeOptions) (*Sanitizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ruleRows := rules.Defaults()
	expressionRows := rules.DefaultExpressions()
	if opts.RulesFile != "" {
		ruleFile, err := rules.LoadFile(opts.RulesFile)
		if err != nil {
			return nil, err
		}
		ruleRows = append(ruleRows, ruleFile.Rules...)
		expressionRows = append(expressionRows, ruleFile.Expressions...)
	}

	table, err := rules.Compile(ruleRows)
	if err != nil {
		return nil, err
	}
	expressions, err := rules.CompileExpressions(expressionRows)
	if err != nil {
		return nil, err
	}

	s := &Sanitizer{opts: opts, table: table, expressions: expressions}
	if opts.Gitleaks {
		detector, err := engine.NewGitleaksDetector()
		if err != nil {
			return nil, err
		}
		s.detectors = append(s.detectors, detector)
	}
	if opts.TruffleHog {
		s.detectors = append(s.detectors, engine.NewTruffleHogDetector(opts.MaxScanGoRoutines))
	}

	log.Debug().Int("rules", len(table)).Int("expressions", len(expressions)).Int("detectors", len(s.detectors)).Msg("Sanitizer ready")
	return s, nil
}

var defaultSanitizer = sync.OnceValue(func() *Sanitizer {
	s, err := New(config.DefaultSanitizeOptions())
	if err != nil {
		panic(err)
	}
	return s
})

// Default returns the sanitizer with the default options.
func Default() *Sanitizer {
	return defaultSanitizer()
}

// Sanitize runs the default sanitizer.
func Sanitize(def *workflow.Definition) (*Result, error) {
	return Default().Sanitize(def)
}

// SanitizeJSON parses an exported workflow and runs the default sanitizer.
func SanitizeJSON(data []byte) (*Result, error) {
	return Default().SanitizeJSON(data)
}

func (s *Sanitizer) Sanitize(def *workflow.Definition) (*Result, error) {
	return s.SanitizeContext(context.Background(), def)
}

func (s *Sanitizer) SanitizeJSON(data []byte) (*Result, error) {
	def, err := workflow.Parse(data)
	if err != nil {
		return nil, err
	}
	return s.Sanitize(def)
}

// SanitizeContext is Sanitize with a context bounding the detector banks.
// def is never modified.
func (s *Sanitizer) SanitizeContext(ctx context.Context, def *workflow.Definition) (*Result, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: nil definition", workflow.ErrInvalidDefinition)
	}
	r := &run{sanitizer: s, state: StateInitialized, clean: def.Clone()}
	return r.execute(ctx)
}

// run is the state of one sanitizer invocation. It owns its clean copy.
type run struct {
	sanitizer  *Sanitizer
	state      State
	clean      *workflow.Definition
	serialized []byte

	locators    []locator.ResourceLocator
	urls        []string
	credentials []DetectedCredential
}

func (r *run) transition(next State) {
	if !r.state.CanTransition(next) {
		panic(fmt.Sprintf("invalid sanitizer transition %s -> %s", r.state, next))
	}
	log.Debug().Str("from", r.state.String()).Str("to", next.String()).Msg("Sanitizer state")
	r.state = next
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	serialized, err := workflow.Marshal(r.clean)
	if err != nil {
		return nil, err
	}
	r.serialized = serialized

	r.transition(StateScanning)
	if err := r.scan(ctx); err != nil {
		return nil, err
	}

	r.transition(StateExtracting)
	r.extract()

	r.transition(StateRewriting)
	sanitized, variables, err := r.rewrite()
	if err != nil {
		return nil, err
	}

	r.transition(StateReported)
	return r.report(sanitized, variables)
}

func (r *run) scan(ctx context.Context) error {
	s := r.sanitizer
	text := scanner.ScanText(s.table, r.serialized)
	code := scanner.ScanCodeFields(s.table, r.clean.Nodes)
	expressions := scanner.ScanExpressions(s.expressions, r.serialized)

	findings, err := s.detectors.Run(ctx, r.serialized, s.opts.DetectorTimeout)
	if err != nil {
		return fmt.Errorf("extended secret detection failed: %w", err)
	}
	detected := scanner.Hits{}
	for _, finding := range findings {
		detected.Add(finding.RuleName(), rules.CategoryToken, 1)
	}
	text = text.Merge(detected)

	if rejected := rejection(text, code, expressions); rejected != nil {
		rejected.DetectorRules = detected.Rules
		r.transition(StateRejected)
		return rejected
	}
	return nil
}

func (r *run) extract() {
	r.locators = locator.ResourceLocators(r.clean.Nodes)
	r.urls = locator.URLs(r.serialized, r.sanitizer.opts.KeepHosts)
	r.credentials = extractCredentials(r.clean.Nodes)
	log.Debug().Int("urls", len(r.urls)).Int("resourceLocators", len(r.locators)).Int("credentials", len(r.credentials)).Msg("Extracted references")
}

// extractCredentials lists the credential types bound by the nodes, one entry
// per type, sorted by type.
func extractCredentials(nodes []workflow.Node) []DetectedCredential {
	byType := map[string]*DetectedCredential{}
	for _, node := range nodes {
		for _, credType := range node.CredentialTypes() {
			entry, ok := byType[credType]
			if !ok {
				entry = &DetectedCredential{Type: credType, DisplayNames: []string{}, Nodes: []string{}}
				byType[credType] = entry
			}
			if name := node.Credentials[credType].Name; name != "" && !slices.Contains(entry.DisplayNames, name) {
				entry.DisplayNames = append(entry.DisplayNames, name)
			}
			if !slices.Contains(entry.Nodes, node.Name) {
				entry.Nodes = append(entry.Nodes, node.Name)
			}
		}
	}

	out := make([]DetectedCredential, 0, len(byType))
	for _, entry := range byType {
		out = append(out, *entry)
	}
	slices.SortFunc(out, func(a, b DetectedCredential) int {
		return strings.Compare(a.Type, b.Type)
	})
	return out
}

func (r *run) rewrite() (*workflow.Definition, []naming.Variable, error) {
	namer := naming.NewNamer()

	urlPlaceholders := make(map[string]string, len(r.urls))
	urlVariables := make([]naming.Variable, 0, len(r.urls))
	for _, u := range r.urls {
		v := namer.URL(u)
		urlPlaceholders[u] = v.Placeholder()
		urlVariables = append(urlVariables, v)
	}
	replacer := rewrite.NewURLReplacer(urlPlaceholders)

	var locatorVariables []naming.Variable
	replacements := make([]rewrite.Replacement, 0, len(r.locators))
	for _, rl := range r.locators {
		v := namer.ResourceLocator(rl.Path.Field(), rl.Value)
		if !slices.Contains(locatorVariables, v) {
			locatorVariables = append(locatorVariables, v)
		}
		replacements = append(replacements, rewrite.Replacement{Path: replacer.Path(rl.Path), Placeholder: v.Placeholder()})
	}

	credentialPlaceholders := make(map[string]string, len(r.credentials))
	for i := range r.credentials {
		v := namer.Credential(r.credentials[i].Type)
		r.credentials[i].Variable = v
		credentialPlaceholders[r.credentials[i].Type] = v.Placeholder()
	}

	out, err := replacer.Definition(r.clean)
	if err != nil {
		return nil, nil, err
	}
	out, err = rewrite.ResourceLocators(out, replacements)
	if err != nil {
		return nil, nil, err
	}
	out = rewrite.Credentials(out, func(credType string) string {
		return credentialPlaceholders[credType]
	})

	// URLs that only occurred inside a replaced resource locator are gone.
	data, err := workflow.Marshal(out)
	if err != nil {
		return nil, nil, err
	}
	variables := make([]naming.Variable, 0, len(urlVariables)+len(locatorVariables))
	for _, v := range urlVariables {
		if strings.Contains(string(data), v.Placeholder()) {
			variables = append(variables, v)
			continue
		}
		log.Debug().Str("variable", v.Name).Msg("Dropping URL variable without remaining occurrence")
	}
	variables = append(variables, locatorVariables...)
	return out, variables, nil
}

func (r *run) report(sanitized *workflow.Definition, variables []naming.Variable) (*Result, error) {
	fingerprint, err := Fingerprint(sanitized)
	if err != nil {
		return nil, err
	}
	return &Result{
		Sanitized: sanitized,
		Detected: Detected{
			Variables:   variables,
			Credentials: r.credentials,
		},
		SecretCounts: counts(scanner.Hits{}),
		Warnings:     collectWarnings(r.clean.Nodes),
		Fingerprint:  fingerprint,
	}, nil
}

type fingerprintInput struct {
	Name        string
	Nodes       []string
	Connections string
	Settings    string
}

// Fingerprint returns a structural hash of a definition. Definitions that
// serialize to the same JSON share a fingerprint, whatever their key order.
func Fingerprint(def *workflow.Definition) (string, error) {
	input := fingerprintInput{
		Name:        def.Name,
		Nodes:       make([]string, 0, len(def.Nodes)),
		Connections: stringifyObject(def.Connections),
		Settings:    stringifyObject(def.Settings),
	}
	for _, node := range def.Nodes {
		data, err := node.MarshalJSON()
		if err != nil {
			return "", fmt.Errorf("fingerprinting node %q: %w", node.Name, err)
		}
		input.Nodes = append(input.Nodes, string(data))
	}
	hash, err := rxhash.HashStruct(input)
	if err != nil {
		return "", fmt.Errorf("fingerprinting definition: %w", err)
	}
	return hash, nil
}

func stringifyObject(obj map[string]any) string {
	if obj == nil {
		return "{}"
	}
	return workflow.Stringify(obj)
}
