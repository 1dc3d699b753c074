package sanitize

import (
	"github.com/CompassSecurity/flowleek/pkg/naming"
	"github.com/CompassSecurity/flowleek/pkg/scanner/rules"
	"github.com/CompassSecurity/flowleek/pkg/workflow"
)

// Result is the outcome of an accepted definition.
type Result struct {
	// Sanitized is the artifact safe to publish.
	Sanitized *workflow.Definition `json:"sanitized"`
	Detected  Detected             `json:"detected"`
	// SecretCounts holds the pattern hits per category. An accepted
	// definition has none, every category is listed with zero.
	SecretCounts map[rules.Category]int `json:"secretCounts"`
	Warnings     []Warning              `json:"warnings"`
	// Fingerprint identifies the sanitized artifact structurally.
	Fingerprint string `json:"fingerprint"`
}

type Detected struct {
	// Variables are the URL and resource locator placeholders.
	Variables   []naming.Variable    `json:"variables"`
	Credentials []DetectedCredential `json:"credentials"`
}

// DetectedCredential is one credential type bound by at least one node.
type DetectedCredential struct {
	Type string `json:"type"`
	// DisplayNames are the names the bindings had in the source instance.
	// They are reported to the caller but never written to the artifact.
	DisplayNames []string        `json:"displayNames"`
	Nodes        []string        `json:"nodes"`
	Variable     naming.Variable `json:"variable"`
}

type Warning struct {
	Node    string `json:"node"`
	Message string `json:"message"`
}
