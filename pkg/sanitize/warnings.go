package sanitize

import (
	"fmt"
	"strings"

	"github.com/CompassSecurity/flowleek/pkg/locator"
	"github.com/CompassSecurity/flowleek/pkg/workflow"
)

// entryPointSuffixes are node type suffixes of nodes that can be triggered
// from outside the instance.
var entryPointSuffixes = []string{
	".webhook",
	".formTrigger",
	".chatTrigger",
	".mcpTrigger",
}

func isEntryPoint(nodeType string) bool {
	for _, suffix := range entryPointSuffixes {
		if strings.HasSuffix(nodeType, suffix) {
			return true
		}
	}
	return false
}

func collectWarnings(nodes []workflow.Node) []Warning {
	warnings := []Warning{}
	for _, node := range nodes {
		if isEntryPoint(node.Type) && strings.TrimSpace(node.Notes) == "" && strings.TrimSpace(node.StringParameter("description")) == "" {
			warnings = append(warnings, Warning{
				Node:    node.Name,
				Message: "entry point has no description, add notes explaining how it is triggered",
			})
		}

		if loopback := locator.LoopbackURLs([]byte(workflow.Stringify(node.Parameters))); len(loopback) > 0 {
			warnings = append(warnings, Warning{
				Node:    node.Name,
				Message: fmt.Sprintf("references local address %s which only resolves on the source instance", strings.Join(loopback, ", ")),
			})
		}

		if node.Disabled {
			warnings = append(warnings, Warning{
				Node:    node.Name,
				Message: "node is disabled but will be published",
			})
		}
	}
	return warnings
}
