package scanner

import (
	"strings"

	"github.com/CompassSecurity/flowleek/pkg/workflow"
)

// codeNodeSuffixes are node type suffixes of nodes that embed a script.
var codeNodeSuffixes = []string{
	".code",
	".function",
	".functionItem",
	".toolCode",
	".aiTransform",
	".executeCommand",
}

// codeFields are the parameter paths holding a script body. The LangChain
// Code node nests its bodies one level per execution mode.
var codeFields = [][]string{
	{"jsCode"},
	{"pythonCode"},
	{"functionCode"},
	{"code"},
	{"code", "execute", "code"},
	{"code", "supplyData", "code"},
	{"command"},
}

// IsCodeNode reports whether nodes of this type carry a script body.
func IsCodeNode(nodeType string) bool {
	for _, suffix := range codeNodeSuffixes {
		if strings.HasSuffix(nodeType, suffix) {
			return true
		}
	}
	return false
}

// CodeBodies returns the non-empty script bodies of a node in field order.
func CodeBodies(node workflow.Node) []string {
	var bodies []string
	for _, path := range codeFields {
		if body := stringAt(node.Parameters, path); strings.TrimSpace(body) != "" {
			bodies = append(bodies, body)
		}
	}
	return bodies
}

func stringAt(params map[string]any, path []string) string {
	var v any = params
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return ""
		}
		v = m[key]
	}
	s, _ := v.(string)
	return s
}
