package format

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// PrettyPrintYAML re-encodes a YAML or JSON document as block style YAML
// with two space indentation. Key order and number literals are preserved.
func PrettyPrintYAML(data []byte) ([]byte, error) {
	var node yaml.Node

	err := yaml.Unmarshal(data, &node)
	if err != nil {
		return nil, err
	}
	if node.Kind == 0 {
		return []byte{}, nil
	}
	blockStyle(&node)

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	err = encoder.Encode(&node)
	if err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}
