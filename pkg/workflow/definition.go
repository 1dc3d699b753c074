// Package workflow models exported automation workflow definitions.
//
// Node parameters have no fixed schema. They are kept as a generic JSON tree
// made of map[string]any, []any, string, json.Number, bool and nil values.
package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrInvalidDefinition is returned when input cannot be read as a workflow definition.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// Definition is the part of an exported workflow that gets published.
// Root level metadata of the export (instance id, pinned data, tags, ...) is
// not part of it and is dropped when decoding.
type Definition struct {
	Name        string         `json:"name"`
	Nodes       []Node         `json:"nodes"`
	Connections map[string]any `json:"connections"`
	Settings    map[string]any `json:"settings"`
}

type definitionJSON Definition

// MarshalJSON always emits all four fields, using empty collections instead of null.
func (d Definition) MarshalJSON() ([]byte, error) {
	out := definitionJSON(d)
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Connections == nil {
		out.Connections = map[string]any{}
	}
	if out.Settings == nil {
		out.Settings = map[string]any{}
	}
	return encode(out)
}

// UnmarshalJSON reads only name, nodes, connections and settings.
func (d *Definition) UnmarshalJSON(data []byte) error {
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return fmt.Errorf("%w: root must be an object", ErrInvalidDefinition)
	}

	decoded := Definition{
		Name:        root.Get("name").String(),
		Nodes:       []Node{},
		Connections: map[string]any{},
		Settings:    map[string]any{},
	}

	var nodeErr error
	root.Get("nodes").ForEach(func(_, value gjson.Result) bool {
		var node Node
		if err := json.Unmarshal([]byte(value.Raw), &node); err != nil {
			nodeErr = fmt.Errorf("node %d: %w", len(decoded.Nodes), err)
			return false
		}
		decoded.Nodes = append(decoded.Nodes, node)
		return true
	})
	if nodeErr != nil {
		return nodeErr
	}

	for _, field := range []struct {
		path   string
		target *map[string]any
	}{
		{"connections", &decoded.Connections},
		{"settings", &decoded.Settings},
	} {
		raw := root.Get(field.path)
		if !raw.IsObject() {
			continue
		}
		obj, err := decodeObject(raw.Raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field.path, err)
		}
		*field.target = obj
	}

	*d = decoded
	return nil
}

// Clone returns a deep copy that shares no mutable state with d.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	out := &Definition{
		Name:        d.Name,
		Connections: cloneObject(d.Connections),
		Settings:    cloneObject(d.Settings),
	}
	if d.Nodes != nil {
		out.Nodes = make([]Node, len(d.Nodes))
		for i, node := range d.Nodes {
			out.Nodes[i] = node.Clone()
		}
	}
	return out
}

// Parse validates data against the workflow envelope schema and decodes it.
func Parse(data []byte) (*Definition, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrInvalidDefinition)
	}
	if err := validateEnvelope(data); err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode decodes data without schema validation.
func Decode(data []byte) (*Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		if errors.Is(err, ErrInvalidDefinition) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return &def, nil
}

// Marshal serializes d without HTML escaping, so URLs and code appear literally.
func Marshal(d *Definition) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil definition", ErrInvalidDefinition)
	}
	return encode(d)
}

// MarshalIndent is Marshal with two space indentation, used for written artifacts.
func MarshalIndent(d *Definition) ([]byte, error) {
	data, err := Marshal(d)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
