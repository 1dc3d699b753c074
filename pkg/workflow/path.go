package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a value inside the parameters of one node. Keys holds object
// keys (string) and array indices (int) from the parameters root downwards.
type Path struct {
	Node int
	Keys []any
}

// Child returns a new path one level below p.
func (p Path) Child(key any) Path {
	keys := make([]any, len(p.Keys), len(p.Keys)+1)
	copy(keys, p.Keys)
	return Path{Node: p.Node, Keys: append(keys, key)}
}

// Field returns the last object key of the path, skipping array indices.
func (p Path) Field() string {
	for i := len(p.Keys) - 1; i >= 0; i-- {
		if key, ok := p.Keys[i].(string); ok {
			return key
		}
	}
	return ""
}

func (p Path) String() string {
	var b strings.Builder
	b.WriteString("nodes[")
	b.WriteString(strconv.Itoa(p.Node))
	b.WriteString("].parameters")
	for _, key := range p.Keys {
		switch k := key.(type) {
		case int:
			b.WriteString("[")
			b.WriteString(strconv.Itoa(k))
			b.WriteString("]")
		default:
			b.WriteString(".")
			b.WriteString(fmt.Sprint(k))
		}
	}
	return b.String()
}

// Get returns the value at p.
func (d *Definition) Get(p Path) (any, error) {
	if p.Node < 0 || p.Node >= len(d.Nodes) {
		return nil, fmt.Errorf("path %s: node index out of range", p)
	}
	var current any = d.Nodes[p.Node].Parameters
	for _, key := range p.Keys {
		next, err := child(current, key)
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", p, err)
		}
		current = next
	}
	return current, nil
}

// Set replaces the value at p. The parent of the addressed value must exist.
func (d *Definition) Set(p Path, value any) error {
	if p.Node < 0 || p.Node >= len(d.Nodes) {
		return fmt.Errorf("path %s: node index out of range", p)
	}
	if len(p.Keys) == 0 {
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("path %s: parameters must be an object", p)
		}
		d.Nodes[p.Node].Parameters = obj
		return nil
	}

	var parent any = d.Nodes[p.Node].Parameters
	for _, key := range p.Keys[:len(p.Keys)-1] {
		next, err := child(parent, key)
		if err != nil {
			return fmt.Errorf("path %s: %w", p, err)
		}
		parent = next
	}

	switch last := p.Keys[len(p.Keys)-1].(type) {
	case string:
		obj, ok := parent.(map[string]any)
		if !ok {
			return fmt.Errorf("path %s: parent of %q is not an object", p, last)
		}
		if _, exists := obj[last]; !exists {
			return fmt.Errorf("path %s: key %q not found", p, last)
		}
		obj[last] = value
	case int:
		arr, ok := parent.([]any)
		if !ok || last < 0 || last >= len(arr) {
			return fmt.Errorf("path %s: index %d out of range", p, last)
		}
		arr[last] = value
	default:
		return fmt.Errorf("path %s: unsupported key type %T", p, last)
	}
	return nil
}

func child(v any, key any) (any, error) {
	switch k := key.(type) {
	case string:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cannot index %T with key %q", v, k)
		}
		next, exists := obj[k]
		if !exists {
			return nil, fmt.Errorf("key %q not found", k)
		}
		return next, nil
	case int:
		arr, ok := v.([]any)
		if !ok || k < 0 || k >= len(arr) {
			return nil, fmt.Errorf("index %d out of range", k)
		}
		return arr[k], nil
	default:
		return nil, fmt.Errorf("unsupported key type %T", key)
	}
}
