package workflow

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/perimeterx/marshmallow"
	"github.com/tidwall/gjson"
)

// Credential is a node's binding to an entry of the engine's credential store.
// Only the reference is stored here, never the secret itself.
type Credential struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// Node is one step of a workflow.
type Node struct {
	ID          string
	Name        string
	Type        string
	TypeVersion float64
	Position    []float64
	Parameters  map[string]any
	Credentials map[string]Credential
	Notes       string
	Disabled    bool
	// Extra holds node fields without a dedicated field, e.g. webhookId.
	Extra map[string]any
}

// nodeFields lists the node fields marshmallow decodes into a struct; the
// remaining ones end up in Node.Extra. Parameters are decoded separately so
// numbers keep their exact representation.
type nodeFields struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Type        string                `json:"type"`
	TypeVersion float64               `json:"typeVersion"`
	Position    []float64             `json:"position"`
	Credentials map[string]Credential `json:"credentials"`
	Notes       string                `json:"notes"`
	Disabled    bool                  `json:"disabled"`
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var fields nodeFields
	extra, err := marshmallow.Unmarshal(data, &fields, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	delete(extra, "parameters")

	params := map[string]any{}
	if raw := gjson.GetBytes(data, "parameters"); raw.IsObject() {
		params, err = decodeObject(raw.Raw)
		if err != nil {
			return fmt.Errorf("%w: parameters: %w", ErrInvalidDefinition, err)
		}
	}

	*n = Node{
		ID:          fields.ID,
		Name:        fields.Name,
		Type:        fields.Type,
		TypeVersion: fields.TypeVersion,
		Position:    fields.Position,
		Parameters:  params,
		Credentials: fields.Credentials,
		Notes:       fields.Notes,
		Disabled:    fields.Disabled,
	}
	if len(extra) > 0 {
		n.Extra = extra
	}
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Extra)+9)
	maps.Copy(out, n.Extra)

	if n.ID != "" {
		out["id"] = n.ID
	}
	out["name"] = n.Name
	out["type"] = n.Type
	out["typeVersion"] = n.TypeVersion
	if n.Position != nil {
		out["position"] = n.Position
	}
	if n.Parameters != nil {
		out["parameters"] = n.Parameters
	} else {
		out["parameters"] = map[string]any{}
	}
	if len(n.Credentials) > 0 {
		out["credentials"] = n.Credentials
	}
	if n.Notes != "" {
		out["notes"] = n.Notes
	}
	if n.Disabled {
		out["disabled"] = true
	}
	return encode(out)
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	out.Position = slices.Clone(n.Position)
	out.Parameters = cloneObject(n.Parameters)
	out.Extra = cloneObject(n.Extra)
	if n.Credentials != nil {
		out.Credentials = make(map[string]Credential, len(n.Credentials))
		for credType, cred := range n.Credentials {
			if cred.ID != nil {
				id := *cred.ID
				cred.ID = &id
			}
			out.Credentials[credType] = cred
		}
	}
	return out
}

// CredentialTypes returns the node's credential type keys in sorted order.
func (n Node) CredentialTypes() []string {
	return slices.Sorted(maps.Keys(n.Credentials))
}

// StringParameter returns a top level string parameter, or "" when absent.
func (n Node) StringParameter(name string) string {
	s, _ := n.Parameters[name].(string)
	return s
}

func decodeObject(raw string) (map[string]any, error) {
	var obj map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}
