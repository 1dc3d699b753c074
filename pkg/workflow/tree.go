package workflow

import "encoding/json"

// CloneValue deep copies a parameter tree value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneObject(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	default:
		// string, json.Number, float64, bool and nil are immutable
		return t
	}
}

func cloneObject(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = CloneValue(v)
	}
	return out
}

// Stringify renders a scalar tree value as text. Objects and arrays are
// rendered as compact JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		data, err := encode(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
