package botapi

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Params holds the logical parameters of one API call. Values may be strings,
// numbers, booleans, or structured values (maps, slices, structs); nil values
// are omitted from the wire form.
type Params map[string]any

// Call describes one outbound Bot API request before encoding.
type Call struct {
	Method      string
	Params      Params
	Attachments Attachments
}

// sortedKeys returns parameter names in a stable order so that encoded
// request bodies are deterministic.
func (p Params) sortedKeys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// stringify converts one parameter value to its form-field representation:
// scalars via their natural string form, structured values as JSON text.
func stringify(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode parameter value: %w", err)
		}

		return string(encoded), nil
	}
}
