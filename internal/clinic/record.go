package clinic

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseRecord decodes uploaded clinic data into a Record.
// A top-level object is used as is. A top-level array uses its first element;
// the number of discarded elements is returned so callers can warn about it.
func ParseRecord(data []byte) (Record, int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, 0, fmt.Errorf("record is empty")
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, 0, fmt.Errorf("record is not valid JSON: %w", err)
	}

	switch t := v.(type) {
	case map[string]any:
		return Record(t), 0, nil
	case []any:
		if len(t) == 0 {
			return nil, 0, fmt.Errorf("record array is empty")
		}
		first, ok := t[0].(map[string]any)
		if !ok {
			return nil, 0, fmt.Errorf("first array element must be a JSON object")
		}
		return Record(first), len(t) - 1, nil
	default:
		return nil, 0, fmt.Errorf("record must be a JSON object or an array of objects")
	}
}
