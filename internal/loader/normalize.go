package loader

import (
	"encoding/json"
	"fmt"
	"math"
)

// Normalize converts decoder output into the canonical shapes the resolver
// classifies: map[string]any for records, []any for sequences and int for
// integers that fit. JSON numbers outside the float64 range are rejected.
func Normalize(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[key] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(key)] = n
		}
		return out, nil
	case []any:
		return normalizeSequence(v)
	case []map[string]any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = item
		}
		return normalizeSequence(items)
	case int64:
		return narrowInt(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return narrowInt(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %s out of range", v)
		}
		return f, nil
	default:
		return value, nil
	}
}

func normalizeSequence(items []any) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		n, err := Normalize(item)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func narrowInt(v int64) any {
	if v < math.MinInt || v > math.MaxInt {
		return v
	}
	return int(v)
}
