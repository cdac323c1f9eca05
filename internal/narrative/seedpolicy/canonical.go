package seedpolicy

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// canonicalJSON renders a value as deterministic JSON: object keys sorted
// lexicographically, no HTML escaping, no extra whitespace, and non-finite
// floats normalized to strings so encoding can never fail.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalize(v)); err != nil {
		return nil, err
	}
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}

// normalize recursively converts a value into a canonical-encodable form.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make(map[string]any, len(val))
		for _, k := range keys {
			values[k] = normalize(val[k])
		}
		return sortedMap{keys: keys, values: values}
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = normalize(item)
		}
		return result
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return strconv.FormatFloat(val, 'g', -1, 64)
		}
		return val
	case float32:
		return normalize(float64(val))
	default:
		return val
	}
}

// sortedMap marshals its keys in the pre-sorted order.
type sortedMap struct {
	keys   []string
	values map[string]any
}

func (m sortedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := encodeValue(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := encodeValue(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValue marshals a single value without HTML escaping to match the
// top-level encoder behavior.
func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}
