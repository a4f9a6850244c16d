package jsonschema

import (
	"bytes"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// ParseJSON decodes an arbitrary JSON value (object, array or scalar).
// Numbers decode as float64.
func ParseJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("jsonschema: payload is empty")
	}
	var out any
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("jsonschema: parse json: %w", err)
	}
	return out, nil
}

// ParseSchema decodes a JSON Schema document whose root must be an object.
func ParseSchema(raw []byte) (map[string]any, error) {
	value, err := ParseJSON(raw)
	if err != nil {
		return nil, err
	}
	payload, ok := value.(map[string]any)
	if !ok || payload == nil {
		return nil, errors.New("jsonschema: schema root must be an object")
	}
	return payload, nil
}

// MarshalJSON encodes value with the package codec.
func MarshalJSON(value any) ([]byte, error) {
	return json.Marshal(value)
}
