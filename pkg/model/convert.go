package model

import (
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
)

// StringConverter uses strings as is and formats any other scalar.
type StringConverter struct{}

func (StringConverter) FromJSON(raw any) (string, bool) {
	switch typed := raw.(type) {
	case nil:
		return "", false
	case string:
		return typed, true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	default:
		return fmt.Sprint(typed), true
	}
}

func (StringConverter) ToJSON(value string) any { return value }

// NumberConverter reads any JSON number as float64.
type NumberConverter struct{}

func (NumberConverter) FromJSON(raw any) (float64, bool) {
	return toFloat(raw)
}

func (NumberConverter) ToJSON(value float64) any { return value }

// IntegerConverter reads JSON numbers with no fractional part as int64.
// Values are written back as float64, the representation produced when
// decoding documents.
type IntegerConverter struct{}

func (IntegerConverter) FromJSON(raw any) (int64, bool) {
	number, ok := toFloat(raw)
	if !ok || number != math.Trunc(number) {
		return 0, false
	}
	return int64(number), true
}

func (IntegerConverter) ToJSON(value int64) any { return float64(value) }

// BooleanConverter accepts JSON booleans only.
type BooleanConverter struct{}

func (BooleanConverter) FromJSON(raw any) (bool, bool) {
	value, ok := raw.(bool)
	return value, ok
}

func (BooleanConverter) ToJSON(value bool) any { return value }

// IdentityConverter passes JSON values through unchanged.
type IdentityConverter struct{}

func (IdentityConverter) FromJSON(raw any) (any, bool) { return raw, raw != nil }

func (IdentityConverter) ToJSON(value any) any { return value }

// ObjectConverter accepts JSON objects.
type ObjectConverter struct{}

func (ObjectConverter) FromJSON(raw any) (map[string]any, bool) {
	value, ok := raw.(map[string]any)
	return value, ok
}

func (ObjectConverter) ToJSON(value map[string]any) any {
	if value == nil {
		return nil
	}
	return value
}

// ArrayConverter accepts JSON arrays.
type ArrayConverter struct{}

func (ArrayConverter) FromJSON(raw any) ([]any, bool) {
	value, ok := raw.([]any)
	return value, ok
}

func (ArrayConverter) ToJSON(value []any) any {
	if value == nil {
		return nil
	}
	return value
}

func toFloat(raw any) (float64, bool) {
	switch typed := raw.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case json.Number:
		value, err := typed.Float64()
		return value, err == nil
	default:
		return 0, false
	}
}
