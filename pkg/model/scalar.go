package model

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-propedit/pkg/effective"
)

// StringModel edits a plain string.
type StringModel struct {
	TypeModel[string]
}

// NewString returns a string model.
func NewString(s effective.Schema) *StringModel {
	return &StringModel{newTypeModel[string](KindString, s, StringConverter{})}
}

// NewMultiLine returns a string model for the multi-line format. Its preview
// shows the first line only.
func NewMultiLine(s effective.Schema) *StringModel {
	m := &StringModel{newTypeModel[string](KindMultiLine, s, StringConverter{})}
	m.preview = firstLine
	return m
}

// NumberModel edits a JSON number.
type NumberModel struct {
	TypeModel[float64]
}

// NewNumber returns a number model.
func NewNumber(s effective.Schema) *NumberModel {
	return &NumberModel{newTypeModel[float64](KindNumber, s, NumberConverter{})}
}

// IntegerModel edits a JSON integer.
type IntegerModel struct {
	TypeModel[int64]
}

// NewInteger returns an integer model.
func NewInteger(s effective.Schema) *IntegerModel {
	return &IntegerModel{newTypeModel[int64](KindInteger, s, IntegerConverter{})}
}

// BooleanModel edits a JSON boolean.
type BooleanModel struct {
	TypeModel[bool]
}

// NewBoolean returns a boolean model.
func NewBoolean(s effective.Schema) *BooleanModel {
	return &BooleanModel{newTypeModel[bool](KindBoolean, s, BooleanConverter{})}
}

// EnumModel picks one of a fixed set of JSON values.
type EnumModel struct {
	TypeModel[any]
	options []any
}

// NewEnum returns an enum model over the schema enum, or its const.
func NewEnum(s effective.Schema) *EnumModel {
	m := &EnumModel{TypeModel: newTypeModel[any](KindEnum, s, IdentityConverter{})}
	m.options = EnumOptions(s.Base())
	return m
}

// Options returns the allowed values in declaration order.
func (m *EnumModel) Options() []any { return m.options }

// Selected returns the position of the current value in Options, or -1.
func (m *EnumModel) Selected() int {
	return indexOf(m.options, m.RawValue())
}

// Select writes option index. Out of range indexes are ignored.
func (m *EnumModel) Select(index int) {
	if index < 0 || index >= len(m.options) {
		return
	}
	m.SetRawValue(m.options[index])
}

// EnumOptions returns the enum list of node, or its const as a single option.
func EnumOptions(node map[string]any) []any {
	if list, ok := node["enum"].([]any); ok {
		return list
	}
	if value, ok := node["const"]; ok {
		return []any{value}
	}
	return nil
}

func indexOf(options []any, value any) int {
	if value == nil {
		return -1
	}
	for idx, option := range options {
		if reflect.DeepEqual(option, value) {
			return idx
		}
	}
	return -1
}

// ColorModel edits a #rrggbb style color string.
type ColorModel struct {
	TypeModel[string]
}

// NewColor returns a color model.
func NewColor(s effective.Schema) *ColorModel {
	return &ColorModel{newTypeModel[string](KindColor, s, StringConverter{})}
}

// RGBA decodes the current color. Short forms expand each digit.
func (m *ColorModel) RGBA() (r, g, b, a uint8, ok bool) {
	value, present := m.Value()
	if !present || !strings.HasPrefix(value, "#") {
		return 0, 0, 0, 0, false
	}
	hex := value[1:]
	if len(hex) == 3 || len(hex) == 4 {
		var expanded strings.Builder
		for _, digit := range hex {
			expanded.WriteRune(digit)
			expanded.WriteRune(digit)
		}
		hex = expanded.String()
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return 0, 0, 0, 0, false
	}
	parsed, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, 0, false
	}
	return uint8(parsed >> 24), uint8(parsed >> 16), uint8(parsed >> 8), uint8(parsed), true
}

// SetRGB writes an opaque color.
func (m *ColorModel) SetRGB(r, g, b uint8) {
	m.SetValue(fmt.Sprintf("#%02x%02x%02x", r, g, b))
}

// TimeModel edits a date or wall clock time stored as a string.
type TimeModel struct {
	TypeModel[string]
	layouts []string
}

// NewDate returns a model for YYYY-MM-DD strings.
func NewDate(s effective.Schema) *TimeModel {
	return &TimeModel{
		TypeModel: newTypeModel[string](KindDate, s, StringConverter{}),
		layouts:   []string{time.DateOnly},
	}
}

// NewLocalTime returns a model for HH:MM[:SS] strings.
func NewLocalTime(s effective.Schema) *TimeModel {
	return &TimeModel{
		TypeModel: newTypeModel[string](KindLocalTime, s, StringConverter{}),
		layouts:   []string{time.TimeOnly, "15:04", "15:04:05.999999999"},
	}
}

// Time parses the current value.
func (m *TimeModel) Time() (time.Time, bool) {
	value, ok := m.Value()
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range m.layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// SetTime formats t with the primary layout and writes it.
func (m *TimeModel) SetTime(t time.Time) {
	m.SetValue(t.Format(m.layouts[0]))
}

// UnsupportedModel passes the raw value through for shapes no other model
// handles.
type UnsupportedModel struct {
	TypeModel[any]
}

// NewUnsupported returns the fallback model.
func NewUnsupported(s effective.Schema) *UnsupportedModel {
	return &UnsupportedModel{newTypeModel[any](KindUnsupported, s, IdentityConverter{})}
}
