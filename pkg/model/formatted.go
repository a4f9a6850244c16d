package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/schema"
)

// IntFormatKeyword is the extension describing fixed point integers.
const IntFormatKeyword = "int-format"

// IntFormat configures a fixed point integer: the stored integer is the
// displayed decimal multiplied by 10^Precision.
type IntFormat struct {
	Precision int
	// Pattern wraps the formatted number; "%s" marks its position.
	Pattern string
	Locale  language.Tag
}

// ParseIntFormat reads the int-format extension of node. It accepts either a
// bare precision number or an object with precision, pattern and locale.
func ParseIntFormat(node schema.Node) (IntFormat, bool) {
	raw, ok := node[IntFormatKeyword]
	if !ok {
		return IntFormat{}, false
	}
	format := IntFormat{Pattern: "%s", Locale: language.English}
	switch typed := raw.(type) {
	case float64:
		format.Precision = int(typed)
	case map[string]any:
		if precision, ok := typed["precision"].(float64); ok {
			format.Precision = int(precision)
		}
		if pattern := schema.String(typed, "pattern"); pattern != "" {
			format.Pattern = pattern
		}
		if locale := schema.String(typed, "locale"); locale != "" {
			if tag, err := language.Parse(locale); err == nil {
				format.Locale = tag
			}
		}
	default:
		return IntFormat{}, false
	}
	if format.Precision < 0 {
		format.Precision = 0
	}
	if !strings.Contains(format.Pattern, "%s") {
		format.Pattern += "%s"
	}
	return format, true
}

// FormattedIntegerModel edits a scaled integer shown as a decimal.
type FormattedIntegerModel struct {
	TypeModel[int64]
	format  IntFormat
	printer *message.Printer
}

// NewFormattedInteger returns a fixed point model.
func NewFormattedInteger(s effective.Schema, format IntFormat) *FormattedIntegerModel {
	m := &FormattedIntegerModel{
		TypeModel: newTypeModel[int64](KindFormattedInteger, s, IntegerConverter{}),
		format:    format,
		printer:   message.NewPrinter(format.Locale),
	}
	m.preview = func(raw any) string {
		value, ok := IntegerConverter{}.FromJSON(raw)
		if !ok {
			return ""
		}
		return m.Format(value)
	}
	return m
}

// Format renders a scaled value with locale separators and the pattern.
func (m *FormattedIntegerModel) Format(value int64) string {
	scaled := float64(value) / m.step()
	text := m.printer.Sprint(number.Decimal(scaled, number.Scale(m.format.Precision)))
	return strings.Replace(m.format.Pattern, "%s", text, 1)
}

// Display returns the formatted current value, or "" when unset.
func (m *FormattedIntegerModel) Display() string {
	value, ok := m.Value()
	if !ok {
		return ""
	}
	return m.Format(value)
}

// Parse converts user input in the locale format into a scaled integer.
// Grouping separators and pattern text are ignored.
func (m *FormattedIntegerModel) Parse(text string) (int64, error) {
	decimal, grouping := m.symbols()
	var digits strings.Builder
	seenDecimal := false
	for _, r := range strings.TrimSpace(text) {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == '-' && digits.Len() == 0:
			digits.WriteRune(r)
		case r == decimal && !seenDecimal:
			seenDecimal = true
			digits.WriteRune('.')
		case r == grouping:
		}
	}
	if digits.Len() == 0 {
		return 0, errors.New("model: no digits in input")
	}
	parsed, err := strconv.ParseFloat(digits.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("model: parse %q: %w", text, err)
	}
	return int64(math.Round(parsed * m.step())), nil
}

// SetText parses text and writes the scaled value.
func (m *FormattedIntegerModel) SetText(text string) error {
	value, err := m.Parse(text)
	if err != nil {
		return err
	}
	m.SetValue(value)
	return nil
}

// Increment adds one displayed unit.
func (m *FormattedIntegerModel) Increment() { m.add(int64(m.step())) }

// Decrement subtracts one displayed unit.
func (m *FormattedIntegerModel) Decrement() { m.add(-int64(m.step())) }

// Precision returns the number of decimal digits.
func (m *FormattedIntegerModel) Precision() int { return m.format.Precision }

func (m *FormattedIntegerModel) add(delta int64) {
	value, _ := m.Value()
	m.SetValue(value + delta)
}

func (m *FormattedIntegerModel) step() float64 {
	return math.Pow10(m.format.Precision)
}

// symbols derives the locale decimal and grouping separators by formatting
// a known value.
func (m *FormattedIntegerModel) symbols() (decimal, grouping rune) {
	decimal, grouping = '.', ','
	sample := []rune(m.printer.Sprint(number.Decimal(1234.5, number.Scale(1))))
	var separators []rune
	for _, r := range sample {
		if !unicode.IsDigit(r) {
			separators = append(separators, r)
		}
	}
	switch len(separators) {
	case 1:
		decimal = separators[0]
	case 2:
		grouping, decimal = separators[0], separators[1]
	}
	return decimal, grouping
}
