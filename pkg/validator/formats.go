package validator

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Custom format names understood by the editor.
const (
	FormatColor         = "color"
	FormatIDReference   = "id-reference"
	FormatDataReference = "data-reference"
	FormatLocalTime     = "local-time"
	FormatTime          = "time"
	FormatDate          = "date"
	FormatMultiLine     = "multi-line"
)

// Formats is an immutable set of format checkers registered on every
// compiler built by a Validator.
type Formats struct {
	byName map[string]*jsonschema.Format
}

// NewFormats builds a registry from formats. Later entries replace earlier
// ones with the same name.
func NewFormats(formats ...*jsonschema.Format) *Formats {
	byName := make(map[string]*jsonschema.Format, len(formats))
	for _, format := range formats {
		if format == nil || format.Name == "" {
			continue
		}
		byName[format.Name] = format
	}
	return &Formats{byName: byName}
}

// Names lists the registered format names in lexical order.
func (f *Formats) Names() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.byName))
	for name := range f.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the format registered under name.
func (f *Formats) Lookup(name string) (*jsonschema.Format, bool) {
	if f == nil {
		return nil, false
	}
	format, ok := f.byName[name]
	return format, ok
}

func (f *Formats) register(c *jsonschema.Compiler) {
	if f == nil {
		return
	}
	for _, name := range f.Names() {
		c.RegisterFormat(f.byName[name])
	}
}

var (
	defaultFormatsOnce sync.Once
	defaultFormats     *Formats
)

// DefaultFormats returns the process wide registry of editor formats. It is
// built on first use and never modified afterwards.
func DefaultFormats() *Formats {
	defaultFormatsOnce.Do(func() {
		defaultFormats = NewFormats(
			&jsonschema.Format{Name: FormatColor, Validate: stringFormat(validateColor)},
			&jsonschema.Format{Name: FormatIDReference, Validate: stringFormat(anyString)},
			&jsonschema.Format{Name: FormatDataReference, Validate: stringFormat(anyString)},
			&jsonschema.Format{Name: FormatLocalTime, Validate: stringFormat(validateLocalTime)},
			&jsonschema.Format{Name: FormatTime, Validate: stringFormat(validateTime)},
			&jsonschema.Format{Name: FormatDate, Validate: stringFormat(validateDate)},
			&jsonschema.Format{Name: FormatMultiLine, Validate: stringFormat(anyString)},
		)
	})
	return defaultFormats
}

// stringFormat applies check to strings only; other JSON types pass, as
// format assertions only constrain strings.
func stringFormat(check func(string) error) func(any) error {
	return func(v any) error {
		str, ok := v.(string)
		if !ok {
			return nil
		}
		return check(str)
	}
}

func anyString(string) error { return nil }

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

func validateColor(value string) error {
	if !colorPattern.MatchString(value) {
		return fmt.Errorf("%q is not a #rgb, #rgba, #rrggbb or #rrggbbaa color", value)
	}
	return nil
}

var localTimeLayouts = []string{"15:04", "15:04:05", "15:04:05.999999999"}

// ParseLocalTime parses a wall clock time without zone.
func ParseLocalTime(value string) (time.Time, error) {
	for _, layout := range localTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a local time (HH:MM[:SS[.fraction]])", value)
}

func validateLocalTime(value string) error {
	_, err := ParseLocalTime(value)
	return err
}

// validateTime accepts a local time or a full RFC 3339 time with offset.
func validateTime(value string) error {
	if _, err := ParseLocalTime(value); err == nil {
		return nil
	}
	if _, err := time.Parse("15:04:05Z07:00", strings.ToUpper(value)); err == nil {
		return nil
	}
	if _, err := time.Parse("15:04:05.999999999Z07:00", strings.ToUpper(value)); err == nil {
		return nil
	}
	return fmt.Errorf("%q is not a valid time", value)
}

func validateDate(value string) error {
	if value == "" {
		return errors.New("date is empty")
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return fmt.Errorf("%q is not a YYYY-MM-DD date", value)
	}
	return nil
}
