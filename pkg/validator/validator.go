// Package validator adapts santhosh-tekuri/jsonschema to the editor: schemas
// are compiled once per node, instances are checked with the editor's
// custom formats, and nested validation errors are flattened into pointer
// tagged leaves.
package validator

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/schema"
)

const defaultCacheLimit = 1024

// Violation is one leaf validation failure.
type Violation struct {
	// Pointer addresses the offending value from the validated instance root.
	Pointer string
	Message string
}

// Option configures a Validator.
type Option func(*Validator)

// WithFormats replaces the custom format registry.
func WithFormats(formats *Formats) Option {
	return func(v *Validator) {
		v.formats = formats
	}
}

// WithDraft sets the draft applied to schemas without $schema.
func WithDraft(draft *jsonschema.Draft) Option {
	return func(v *Validator) {
		if draft != nil {
			v.draft = draft
		}
	}
}

// WithLanguage selects the language used for messages.
func WithLanguage(tag language.Tag) Option {
	return func(v *Validator) {
		v.printer = message.NewPrinter(tag)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithCacheLimit caps the number of compiled schemas kept. Reaching the
// cap empties the cache. Zero or less disables the cap.
func WithCacheLimit(limit int) Option {
	return func(v *Validator) {
		v.limit = limit
	}
}

// Validator compiles and evaluates schema nodes. It is not safe for
// concurrent use.
type Validator struct {
	formats *Formats
	draft   *jsonschema.Draft
	printer *message.Printer
	logger  *zap.Logger
	cache   map[uintptr]compiled
	limit   int
	seq     int
}

type compiled struct {
	node   schema.Node
	schema *jsonschema.Schema
}

// New returns a Validator using DefaultFormats and draft 7 unless overridden.
func New(opts ...Option) *Validator {
	v := &Validator{
		formats: DefaultFormats(),
		draft:   jsonschema.Draft7,
		printer: message.NewPrinter(language.English),
		logger:  zap.NewNop(),
		cache:   make(map[uintptr]compiled),
		limit:   defaultCacheLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Printer returns the message printer used for violations.
func (v *Validator) Printer() *message.Printer {
	return v.printer
}

// Compile returns the compiled form of node. Results are cached per node
// identity, so a node must not be mutated after its first use.
func (v *Validator) Compile(node schema.Node) (*jsonschema.Schema, error) {
	if node == nil {
		return nil, errors.New("validator: schema is nil")
	}
	key := reflect.ValueOf(node).Pointer()
	if entry, ok := v.cache[key]; ok {
		return entry.schema, nil
	}

	doc, err := roundTrip(node)
	if err != nil {
		return nil, fmt.Errorf("validator: prepare schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(v.draft)
	compiler.AssertFormat()
	v.formats.register(compiler)

	v.seq++
	location := "mem://propedit/schema-" + strconv.Itoa(v.seq) + ".json"
	if err := compiler.AddResource(location, doc); err != nil {
		return nil, fmt.Errorf("validator: add schema: %w", err)
	}
	sch, err := compiler.Compile(location)
	if err != nil {
		return nil, fmt.Errorf("validator: compile schema: %w", err)
	}
	v.logger.Debug("compiled schema", zap.String("location", location))
	if v.limit > 0 && len(v.cache) >= v.limit {
		v.logger.Debug("schema cache full, evicting", zap.Int("entries", len(v.cache)))
		v.Reset()
	}
	v.cache[key] = compiled{node: node, schema: sch}
	return sch, nil
}

// Reset drops every compiled schema. Callers reset when the schema trees
// they validated against are discarded.
func (v *Validator) Reset() {
	clear(v.cache)
}

// CachedSchemas returns the number of compiled schemas held.
func (v *Validator) CachedSchemas() int {
	return len(v.cache)
}

// Validate checks instance against node. A *jsonschema.ValidationError is
// returned for violations; other errors mean the schema or the instance
// could not be prepared.
func (v *Validator) Validate(node schema.Node, instance any) error {
	sch, err := v.Compile(node)
	if err != nil {
		return err
	}
	doc, err := roundTrip(instance)
	if err != nil {
		return fmt.Errorf("validator: prepare instance: %w", err)
	}
	return sch.Validate(doc)
}

// Matches reports whether instance satisfies node. Schemas that fail to
// compile never match.
func (v *Validator) Matches(node schema.Node, instance any) bool {
	return v.Validate(node, instance) == nil
}

// Violations validates instance and returns its flattened leaves. The error
// is non-nil only when validation could not run.
func (v *Validator) Violations(node schema.Node, instance any) ([]Violation, error) {
	err := v.Validate(node, instance)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}
	return Leaves(verr, v.printer), nil
}

// Leaves flattens err and its causes, at any depth, into leaf violations.
// A missing required property is reported at the pointer of the missing
// property itself.
func Leaves(err *jsonschema.ValidationError, printer *message.Printer) []Violation {
	if err == nil {
		return nil
	}
	if printer == nil {
		printer = message.NewPrinter(language.English)
	}
	var out []Violation
	var walk func(*jsonschema.ValidationError)
	walk = func(current *jsonschema.ValidationError) {
		if len(current.Causes) > 0 {
			for _, cause := range current.Causes {
				walk(cause)
			}
			return
		}
		if required, ok := current.ErrorKind.(*kind.Required); ok {
			for _, missing := range required.Missing {
				pointer := append(append([]string(nil), current.InstanceLocation...), missing)
				single := &kind.Required{Missing: []string{missing}}
				out = append(out, Violation{
					Pointer: effective.PointerString(pointer),
					Message: single.LocalizedString(printer),
				})
			}
			return
		}
		out = append(out, Violation{
			Pointer: effective.PointerString(current.InstanceLocation),
			Message: current.ErrorKind.LocalizedString(printer),
		})
	}
	walk(err)
	return out
}

// roundTrip re-decodes value through the validator's JSON reader so numbers
// are represented the way the compiler expects.
func roundTrip(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}
