// Package validation runs schema and custom validation over a bound control
// tree and reports pointer keyed messages.
package validation

import (
	"strings"

	"github.com/mohae/deepcopy"
	"go.uber.org/zap"

	"github.com/goliatone/go-propedit/pkg/control"
	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/model"
	"github.com/goliatone/go-propedit/pkg/validator"
)

// Issue is the combined message reported for one location.
type Issue struct {
	Pointer string `json:"pointer"`
	Message string `json:"message"`
}

// Result is one message produced by a custom validator.
type Result struct {
	Message string `json:"message"`
}

// CustomValidator adds checks the schema cannot express. Select picks the
// models the validator applies to.
type CustomValidator interface {
	Select(m model.Model) bool
	Validate(m model.Model, objectID string) []Result
}

// FuncValidator adapts two functions to CustomValidator. A nil Selector
// selects every model.
type FuncValidator struct {
	Selector func(model.Model) bool
	Check    func(model.Model, string) []Result
}

// Select implements CustomValidator.
func (f FuncValidator) Select(m model.Model) bool {
	if f.Selector == nil {
		return true
	}
	return f.Selector(m)
}

// Validate implements CustomValidator.
func (f FuncValidator) Validate(m model.Model, objectID string) []Result {
	if f.Check == nil {
		return nil
	}
	return f.Check(m, objectID)
}

// Option configures an Engine.
type Option func(*Engine)

// WithValidator sets the schema validator.
func WithValidator(v *validator.Validator) Option {
	return func(e *Engine) {
		if v != nil {
			e.validator = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine validates control trees.
type Engine struct {
	validator *validator.Validator
	logger    *zap.Logger
}

// NewEngine returns an engine with a default validator.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.validator == nil {
		e.validator = validator.New(validator.WithLogger(e.logger))
	}
	return e
}

// Validator returns the schema validator used by the engine.
func (e *Engine) Validator() *validator.Validator {
	return e.validator
}

// Validate checks data against the schema of root and against validators,
// stores the messages on each exposed model and returns one issue per
// location with messages. A location reports the number of violations found
// below it followed by its own messages. Schema defaults are applied to a
// copy of data first; data itself is not modified. The error is non-nil
// only when the schema could not be evaluated. Panics raised by custom
// validators are not recovered.
func (e *Engine) Validate(root *control.Control, id string, data any, validators []CustomValidator) ([]Issue, error) {
	if root == nil {
		return nil, nil
	}
	flat := control.Flatten(root)
	instance := withDefaults(flat, deepcopy.Copy(data))

	violations, err := e.validator.Violations(root.Schema().SchemaForValidation(), instance)
	if err != nil {
		return nil, err
	}

	direct := map[string][]string{}
	counts := map[string]int{}
	for _, violation := range violations {
		direct[violation.Pointer] = append(direct[violation.Pointer], violation.Message)
		segments, err := effective.ParsePointer(violation.Pointer)
		if err != nil {
			continue
		}
		for _, head := range effective.Heads(segments) {
			counts[head]++
		}
	}

	for _, ctrl := range flat {
		for _, custom := range validators {
			if custom == nil || !custom.Select(ctrl.Model()) {
				continue
			}
			for _, result := range custom.Validate(ctrl.Model(), id) {
				pointer := ctrl.Pointer()
				direct[pointer] = append(direct[pointer], result.Message)
			}
		}
	}

	printer := e.validator.Printer()
	seen := make(map[string]struct{}, len(flat))
	var issues []Issue
	for _, ctrl := range flat {
		pointer := ctrl.Pointer()
		var parts []string
		if n := counts[pointer]; n > 0 {
			parts = append(parts, printer.Sprintf("%d sub-error(s)", n))
		}
		parts = append(parts, direct[pointer]...)
		ctrl.Model().SetValidationErrors(parts)
		if len(parts) == 0 {
			continue
		}
		if _, dup := seen[pointer]; dup {
			continue
		}
		seen[pointer] = struct{}{}
		issues = append(issues, Issue{Pointer: pointer, Message: strings.Join(parts, "\n")})
	}
	e.logger.Debug("validated element",
		zap.String("id", id),
		zap.Int("violations", len(violations)),
		zap.Int("issues", len(issues)))
	return issues, nil
}

// withDefaults writes the default of every exposed control whose location is
// unset into doc, parents before children. Only exposed controls are
// visited: the children of a container that is absent from the live data
// get no defaults, even when the container itself is defaulted. Locations
// whose parent is missing are skipped.
func withDefaults(flat []*control.Control, doc any) any {
	for idx := len(flat) - 1; idx >= 0; idx-- {
		s := flat[idx].Schema()
		value := s.DefaultValue()
		if value == nil {
			continue
		}
		segments := s.Pointer()
		if len(segments) == 0 {
			if doc == nil {
				doc = deepcopy.Copy(value)
			}
			continue
		}
		parent, ok := effective.ExtractProperty(effective.PointerString(segments[:len(segments)-1]), doc)
		if !ok {
			continue
		}
		container, ok := parent.(map[string]any)
		if !ok {
			continue
		}
		key := segments[len(segments)-1]
		if current, exists := container[key]; exists && current != nil {
			continue
		}
		container[key] = deepcopy.Copy(value)
	}
	return doc
}
