// Package script implements custom validators written in JavaScript and run
// with goja.
//
// A rule body sees three bindings: value (a copy of the model value),
// pointer and id. It returns nothing, true or null when the value is valid;
// false, a message or a list of messages otherwise.
package script

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/mohae/deepcopy"
	"go.uber.org/zap"

	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/model"
	"github.com/goliatone/go-propedit/pkg/validation"
)

const defaultTimeout = 250 * time.Millisecond

// Rule describes a scripted validator.
type Rule struct {
	Name string `json:"name" yaml:"name"`
	// Kinds restricts the rule to models of these kinds. Empty selects all.
	Kinds []string `json:"kinds,omitempty" yaml:"kinds,omitempty"`
	// Pointers restricts the rule to these locations. Empty selects all.
	Pointers []string `json:"pointers,omitempty" yaml:"pointers,omitempty"`
	Script   string   `json:"script" yaml:"script"`
	// Message is reported when the script returns false.
	Message string        `json:"message,omitempty" yaml:"message,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Error reports a rule whose script failed to run.
type Error struct {
	Rule    string
	Pointer string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("script: rule %q at %q: %v", e.Rule, e.Pointer, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrTimeout marks a script interrupted for running too long.
var ErrTimeout = errors.New("script: execution timeout")

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// Validator runs a compiled rule. It satisfies validation.CustomValidator
// and is not safe for concurrent use.
type Validator struct {
	rule     Rule
	kinds    map[model.Kind]struct{}
	pointers map[string]struct{}
	vm       *goja.Runtime
	fn       goja.Callable
	logger   *zap.Logger
}

var _ validation.CustomValidator = (*Validator)(nil)

// Compile prepares rule in a fresh hardened runtime.
func Compile(rule Rule, opts ...Option) (*Validator, error) {
	if rule.Script == "" {
		return nil, fmt.Errorf("script: rule %q has no script", rule.Name)
	}
	if rule.Timeout <= 0 {
		rule.Timeout = defaultTimeout
	}
	name := rule.Name
	if name == "" {
		name = "rule"
	}
	program, err := goja.Compile(name, "(function(value, pointer, id) {\n"+rule.Script+"\n})", true)
	if err != nil {
		return nil, fmt.Errorf("script: compile %q: %w", name, err)
	}

	vm := goja.New()
	if err := harden(vm); err != nil {
		return nil, fmt.Errorf("script: prepare runtime: %w", err)
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, fmt.Errorf("script: load %q: %w", name, err)
	}
	fn, ok := goja.AssertFunction(value)
	if !ok {
		return nil, fmt.Errorf("script: rule %q is not a function", name)
	}

	v := &Validator{rule: rule, vm: vm, fn: fn, logger: zap.NewNop()}
	if len(rule.Kinds) > 0 {
		v.kinds = make(map[model.Kind]struct{}, len(rule.Kinds))
		for _, kind := range rule.Kinds {
			v.kinds[model.Kind(kind)] = struct{}{}
		}
	}
	if len(rule.Pointers) > 0 {
		v.pointers = make(map[string]struct{}, len(rule.Pointers))
		for _, pointer := range rule.Pointers {
			v.pointers[pointer] = struct{}{}
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v, nil
}

// CompileAll compiles every rule, stopping at the first failure.
func CompileAll(rules []Rule, opts ...Option) ([]validation.CustomValidator, error) {
	out := make([]validation.CustomValidator, 0, len(rules))
	for _, rule := range rules {
		v, err := Compile(rule, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Name returns the rule name.
func (v *Validator) Name() string { return v.rule.Name }

// Select implements validation.CustomValidator.
func (v *Validator) Select(m model.Model) bool {
	if m == nil {
		return false
	}
	if v.kinds != nil {
		if _, ok := v.kinds[m.Kind()]; !ok {
			return false
		}
	}
	if v.pointers != nil {
		if _, ok := v.pointers[pointerOf(m)]; !ok {
			return false
		}
	}
	return true
}

// Validate implements validation.CustomValidator. A script that throws or
// times out panics with *Error.
func (v *Validator) Validate(m model.Model, objectID string) []validation.Result {
	pointer := pointerOf(m)
	results, err := v.run(deepcopy.Copy(m.RawValue()), pointer, objectID)
	if err != nil {
		panic(&Error{Rule: v.rule.Name, Pointer: pointer, Err: err})
	}
	return results
}

func (v *Validator) run(value any, pointer, objectID string) ([]validation.Result, error) {
	timer := time.AfterFunc(v.rule.Timeout, func() {
		v.vm.Interrupt(ErrTimeout)
	})
	defer func() {
		timer.Stop()
		v.vm.ClearInterrupt()
	}()

	out, err := v.fn(goja.Undefined(), v.vm.ToValue(value), v.vm.ToValue(pointer), v.vm.ToValue(objectID))
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	v.logger.Debug("ran validation script", zap.String("rule", v.rule.Name), zap.String("pointer", pointer))
	return v.results(out.Export()), nil
}

func (v *Validator) results(exported any) []validation.Result {
	switch typed := exported.(type) {
	case nil:
		return nil
	case bool:
		if typed {
			return nil
		}
		message := v.rule.Message
		if message == "" {
			message = "invalid value"
		}
		return []validation.Result{{Message: message}}
	case string:
		if typed == "" {
			return nil
		}
		return []validation.Result{{Message: typed}}
	case []any:
		var out []validation.Result
		for _, entry := range typed {
			out = append(out, v.results(entry)...)
		}
		return out
	default:
		return []validation.Result{{Message: fmt.Sprint(typed)}}
	}
}

func pointerOf(m model.Model) string {
	if m.Schema() == nil {
		return ""
	}
	return effective.PointerString(m.Schema().Pointer())
}
