package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-propedit/internal/jsonschema/loader"
	"github.com/goliatone/go-propedit/pkg/bindable"
	"github.com/goliatone/go-propedit/pkg/control"
	"github.com/goliatone/go-propedit/pkg/effective"
	pkgjsonschema "github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/model"
	"github.com/goliatone/go-propedit/pkg/schema"
	"github.com/goliatone/go-propedit/pkg/validation"
	"github.com/goliatone/go-propedit/pkg/validator"
)

// ErrUnknownElement marks an element id that is not displayed.
var ErrUnknownElement = errors.New("editor: unknown element")

// ValidatorID identifies a registered custom validator.
type ValidatorID int

type registeredValidator struct {
	id        ValidatorID
	validator validation.CustomValidator
}

// Editor owns the displayed elements and the aggregate validity signal.
type Editor struct {
	logger      *zap.Logger
	loader      pkgjsonschema.Loader
	resolveOpts pkgjsonschema.ResolveOptions
	scopes      ResolutionScopeProvider
	refs        model.ReferenceProvider
	engine      *validation.Engine
	factory     *control.Factory
	readOnly    bool

	elements map[string]*Element
	order    []string

	validators    []registeredValidator
	nextValidator ValidatorID

	valid          bool
	validListeners map[int]func(bool)
	nextListener   int
}

// New constructs an Editor. Missing collaborators fall back to a file loader
// without HTTP, no resolution scope, no-op references and a default
// validation engine.
func New(options ...Option) *Editor {
	e := &Editor{
		logger:         zap.NewNop(),
		refs:           model.NoopReferences{},
		scopes:         noScope{},
		elements:       make(map[string]*Element),
		valid:          true,
		validListeners: make(map[int]func(bool)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.loader == nil {
		e.loader = loader.New(pkgjsonschema.LoaderOptions{})
	}
	if e.resolveOpts.Logger == nil {
		e.resolveOpts.Logger = e.logger
	}
	if e.engine == nil {
		e.engine = validation.NewEngine(validation.WithLogger(e.logger))
	}
	e.factory = control.NewFactory(
		control.WithMatcher(e.engine.Validator()),
		control.WithReferences(e.refs),
		control.WithLogger(e.logger),
	)
	return e
}

// Display normalizes rawSchema and shows data as element id. An empty id is
// replaced by a generated one; an existing element with the same id is
// replaced. Reference and schema structure errors are returned and leave the
// editor unchanged.
func (e *Editor) Display(ctx context.Context, id string, rawSchema map[string]any, data any) (*Element, error) {
	if ctx == nil {
		return nil, errors.New("editor: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rawSchema == nil {
		return nil, errors.New("editor: schema is required")
	}
	if id == "" {
		id = uuid.NewString()
	}

	scope, _ := e.scopes.ResolutionScope(id)
	normalized, err := pkgjsonschema.NewResolver(e.loader, e.resolveOpts).Normalize(ctx, rawSchema, scope)
	if err != nil {
		return nil, fmt.Errorf("editor: normalize schema for %q: %w", id, err)
	}

	el := &Element{id: id, schema: normalized}
	if err := e.build(el); err != nil {
		return nil, err
	}

	el.data = bindable.NewRoot(data)
	if err := el.control.BindTo(el.data); err != nil {
		return nil, fmt.Errorf("editor: bind %q: %w", id, err)
	}
	el.removeListener = el.data.AddListener(func() { e.changed(el) })

	if _, exists := e.elements[id]; exists {
		e.detach(id)
	}
	e.elements[id] = el
	e.order = append(e.order, id)
	e.validate(el)
	e.logger.Debug("displayed element", zap.String("id", id))
	e.updateValid()
	return el, nil
}

// Remove drops element id. Unknown ids are ignored.
func (e *Editor) Remove(id string) {
	if _, ok := e.elements[id]; !ok {
		return
	}
	e.detach(id)
	e.updateValid()
}

// Element returns the displayed element id.
func (e *Editor) Element(id string) (*Element, bool) {
	el, ok := e.elements[id]
	return el, ok
}

// Elements returns the displayed elements in display order.
func (e *Editor) Elements() []*Element {
	out := make([]*Element, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.elements[id])
	}
	return out
}

// Data returns the live document of element id.
func (e *Editor) Data(id string) (any, bool) {
	el, ok := e.elements[id]
	if !ok {
		return nil, false
	}
	return el.data.Document(), true
}

// Replace swaps the document of element id. Union branches chosen by the
// user are released.
func (e *Editor) Replace(id string, data any) error {
	el, ok := e.elements[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownElement, id)
	}
	el.data.Reset(data)
	return nil
}

// Valid reports whether every displayed element is valid.
func (e *Editor) Valid() bool {
	return e.valid
}

// OnValidChange registers fn to run when the aggregate validity flips. The
// returned function unregisters it.
func (e *Editor) OnValidChange(fn func(valid bool)) func() {
	if fn == nil {
		return func() {}
	}
	e.nextListener++
	key := e.nextListener
	e.validListeners[key] = fn
	return func() { delete(e.validListeners, key) }
}

// AddValidator registers a custom validator and revalidates every element.
func (e *Editor) AddValidator(v validation.CustomValidator) ValidatorID {
	if v == nil {
		return 0
	}
	e.nextValidator++
	e.validators = append(e.validators, registeredValidator{id: e.nextValidator, validator: v})
	e.Revalidate()
	return e.nextValidator
}

// RemoveValidator unregisters a custom validator and revalidates every
// element. It reports whether the validator was registered.
func (e *Editor) RemoveValidator(id ValidatorID) bool {
	for idx, entry := range e.validators {
		if entry.id != id {
			continue
		}
		e.validators = append(e.validators[:idx], e.validators[idx+1:]...)
		e.Revalidate()
		return true
	}
	return false
}

// ReadOnly reports whether the editor is read-only.
func (e *Editor) ReadOnly() bool {
	return e.readOnly
}

// SetReadOnly toggles read-only mode. Control trees are rebuilt so every
// schema view reports the new state.
func (e *Editor) SetReadOnly(readOnly bool) error {
	if e.readOnly == readOnly {
		return nil
	}
	e.readOnly = readOnly
	e.engine.Validator().Reset()
	for _, id := range e.order {
		el := e.elements[id]
		if err := e.build(el); err != nil {
			return err
		}
		if err := el.control.BindTo(el.data); err != nil {
			return fmt.Errorf("editor: bind %q: %w", id, err)
		}
		e.validate(el)
	}
	e.updateValid()
	return nil
}

// Revalidate validates every element and refreshes the validity signal.
func (e *Editor) Revalidate() {
	for _, id := range e.order {
		e.validate(e.elements[id])
	}
	e.updateValid()
}

// Validator returns the schema validator the editor shares with its
// controls.
func (e *Editor) Validator() *validator.Validator {
	return e.engine.Validator()
}

func (e *Editor) build(el *Element) error {
	var root effective.Schema = effective.NewRoot(el.schema)
	if e.readOnly {
		root = effective.NewForceReadOnly(root)
	}
	ctrl, err := e.factory.Create(root)
	if err != nil {
		return fmt.Errorf("editor: build controls for %q: %w", el.id, err)
	}
	el.root = root
	el.control = ctrl
	return nil
}

func (e *Editor) changed(el *Element) {
	if err := el.control.BindTo(el.data); err != nil {
		e.logger.Error("rebind failed", zap.String("id", el.id), zap.Error(err))
	}
	e.validate(el)
	e.updateValid()
}

func (e *Editor) validate(el *Element) {
	validators := make([]validation.CustomValidator, 0, len(e.validators)+1)
	validators = append(validators, validation.ReferenceValidator{})
	for _, entry := range e.validators {
		validators = append(validators, entry.validator)
	}
	issues, err := e.engine.Validate(el.control, el.id, el.data.Document(), validators)
	if err != nil {
		e.logger.Error("validation failed", zap.String("id", el.id), zap.Error(err))
		el.issues = []validation.Issue{{Message: err.Error()}}
		return
	}
	el.issues = issues
}

func (e *Editor) detach(id string) {
	el := e.elements[id]
	if el.removeListener != nil {
		el.removeListener()
	}
	delete(e.elements, id)
	e.engine.Validator().Reset()
	for idx, existing := range e.order {
		if existing == id {
			e.order = append(e.order[:idx], e.order[idx+1:]...)
			break
		}
	}
}

func (e *Editor) updateValid() {
	valid := true
	for _, el := range e.elements {
		if !el.Valid() {
			valid = false
			break
		}
	}
	if valid == e.valid {
		return
	}
	e.valid = valid
	e.logger.Debug("validity changed", zap.Bool("valid", valid))
	for key := 1; key <= e.nextListener; key++ {
		if fn, ok := e.validListeners[key]; ok {
			fn(valid)
		}
	}
}

// Element is one displayed document.
type Element struct {
	id             string
	schema         schema.Node
	root           effective.Schema
	control        *control.Control
	data           *bindable.Root
	issues         []validation.Issue
	removeListener func()
}

// ID returns the element id.
func (el *Element) ID() string { return el.id }

// Schema returns the normalized schema.
func (el *Element) Schema() schema.Node { return el.schema }

// Root returns the effective root schema view.
func (el *Element) Root() effective.Schema { return el.root }

// Control returns the root control.
func (el *Element) Control() *control.Control { return el.control }

// Data returns the live document.
func (el *Element) Data() any { return el.data.Document() }

// Binding returns the document root binding.
func (el *Element) Binding() *bindable.Root { return el.data }

// Issues returns the messages of the last validation run.
func (el *Element) Issues() []validation.Issue { return el.issues }

// Valid reports whether the last validation run produced no issues.
func (el *Element) Valid() bool { return len(el.issues) == 0 }

// Find returns the control editing pointer, or nil.
func (el *Element) Find(pointer string) *control.Control {
	return control.Find(el.control, pointer)
}
