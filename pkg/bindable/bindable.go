// Package bindable addresses live JSON containers on behalf of models. A
// binding reads and writes one slot of its container using only the
// PropertyName of the effective schema it is given; nesting is expressed by
// composing bindings. Every write bubbles a single change notification to
// the Root.
package bindable

import (
	"strconv"

	"github.com/goliatone/go-propedit/pkg/effective"
)

// Bindable is the storage a model reads and writes through.
type Bindable interface {
	// Parent returns the enclosing binding used for change propagation, or
	// nil for the root.
	Parent() Bindable
	// Value returns the slot addressed by s. JSON null and missing slots
	// both read as nil.
	Value(s effective.Schema) any
	// SetValue writes the slot addressed by s and notifies the root once.
	SetValue(s effective.Schema, value any)
	// Changed propagates a change notification to the root.
	Changed()
}

// Listener observes changes to a Root.
type Listener func()

// Root owns the document value cell.
type Root struct {
	value      any
	listeners  map[int]Listener
	order      []int
	next       int
	generation uint64
}

// NewRoot wraps value as a document root.
func NewRoot(value any) *Root {
	return &Root{value: value, listeners: make(map[int]Listener)}
}

func (r *Root) Parent() Bindable { return nil }

// Value returns the document. The schema is ignored since the root holds a
// single value.
func (r *Root) Value(effective.Schema) any { return r.value }

// SetValue replaces the document value in place.
func (r *Root) SetValue(_ effective.Schema, value any) {
	r.value = value
	r.Changed()
}

// Reset swaps in a new document. Models bound to the previous document must
// be re-pointed; Generation lets them detect the swap.
func (r *Root) Reset(value any) {
	r.value = value
	r.generation++
	r.Changed()
}

// Generation counts document replacements made through Reset.
func (r *Root) Generation() uint64 { return r.generation }

// Document returns the current document value.
func (r *Root) Document() any { return r.value }

// AddListener registers fn and returns a function removing it.
func (r *Root) AddListener(fn Listener) func() {
	id := r.next
	r.next++
	r.listeners[id] = fn
	r.order = append(r.order, id)
	return func() {
		delete(r.listeners, id)
	}
}

// Changed fires the registered listeners in registration order.
func (r *Root) Changed() {
	for _, id := range append([]int(nil), r.order...) {
		if fn, ok := r.listeners[id]; ok {
			fn()
		}
	}
}

// RootOf walks parents up to the Root, or nil when the chain is detached.
func RootOf(b Bindable) *Root {
	for current := b; current != nil; current = current.Parent() {
		if root, ok := current.(*Root); ok {
			return root
		}
	}
	return nil
}

// Object addresses the keys of a JSON object.
type Object struct {
	parent Bindable
	data   map[string]any
}

// NewObject binds data, reporting changes to parent.
func NewObject(parent Bindable, data map[string]any) *Object {
	return &Object{parent: parent, data: data}
}

func (o *Object) Parent() Bindable { return o.parent }

// Data returns the bound object.
func (o *Object) Data() map[string]any { return o.data }

func (o *Object) Value(s effective.Schema) any {
	if o.data == nil || s == nil {
		return nil
	}
	return o.data[s.PropertyName()]
}

// SetValue stores value under the property name. nil removes the key.
func (o *Object) SetValue(s effective.Schema, value any) {
	if o.data == nil || s == nil {
		return
	}
	if value == nil {
		delete(o.data, s.PropertyName())
	} else {
		o.data[s.PropertyName()] = value
	}
	o.Changed()
}

func (o *Object) Changed() {
	if o.parent != nil {
		o.parent.Changed()
	}
}

// Array addresses the elements of a JSON array by index.
type Array struct {
	parent Bindable
	data   []any
}

// NewArray binds data, reporting changes to parent.
func NewArray(parent Bindable, data []any) *Array {
	return &Array{parent: parent, data: data}
}

func (a *Array) Parent() Bindable { return a.parent }

// Len returns the bound array length.
func (a *Array) Len() int { return len(a.data) }

func (a *Array) Value(s effective.Schema) any {
	if s == nil {
		return nil
	}
	index, ok := a.index(s.PropertyName())
	if !ok {
		return nil
	}
	return a.data[index]
}

// SetValue replaces the element at the index named by s. Indexes outside
// the array are ignored; resizing goes through the array's own binding.
func (a *Array) SetValue(s effective.Schema, value any) {
	if s == nil {
		return
	}
	index, ok := a.index(s.PropertyName())
	if !ok {
		return
	}
	a.setAt(index, value)
}

func (a *Array) Changed() {
	if a.parent != nil {
		a.parent.Changed()
	}
}

func (a *Array) valueAt(index int) any {
	if index < 0 || index >= len(a.data) {
		return nil
	}
	return a.data[index]
}

func (a *Array) setAt(index int, value any) {
	if index < 0 || index >= len(a.data) {
		return
	}
	a.data[index] = value
	a.Changed()
}

func (a *Array) index(name string) (int, bool) {
	index, err := strconv.Atoi(name)
	if err != nil || index < 0 || index >= len(a.data) {
		return 0, false
	}
	return index, true
}

// ArrayEntry addresses one fixed element of an Array regardless of the
// schema it is asked with.
type ArrayEntry struct {
	array *Array
	index int
}

// NewArrayEntry binds element index of array.
func NewArrayEntry(array *Array, index int) *ArrayEntry {
	return &ArrayEntry{array: array, index: index}
}

func (e *ArrayEntry) Parent() Bindable { return e.array }

// Index returns the bound element position.
func (e *ArrayEntry) Index() int { return e.index }

func (e *ArrayEntry) Value(effective.Schema) any { return e.array.valueAt(e.index) }

func (e *ArrayEntry) SetValue(_ effective.Schema, value any) { e.array.setAt(e.index, value) }

func (e *ArrayEntry) Changed() { e.array.Changed() }
