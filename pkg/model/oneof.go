package model

import (
	"reflect"

	"github.com/mohae/deepcopy"

	"github.com/goliatone/go-propedit/pkg/bindable"
	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/schema"
)

// BranchMatcher decides whether a value satisfies a schema node.
type BranchMatcher interface {
	Matches(node schema.Node, instance any) bool
}

// Selection is the state of the active union branch.
type Selection int

const (
	// SelectionNone means no branch is active.
	SelectionNone Selection = iota
	// SelectionAuto means the active branch was guessed from the data.
	SelectionAuto
	// SelectionPinned means the user picked the branch; guessing is
	// suspended until the document is replaced.
	SelectionPinned
)

func (s Selection) String() string {
	switch s {
	case SelectionAuto:
		return "auto"
	case SelectionPinned:
		return "pinned"
	default:
		return "none"
	}
}

// OneOfModel edits a value described by a oneOf or anyOf union. It tracks
// the active branch and keeps properties entered under other branches so
// switching back restores them.
type OneOfModel struct {
	TypeModel[any]
	branches      []effective.Schema
	partials      []schema.Node
	discriminator string
	matcher       BranchMatcher

	active     int
	selection  Selection
	seenGen    uint64
	genKnown   bool
	optionData map[string]any
}

// NewOneOf returns a union model over branches. A non-empty discriminator
// selects branches by const lookup instead of validation.
func NewOneOf(s effective.Schema, branches []effective.Schema, discriminator string, matcher BranchMatcher) *OneOfModel {
	partials := make([]schema.Node, len(branches))
	for idx, branch := range branches {
		partials[idx] = effective.NewPartial(branch).SchemaForValidation()
	}
	m := &OneOfModel{
		TypeModel:     newTypeModel[any](KindOneOf, s, IdentityConverter{}),
		branches:      branches,
		partials:      partials,
		discriminator: discriminator,
		matcher:       matcher,
		active:        -1,
		optionData:    map[string]any{},
	}
	m.preview = func(raw any) string {
		if m.active < 0 {
			return previewJSON(raw)
		}
		title := m.branches[m.active].Title()
		if raw == nil {
			return title
		}
		return title + ": " + previewJSON(raw)
	}
	return m
}

// Branches returns the branch views in declaration order.
func (m *OneOfModel) Branches() []effective.Schema { return m.branches }

// Discriminator returns the discriminating property, or "".
func (m *OneOfModel) Discriminator() string { return m.discriminator }

// Active returns the active branch index, or -1.
func (m *OneOfModel) Active() int { return m.active }

// Selection returns the branch selection state.
func (m *OneOfModel) Selection() Selection { return m.selection }

// OptionData returns the cache of properties entered under any branch.
func (m *OneOfModel) OptionData() map[string]any { return m.optionData }

// Bind re-points the model and refreshes the active branch.
func (m *OneOfModel) Bind(b bindable.Bindable) {
	m.TypeModel.Bind(b)
	m.Refresh()
}

// Refresh re-evaluates the active branch against the bound value. A pinned
// branch is kept until the document is replaced; otherwise the active branch
// is kept while it still matches and re-guessed when it does not. A
// discriminated union whose discriminator names no branch has no active
// branch.
func (m *OneOfModel) Refresh() {
	if gen, ok := m.generation(); ok {
		if m.genKnown && gen != m.seenGen {
			m.optionData = map[string]any{}
			if m.selection == SelectionPinned {
				m.selection = SelectionAuto
			}
		}
		m.seenGen, m.genKnown = gen, true
	}

	value := m.RawValue()
	m.remember(value)

	if m.selection == SelectionPinned {
		return
	}
	if value == nil {
		m.active, m.selection = -1, SelectionNone
		return
	}
	if m.active >= 0 && m.matches(m.active, value) {
		return
	}
	guess := m.Guess(value)
	switch {
	case guess >= 0:
		m.active, m.selection = guess, SelectionAuto
	case m.discriminator != "":
		// The discriminator names no branch.
		m.active, m.selection = -1, SelectionNone
	}
	// Plain unions keep the last branch.
}

// Guess returns the first branch the value fits, or -1. Discriminated unions
// compare the discriminator value against each branch const; other unions
// try a strict match first and then a match that ignores required.
func (m *OneOfModel) Guess(value any) int {
	if m.discriminator != "" {
		object, ok := value.(map[string]any)
		if !ok {
			return -1
		}
		current, ok := object[m.discriminator]
		if !ok {
			return -1
		}
		for idx, branch := range m.branches {
			if want, ok := effective.DiscriminatorValue(branch.Base(), m.discriminator); ok && reflect.DeepEqual(want, current) {
				return idx
			}
		}
		return -1
	}
	if m.matcher == nil {
		return -1
	}
	for idx := range m.branches {
		if m.matcher.Matches(m.branches[idx].SchemaForValidation(), value) {
			return idx
		}
	}
	for idx := range m.branches {
		if m.matcher.Matches(m.partials[idx], value) {
			return idx
		}
	}
	return -1
}

// SelectType pins branch index and rewrites the value for it. Object
// branches receive the cached properties they declare; the discriminator,
// when present, is set to the branch const.
func (m *OneOfModel) SelectType(index int) {
	if index < 0 || index >= len(m.branches) {
		return
	}
	current := m.RawValue()
	m.remember(current)

	m.active = index
	m.selection = SelectionPinned
	branch := m.branches[index].Base()
	next := m.valueFor(branch, current)
	m.SetRawValue(next)
}

// Unpin returns the model to automatic branch detection.
func (m *OneOfModel) Unpin() {
	if m.selection == SelectionPinned {
		m.selection = SelectionAuto
	}
	m.Refresh()
}

func (m *OneOfModel) valueFor(branch schema.Node, current any) any {
	if !schema.IsObject(branch) {
		if current != nil && m.matcher != nil && m.matcher.Matches(branch, current) {
			return current
		}
		return NewItemValue(branch)
	}

	next := map[string]any{}
	props, declared := schema.Object(branch, "properties")
	for key, value := range m.optionData {
		if declared {
			if _, ok := props[key]; !ok {
				continue
			}
		}
		next[key] = deepcopy.Copy(value)
	}
	for _, name := range schema.SortedKeys(props) {
		if _, ok := next[name]; ok {
			continue
		}
		prop, _ := props[name].(map[string]any)
		if value, ok := prop["default"]; ok {
			next[name] = deepcopy.Copy(value)
		}
	}
	if m.discriminator != "" {
		if value, ok := effective.DiscriminatorValue(branch, m.discriminator); ok {
			next[m.discriminator] = value
		}
	}
	return next
}

// remember merges the properties of an object value into the cache.
func (m *OneOfModel) remember(value any) {
	object, ok := value.(map[string]any)
	if !ok {
		return
	}
	for key, entry := range object {
		if key == m.discriminator && m.discriminator != "" {
			continue
		}
		m.optionData[key] = deepcopy.Copy(entry)
	}
}

func (m *OneOfModel) matches(index int, value any) bool {
	if m.discriminator != "" {
		return m.Guess(value) == index
	}
	if m.matcher == nil {
		return true
	}
	return m.matcher.Matches(m.branches[index].SchemaForValidation(), value)
}

func (m *OneOfModel) generation() (uint64, bool) {
	root := bindable.RootOf(m.bound)
	if root == nil {
		return 0, false
	}
	return root.Generation(), true
}
