package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-propedit/pkg/schema"
)

func TestArrayAddUsesItemDefault(t *testing.T) {
	data := map[string]any{}
	prop := mustNode(t, `{"type":"array","items":{"type":"string","default":"foo"}}`)
	s, obj, root := bindProperty(data, "bar", prop)
	notifications := 0
	root.AddListener(func() { notifications++ })

	m := NewArray(s)
	m.Bind(obj)
	for i := 0; i < 3; i++ {
		m.AddItemAt(m.Len())
	}
	if diff := cmp.Diff([]any{"foo", "foo", "foo"}, data["bar"]); diff != "" {
		t.Fatalf("unexpected array (-want +got):\n%s", diff)
	}
	if notifications != 3 {
		t.Fatalf("expected one notification per add, got %d", notifications)
	}
}

func TestArrayAddCopiesObjectDefaults(t *testing.T) {
	data := map[string]any{}
	prop := mustNode(t, `{"type":"array","items":{"type":"object","default":{"k":"v"}}}`)
	s, obj, _ := bindProperty(data, "list", prop)
	m := NewArray(s)
	m.Bind(obj)
	m.AddItemAt(0)
	m.AddItemAt(0)
	items := data["list"].([]any)
	items[0].(map[string]any)["k"] = "changed"
	if items[1].(map[string]any)["k"] != "v" {
		t.Fatalf("expected each item to own its default copy")
	}
}

func TestArrayEditing(t *testing.T) {
	data := map[string]any{"list": []any{"a", "b", "c"}}
	s, obj, _ := bindProperty(data, "list", schema.Node{"type": "array", "items": map[string]any{"type": "string"}})
	m := NewArray(s)
	m.Bind(obj)

	steps := []struct {
		name string
		op   func()
		want []any
	}{
		{"move up first is no-op", func() { m.MoveItemUp(0) }, []any{"a", "b", "c"}},
		{"move down last is no-op", func() { m.MoveItemDown(2) }, []any{"a", "b", "c"}},
		{"move down past end is no-op", func() { m.MoveItemDown(3) }, []any{"a", "b", "c"}},
		{"move down", func() { m.MoveItemDown(0) }, []any{"b", "a", "c"}},
		{"move up", func() { m.MoveItemUp(2) }, []any{"b", "c", "a"}},
		{"remove", func() { m.RemoveItem(1) }, []any{"b", "a"}},
		{"remove out of range", func() { m.RemoveItem(5) }, []any{"b", "a"}},
		{"insert middle", func() { m.AddItemAt(1) }, []any{"b", nil, "a"}},
		{"insert clamps", func() { m.AddItemAt(-4) }, []any{nil, "b", nil, "a"}},
	}
	for _, step := range steps {
		step.op()
		if diff := cmp.Diff(step.want, data["list"]); diff != "" {
			t.Fatalf("%s: unexpected array (-want +got):\n%s", step.name, diff)
		}
	}
}

func TestEnumSetToggle(t *testing.T) {
	data := map[string]any{}
	prop := mustNode(t, `{"type":"array","uniqueItems":true,"items":{"enum":["r","g","b"]}}`)
	s, obj, _ := bindProperty(data, "rgb", prop)
	m := NewEnumSet(s)
	m.Bind(obj)
	if m.Kind() != KindEnumSet {
		t.Fatalf("unexpected kind %s", m.Kind())
	}
	m.Toggle(2)
	m.Toggle(0)
	if diff := cmp.Diff([]any{"b", "r"}, data["rgb"]); diff != "" {
		t.Fatalf("unexpected set (-want +got):\n%s", diff)
	}
	if !m.Contains(0) || m.Contains(1) {
		t.Fatalf("unexpected membership")
	}
	m.Toggle(2)
	if diff := cmp.Diff([]any{"r"}, data["rgb"]); diff != "" {
		t.Fatalf("unexpected set (-want +got):\n%s", diff)
	}
}

func TestTupleEnsure(t *testing.T) {
	data := map[string]any{"pair": []any{"x"}}
	prop := mustNode(t, `{"type":"array","items":[{"type":"string","title":"Key"},{"type":"number","default":1}]}`)
	s, obj, _ := bindProperty(data, "pair", prop)
	m := NewTuple(s)
	m.Bind(obj)
	m.Ensure()
	if diff := cmp.Diff([]any{"x", 1.0}, data["pair"]); diff != "" {
		t.Fatalf("unexpected tuple (-want +got):\n%s", diff)
	}
	if m.ItemTitle(0) != "Key" || m.ItemTitle(1) != "1" {
		t.Fatalf("unexpected titles %q %q", m.ItemTitle(0), m.ItemTitle(1))
	}
}
