package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-propedit/pkg/bindable"
	"github.com/goliatone/go-propedit/pkg/effective"
	"github.com/goliatone/go-propedit/pkg/jsonschema"
	"github.com/goliatone/go-propedit/pkg/schema"
)

func mustNode(t *testing.T, raw string) schema.Node {
	t.Helper()
	node, err := jsonschema.ParseSchema([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return node
}

// bindProperty returns a view for property name of an object schema and an
// Object binding over data.
func bindProperty(data map[string]any, name string, prop schema.Node) (effective.Schema, *bindable.Object, *bindable.Root) {
	rootSchema := effective.NewRoot(schema.Node{"type": "object", "properties": map[string]any{name: prop}})
	root := bindable.NewRoot(data)
	return effective.NewProperty(rootSchema, name, prop), bindable.NewObject(root, data), root
}

func TestUnboundModelIgnoresWrites(t *testing.T) {
	s, _, _ := bindProperty(map[string]any{}, "name", schema.Node{"type": "string"})
	m := NewString(s)
	m.SetValue("x")
	if _, ok := m.Value(); ok {
		t.Fatalf("expected unbound model to report no value")
	}
	if m.PreviewString() != "" {
		t.Fatalf("expected empty preview")
	}
}

func TestScalarConversions(t *testing.T) {
	data := map[string]any{"s": 12.5, "n": 3.0, "i": 4.0, "f": 4.5, "b": true}
	root := bindable.NewRoot(data)
	obj := bindable.NewObject(root, data)
	rootSchema := effective.NewRoot(schema.Node{"type": "object"})

	str := NewString(effective.NewProperty(rootSchema, "s", schema.Node{"type": "string"}))
	str.Bind(obj)
	if got, _ := str.Value(); got != "12.5" {
		t.Fatalf("expected string coercion, got %q", got)
	}

	num := NewNumber(effective.NewProperty(rootSchema, "n", schema.Node{"type": "number"}))
	num.Bind(obj)
	if got, _ := num.Value(); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}

	integer := NewInteger(effective.NewProperty(rootSchema, "i", schema.Node{"type": "integer"}))
	integer.Bind(obj)
	if got, ok := integer.Value(); !ok || got != 4 {
		t.Fatalf("expected 4, got %v %v", got, ok)
	}
	fraction := NewInteger(effective.NewProperty(rootSchema, "f", schema.Node{"type": "integer"}))
	fraction.Bind(obj)
	if _, ok := fraction.Value(); ok {
		t.Fatalf("expected fractional number to be rejected")
	}
	integer.SetValue(7)
	if data["i"] != 7.0 {
		t.Fatalf("expected integer stored as float64, got %#v", data["i"])
	}

	flag := NewBoolean(effective.NewProperty(rootSchema, "b", schema.Node{"type": "boolean", "default": false}))
	flag.Bind(obj)
	if got, _ := flag.Value(); !got {
		t.Fatalf("expected true")
	}
	if def, ok := flag.DefaultValue(); !ok || def {
		t.Fatalf("expected false default")
	}
	flag.Clear()
	if _, ok := data["b"]; ok {
		t.Fatalf("expected clear to remove the key")
	}
}

func TestPreviewIsSanitized(t *testing.T) {
	data := map[string]any{"note": "<b>bold</b> text"}
	s, obj, _ := bindProperty(data, "note", schema.Node{"type": "string"})
	m := NewString(s)
	m.Bind(obj)
	if got := m.PreviewString(); got != "bold text" {
		t.Fatalf("expected markup stripped, got %q", got)
	}

	data["note"] = "first\nsecond"
	multi := NewMultiLine(s)
	multi.Bind(obj)
	if got := multi.PreviewString(); got != "first …" {
		t.Fatalf("expected first line preview, got %q", got)
	}
}

func TestEnumModel(t *testing.T) {
	data := map[string]any{"size": "m"}
	s, obj, _ := bindProperty(data, "size", schema.Node{"enum": []any{"s", "m", "l"}})
	m := NewEnum(s)
	m.Bind(obj)
	if m.Selected() != 1 {
		t.Fatalf("expected index 1, got %d", m.Selected())
	}
	m.Select(2)
	if data["size"] != "l" {
		t.Fatalf("expected l, got %#v", data["size"])
	}
	m.Select(9)
	if data["size"] != "l" {
		t.Fatalf("out of range select must be ignored")
	}
	if got := EnumOptions(schema.Node{"const": "only"}); len(got) != 1 {
		t.Fatalf("expected const option, got %#v", got)
	}
}

func TestColorModel(t *testing.T) {
	data := map[string]any{"c": "#0f08"}
	s, obj, _ := bindProperty(data, "c", schema.Node{"type": "string", "format": "color"})
	m := NewColor(s)
	m.Bind(obj)
	r, g, b, a, ok := m.RGBA()
	if !ok || r != 0x00 || g != 0xff || b != 0x00 || a != 0x88 {
		t.Fatalf("unexpected rgba %d %d %d %d %v", r, g, b, a, ok)
	}
	m.SetRGB(1, 2, 255)
	if data["c"] != "#0102ff" {
		t.Fatalf("unexpected color %#v", data["c"])
	}
}

func TestTimeModels(t *testing.T) {
	data := map[string]any{"d": "2024-03-01", "t": "08:30"}
	rootSchema := effective.NewRoot(schema.Node{"type": "object"})
	obj := bindable.NewObject(bindable.NewRoot(data), data)

	date := NewDate(effective.NewProperty(rootSchema, "d", schema.Node{"type": "string"}))
	date.Bind(obj)
	parsed, ok := date.Time()
	if !ok || parsed.Month() != time.March {
		t.Fatalf("unexpected date %v %v", parsed, ok)
	}
	date.SetTime(time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC))
	if data["d"] != "2025-12-24" {
		t.Fatalf("unexpected date value %#v", data["d"])
	}

	local := NewLocalTime(effective.NewProperty(rootSchema, "t", schema.Node{"type": "string"}))
	local.Bind(obj)
	if parsed, ok := local.Time(); !ok || parsed.Hour() != 8 || parsed.Minute() != 30 {
		t.Fatalf("unexpected local time %v %v", parsed, ok)
	}
}

func TestFormattedInteger(t *testing.T) {
	data := map[string]any{"price": 123456.0}
	prop := mustNode(t, `{"type":"integer","int-format":{"precision":2,"pattern":"%s EUR","locale":"de"}}`)
	s, obj, _ := bindProperty(data, "price", prop)
	format, ok := ParseIntFormat(prop)
	if !ok || format.Precision != 2 || format.Locale.String() != "de" {
		t.Fatalf("unexpected format %#v", format)
	}
	m := NewFormattedInteger(s, format)
	m.Bind(obj)
	if got := m.Display(); got != "1.234,56 EUR" {
		t.Fatalf("unexpected display %q", got)
	}
	m.Increment()
	if data["price"] != 123556.0 {
		t.Fatalf("expected one unit step, got %#v", data["price"])
	}
	if err := m.SetText("2.000,5"); err != nil {
		t.Fatalf("set text: %v", err)
	}
	if data["price"] != 200050.0 {
		t.Fatalf("unexpected parsed value %#v", data["price"])
	}
	if _, err := m.Parse("abc"); err == nil {
		t.Fatalf("expected parse error")
	}

	plain, ok := ParseIntFormat(schema.Node{"int-format": 3.0})
	if !ok || plain.Precision != 3 || plain.Pattern != "%s" {
		t.Fatalf("unexpected bare precision format %#v", plain)
	}
}

type stubRefs struct {
	NoopReferences
}

func (stubRefs) Description(id string) string { return "desc of " + id }

func (stubRefs) IsValidReference(id string) bool { return id == "known" }

func TestReferenceModel(t *testing.T) {
	data := map[string]any{"ref": "known"}
	s, obj, _ := bindProperty(data, "ref", schema.Node{"type": "string", "format": "id-reference"})
	m := NewIDReference(s, stubRefs{})
	m.Bind(obj)
	if !m.ValidReference() {
		t.Fatalf("expected known reference to be valid")
	}
	if got := m.PreviewString(); got != "known (desc of known)" {
		t.Fatalf("unexpected preview %q", got)
	}
	m.SetValue("other")
	if m.ValidReference() {
		t.Fatalf("expected unknown reference to be invalid")
	}

	noop := NewDataReference(s, nil)
	noop.Bind(obj)
	if !noop.ValidReference() || len(noop.Proposals("o")) != 0 {
		t.Fatalf("expected no-op provider defaults")
	}
	if _, _, ok := noop.Target(); ok {
		t.Fatalf("expected no target")
	}
}

func TestObjectModel(t *testing.T) {
	data := map[string]any{}
	prop := mustNode(t, `{"type":"object","order":["b"],"properties":{"a":{},"b":{}}}`)
	s, obj, _ := bindProperty(data, "inner", prop)
	m := NewObject(s)
	m.Bind(obj)
	created := m.Ensure()
	created["a"] = "x"
	created["b"] = 2.0
	if diff := cmp.Diff(map[string]any{"inner": map[string]any{"a": "x", "b": 2.0}}, data); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}
	if got := m.PreviewString(); got != "b: 2, a: x" {
		t.Fatalf("unexpected preview %q", got)
	}
}

func TestUnsupportedModelPassesThrough(t *testing.T) {
	data := map[string]any{"blob": map[string]any{"k": []any{1.0}}}
	s, obj, _ := bindProperty(data, "blob", schema.Node{"not": map[string]any{}})
	m := NewUnsupported(s)
	m.Bind(obj)
	if diff := cmp.Diff(data["blob"], m.RawValue()); diff != "" {
		t.Fatalf("unexpected raw (-want +got):\n%s", diff)
	}
	if got := m.PreviewString(); got != `{"k":[1]}` {
		t.Fatalf("unexpected preview %q", got)
	}
}
