package validator

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

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

func mustValue(t *testing.T, raw string) any {
	t.Helper()
	value, err := jsonschema.ParseJSON([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return value
}

func pointers(violations []Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Pointer)
	}
	sort.Strings(out)
	return out
}

func TestViolations_FlattensNestedCauses(t *testing.T) {
	node := mustNode(t, `{
  "type":"object",
  "required":["name","age"],
  "properties": {
    "name": {"type":"string","minLength":3},
    "tags": {"type":"array","items":{"type":"string","maxLength":2}},
    "inner": {"type":"object","properties":{"deep":{"type":"integer"}}}
  }
}`)
	data := mustValue(t, `{"name":"ab","tags":["ok","long"],"inner":{"deep":1.5}}`)

	violations, err := New().Violations(node, data)
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	want := []string{"/age", "/inner/deep", "/name", "/tags/1"}
	if diff := cmp.Diff(want, pointers(violations)); diff != "" {
		t.Fatalf("unexpected pointers (-want +got):\n%s", diff)
	}
	for _, v := range violations {
		if v.Message == "" {
			t.Fatalf("expected message for %s", v.Pointer)
		}
	}
}

func TestViolations_RequiredSplitsPerProperty(t *testing.T) {
	node := mustNode(t, `{"type":"object","required":["a","b"]}`)
	violations, err := New().Violations(node, map[string]any{})
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if diff := cmp.Diff([]string{"/a", "/b"}, pointers(violations)); diff != "" {
		t.Fatalf("unexpected pointers (-want +got):\n%s", diff)
	}
}

func TestMatches(t *testing.T) {
	v := New()
	node := mustNode(t, `{"type":"string","minLength":15}`)
	if v.Matches(node, "short") {
		t.Fatalf("expected short value to fail")
	}
	if !v.Matches(node, "long enough value") {
		t.Fatalf("expected long value to pass")
	}
	if !v.Matches(mustNode(t, `{"type":"integer"}`), 3.0) {
		t.Fatalf("expected integral float to be an integer")
	}
}

func TestCompileCachesByIdentity(t *testing.T) {
	v := New()
	node := mustNode(t, `{"type":"string"}`)
	first, err := v.Compile(node)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := v.Compile(node)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached schema")
	}
	other, err := v.Compile(mustNode(t, `{"type":"string"}`))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if other == first {
		t.Fatalf("expected distinct node to compile separately")
	}
}

func TestCompileCacheIsBounded(t *testing.T) {
	v := New(WithCacheLimit(2))
	nodes := []schema.Node{
		mustNode(t, `{"type":"string"}`),
		mustNode(t, `{"type":"number"}`),
		mustNode(t, `{"type":"boolean"}`),
	}
	for _, node := range nodes {
		if _, err := v.Compile(node); err != nil {
			t.Fatalf("compile: %v", err)
		}
		if v.CachedSchemas() > 2 {
			t.Fatalf("cache grew past its limit: %d", v.CachedSchemas())
		}
	}
	if !v.Matches(nodes[0], "a") || v.Matches(nodes[0], float64(1)) {
		t.Fatalf("evicted schema must recompile with the same result")
	}

	v.Reset()
	if got := v.CachedSchemas(); got != 0 {
		t.Fatalf("expected empty cache after reset, got %d", got)
	}
}

func TestCompileRejectsInvalidSchema(t *testing.T) {
	if _, err := New().Compile(mustNode(t, `{"type":"not-a-type"}`)); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestCustomFormats(t *testing.T) {
	v := New()
	cases := []struct {
		format string
		value  any
		valid  bool
	}{
		{FormatColor, "#a0b1c2", true},
		{FormatColor, "#fff", true},
		{FormatColor, "red", false},
		{FormatLocalTime, "13:45", true},
		{FormatLocalTime, "13:45:10.250", true},
		{FormatLocalTime, "25:00", false},
		{FormatTime, "08:00:00Z", true},
		{FormatDate, "2024-02-29", true},
		{FormatDate, "2023-02-29", false},
		{FormatIDReference, "anything", true},
		{FormatMultiLine, "a\nb", true},
		{FormatColor, 12.0, true},
	}
	for _, tc := range cases {
		node := schema.Node{"format": tc.format}
		if got := v.Matches(node, tc.value); got != tc.valid {
			t.Fatalf("format %s value %#v: expected valid=%v", tc.format, tc.value, tc.valid)
		}
	}
}

func TestDefaultFormatsIsShared(t *testing.T) {
	if DefaultFormats() != DefaultFormats() {
		t.Fatalf("expected a single registry")
	}
	want := []string{"color", "data-reference", "date", "id-reference", "local-time", "multi-line", "time"}
	if diff := cmp.Diff(want, DefaultFormats().Names()); diff != "" {
		t.Fatalf("unexpected formats (-want +got):\n%s", diff)
	}
}
