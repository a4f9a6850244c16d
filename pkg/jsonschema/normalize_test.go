package jsonschema

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMerge(t *testing.T) {
	a := map[string]any{
		"title":    "A",
		"required": []any{"x"},
		"properties": map[string]any{
			"x": map[string]any{"type": "string"},
		},
	}
	b := map[string]any{
		"title":    "B",
		"required": []any{"y"},
		"properties": map[string]any{
			"x": map[string]any{"minLength": float64(1)},
			"y": map[string]any{"type": "integer"},
		},
	}
	want := map[string]any{
		"title":    "B",
		"required": []any{"x", "y"},
		"properties": map[string]any{
			"x": map[string]any{"type": "string", "minLength": float64(1)},
			"y": map[string]any{"type": "integer"},
		},
	}
	if diff := cmp.Diff(want, Merge(a, b)); diff != "" {
		t.Fatalf("unexpected merge (-want +got):\n%s", diff)
	}
	if _, ok := a["properties"].(map[string]any)["y"]; ok {
		t.Fatalf("merge mutated its input")
	}
}

func TestMerge_TypeMismatchTakesB(t *testing.T) {
	got := Merge(map[string]any{"items": []any{"a"}}, map[string]any{"items": map[string]any{"type": "string"}})
	if diff := cmp.Diff(map[string]any{"items": map[string]any{"type": "string"}}, got); diff != "" {
		t.Fatalf("unexpected merge (-want +got):\n%s", diff)
	}
}

func TestInlineCompositions_FoldsInDeclarationOrder(t *testing.T) {
	root := mustParse(t, `{
  "type":"object",
  "title":"Base",
  "order":["a"],
  "allOf": [
    {"title":"First", "order":["b"], "properties": {"b": {"type":"string"}}},
    {"title":"Second", "order":["c"], "required":["c"], "properties": {"c": {"type":"number"}}}
  ]
}`)
	got := InlineCompositions(root)
	want := map[string]any{
		"type":     "object",
		"title":    "Second",
		"order":    []any{"a", "b", "c"},
		"required": []any{"c"},
		"properties": map[string]any{
			"b": map[string]any{"type": "string"},
			"c": map[string]any{"type": "number"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected inline (-want +got):\n%s", diff)
	}
	if _, ok := root["allOf"]; !ok {
		t.Fatalf("inlining mutated its input")
	}
}

func TestInlineCompositions_RequiredUnionAcrossRefAndInline(t *testing.T) {
	cases := []struct {
		name   string
		schema string
	}{
		{
			name: "inline and inline",
			schema: `{"allOf": [
  {"required":["a"], "properties": {"a": {}}},
  {"required":["b"], "properties": {"b": {}}}
]}`,
		},
		{
			name: "ref and inline",
			schema: `{"definitions": {"A": {"required":["a"], "properties": {"a": {}}}},
"allOf": [{"$ref":"#/definitions/A"}, {"required":["b"], "properties": {"b": {}}}]}`,
		},
		{
			name: "inline and ref",
			schema: `{"definitions": {"B": {"required":["b"], "properties": {"b": {}}}},
"allOf": [{"required":["a"], "properties": {"a": {}}}, {"$ref":"#/definitions/B"}]}`,
		},
		{
			name: "ref and ref",
			schema: `{"definitions": {
  "A": {"required":["a"], "properties": {"a": {}}},
  "B": {"required":["b"], "properties": {"b": {}}}
},
"allOf": [{"$ref":"#/definitions/A"}, {"$ref":"#/definitions/B"}]}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			normalized, err := NewResolver(nil, ResolveOptions{}).Normalize(context.Background(), mustParse(t, tc.schema), nil)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if diff := cmp.Diff([]any{"a", "b"}, normalized["required"]); diff != "" {
				t.Fatalf("unexpected required (-want +got):\n%s", diff)
			}
			props, _ := normalized["properties"].(map[string]any)
			if len(props) != 2 {
				t.Fatalf("expected union of properties, got %#v", props)
			}
		})
	}
}

func TestInlineCompositions_NestedAndPreservesUnions(t *testing.T) {
	root := mustParse(t, `{
  "properties": {
    "inner": {"allOf": [{"type":"object"}, {"properties": {"z": {"type":"boolean"}}}]},
    "list": {"type":"array", "items": {"allOf": [{"type":"string"}, {"maxLength": 3}]}},
    "choice": {"oneOf": [{"allOf": [{"type":"string"}]}, {"type":"number"}]}
  }
}`)
	got := InlineCompositions(root)
	inner := property(t, got, "inner")
	if _, ok := inner["allOf"]; ok || inner["type"] != "object" {
		t.Fatalf("expected nested allOf inlined, got %#v", inner)
	}
	items := property(t, got, "list")["items"].(map[string]any)
	if items["maxLength"] != float64(3) || items["type"] != "string" {
		t.Fatalf("expected items allOf inlined, got %#v", items)
	}
	choice := property(t, got, "choice")
	branches := choice["oneOf"].([]any)
	if len(branches) != 2 {
		t.Fatalf("expected oneOf preserved, got %#v", choice)
	}
	if first := branches[0].(map[string]any); first["type"] != "string" {
		t.Fatalf("expected oneOf branch allOf inlined, got %#v", first)
	}
}

func TestInlineCompositions_UnchangedReturnsSameNode(t *testing.T) {
	root := mustParse(t, `{"type":"object","properties":{"a":{"type":"string"}}}`)
	got := InlineCompositions(root)
	got["marker"] = true
	if root["marker"] != true {
		t.Fatalf("expected node without allOf to be returned by reference")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	root := mustParse(t, `{
  "definitions": {"base": {"type":"object","required":["id"],"properties":{"id":{"type":"string"}}}},
  "allOf": [{"$ref":"#/definitions/base"}, {"properties":{"note":{"type":"string"}}}]
}`)
	resolver := NewResolver(nil, ResolveOptions{})
	once, err := resolver.Normalize(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	twice, err := resolver.Normalize(context.Background(), once, nil)
	if err != nil {
		t.Fatalf("normalize twice: %v", err)
	}
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("normalization is not idempotent (-once +twice):\n%s", diff)
	}
}
