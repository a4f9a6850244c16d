package effective

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPointerString(t *testing.T) {
	if got := PointerString(nil); got != "" {
		t.Fatalf("expected root pointer, got %q", got)
	}
	if got := PointerString([]string{"a/b", "m~n", "0"}); got != "/a~1b/m~0n/0" {
		t.Fatalf("unexpected pointer %q", got)
	}
	segments, err := ParsePointer("/a~1b/m~0n/0")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"a/b", "m~n", "0"}, segments); diff != "" {
		t.Fatalf("unexpected segments (-want +got):\n%s", diff)
	}
}

func TestExtractProperty(t *testing.T) {
	doc := map[string]any{
		"bar": []any{"x", map[string]any{"deep": 3.0}},
	}
	got, ok := ExtractProperty("/bar/1/deep", doc)
	if !ok || got != 3.0 {
		t.Fatalf("expected 3, got %#v %v", got, ok)
	}
	if _, ok := ExtractProperty("/missing", doc); ok {
		t.Fatalf("expected missing location")
	}
	root, ok := ExtractProperty("", doc)
	if !ok {
		t.Fatalf("expected root to resolve")
	}
	if diff := cmp.Diff(doc, root); diff != "" {
		t.Fatalf("unexpected root (-want +got):\n%s", diff)
	}
}

func TestHeads(t *testing.T) {
	got := Heads([]string{"a", "b", "c"})
	if diff := cmp.Diff([]string{"", "/a", "/a/b"}, got); diff != "" {
		t.Fatalf("unexpected heads (-want +got):\n%s", diff)
	}
	if len(Heads(nil)) != 0 {
		t.Fatalf("root has no heads")
	}
}

func TestHumanize(t *testing.T) {
	cases := map[string]string{
		"postal_code": "Postal Code",
		"postalCode":  "Postal Code",
		"line2":       "Line 2",
		"":            "",
	}
	for in, want := range cases {
		if got := Humanize(in); got != want {
			t.Fatalf("Humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
