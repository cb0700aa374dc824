package parser

import (
	"strings"
	"testing"
	"time"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\nid: note_1\ntitle: Hello\nowner: u1\n---\n# Heading\nBody text.\n")
	d := Parse(input)
	if d.Title != "Hello" {
		t.Errorf("title = %q, want %q", d.Title, "Hello")
	}
	if d.Meta.ID != "note_1" || d.Meta.Owner != "u1" {
		t.Errorf("meta = %+v", d.Meta)
	}
	if d.Body != "# Heading\nBody text.\n" {
		t.Errorf("body = %q", d.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	d := Parse([]byte("# Just a heading\nSome text.\n"))
	if d.Meta.ID != "" {
		t.Errorf("expected empty meta, got %+v", d.Meta)
	}
	if d.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", d.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	d := Parse([]byte(input))
	if d.Meta.ID != "" || d.Body != input {
		t.Errorf("expected whole input as body, got meta=%+v body=%q", d.Meta, d.Body)
	}
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	input := "---\ntitle: x\nno end\n"
	if d := Parse([]byte(input)); d.Body != input {
		t.Errorf("body = %q", d.Body)
	}
}

func TestRender_RoundTrips(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	meta := Frontmatter{ID: "note_7", Title: "Groceries", Owner: "u1", Created: created, SharedWith: []string{"u2"}}
	out, err := Render(meta, "- milk")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasPrefix(string(out), "---\n") || !strings.HasSuffix(string(out), "- milk\n") {
		t.Fatalf("rendered = %q", out)
	}
	d := Parse(out)
	if d.Meta.ID != "note_7" || d.Title != "Groceries" || !d.Meta.Created.Equal(created) {
		t.Errorf("meta = %+v", d.Meta)
	}
	if len(d.Meta.SharedWith) != 1 || d.Meta.SharedWith[0] != "u2" {
		t.Errorf("shared = %v", d.Meta.SharedWith)
	}
	if d.Body != "- milk\n" {
		t.Errorf("body = %q", d.Body)
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Buy Milk":          "buy-milk",
		"  Q3 / plan!! ":    "q3-plan",
		"":                  "untitled",
		"???":               "untitled",
		"Café notes":        "café-notes",
		"already-slugged-1": "already-slugged-1",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
