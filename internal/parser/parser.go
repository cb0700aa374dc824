// Package parser reads and writes Markdown notes with YAML frontmatter.
package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Frontmatter is the metadata block at the top of an exported note.
type Frontmatter struct {
	ID         string    `yaml:"id,omitempty"`
	Title      string    `yaml:"title,omitempty"`
	Owner      string    `yaml:"owner,omitempty"`
	Created    time.Time `yaml:"created,omitempty"`
	SharedWith []string  `yaml:"shared_with,omitempty"`
}

// Document is a parsed Markdown file.
type Document struct {
	Meta  Frontmatter
	Body  string
	Title string // frontmatter title, else first H1, else empty
}

// Parse splits frontmatter from the body. A missing or malformed block leaves
// Meta empty and the whole input as Body.
func Parse(data []byte) *Document {
	meta, body := split(data)
	return &Document{Meta: meta, Body: body, Title: deriveTitle(meta, body)}
}

func split(data []byte) (Frontmatter, string) {
	var meta Frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return meta, string(data)
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return meta, string(data)
	}
	block := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	if err := yaml.Unmarshal(block, &meta); err != nil {
		return Frontmatter{}, string(data)
	}
	return meta, body
}

func deriveTitle(meta Frontmatter, body string) string {
	if meta.Title != "" {
		return meta.Title
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// Render writes meta as a frontmatter block followed by body.
func Render(meta Frontmatter, body string) ([]byte, error) {
	block, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("parser: marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(block)
	buf.WriteString(delim + "\n")
	buf.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Slug turns a title into a file-name-safe lowercase stem.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r > 127 && !strings.ContainsRune(" ", r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "untitled"
	}
	return s
}
