// Package blog loads markdown posts with YAML front matter from a directory
// and renders them to HTML.
package blog

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// ErrPostNotFound is returned for unknown or malformed slugs.
var ErrPostNotFound = errors.New("post not found")

var slugRE = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Post is a rendered blog post.
type Post struct {
	Slug  string
	Attrs map[string]any
	Title string
	Date  time.Time
	HTML  template.HTML
}

// Store reads posts from Dir as <slug>.md.
type Store struct {
	Dir string
	md  goldmark.Markdown
}

// NewStore returns a store rendering GitHub-flavoured markdown.
func NewStore(dir string) *Store {
	return &Store{Dir: dir, md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

// Get loads and renders the post named slug.
func (s *Store) Get(slug string) (*Post, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugRE.MatchString(slug) {
		return nil, ErrPostNotFound
	}
	raw, err := os.ReadFile(filepath.Join(s.Dir, slug+".md"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	attrs, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", slug, err)
	}

	var buf bytes.Buffer
	if err := s.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", slug, err)
	}

	p := &Post{Slug: slug, Attrs: attrs, HTML: template.HTML(buf.String())}
	if t, ok := attrs["title"].(string); ok {
		p.Title = t
	} else {
		p.Title = slug
	}
	switch d := attrs["date"].(type) {
	case time.Time:
		p.Date = d
	case string:
		if t, err := time.Parse("2006-01-02", d); err == nil {
			p.Date = t
		}
	}
	return p, nil
}

// splitFrontMatter separates a leading "---" delimited YAML block from the
// markdown body. Documents without front matter get empty attrs.
func splitFrontMatter(raw []byte) (map[string]any, []byte, error) {
	attrs := map[string]any{}
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return attrs, []byte(text), nil
	}
	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return attrs, []byte(text), nil
	}
	head := rest[:end]
	body := strings.TrimPrefix(rest[end+len("\n---"):], "\n")

	if err := yaml.Unmarshal([]byte(head), &attrs); err != nil {
		return nil, nil, fmt.Errorf("front matter: %w", err)
	}
	if attrs == nil {
		attrs = map[string]any{}
	}
	return attrs, []byte(body), nil
}
