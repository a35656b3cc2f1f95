// Package render converts stored document bytes into text, preview HTML, and
// a heading outline. Each supported format implements the Renderer interface;
// the Registry dispatches on DocType.
package render

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// DocType enumerates the supported document formats.
type DocType string

const (
	// TypeMarkdown is CommonMark/GFM markdown.
	TypeMarkdown DocType = "markdown"
	// TypeDocx is Office Open XML word processing.
	TypeDocx DocType = "docx"
	// TypeDoc is the legacy Word binary format.
	TypeDoc DocType = "doc"
	// TypeOther is anything we can only offer for download.
	TypeOther DocType = "other"
)

// supportedExts maps file extensions to document types.
var supportedExts = map[string]DocType{
	".md":       TypeMarkdown,
	".markdown": TypeMarkdown,
	".docx":     TypeDocx,
	".doc":      TypeDoc,
}

// TypeForExt returns the DocType for a lowercase file extension.
// Unknown extensions map to TypeOther.
func TypeForExt(ext string) DocType {
	if t, ok := supportedExts[strings.ToLower(ext)]; ok {
		return t
	}
	return TypeOther
}

// Heading is one outline entry.
type Heading struct {
	// Level is the heading depth, 1-6.
	Level int `json:"level"`
	// Title is the heading text.
	Title string `json:"title"`
	// Anchor is the fragment identifier the preview HTML carries for this
	// heading.
	Anchor string `json:"anchor"`
}

// Rendered is the decoded form of a document.
type Rendered struct {
	// Text is the extracted plain text used for indexing and snippets.
	Text string `json:"text"`
	// HTML is the preview markup.
	HTML string `json:"html"`
	// Outline is the ordered heading list for a table of contents.
	Outline []Heading `json:"outline"`
}

// Renderer converts raw bytes of one format into a Rendered document.
type Renderer interface {
	Render(ctx context.Context, data []byte) (*Rendered, error)
}

// Registry dispatches rendering by DocType.
type Registry struct {
	renderers map[DocType]Renderer
}

// Config carries rendering options shared across formats.
type Config struct {
	// PublicImageBase is the absolute URL prefix substituted for relative
	// image links in markdown. Empty disables rewriting.
	PublicImageBase string
}

// NewRegistry builds a registry with all built-in format renderers.
func NewRegistry(cfg Config) *Registry {
	docx := &DocxRenderer{}
	return &Registry{
		renderers: map[DocType]Renderer{
			TypeMarkdown: NewMarkdownRenderer(cfg.PublicImageBase),
			TypeDocx:     docx,
			TypeDoc:      &DocRenderer{docx: docx},
		},
	}
}

// Render decodes data according to docType.
func (r *Registry) Render(ctx context.Context, data []byte, docType DocType) (*Rendered, error) {
	renderer, ok := r.renderers[docType]
	if !ok {
		return nil, fmt.Errorf("no renderer for document type %q", docType)
	}
	return renderer.Render(ctx, data)
}

// plainTextHTML wraps extracted plain text for preview display.
func plainTextHTML(text string) string {
	if strings.TrimSpace(text) == "" {
		return "<div class='doc-preview'><em>document is empty</em></div>"
	}
	esc := html.EscapeString(text)
	return "<div class='doc-preview'>" + strings.ReplaceAll(esc, "\n", "<br>") + "</div>"
}

// slugify derives a stable anchor from heading text.
func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
