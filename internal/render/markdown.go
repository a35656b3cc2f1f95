package render

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// imageExts are extensions recognized as images for link rewriting.
var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".bmp"}

// imageDirPrefixes mark relative links that live in a conventional images
// directory even without a recognized extension.
var imageDirPrefixes = []string{"images/", "./images/", "../images/"}

var (
	mdImagePattern   = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	htmlImgPatternDQ = regexp.MustCompile(`(?i)<img[^>]+src="([^"]+)"`)
	htmlImgPatternSQ = regexp.MustCompile(`(?i)<img[^>]+src='([^']+)'`)
	absoluteURL      = regexp.MustCompile(`^https?://`)
)

// MarkdownRenderer renders markdown documents with GFM tables and fenced
// code, rewriting relative image links to an absolute public base.
type MarkdownRenderer struct {
	publicImageBase string
	md              goldmark.Markdown
}

// NewMarkdownRenderer creates a markdown renderer. publicImageBase may be
// empty to disable image link rewriting.
func NewMarkdownRenderer(publicImageBase string) *MarkdownRenderer {
	return &MarkdownRenderer{
		publicImageBase: strings.TrimRight(publicImageBase, "/"),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			// Raw HTML passes through: documents embed <img> tags and the
			// preview pane is the trusted consumer.
			goldmark.WithRendererOptions(ghtml.WithUnsafe()),
		),
	}
}

// Render converts markdown bytes to text, HTML, and an outline.
func (m *MarkdownRenderer) Render(_ context.Context, data []byte) (*Rendered, error) {
	src := bytes.ToValidUTF8(data, []byte("�"))
	if m.publicImageBase != "" {
		src = []byte(m.rewriteImageLinks(string(src)))
	}

	doc := m.md.Parser().Parse(text.NewReader(src))

	outline := collectOutline(doc, src)

	var buf bytes.Buffer
	if err := m.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}

	return &Rendered{
		Text:    string(bytes.ToValidUTF8(data, []byte("�"))),
		HTML:    "<div class='markdown-body'>" + buf.String() + "</div>",
		Outline: outline,
	}, nil
}

// collectOutline walks the parsed document and records every heading in
// order, reusing the auto-generated heading IDs as anchors.
func collectOutline(doc ast.Node, src []byte) []Heading {
	var outline []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		title := string(h.Text(src))
		anchor := slugify(title)
		if id, found := h.AttributeString("id"); found {
			if b, ok := id.([]byte); ok {
				anchor = string(b)
			}
		}
		outline = append(outline, Heading{Level: h.Level, Title: title, Anchor: anchor})
		return ast.WalkSkipChildren, nil
	})
	return outline
}

// rewriteImageLinks points relative image references at the public base URL.
// Absolute http(s) URLs are left untouched.
func (m *MarkdownRenderer) rewriteImageLinks(src string) string {
	src = mdImagePattern.ReplaceAllStringFunc(src, func(match string) string {
		groups := mdImagePattern.FindStringSubmatch(match)
		alt, link := groups[1], strings.TrimSpace(groups[2])
		if absoluteURL.MatchString(link) {
			return match
		}
		if !isImageLink(link) {
			return match
		}
		return fmt.Sprintf("![%s](%s)", alt, m.publicURL(link))
	})

	rewriteImg := func(pattern *regexp.Regexp, src string) string {
		return pattern.ReplaceAllStringFunc(src, func(match string) string {
			groups := pattern.FindStringSubmatch(match)
			link := strings.TrimSpace(groups[1])
			if absoluteURL.MatchString(link) {
				return match
			}
			return strings.Replace(match, groups[1], m.publicURL(link), 1)
		})
	}
	src = rewriteImg(htmlImgPatternDQ, src)
	src = rewriteImg(htmlImgPatternSQ, src)
	return src
}

func isImageLink(link string) bool {
	lower := strings.ToLower(link)
	for _, ext := range imageExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	for _, prefix := range imageDirPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// publicURL joins a relative path onto the public image base, escaping each
// path segment.
func (m *MarkdownRenderer) publicURL(link string) string {
	p := strings.TrimSpace(link)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimLeft(p, "/")
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return m.publicImageBase + "/" + strings.Join(segments, "/")
}
