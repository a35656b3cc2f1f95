package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownRenderer_BasicDocument(t *testing.T) {
	r := NewMarkdownRenderer("")
	src := "# Overview\n\nQuarterly report results.\n\n## Details\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"

	rendered, err := r.Render(context.Background(), []byte(src))
	require.NoError(t, err)

	// Plain text keeps the raw markdown for indexing
	assert.Contains(t, rendered.Text, "Quarterly report results.")

	// HTML carries headings and the GFM table
	assert.Contains(t, rendered.HTML, "<h1")
	assert.Contains(t, rendered.HTML, "<table>")
	assert.Contains(t, rendered.HTML, "markdown-body")
}

func TestMarkdownRenderer_Outline(t *testing.T) {
	r := NewMarkdownRenderer("")
	src := "# Top\n\n## Section One\n\ntext\n\n### Deep\n\n## Section Two\n"

	rendered, err := r.Render(context.Background(), []byte(src))
	require.NoError(t, err)

	require.Len(t, rendered.Outline, 4)
	assert.Equal(t, Heading{Level: 1, Title: "Top", Anchor: "top"}, rendered.Outline[0])
	assert.Equal(t, 2, rendered.Outline[1].Level)
	assert.Equal(t, "Section One", rendered.Outline[1].Title)
	assert.Equal(t, 3, rendered.Outline[2].Level)
	assert.Equal(t, "Section Two", rendered.Outline[3].Title)

	// Anchors appear in the HTML so the outline can link into it
	assert.Contains(t, rendered.HTML, `id="`+rendered.Outline[1].Anchor+`"`)
}

func TestMarkdownRenderer_RewritesRelativeImages(t *testing.T) {
	r := NewMarkdownRenderer("http://public.example:9005/")
	src := "![diagram](images/arch.png)\n\n<img src=\"figures/flow chart.svg\">\n"

	rendered, err := r.Render(context.Background(), []byte(src))
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, "http://public.example:9005/images/arch.png")
	// Segments are path-escaped
	assert.Contains(t, rendered.HTML, "http://public.example:9005/figures/flow%20chart.svg")
}

func TestMarkdownRenderer_LeavesAbsoluteImagesAlone(t *testing.T) {
	r := NewMarkdownRenderer("http://public.example")
	src := "![ext](https://cdn.example/pic.png)\n"

	rendered, err := r.Render(context.Background(), []byte(src))
	require.NoError(t, err)

	assert.Contains(t, rendered.HTML, "https://cdn.example/pic.png")
	assert.NotContains(t, rendered.HTML, "public.example")
}

func TestMarkdownRenderer_NonImageLinksUntouched(t *testing.T) {
	r := NewMarkdownRenderer("http://public.example")
	src := "![ref](other/file.bin)\n"

	rendered, err := r.Render(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.NotContains(t, rendered.HTML, "public.example")
}

func TestTypeForExt(t *testing.T) {
	assert.Equal(t, TypeMarkdown, TypeForExt(".md"))
	assert.Equal(t, TypeMarkdown, TypeForExt(".MARKDOWN"))
	assert.Equal(t, TypeDocx, TypeForExt(".docx"))
	assert.Equal(t, TypeDoc, TypeForExt(".doc"))
	assert.Equal(t, TypeOther, TypeForExt(".pdf"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "section-one", slugify("Section One"))
	assert.Equal(t, "faq", slugify("  FAQ!  "))
}
