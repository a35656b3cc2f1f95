package render

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDocx assembles a minimal docx container around the given document.xml
// body fragment.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0"?><document><body>` + body + `</body></document>`))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func docxParagraphXML(style, text string) string {
	props := ""
	if style != "" {
		props = `<pPr><pStyle val="` + style + `"/></pPr>`
	}
	return `<p>` + props + `<r><t>` + text + `</t></r></p>`
}

func TestDocxRenderer_TextAndHTML(t *testing.T) {
	data := buildDocx(t,
		docxParagraphXML("Heading1", "Design Review")+
			docxParagraphXML("", "The quarterly report results are in.")+
			docxParagraphXML("Heading2", "Findings"))

	rendered, err := (&DocxRenderer{}).Render(context.Background(), data)
	require.NoError(t, err)

	assert.Contains(t, rendered.Text, "Design Review")
	assert.Contains(t, rendered.Text, "quarterly report results")

	assert.Contains(t, rendered.HTML, "docx-preview")
	assert.Contains(t, rendered.HTML, "<h1")
	assert.Contains(t, rendered.HTML, "<h2")
	assert.Contains(t, rendered.HTML, "<p>The quarterly report results are in.</p>")

	require.Len(t, rendered.Outline, 2)
	assert.Equal(t, Heading{Level: 1, Title: "Design Review", Anchor: "design-review"}, rendered.Outline[0])
	assert.Equal(t, 2, rendered.Outline[1].Level)
}

func TestDocxRenderer_EscapesMarkup(t *testing.T) {
	data := buildDocx(t, docxParagraphXML("", "a &lt;script&gt; tag"))

	rendered, err := (&DocxRenderer{}).Render(context.Background(), data)
	require.NoError(t, err)
	assert.NotContains(t, rendered.HTML, "<script>")
}

func TestDocxRenderer_RejectsGarbage(t *testing.T) {
	_, err := (&DocxRenderer{}).Render(context.Background(), []byte("definitely not a zip"))
	assert.Error(t, err)
}

func TestHeadingLevel(t *testing.T) {
	assert.Equal(t, 1, headingLevel("Heading1"))
	assert.Equal(t, 6, headingLevel("Heading8")) // clamped
	assert.Equal(t, 1, headingLevel("Title"))
	assert.Equal(t, 0, headingLevel("BodyText"))
	assert.Equal(t, 0, headingLevel(""))
}

func TestDocRenderer_ZipSniffedAsDocx(t *testing.T) {
	data := buildDocx(t, docxParagraphXML("", "hidden docx content"))
	docx := &DocxRenderer{}

	rendered, err := (&DocRenderer{docx: docx}).Render(context.Background(), data)
	require.NoError(t, err)
	assert.Contains(t, rendered.Text, "hidden docx content")
}

func TestDocRenderer_SalvagesPlainText(t *testing.T) {
	data := []byte("Plain readable legacy content.\r\nSecond line.\x00\x00")

	rendered, err := (&DocRenderer{docx: &DocxRenderer{}}).Render(context.Background(), data)
	require.NoError(t, err)

	assert.Contains(t, rendered.Text, "Plain readable legacy content.")
	assert.Contains(t, rendered.Text, "Second line.")
	assert.Contains(t, rendered.HTML, "doc-preview")
}

func TestDocRenderer_UnreadableBinaryFails(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x0b, 0x0c, 0x0e, 0x0f, 0x10, 0x11}

	_, err := (&DocRenderer{docx: &DocxRenderer{}}).Render(context.Background(), data)
	assert.Error(t, err)
}

func TestRegistry_DispatchesByType(t *testing.T) {
	reg := NewRegistry(Config{})

	rendered, err := reg.Render(context.Background(), []byte("# Hi"), TypeMarkdown)
	require.NoError(t, err)
	assert.Contains(t, rendered.HTML, "<h1")

	_, err = reg.Render(context.Background(), nil, TypeOther)
	assert.Error(t, err)
}
