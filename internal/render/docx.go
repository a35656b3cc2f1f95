package render

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

// DocxRenderer extracts text and builds preview HTML from Office Open XML
// word documents by reading word/document.xml directly.
type DocxRenderer struct{}

// documentXML mirrors the parts of word/document.xml we consume. Paragraph
// style names carry heading levels (Heading1..Heading9).
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Props struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
	} `xml:"pPr"`
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
	// Breaks inside a run become newlines in the extracted text.
	Breaks []struct{} `xml:"br"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// Render parses the docx ZIP container and renders paragraphs, mapping
// HeadingN styles to <hN> elements and everything else to <p>.
func (d *DocxRenderer) Render(_ context.Context, data []byte) (*Rendered, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a valid docx container: %w", err)
	}

	content, err := readArchiveFile(reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("docx container has no word/document.xml")
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse word/document.xml: %w", err)
	}

	var (
		textBuf bytes.Buffer
		htmlBuf bytes.Buffer
		outline []Heading
	)
	htmlBuf.WriteString("<div class='docx-preview'>")

	for _, para := range doc.Body.Paragraphs {
		text := paragraphText(para)
		if textBuf.Len() > 0 {
			textBuf.WriteString("\n")
		}
		textBuf.WriteString(text)

		if strings.TrimSpace(text) == "" {
			continue
		}

		esc := html.EscapeString(text)
		if level := headingLevel(para.Props.Style.Val); level > 0 {
			anchor := slugify(text)
			outline = append(outline, Heading{Level: level, Title: text, Anchor: anchor})
			fmt.Fprintf(&htmlBuf, "<h%d id=\"%s\">%s</h%d>", level, anchor, esc, level)
		} else {
			htmlBuf.WriteString("<p>" + esc + "</p>")
		}
	}
	htmlBuf.WriteString("</div>")

	return &Rendered{
		Text:    strings.TrimSpace(textBuf.String()),
		HTML:    htmlBuf.String(),
		Outline: outline,
	}, nil
}

func paragraphText(para docxParagraph) string {
	var b strings.Builder
	for _, run := range para.Runs {
		for range run.Breaks {
			b.WriteString("\n")
		}
		for _, t := range run.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// headingLevel maps a paragraph style name to an outline level, 0 for body
// text. "Title" counts as the top level.
func headingLevel(style string) int {
	if style == "Title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(style, "Heading"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 9 {
			if n > 6 {
				n = 6
			}
			return n
		}
	}
	return 0
}

func readArchiveFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(rc)
	}
	return nil, nil
}
