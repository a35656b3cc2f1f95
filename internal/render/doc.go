package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// DocRenderer handles the legacy Word binary format. Files that are really
// ZIP containers (docx saved with a .doc extension) go through the docx path;
// everything else gets a best-effort charset salvage of readable text.
type DocRenderer struct {
	docx *DocxRenderer
}

// Render decodes a legacy .doc document.
func (d *DocRenderer) Render(ctx context.Context, data []byte) (*Rendered, error) {
	if bytes.HasPrefix(data, []byte("PK")) {
		if rendered, err := d.docx.Render(ctx, data); err == nil {
			return rendered, nil
		}
		// Fall through to the salvage path when the ZIP sniff lied.
	}

	text, ok := decodePossibleText(data)
	if !ok {
		return nil, fmt.Errorf("no text could be recovered from legacy doc")
	}

	return &Rendered{
		Text: text,
		HTML: plainTextHTML(text),
	}, nil
}

// salvageEncodings are tried in order when recovering text from a malformed
// legacy document.
var salvageEncodings = []encoding.Encoding{
	nil, // UTF-8 passthrough
	simplifiedchinese.GBK,
	charmap.ISO8859_1,
}

// decodePossibleText coerces binary bytes into readable text. A candidate
// decoding is accepted when at least 60% of its first 2000 characters are
// printable.
func decodePossibleText(data []byte) (string, bool) {
	sample := bytes.Trim(data, "\x00")
	if len(sample) == 0 {
		return "", false
	}

	for _, enc := range salvageEncodings {
		var text string
		if enc == nil {
			if !utf8.Valid(sample) {
				continue
			}
			text = string(sample)
		} else {
			decoded, err := enc.NewDecoder().Bytes(sample)
			if err != nil {
				continue
			}
			text = string(decoded)
		}

		normalized := strings.ReplaceAll(text, "\r\n", "\n")
		normalized = strings.ReplaceAll(normalized, "\r", "\n")

		if !mostlyPrintable(normalized) {
			continue
		}
		if cleaned := strings.TrimSpace(normalized); cleaned != "" {
			return cleaned, true
		}
	}
	return "", false
}

func mostlyPrintable(text string) bool {
	preview := text
	if len(preview) > 2000 {
		preview = preview[:2000]
	}
	total, printable := 0, 0
	for _, r := range preview {
		total++
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return false
	}
	return float64(printable)/float64(total) >= 0.6
}
