package search

import (
	"html"
	"strings"
	"unicode"
)

// makeSnippet builds a context window around the first case-insensitive
// occurrence of q in text. Output is HTML-escaped with every occurrence
// inside the window wrapped in <mark>. When q does not occur, the head of
// the text is returned unmarked.
func makeSnippet(text, q string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	// Matching happens in rune space so multibyte text is never split
	// mid-character and lowercasing cannot shift offsets.
	runes := []rune(text)
	haystack := lowerRunes(runes)
	needle := lowerRunes([]rune(q))

	start := runeIndex(haystack, needle, 0)
	if start < 0 {
		head := runes
		if len(head) > 2*width {
			head = head[:2*width]
			return html.EscapeString(string(head)) + "…"
		}
		return html.EscapeString(string(head))
	}
	end := start + len(needle)

	winStart := start - width
	if winStart < 0 {
		winStart = 0
	}
	winEnd := end + width
	if winEnd > len(runes) {
		winEnd = len(runes)
	}

	var b strings.Builder
	if winStart > 0 {
		b.WriteString("…")
	}
	for i := winStart; i < winEnd; {
		m := runeIndex(haystack[:winEnd], needle, i)
		if m < 0 {
			b.WriteString(html.EscapeString(string(runes[i:winEnd])))
			break
		}
		b.WriteString(html.EscapeString(string(runes[i:m])))
		b.WriteString("<mark>")
		b.WriteString(html.EscapeString(string(runes[m : m+len(needle)])))
		b.WriteString("</mark>")
		i = m + len(needle)
	}
	if winEnd < len(runes) {
		b.WriteString("…")
	}
	return b.String()
}

func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

// runeIndex returns the first index at or after from where needle occurs
// in haystack, or -1.
func runeIndex(haystack, needle []rune, from int) int {
	if len(needle) == 0 {
		return -1
	}
	if from < 0 {
		from = 0
	}
outer:
	for i := from; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}
