// Package search builds ranked queries over the document index and shapes
// hits into displayable results.
package search

import (
	"context"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
	"github.com/mkviewer/mkviewer/internal/index"
)

// Mode selects how a query is interpreted.
type Mode string

const (
	// ModeContent ranks documents by body relevance.
	ModeContent Mode = "content"
	// ModeTitle matches document titles exactly, fuzzily, or by substring.
	ModeTitle Mode = "title"
)

// ParseMode maps a request string to a Mode; empty selects ModeContent.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", string(ModeContent):
		return ModeContent, true
	case string(ModeTitle):
		return ModeTitle, true
	}
	return "", false
}

// Result is one ranked search hit.
type Result struct {
	Key        string  `json:"key"`
	Title      string  `json:"title"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet,omitempty"`
	TitleMatch bool    `json:"titleMatch"`
}

// TextLookup fetches the plain text of a document for snippet fallback.
// The service wires this to the render cache.
type TextLookup func(ctx context.Context, key string) (string, error)

// Options tunes result shaping.
type Options struct {
	// MaxResults caps the number of hits returned.
	MaxResults int
	// SnippetWidth is the number of characters of context kept on each
	// side of a fallback snippet match.
	SnippetWidth int
	// MaxFragments caps the highlighter fragments joined into a snippet.
	MaxFragments int
}

// DefaultOptions mirror the server defaults.
func DefaultOptions() Options {
	return Options{MaxResults: 200, SnippetWidth: 60, MaxFragments: 3}
}

// Engine executes searches against the index.
type Engine struct {
	index index.Index
	text  TextLookup
	opts  Options
}

// NewEngine creates an engine. text may be nil, which disables the local
// snippet fallback.
func NewEngine(idx index.Index, text TextLookup, opts Options) *Engine {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultOptions().MaxResults
	}
	if opts.SnippetWidth <= 0 {
		opts.SnippetWidth = DefaultOptions().SnippetWidth
	}
	if opts.MaxFragments <= 0 {
		opts.MaxFragments = DefaultOptions().MaxFragments
	}
	return &Engine{index: idx, text: text, opts: opts}
}

// Search runs q in the given mode. An empty or whitespace query returns no
// results and no error.
func (e *Engine) Search(ctx context.Context, q string, mode Mode) ([]Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}

	switch mode {
	case ModeTitle:
		return e.searchTitle(ctx, q)
	default:
		return e.searchContent(ctx, q)
	}
}

// searchContent ranks exact phrases above loose term matches, with a prefix
// clause so the still-being-typed last word contributes.
func (e *Engine) searchContent(ctx context.Context, q string) ([]Result, error) {
	phrase := bleve.NewMatchPhraseQuery(q)
	phrase.SetField(index.FieldContent)
	phrase.SetBoost(3)

	terms := bleve.NewMatchQuery(q)
	terms.SetField(index.FieldContent)
	terms.SetBoost(2)

	clauses := []query.Query{phrase, terms}
	words := strings.Fields(strings.ToLower(q))
	if len(words) > 0 {
		prefix := bleve.NewPrefixQuery(words[len(words)-1])
		prefix.SetField(index.FieldContent)
		prefix.SetBoost(1)
		clauses = append(clauses, prefix)
	}

	hits, err := e.index.Query(ctx, bleve.NewDisjunctionQuery(clauses...), index.QueryOptions{
		Size:           e.opts.MaxResults,
		HighlightField: index.FieldContent,
		MaxFragments:   e.opts.MaxFragments,
	})
	if err != nil {
		return nil, vererrors.SearchUnavailable("content search failed", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Key:     hit.Key,
			Title:   titleOf(hit.Key),
			Score:   hit.Score,
			Snippet: e.snippetFor(ctx, hit, q),
		})
	}
	return results, nil
}

// searchTitle matches whole titles. Exact matches outrank fuzzy ones, which
// outrank plain substring hits.
func (e *Engine) searchTitle(ctx context.Context, q string) ([]Result, error) {
	lower := strings.ToLower(q)

	exact := bleve.NewTermQuery(lower)
	exact.SetField(index.FieldTitle)
	exact.SetBoost(4)

	fuzzy := bleve.NewMatchQuery(lower)
	fuzzy.SetField(index.FieldTitle)
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(2)

	wildcard := bleve.NewWildcardQuery("*" + escapeWildcard(lower) + "*")
	wildcard.SetField(index.FieldTitle)
	wildcard.SetBoost(1)

	hits, err := e.index.Query(ctx, bleve.NewDisjunctionQuery(exact, fuzzy, wildcard), index.QueryOptions{
		Size: e.opts.MaxResults,
	})
	if err != nil {
		return nil, vererrors.SearchUnavailable("title search failed", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Key:        hit.Key,
			Title:      titleOf(hit.Key),
			Score:      hit.Score,
			TitleMatch: true,
		})
	}
	return results, nil
}

// snippetFor prefers highlighter fragments and falls back to a locally
// built window when the highlighter produced none (short fields, prefix-only
// matches).
func (e *Engine) snippetFor(ctx context.Context, hit index.Hit, q string) string {
	if len(hit.Fragments) > 0 {
		return strings.Join(hit.Fragments, " … ")
	}
	if e.text == nil {
		return ""
	}
	text, err := e.text(ctx, hit.Key)
	if err != nil || text == "" {
		return ""
	}
	return makeSnippet(text, q, e.opts.SnippetWidth)
}

func titleOf(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}

var wildcardEscaper = strings.NewReplacer("*", `\*`, "?", `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
