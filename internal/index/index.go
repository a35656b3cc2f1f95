// Package index provides the full-text search index capability. The core
// consumes the Index interface; the bleve implementation backs it. Query
// construction lives in internal/search; this package executes queries,
// applies document mutations, and lists what the index currently holds.
package index

import (
	"context"

	"github.com/blevesearch/bleve/v2/search/query"
)

// Document is one indexed record. The identity is Key; ChangeToken records
// which content version the record was built from.
type Document struct {
	Key         string `json:"path"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	ChangeToken string `json:"etag"`
	DocType     string `json:"ext"`
}

// Record is the index's view of one document's identity and version.
type Record struct {
	Key         string
	ChangeToken string
}

// QueryOptions bounds query execution.
type QueryOptions struct {
	// Size caps the number of hits.
	Size int
	// HighlightField requests highlight fragments for the named field.
	// Empty disables highlighting.
	HighlightField string
	// MaxFragments caps fragments per hit.
	MaxFragments int
	// Fields lists stored fields to return with each hit.
	Fields []string
}

// Hit is one ranked query result.
type Hit struct {
	// Key is the document key.
	Key string
	// Score is the engine relevance score.
	Score float64
	// Fragments are highlighted snippets for the requested field, possibly
	// empty when the engine returned no highlight metadata.
	Fragments []string
	// Fields holds the requested stored field values.
	Fields map[string]string
}

// Index is the capability contract for the external search index.
type Index interface {
	// ListKeys returns the (key, changeToken) pair of every indexed document.
	ListKeys(ctx context.Context) ([]Record, error)

	// Upsert adds or replaces the record for doc.Key.
	Upsert(ctx context.Context, doc Document) error

	// Delete removes the record for key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Query executes an engine query and returns ranked hits.
	Query(ctx context.Context, q query.Query, opts QueryOptions) ([]Hit, error)

	// Refresh makes prior mutations visible to subsequent queries.
	Refresh(ctx context.Context) error

	// DocCount returns the number of indexed documents.
	DocCount() (uint64, error)

	// Close releases the index.
	Close() error
}
