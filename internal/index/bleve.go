package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/mapping"
	htmlformat "github.com/blevesearch/bleve/v2/search/highlight/format/html"
	"github.com/blevesearch/bleve/v2/search/query"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
)

// Field names of the index schema.
const (
	FieldTitle       = "title"
	FieldContent     = "content"
	FieldChangeToken = "etag"
	FieldDocType     = "ext"
)

// TitleAnalyzerName is the custom analyzer that keeps a title as a single
// lowercased token, so exact and wildcard matching work on whole filenames.
const TitleAnalyzerName = "title_single"

// BleveIndex is the bleve-backed Index implementation.
type BleveIndex struct {
	mu      sync.RWMutex
	index   bleve.Index
	path    string
	timeout time.Duration
	closed  bool
}

// validateIntegrity checks a bleve index directory before opening it.
// Returns nil if the index is absent or looks healthy.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// isCorruptionError checks if an error indicates bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		errors.Is(err, bleve.ErrorIndexMetaCorrupt)
}

// NewBleveIndex opens or creates the index at path; empty path builds an
// in-memory index, zero timeout disables the per-call deadline. A corrupted
// on-disk index is cleared and recreated; the index is a disposable
// projection of the catalog, so a rebuild is always safe.
func NewBleveIndex(path string, timeout time.Duration) (*BleveIndex, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, vererrors.IndexUnavailable("failed to build index mapping", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, vererrors.IndexUnavailable("failed to create index directory", err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			slog.Warn("index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, vererrors.New(vererrors.ErrCodeIndexCorrupt,
					"index corrupted and cannot be cleared", removeErr)
			}
			slog.Info("index_cleared", slog.String("path", path))
		}

		idx, err = bleve.Open(path)
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("index_open_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, vererrors.New(vererrors.ErrCodeIndexCorrupt,
					"index corrupted and cannot be cleared", removeErr)
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, vererrors.IndexUnavailable("failed to open index", err)
	}

	return &BleveIndex{index: idx, path: path, timeout: timeout}, nil
}

// bound applies the configured per-call deadline to ctx.
func (b *BleveIndex) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}

func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	if err := indexMapping.AddCustomAnalyzer(TitleAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, fmt.Errorf("failed to add title analyzer: %w", err)
	}

	contentField := bleve.NewTextFieldMapping()
	contentField.Store = true
	contentField.IncludeTermVectors = true

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = TitleAnalyzerName
	titleField.Store = true

	tokenField := bleve.NewTextFieldMapping()
	tokenField.Analyzer = keyword.Name
	tokenField.Store = true
	tokenField.IncludeInAll = false

	typeField := bleve.NewTextFieldMapping()
	typeField.Analyzer = keyword.Name
	typeField.Store = true
	typeField.IncludeInAll = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(FieldContent, contentField)
	docMapping.AddFieldMappingsAt(FieldTitle, titleField)
	docMapping.AddFieldMappingsAt(FieldChangeToken, tokenField)
	docMapping.AddFieldMappingsAt(FieldDocType, typeField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping, nil
}

// ListKeys returns every indexed (key, changeToken) pair.
func (b *BleveIndex) ListKeys(ctx context.Context) ([]Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, vererrors.IndexUnavailable("index is closed", nil)
	}

	docCount, _ := b.index.DocCount()
	if docCount == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(docCount)
	req.Fields = []string{FieldChangeToken}

	ctx, cancel := b.bound(ctx)
	defer cancel()
	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, b.wrap("failed to list indexed keys", err)
	}

	records := make([]Record, 0, len(result.Hits))
	for _, hit := range result.Hits {
		token, _ := hit.Fields[FieldChangeToken].(string)
		records = append(records, Record{Key: hit.ID, ChangeToken: token})
	}
	return records, nil
}

// Upsert adds or replaces the record for doc.Key.
func (b *BleveIndex) Upsert(_ context.Context, doc Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return vererrors.IndexUnavailable("index is closed", nil)
	}

	fields := map[string]interface{}{
		FieldTitle:       doc.Title,
		FieldContent:     doc.Content,
		FieldChangeToken: doc.ChangeToken,
		FieldDocType:     doc.DocType,
	}
	if err := b.index.Index(doc.Key, fields); err != nil {
		return b.wrap("failed to index document", err)
	}
	return nil
}

// Delete removes the record for key.
func (b *BleveIndex) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return vererrors.IndexUnavailable("index is closed", nil)
	}

	if err := b.index.Delete(key); err != nil {
		return b.wrap("failed to delete document", err)
	}
	return nil
}

// Query executes q and returns ranked hits with optional highlights.
func (b *BleveIndex) Query(ctx context.Context, q query.Query, opts QueryOptions) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, vererrors.IndexUnavailable("index is closed", nil)
	}

	req := bleve.NewSearchRequest(q)
	if opts.Size > 0 {
		req.Size = opts.Size
	}
	req.Fields = opts.Fields
	if opts.HighlightField != "" {
		req.Highlight = bleve.NewHighlightWithStyle(htmlformat.Name)
		req.Highlight.AddField(opts.HighlightField)
	}

	ctx, cancel := b.bound(ctx)
	defer cancel()
	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, b.wrap("query failed", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, match := range result.Hits {
		hit := Hit{Key: match.ID, Score: match.Score}

		if opts.HighlightField != "" {
			fragments := match.Fragments[opts.HighlightField]
			if opts.MaxFragments > 0 && len(fragments) > opts.MaxFragments {
				fragments = fragments[:opts.MaxFragments]
			}
			hit.Fragments = fragments
		}

		if len(opts.Fields) > 0 {
			hit.Fields = make(map[string]string, len(match.Fields))
			for name, value := range match.Fields {
				if s, ok := value.(string); ok {
					hit.Fields[name] = s
				}
			}
		}

		hits = append(hits, hit)
	}
	return hits, nil
}

// Refresh makes prior mutations visible to queries. Bleve commits batches
// synchronously, so this is a no-op kept to honor the capability contract; a
// remote index implementation performs a real refresh here.
func (b *BleveIndex) Refresh(context.Context) error {
	return nil
}

// DocCount returns the number of indexed documents.
func (b *BleveIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return 0, vererrors.IndexUnavailable("index is closed", nil)
	}
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

// wrap converts a bleve error to the typed index taxonomy.
func (b *BleveIndex) wrap(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return vererrors.New(vererrors.ErrCodeIndexTimeout, message, err)
	}
	return vererrors.IndexUnavailable(message, err)
}
