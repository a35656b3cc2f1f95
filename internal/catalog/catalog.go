// Package catalog owns the authoritative snapshot of documents in the object
// store. The render cache and the search index are projections derived from
// it and are reconciled against it, never the other way around.
package catalog

import (
	"context"
	"log/slog"
	"path"
	"sort"
	"strings"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
	"github.com/mkviewer/mkviewer/internal/render"
	"github.com/mkviewer/mkviewer/internal/store"
)

// originalExts are companion original-format extensions offered for download
// next to a rendered document, checked in order.
var originalExts = []string{".pdf"}

// DocumentEntry is one viewable or downloadable unit in the catalog.
type DocumentEntry struct {
	// Key is the unique path-like identity within the store.
	Key string `json:"key"`
	// ChangeToken is the store-supplied version marker for the content.
	ChangeToken string `json:"changeToken"`
	// DocType is the document format derived from the extension.
	DocType render.DocType `json:"docType"`
	// OriginalKey references a companion original-format file, if present.
	OriginalKey string `json:"originalKey,omitempty"`
	// Searchable is false for entries that only offer a download.
	Searchable bool `json:"searchable"`
	// Size is the object size in bytes.
	Size int64 `json:"size"`
}

// Title returns the display title, the last path segment of the key.
func (e DocumentEntry) Title() string {
	return path.Base(e.Key)
}

// Scanner lists the store and derives catalog entries.
type Scanner struct {
	store  store.ObjectStore
	prefix string
}

// NewScanner creates a scanner over the given store scope.
func NewScanner(s store.ObjectStore, prefix string) *Scanner {
	return &Scanner{store: s, prefix: prefix}
}

// Scan enumerates the store and returns the ordered document entries.
// The scan is all-or-nothing: a listing failure yields a typed
// CatalogUnavailable error and no partial result.
func (s *Scanner) Scan(ctx context.Context) ([]DocumentEntry, error) {
	infos, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return nil, vererrors.CatalogUnavailable("failed to list documents", err)
	}

	// Index every listed key so companion lookups need no extra store calls.
	byKey := make(map[string]store.ObjectInfo, len(infos))
	for _, info := range infos {
		byKey[info.Key] = info
	}

	var entries []DocumentEntry
	claimedOriginals := make(map[string]bool)

	for _, info := range infos {
		ext := strings.ToLower(path.Ext(info.Key))
		docType := render.TypeForExt(ext)
		if docType == render.TypeOther {
			continue
		}

		entry := DocumentEntry{
			Key:         info.Key,
			ChangeToken: info.ETag,
			DocType:     docType,
			Searchable:  true,
			Size:        info.Size,
		}

		base := strings.TrimSuffix(info.Key, path.Ext(info.Key))
		for _, oext := range originalExts {
			if _, ok := byKey[base+oext]; ok {
				entry.OriginalKey = base + oext
				claimedOriginals[base+oext] = true
				break
			}
		}

		entries = append(entries, entry)
	}

	// Standalone original-format files with no rendered companion still show
	// up in the tree, but only as downloads.
	for _, info := range infos {
		ext := strings.ToLower(path.Ext(info.Key))
		if !isOriginalExt(ext) || claimedOriginals[info.Key] {
			continue
		}
		entries = append(entries, DocumentEntry{
			Key:         info.Key,
			ChangeToken: info.ETag,
			DocType:     render.TypeOther,
			Searchable:  false,
			Size:        info.Size,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Key) < strings.ToLower(entries[j].Key)
	})

	slog.Debug("catalog_scanned",
		slog.String("prefix", s.prefix),
		slog.Int("documents", len(entries)))
	return entries, nil
}

func isOriginalExt(ext string) bool {
	for _, oext := range originalExts {
		if ext == oext {
			return true
		}
	}
	return false
}
