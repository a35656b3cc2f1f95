// Package service composes the store, catalog, cache, index, and search
// layers into the operations the server and CLI expose.
package service

import (
	"context"
	"time"

	"github.com/mkviewer/mkviewer/internal/cache"
	"github.com/mkviewer/mkviewer/internal/catalog"
	vererrors "github.com/mkviewer/mkviewer/internal/errors"
	"github.com/mkviewer/mkviewer/internal/index"
	"github.com/mkviewer/mkviewer/internal/render"
	"github.com/mkviewer/mkviewer/internal/search"
	"github.com/mkviewer/mkviewer/internal/store"
	"github.com/mkviewer/mkviewer/internal/syncer"
)

// Options tunes the service.
type Options struct {
	// PresignTTL is the lifetime of download links.
	PresignTTL time.Duration
	// SyncWorkers bounds the render parallelism during a sync pass.
	SyncWorkers int
	// Search shapes search results.
	Search search.Options
}

// Service is the application facade. All operations are safe for
// concurrent use.
type Service struct {
	store    store.ObjectStore
	registry *render.Registry
	catalog  *catalog.Catalog
	cache    *cache.RenderCache
	index    index.Index
	syncer   *syncer.Synchronizer
	engine   *search.Engine
	opts     Options
}

// New wires a service over the given components.
func New(st store.ObjectStore, reg *render.Registry, cat *catalog.Catalog, rc *cache.RenderCache, idx index.Index, opts Options) *Service {
	if opts.PresignTTL <= 0 {
		opts.PresignTTL = 6 * time.Hour
	}
	s := &Service{
		store:    st,
		registry: reg,
		catalog:  cat,
		cache:    rc,
		index:    idx,
		opts:     opts,
	}
	s.syncer = syncer.New(cat, idx, s.textForEntry, opts.SyncWorkers)
	s.engine = search.NewEngine(idx, s.textForKey, opts.Search)
	return s
}

// Syncer exposes the synchronizer, mainly for its progress tracker.
func (s *Service) Syncer() *syncer.Synchronizer {
	return s.syncer
}

// Tree returns the current document tree, scanning the store on first use.
func (s *Service) Tree(ctx context.Context) (*catalog.TreeNode, error) {
	snap, err := s.catalog.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	return s.catalog.Tree(snap), nil
}

// RefreshResult pairs the rescanned tree with the sync pass it ran.
type RefreshResult struct {
	Tree *catalog.TreeNode `json:"tree"`
	Sync *syncer.Report    `json:"sync"`
}

// Refresh rescans the store and reconciles the index with the new catalog,
// so a freshly added document is both browsable and searchable. The sync
// pass performs the rescan itself.
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	report, err := s.syncer.Sync(ctx, false)
	if err != nil {
		return nil, err
	}
	return &RefreshResult{Tree: s.catalog.Tree(s.catalog.Current()), Sync: report}, nil
}

// DocumentView is a rendered document ready for display.
type DocumentView struct {
	Key         string           `json:"key"`
	Title       string           `json:"title"`
	DocType     render.DocType   `json:"docType"`
	Text        string           `json:"text,omitempty"`
	HTML        string           `json:"html,omitempty"`
	Outline     []render.Heading `json:"outline,omitempty"`
	DownloadURL string           `json:"downloadUrl,omitempty"`
}

// Document renders the document at key, serving from cache when its change
// token matches. Keys outside the catalog are rejected before any store
// round trip.
func (s *Service) Document(ctx context.Context, key string) (*DocumentView, error) {
	snap, err := s.catalog.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := snap.Lookup(key)
	if !ok {
		return nil, vererrors.New(vererrors.ErrCodeUnknownKey, "document is not in the catalog", nil).WithKey(key)
	}

	view := &DocumentView{
		Key:     entry.Key,
		Title:   entry.Title(),
		DocType: entry.DocType,
	}

	downloadKey := entry.Key
	if entry.OriginalKey != "" {
		downloadKey = entry.OriginalKey
	}
	if url, err := s.store.PresignedURL(ctx, downloadKey, s.opts.PresignTTL); err == nil {
		view.DownloadURL = url
	}

	if entry.DocType == render.TypeOther {
		// Download-only entries render nothing.
		return view, nil
	}

	rendered, err := s.rendered(ctx, entry)
	if err != nil {
		return nil, err
	}
	view.Text = rendered.Text
	view.HTML = rendered.HTML
	view.Outline = rendered.Outline
	return view, nil
}

// Search runs q in the given mode against the index.
func (s *Service) Search(ctx context.Context, q string, mode search.Mode) ([]search.Result, error) {
	return s.engine.Search(ctx, q, mode)
}

// Sync reconciles the index with the store.
func (s *Service) Sync(ctx context.Context, force bool) (*syncer.Report, error) {
	return s.syncer.Sync(ctx, force)
}

// ClearCache drops every cached render and reports how many were dropped.
func (s *Service) ClearCache() int {
	return s.cache.Clear()
}

// DownloadURL returns a time-limited link for key. The companion original
// is linked when one exists.
func (s *Service) DownloadURL(ctx context.Context, key string) (string, error) {
	snap, err := s.catalog.Ensure(ctx)
	if err != nil {
		return "", err
	}
	entry, ok := snap.Lookup(key)
	if !ok {
		return "", vererrors.New(vererrors.ErrCodeUnknownKey, "document is not in the catalog", nil).WithKey(key)
	}
	downloadKey := entry.Key
	if entry.OriginalKey != "" {
		downloadKey = entry.OriginalKey
	}
	return s.store.PresignedURL(ctx, downloadKey, s.opts.PresignTTL)
}

// Status describes the service for health reporting.
type Status struct {
	Documents int                     `json:"documents"`
	Indexed   uint64                  `json:"indexed"`
	Cached    int                     `json:"cached"`
	ScannedAt time.Time               `json:"scannedAt,omitzero"`
	Sync      syncer.ProgressSnapshot `json:"sync"`
}

// Status reports catalog, index, and sync state without touching the store.
func (s *Service) Status() Status {
	st := Status{
		Cached: s.cache.Len(),
		Sync:   s.syncer.Progress().Snapshot(),
	}
	if snap := s.catalog.Current(); snap != nil {
		st.Documents = snap.Len()
		st.ScannedAt = snap.ScannedAt
	}
	if count, err := s.index.DocCount(); err == nil {
		st.Indexed = count
	}
	return st
}

// rendered loads a document through the render cache.
func (s *Service) rendered(ctx context.Context, entry catalog.DocumentEntry) (*render.Rendered, error) {
	return s.cache.Get(ctx, entry.Key, entry.ChangeToken, func(ctx context.Context) (*render.Rendered, error) {
		data, err := s.store.Get(ctx, entry.Key)
		if err != nil {
			return nil, err
		}
		return s.registry.Render(ctx, data, entry.DocType)
	})
}

// textForEntry feeds the synchronizer; rendering through the cache means a
// sync pass leaves the cache warm for subsequent views.
func (s *Service) textForEntry(ctx context.Context, entry catalog.DocumentEntry) (string, error) {
	rendered, err := s.rendered(ctx, entry)
	if err != nil {
		return "", err
	}
	return rendered.Text, nil
}

// textForKey feeds the search snippet fallback.
func (s *Service) textForKey(ctx context.Context, key string) (string, error) {
	snap := s.catalog.Current()
	if snap == nil {
		return "", vererrors.CatalogUnavailable("no catalog snapshot", nil)
	}
	entry, ok := snap.Lookup(key)
	if !ok {
		return "", vererrors.New(vererrors.ErrCodeUnknownKey, "document is not in the catalog", nil).WithKey(key)
	}
	rendered, err := s.rendered(ctx, entry)
	if err != nil {
		return "", err
	}
	return rendered.Text, nil
}
