package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mkviewer/mkviewer/internal/cache"
	"github.com/mkviewer/mkviewer/internal/catalog"
	"github.com/mkviewer/mkviewer/internal/config"
	vererrors "github.com/mkviewer/mkviewer/internal/errors"
	"github.com/mkviewer/mkviewer/internal/index"
	"github.com/mkviewer/mkviewer/internal/render"
	"github.com/mkviewer/mkviewer/internal/search"
	"github.com/mkviewer/mkviewer/internal/service"
	"github.com/mkviewer/mkviewer/internal/store"
)

// app bundles the wired components a command needs, with a single Close.
type app struct {
	cfg  *config.Config
	svc  *service.Service
	lock *index.DirLock

	store store.ObjectStore
	index index.Index
}

// newApp dials the store, opens the index, and wires the service. Commands
// that write the index hold a cross-process lock on its directory for the
// lifetime of the app.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	// The named index lives in its own directory under the index path, so
	// distinct buckets can share a path without colliding.
	indexPath := ""
	if cfg.Index.Path != "" {
		indexPath = filepath.Join(cfg.Index.Path, cfg.Index.Name)
		a.lock = index.NewDirLock(cfg.Index.Path)
		acquired, err := a.lock.TryLock()
		if err != nil {
			return nil, err
		}
		if !acquired {
			return nil, fmt.Errorf("index %s is in use by another mkviewer process", indexPath)
		}
	}

	st, err := store.Dial(ctx, store.Options{
		Endpoints:       cfg.Store.Endpoints,
		Bucket:          cfg.Store.Bucket,
		CredentialsFile: cfg.Store.CredentialsFile,
		Timeout:         cfg.Store.Timeout,
		Retry:           vererrors.DefaultRetryConfig(),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = st

	idx, err := index.NewBleveIndex(indexPath, cfg.Index.Timeout)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.index = idx

	reg := render.NewRegistry(render.Config{PublicImageBase: cfg.Render.PublicImageBase})
	cat := catalog.New(catalog.NewScanner(st, cfg.Store.Prefix), cfg.Store.Prefix)
	rc := cache.New(cfg.Cache.Capacity)

	a.svc = service.New(st, reg, cat, rc, idx, service.Options{
		PresignTTL: cfg.Store.PresignTTL,
		Search: search.Options{
			MaxResults:   cfg.Search.MaxResults,
			SnippetWidth: cfg.Search.SnippetWidth,
			MaxFragments: cfg.Search.MaxFragments,
		},
	})
	return a, nil
}

// Close releases the index, store, and lock. Safe on a partially built app.
func (a *app) Close() {
	if a.index != nil {
		_ = a.index.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.lock != nil {
		_ = a.lock.Unlock()
	}
}
