// Package syncer reconciles the search index with the document catalog.
package syncer

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkviewer/mkviewer/internal/catalog"
	vererrors "github.com/mkviewer/mkviewer/internal/errors"
	"github.com/mkviewer/mkviewer/internal/index"
)

// DefaultWorkers bounds the number of documents rendered concurrently
// during a sync pass.
const DefaultWorkers = 4

// TextFunc produces the plain text to index for a catalog entry. The
// service wires this to the render cache so a sync pass warms it.
type TextFunc func(ctx context.Context, entry catalog.DocumentEntry) (string, error)

// DocError records a single document that failed during a sync pass.
type DocError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Report summarizes one sync pass. A pass with failures is partial but
// still useful; callers decide whether partial is acceptable.
type Report struct {
	Added    int           `json:"added"`
	Updated  int           `json:"updated"`
	Removed  int           `json:"removed"`
	Skipped  int           `json:"skipped"`
	Failed   []DocError    `json:"failed,omitempty"`
	Duration time.Duration `json:"-"`
}

// Partial reports whether any document failed during the pass.
func (r *Report) Partial() bool {
	return len(r.Failed) > 0
}

// Synchronizer drives catalog-to-index reconciliation. At most one sync
// pass runs at a time; a concurrent attempt fails fast instead of queueing,
// since the running pass already reflects the latest catalog.
type Synchronizer struct {
	catalog  *catalog.Catalog
	index    index.Index
	text     TextFunc
	workers  int
	progress *Progress

	mu sync.Mutex
}

// New creates a synchronizer. workers <= 0 selects DefaultWorkers.
func New(cat *catalog.Catalog, idx index.Index, text TextFunc, workers int) *Synchronizer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Synchronizer{
		catalog:  cat,
		index:    idx,
		text:     text,
		workers:  workers,
		progress: NewProgress(),
	}
}

// Progress returns the shared progress tracker.
func (s *Synchronizer) Progress() *Progress {
	return s.progress
}

// Sync reconciles the index with a fresh catalog scan. With force set,
// every searchable document is re-indexed regardless of its change token.
// Per-document failures are collected into the report rather than aborting
// the pass; the index is refreshed before returning so completed work is
// immediately searchable.
func (s *Synchronizer) Sync(ctx context.Context, force bool) (*Report, error) {
	if !s.mu.TryLock() {
		return nil, vererrors.SyncInProgress()
	}
	defer s.mu.Unlock()

	start := time.Now()
	s.progress.Begin()

	report, err := s.sync(ctx, force)
	if err != nil {
		s.progress.Fail(err.Error())
		return nil, err
	}
	report.Duration = time.Since(start)
	s.progress.Finish(report)

	slog.Info("sync_complete",
		slog.Int("added", report.Added),
		slog.Int("updated", report.Updated),
		slog.Int("removed", report.Removed),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", len(report.Failed)),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func (s *Synchronizer) sync(ctx context.Context, force bool) (*Report, error) {
	snap, err := s.catalog.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.index.ListKeys(ctx)
	if err != nil {
		return nil, err
	}
	indexed := make(map[string]string, len(records))
	for _, rec := range records {
		indexed[rec.Key] = rec.ChangeToken
	}

	report := &Report{}

	// Phase 1: drop index records whose document left the catalog or is
	// no longer searchable.
	wanted := make(map[string]catalog.DocumentEntry, snap.Len())
	for _, entry := range snap.Entries {
		if entry.Searchable {
			wanted[entry.Key] = entry
		}
	}
	for key := range indexed {
		if _, ok := wanted[key]; ok {
			continue
		}
		if err := s.index.Delete(ctx, key); err != nil {
			report.Failed = append(report.Failed, DocError{Key: key, Message: err.Error()})
			continue
		}
		report.Removed++
	}

	// Phase 2: upsert new or changed documents. Rendering dominates the
	// cost, so it runs on a bounded worker group; index writes stay on
	// this goroutine to keep the report counters simple.
	type pending struct {
		entry  catalog.DocumentEntry
		exists bool
	}
	var work []pending
	for _, entry := range snap.Entries {
		if !entry.Searchable {
			continue
		}
		token, exists := indexed[entry.Key]
		if exists && !force && token == entry.ChangeToken {
			continue
		}
		work = append(work, pending{entry: entry, exists: exists})
	}
	s.progress.SetTotal(len(work))

	type rendered struct {
		pending
		text string
		err  error
	}
	results := make([]rendered, len(work))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range work {
		g.Go(func() error {
			text, err := s.text(gctx, p.entry)
			results[i] = rendered{pending: p, text: text, err: err}
			s.progress.Advance()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, vererrors.New(vererrors.ErrCodeSyncPartial, "sync interrupted", err)
	}

	for _, r := range results {
		if r.err != nil {
			report.Failed = append(report.Failed, DocError{Key: r.entry.Key, Message: r.err.Error()})
			continue
		}
		if strings.TrimSpace(r.text) == "" {
			// Nothing searchable in the document; indexing an empty
			// body would only produce noise hits.
			report.Skipped++
			continue
		}
		doc := index.Document{
			Key:         r.entry.Key,
			Title:       r.entry.Title(),
			Content:     r.text,
			ChangeToken: r.entry.ChangeToken,
			DocType:     string(r.entry.DocType),
		}
		if err := s.index.Upsert(ctx, doc); err != nil {
			report.Failed = append(report.Failed, DocError{Key: r.entry.Key, Message: err.Error()})
			continue
		}
		if r.exists {
			report.Updated++
		} else {
			report.Added++
		}
	}

	if err := s.index.Refresh(ctx); err != nil {
		return nil, err
	}
	return report, nil
}
