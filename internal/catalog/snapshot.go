package catalog

import (
	"context"
	"sync/atomic"
	"time"
)

// Snapshot is an immutable view of the catalog at one scan. Readers always
// see a fully built snapshot; a refresh replaces the pointer wholesale.
type Snapshot struct {
	// Entries are the documents in display order.
	Entries []DocumentEntry
	// ScannedAt is when the scan completed.
	ScannedAt time.Time

	byKey map[string]DocumentEntry
}

// Lookup returns the entry for key.
func (s *Snapshot) Lookup(key string) (DocumentEntry, bool) {
	e, ok := s.byKey[key]
	return e, ok
}

// ChangeToken returns the current change token for key, or empty string if
// the key is not in the snapshot.
func (s *Snapshot) ChangeToken(key string) string {
	return s.byKey[key].ChangeToken
}

// Len returns the number of documents in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.Entries)
}

// Catalog pairs a scanner with the currently published snapshot.
type Catalog struct {
	scanner *Scanner
	prefix  string
	current atomic.Pointer[Snapshot]
}

// New creates a catalog over the scanner. No scan happens until Refresh.
func New(scanner *Scanner, prefix string) *Catalog {
	return &Catalog{scanner: scanner, prefix: prefix}
}

// Refresh scans the store and atomically publishes a new snapshot. On scan
// failure the previous snapshot stays published and servable.
func (c *Catalog) Refresh(ctx context.Context) (*Snapshot, error) {
	entries, err := c.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]DocumentEntry, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e
	}

	snap := &Snapshot{Entries: entries, ScannedAt: time.Now(), byKey: byKey}
	c.current.Store(snap)
	return snap, nil
}

// Current returns the published snapshot, or nil before the first successful
// refresh.
func (c *Catalog) Current() *Snapshot {
	return c.current.Load()
}

// Ensure returns the current snapshot, refreshing first if none exists yet.
func (c *Catalog) Ensure(ctx context.Context) (*Snapshot, error) {
	if snap := c.Current(); snap != nil {
		return snap, nil
	}
	return c.Refresh(ctx)
}

// Tree builds the hierarchical view of the given snapshot.
func (c *Catalog) Tree(snap *Snapshot) *TreeNode {
	base := c.prefix
	if base != "" && base[len(base)-1] != '/' {
		base += "/"
	}
	return BuildTree(snap.Entries, base)
}
