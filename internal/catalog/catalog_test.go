package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
	"github.com/mkviewer/mkviewer/internal/render"
	"github.com/mkviewer/mkviewer/internal/store"
)

func seedStore() *store.MemStore {
	m := store.NewMemStore()
	m.Put("handbook/intro.md", []byte("# Intro"))
	m.Put("handbook/specs/protocol.docx", []byte("PK docx bytes"))
	m.Put("handbook/specs/protocol.pdf", []byte("%PDF original"))
	m.Put("handbook/legacy/old-notes.doc", []byte("legacy"))
	m.Put("handbook/scans/floorplan.pdf", []byte("%PDF standalone"))
	m.Put("handbook/misc/readme.txt", []byte("ignored"))
	return m
}

func TestScanner_DerivesEntries(t *testing.T) {
	s := NewScanner(seedStore(), "handbook/")

	entries, err := s.Scan(context.Background())
	require.NoError(t, err)

	byKey := make(map[string]DocumentEntry)
	for _, e := range entries {
		byKey[e.Key] = e
	}

	// Unsupported extensions are filtered out
	assert.NotContains(t, byKey, "handbook/misc/readme.txt")

	intro := byKey["handbook/intro.md"]
	assert.Equal(t, render.TypeMarkdown, intro.DocType)
	assert.True(t, intro.Searchable)
	assert.NotEmpty(t, intro.ChangeToken)
	assert.Empty(t, intro.OriginalKey)

	// Companion pdf is linked, not listed separately
	proto := byKey["handbook/specs/protocol.docx"]
	assert.Equal(t, "handbook/specs/protocol.pdf", proto.OriginalKey)
	assert.NotContains(t, byKey, "handbook/specs/protocol.pdf")

	// Standalone pdf is download-only
	plan := byKey["handbook/scans/floorplan.pdf"]
	assert.Equal(t, render.TypeOther, plan.DocType)
	assert.False(t, plan.Searchable)

	legacy := byKey["handbook/legacy/old-notes.doc"]
	assert.Equal(t, render.TypeDoc, legacy.DocType)
	assert.True(t, legacy.Searchable)
}

func TestScanner_CompanionWithUppercaseExtension(t *testing.T) {
	m := store.NewMemStore()
	m.Put("handbook/Report.MD", []byte("# Report"))
	m.Put("handbook/Report.pdf", []byte("%PDF original"))

	entries, err := NewScanner(m, "handbook/").Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 1)
	assert.Equal(t, "handbook/Report.MD", entries[0].Key)
	assert.Equal(t, "handbook/Report.pdf", entries[0].OriginalKey)
}

func TestScanner_OrderedCaseInsensitive(t *testing.T) {
	m := store.NewMemStore()
	m.Put("Zebra.md", []byte("z"))
	m.Put("alpha.md", []byte("a"))

	entries, err := NewScanner(m, "").Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "alpha.md", entries[0].Key)
	assert.Equal(t, "Zebra.md", entries[1].Key)
}

func TestScanner_ListFailureIsCatalogUnavailable(t *testing.T) {
	m := seedStore()
	m.FailWith = vererrors.StoreUnavailable("down", nil)

	_, err := NewScanner(m, "").Scan(context.Background())
	require.Error(t, err)
	assert.Equal(t, vererrors.ErrCodeCatalogUnavailable, vererrors.CodeOf(err))
}

func TestBuildTree_GroupsByPathSegments(t *testing.T) {
	entries := []DocumentEntry{
		{Key: "handbook/intro.md"},
		{Key: "handbook/specs/protocol.docx"},
		{Key: "handbook/specs/appendix.md"},
		{Key: "handbook/zarchive/old.md"},
	}

	root := BuildTree(entries, "handbook/")

	// Root has the two directories plus the top-level file
	require.Len(t, root.Files, 1)
	assert.Equal(t, "handbook/intro.md", root.Files[0].Key)
	require.Len(t, root.Dirs, 2)
	assert.Equal(t, "specs", root.Dirs[0].Name)
	assert.Equal(t, "zarchive", root.Dirs[1].Name)

	// Files within a directory are ordered by title
	specs := root.Dirs[0]
	require.Len(t, specs.Files, 2)
	assert.Equal(t, "handbook/specs/appendix.md", specs.Files[0].Key)
	assert.Equal(t, "handbook/specs/protocol.docx", specs.Files[1].Key)
}

func TestCatalog_RefreshPublishesAtomically(t *testing.T) {
	m := seedStore()
	cat := New(NewScanner(m, "handbook/"), "handbook/")

	// No snapshot before the first refresh
	assert.Nil(t, cat.Current())

	snap, err := cat.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, cat.Current())
	assert.Greater(t, snap.Len(), 0)

	// A failed refresh leaves the previous snapshot servable
	m.FailWith = vererrors.StoreUnavailable("down", nil)
	_, err = cat.Refresh(context.Background())
	require.Error(t, err)
	assert.Same(t, snap, cat.Current())
}

func TestCatalog_EnsureScansOnce(t *testing.T) {
	m := seedStore()
	cat := New(NewScanner(m, ""), "")

	snap1, err := cat.Ensure(context.Background())
	require.NoError(t, err)
	snap2, err := cat.Ensure(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap1, snap2)
}

func TestSnapshot_Lookup(t *testing.T) {
	cat := New(NewScanner(seedStore(), ""), "")
	snap, err := cat.Refresh(context.Background())
	require.NoError(t, err)

	e, ok := snap.Lookup("handbook/intro.md")
	require.True(t, ok)
	assert.Equal(t, e.ChangeToken, snap.ChangeToken("handbook/intro.md"))

	_, ok = snap.Lookup("missing.md")
	assert.False(t, ok)
	assert.Equal(t, "", snap.ChangeToken("missing.md"))
}
