package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestArchiverArchive(t *testing.T) {
	ctx := context.Background()
	content := "DEFINITION_Diet,PROPERTY_Mass\nHerbivore,1.0\n"
	src := filepath.Join(t.TempDir(), "FunctionalGroupDefinitions.csv")
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))

	store := NewMemoryStore()
	ledger, err := OpenLedger(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	core, logs := observer.New(zap.InfoLevel)
	a := NewArchiver(store, ledger, zap.New(core))
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	entry, err := a.Archive(ctx, src)
	require.NoError(t, err)

	_, err = uuid.Parse(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID+"/FunctionalGroupDefinitions.csv", entry.Key)
	assert.Equal(t, sha256Hex([]byte(content)), entry.SHA256)
	assert.Equal(t, int64(len(content)), entry.Size)
	assert.Equal(t, DriverMemory, entry.Driver)
	assert.Equal(t, fixed, entry.ArchivedAt)

	info, rc, err := store.Get(ctx, entry.Key)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, content, string(body))
	assert.Equal(t, entry.SHA256, info.Metadata[MetaSHA256])

	recorded, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{entry}, recorded)

	assert.Equal(t, 1, logs.FilterMessage("definitions archived").Len())

	// each run gets a fresh key
	second, err := a.Archive(ctx, src)
	require.NoError(t, err)
	assert.NotEqual(t, entry.Key, second.Key)
	assert.True(t, strings.HasSuffix(second.Key, "/FunctionalGroupDefinitions.csv"))
}

func TestArchiverMissingFile(t *testing.T) {
	a := NewArchiver(NewMemoryStore(), nil, nil)
	_, err := a.Archive(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestArchiverEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "defs.csv")
	require.NoError(t, os.WriteFile(src, []byte("DEFINITION_Diet\nx\n"), 0o644))

	t.Run("ledger", func(t *testing.T) {
		ledger, err := OpenLedger(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = ledger.Close() })
		a := NewArchiver(NewMemoryStore(), ledger, nil)

		first, err := a.Archive(ctx, src)
		require.NoError(t, err)
		second, err := a.Archive(ctx, src)
		require.NoError(t, err)

		entries, err := a.Entries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.ElementsMatch(t, []string{first.Key, second.Key}, []string{entries[0].Key, entries[1].Key})
	})

	t.Run("store listing", func(t *testing.T) {
		store, err := NewFSStore(filepath.Join(dir, "output"))
		require.NoError(t, err)
		a := NewArchiver(store, nil, nil)

		entry, err := a.Archive(ctx, src)
		require.NoError(t, err)

		entries, err := a.Entries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		got := entries[0]
		assert.Equal(t, entry.ID, got.ID)
		assert.Equal(t, entry.Key, got.Key)
		assert.Equal(t, entry.SHA256, got.SHA256)
		assert.Equal(t, entry.Size, got.Size)
		assert.Equal(t, "defs.csv", got.Source)
		assert.Equal(t, DriverFilesystem, got.Driver)
	})
}

func TestArchiverVerify(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "defs.csv")
	require.NoError(t, os.WriteFile(src, []byte("DEFINITION_Diet\nx\n"), 0o644))

	root := filepath.Join(dir, "output")
	store, err := NewFSStore(root)
	require.NoError(t, err)
	a := NewArchiver(store, nil, nil)
	entry, err := a.Archive(ctx, src)
	require.NoError(t, err)

	v, err := a.Verify(ctx, entry.Key, src)
	require.NoError(t, err)
	assert.True(t, v.Intact())
	assert.True(t, v.MatchesSource())
	assert.Equal(t, entry.SHA256, v.Stored)

	// source edited after archiving
	require.NoError(t, os.WriteFile(src, []byte("DEFINITION_Diet\ny\n"), 0o644))
	v, err = a.Verify(ctx, entry.Key, src)
	require.NoError(t, err)
	assert.True(t, v.Intact())
	assert.False(t, v.MatchesSource())

	// archived bytes damaged
	require.NoError(t, os.WriteFile(filepath.Join(root, filepath.FromSlash(entry.Key)), []byte("garbage"), 0o644))
	v, err = a.Verify(ctx, entry.Key, src)
	require.NoError(t, err)
	assert.False(t, v.Intact())

	_, err = a.Verify(ctx, "missing/defs.csv", src)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchiverVerifyRequiresDigest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, err := store.Put(ctx, "run/defs.csv", strings.NewReader("x"), PutOptions{})
	require.NoError(t, err)

	_, err = NewArchiver(store, nil, nil).Verify(ctx, "run/defs.csv", filepath.Join(t.TempDir(), "defs.csv"))
	assert.ErrorContains(t, err, "no sha256 metadata")
}
