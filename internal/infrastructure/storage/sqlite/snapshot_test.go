package sqlite

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipkeeper/internal/domain/clip"
)

func fileHash(t *testing.T, path string) [sha256.Size]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return sha256.Sum256(data)
}

func TestSnapshot_ByteIdenticalCopy(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "clipboard.alfdb")
	dest := filepath.Join(dir, "clipboard-snap.alfdb")
	createFixture(t, source,
		fixtureRow{item: "copied text", ts: 712424025, app: "Safari"},
	)

	require.NoError(t, Snapshot(source, dest))

	assert.Equal(t, fileHash(t, source), fileHash(t, dest))
}

func TestSnapshot_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Snapshot(filepath.Join(dir, "nope.alfdb"), filepath.Join(dir, "snap.alfdb"))
	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrCopyFailed)
}

func TestSnapshot_UnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "clipboard.alfdb")
	createFixture(t, source)

	err := Snapshot(source, filepath.Join(dir, "missing-subdir", "snap.alfdb"))
	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrCopyFailed)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.alfdb")

	assert.False(t, Exists(path))
	createFixture(t, path)
	assert.True(t, Exists(path))
}

func TestInitializeFrom(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "snap.alfdb")
	archive := filepath.Join(dir, "archive.alfdb")
	createFixture(t, snapshot, fixtureRow{item: "first", ts: 1})

	require.NoError(t, InitializeFrom(snapshot, archive))
	assert.Equal(t, fileHash(t, snapshot), fileHash(t, archive))

	err := InitializeFrom(snapshot, archive)
	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrAlreadyInitialized)
}
