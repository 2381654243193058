package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipkeeper/internal/domain/clip"
)

func archiveRows(t *testing.T, path string) map[string]float64 {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT item, ts FROM clipboard`)
	require.NoError(t, err)
	defer rows.Close()

	contents := make(map[string]float64)
	for rows.Next() {
		var (
			item string
			ts   float64
		)
		require.NoError(t, rows.Scan(&item, &ts))
		_, dup := contents[item]
		require.False(t, dup, "duplicate content %q in archive", item)
		contents[item] = ts
	}
	require.NoError(t, rows.Err())

	return contents
}

func TestMergeFrom_LastWriteWinsByContent(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.alfdb")
	snapshot := filepath.Join(dir, "snap.alfdb")

	createFixture(t, archive,
		fixtureRow{item: "a", ts: 100},
		fixtureRow{item: "b", ts: 200},
	)
	createFixture(t, snapshot,
		fixtureRow{item: "b", ts: 300},
		fixtureRow{item: "c", ts: 400},
	)

	store, err := Open(archive)
	require.NoError(t, err)
	defer store.Close()

	stats, err := store.MergeFrom(context.Background(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Merged)
	assert.Equal(t, 1, stats.New)
	assert.Equal(t, map[string]float64{"a": 100, "b": 300, "c": 400}, archiveRows(t, archive))
}

func TestMergeFrom_Idempotent(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.alfdb")
	snapshot := filepath.Join(dir, "snap.alfdb")

	createFixture(t, archive, fixtureRow{item: "a", ts: 1})
	createFixture(t, snapshot,
		fixtureRow{item: "a", ts: 1},
		fixtureRow{item: "b", ts: 2},
	)

	store, err := Open(archive)
	require.NoError(t, err)
	defer store.Close()

	first, err := store.MergeFrom(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Merged)
	assert.Equal(t, 1, first.New)

	second, err := store.MergeFrom(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Merged)
	assert.Equal(t, 0, second.New)
}

func TestMergeFrom_PreservesOpaqueColumns(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.alfdb")
	snapshot := filepath.Join(dir, "snap.alfdb")

	createFixture(t, archive)
	createFixture(t, snapshot,
		fixtureRow{item: "payload", ts: 5, app: "Terminal", hash: "abc123"},
	)

	store, err := Open(archive)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.MergeFrom(context.Background(), snapshot)
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", archive)
	require.NoError(t, err)
	defer db.Close()

	var app, hash string
	require.NoError(t, db.QueryRow(
		`SELECT app, dataHash FROM clipboard WHERE item = ?`, "payload",
	).Scan(&app, &hash))
	assert.Equal(t, "Terminal", app)
	assert.Equal(t, "abc123", hash)
}

func TestMergeFrom_MissingSnapshot(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.alfdb")
	createFixture(t, archive, fixtureRow{item: "a", ts: 1})

	store, err := Open(archive)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.MergeFrom(context.Background(), filepath.Join(dir, "nope.alfdb"))
	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrStoreUnavailable)
}

func TestMergeFrom_SchemaMismatchLeavesArchiveUntouched(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.alfdb")
	snapshot := filepath.Join(dir, "snap.alfdb")

	createFixture(t, archive,
		fixtureRow{item: "a", ts: 1},
		fixtureRow{item: "b", ts: 2},
	)

	// A snapshot whose record table has drifted: extra column.
	db, err := sql.Open("sqlite3", snapshot)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE clipboard (item TEXT, ts REAL, app TEXT, dataHash TEXT, extra TEXT)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := Open(archive)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.MergeFrom(context.Background(), snapshot)
	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrStoreUnavailable)

	assert.Equal(t, map[string]float64{"a": 1, "b": 2}, archiveRows(t, archive))
}

func TestMergeFrom_LockContentionFailsFast(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.alfdb")
	snapshot := filepath.Join(dir, "snap.alfdb")

	createFixture(t, archive, fixtureRow{item: "a", ts: 1})
	createFixture(t, snapshot, fixtureRow{item: "b", ts: 2})

	// A concurrent writer holding the archive's write lock.
	writer, err := sql.Open("sqlite3", archive)
	require.NoError(t, err)
	defer writer.Close()

	ctx := context.Background()
	conn, err := writer.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(ctx, "BEGIN IMMEDIATE")
	require.NoError(t, err)
	defer conn.ExecContext(ctx, "ROLLBACK")

	store, err := Open(archive, WithBusyTimeout(50))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.MergeFrom(ctx, snapshot)
	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrLockContention)

	_, err = conn.ExecContext(ctx, "ROLLBACK")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 1}, archiveRows(t, archive))
}
