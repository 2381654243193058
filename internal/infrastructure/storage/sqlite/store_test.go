package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipkeeper/internal/domain/clip"
)

type fixtureRow struct {
	item string
	ts   float64
	app  string
	hash string
}

// createFixture writes a record store at path with the source application's
// table layout, including an opaque dataHash column that merge and dump must
// carry verbatim.
func createFixture(t *testing.T, path string, rows ...fixtureRow) {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE clipboard (item TEXT, ts REAL, app TEXT, dataHash TEXT)`)
	require.NoError(t, err)

	for _, r := range rows {
		_, err = db.Exec(`INSERT INTO clipboard (item, ts, app, dataHash) VALUES (?, ?, ?, ?)`,
			r.item, r.ts, r.app, r.hash)
		require.NoError(t, err)
	}
}

func fixturePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "store.alfdb")
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.alfdb"))
	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrStoreUnavailable)
}

func TestCount(t *testing.T) {
	path := fixturePath(t)
	createFixture(t, path,
		fixtureRow{item: "one", ts: 1},
		fixtureRow{item: "two", ts: 2},
		fixtureRow{item: "three", ts: 3},
	)

	store, err := Open(path, WithReadOnly())
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCount_NoRecordTable(t *testing.T) {
	path := fixturePath(t)
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE unrelated (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Count(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrStoreUnavailable)
}

func TestCount_NotADatabase(t *testing.T) {
	path := fixturePath(t)
	require.NoError(t, os.WriteFile(path, []byte("this is not a sqlite file at all"), 0o644))

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Count(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrStoreUnavailable)
}

func TestSchema(t *testing.T) {
	path := fixturePath(t)
	createFixture(t, path)

	store, err := Open(path, WithReadOnly())
	require.NoError(t, err)
	defer store.Close()

	schema, err := store.Schema(context.Background())
	require.NoError(t, err)
	assert.Contains(t, schema, "CREATE TABLE clipboard")
	assert.Contains(t, schema, "dataHash")
}

func TestColumns_DiscoveredInOrder(t *testing.T) {
	path := fixturePath(t)
	createFixture(t, path)

	store, err := Open(path, WithReadOnly())
	require.NoError(t, err)
	defer store.Close()

	cols, err := store.Columns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"item", "ts", "app", "dataHash"}, columnNames(cols))
}
