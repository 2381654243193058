package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDump_Shape(t *testing.T) {
	path := fixturePath(t)
	createFixture(t, path,
		fixtureRow{item: "plain", ts: 1, app: "Safari"},
		fixtureRow{item: "it's quoted", ts: 2},
	)

	store, err := Open(path, WithReadOnly())
	require.NoError(t, err)
	defer store.Close()

	var out strings.Builder
	require.NoError(t, store.Dump(context.Background(), &out))
	dump := out.String()

	assert.True(t, strings.HasPrefix(dump, "PRAGMA foreign_keys=OFF;\nBEGIN TRANSACTION;\n"))
	assert.True(t, strings.HasSuffix(dump, "COMMIT;\n"))
	assert.Contains(t, dump, "CREATE TABLE clipboard")
	assert.Contains(t, dump, `INSERT INTO "clipboard" VALUES('plain',1.0,'Safari','');`)
	assert.Contains(t, dump, "'it''s quoted'")
}

func TestDump_ReloadReproducesStore(t *testing.T) {
	path := fixturePath(t)
	createFixture(t, path,
		fixtureRow{item: "one", ts: 1, app: "A"},
		fixtureRow{item: "two", ts: 2, app: "B"},
		fixtureRow{item: "three", ts: 3},
	)

	store, err := Open(path, WithReadOnly())
	require.NoError(t, err)
	defer store.Close()

	var out strings.Builder
	require.NoError(t, store.Dump(context.Background(), &out))

	reloaded := filepath.Join(t.TempDir(), "reloaded.alfdb")
	db, err := sql.Open("sqlite3", reloaded)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(out.String())
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM clipboard`).Scan(&n))
	assert.Equal(t, 3, n)
}
