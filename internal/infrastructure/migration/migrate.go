package migration

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	// Blank import required for SQLite driver registration for migrations
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator is the seam over migrate.Migrate itself.
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine builds a Migrator for a database file (injectable so tests
// stay away from the filesystem and the driver).
type MigrationEngine func(databasePath string) (Migrator, error)

type Migration struct {
	path   string
	engine MigrationEngine
}

func NewMigration(archivePath string, engine MigrationEngine) *Migration {
	return &Migration{
		path:   archivePath,
		engine: engine,
	}
}

// DefaultEngine is the real implementation: embedded SQL migrations applied
// straight to the archive file.
func DefaultEngine(databasePath string) (Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("loading embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+databasePath)
}

func (mg *Migration) Up() (err error) {
	m, err := mg.engine(mg.path)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration source error: %v", err, serr)
			} else {
				err = serr
			}
		}
		if dberr != nil {
			if err != nil {
				err = fmt.Errorf("%w; migration database error: %v", err, dberr)
			} else {
				err = dberr
			}
		}
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w; migration up error", err)
	}
	return nil
}
