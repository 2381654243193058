package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/mattn/go-sqlite3"

	"clipkeeper/internal/domain/clip"
)

const defaultBusyTimeoutMS = 5000

// Store wraps a single record store file (source, snapshot, or archive).
// All three share the same layout: one clipboard table whose schema is
// discovered at runtime, never declared here.
type Store struct {
	db   *sql.DB
	path string
}

type options struct {
	busyTimeoutMS int
	readOnly      bool
}

type Option func(*options)

// WithBusyTimeout bounds how long a statement waits on a locked database
// before failing with a lock error.
func WithBusyTimeout(ms int) Option {
	return func(o *options) {
		o.busyTimeoutMS = ms
	}
}

// WithReadOnly opens the store in read-only mode.
func WithReadOnly() Option {
	return func(o *options) {
		o.readOnly = true
	}
}

// Open opens an existing store file. The file must already exist: stores are
// created by file copy (snapshot, initialize), never by the driver, so a
// missing path is always a caller error, not a request to create.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{busyTimeoutMS: defaultBusyTimeoutMS}
	for _, fn := range opts {
		fn(&o)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", clip.ErrStoreUnavailable, path)
	}

	db, err := sql.Open("sqlite3", dsn(path, o))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	return &Store{db: db, path: path}, nil
}

func dsn(path string, o options) string {
	params := url.Values{}
	params.Set("_busy_timeout", fmt.Sprintf("%d", o.busyTimeoutMS))
	if o.readOnly {
		params.Set("mode", "ro")
	}
	return fmt.Sprintf("file:%s?%s", path, params.Encode())
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Count returns the number of records in the clipboard table.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.ensureRecordTable(ctx); err != nil {
		return 0, err
	}

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(clip.Table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting records in %s: %w", s.path, mapDriverErr(err))
	}

	return n, nil
}

// Schema returns the CREATE TABLE text of the record table for diagnostics.
func (s *Store) Schema(ctx context.Context) (string, error) {
	var schema string
	err := s.db.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", clip.Table,
	).Scan(&schema)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no %s table in %s", clip.ErrStoreUnavailable, clip.Table, s.path)
	}
	if err != nil {
		return "", fmt.Errorf("reading schema of %s: %w", s.path, mapDriverErr(err))
	}
	return schema, nil
}

// Column describes one record-table column as reported by the store itself.
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

// Columns discovers the record table's columns at runtime. The result feeds
// the search field allow-list and the merge compatibility check.
func (s *Store) Columns(ctx context.Context) ([]Column, error) {
	if err := s.ensureRecordTable(ctx); err != nil {
		return nil, err
	}
	return tableColumns(ctx, s.db, "main", clip.Table)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func tableColumns(ctx context.Context, q querier, schema, table string) ([]Column, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf("PRAGMA %s.table_info(%s)", schema, quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s.%s: %w", schema, table, mapDriverErr(err))
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning column info: %w", err)
		}
		cols = append(cols, Column{
			Name:       name,
			Type:       ctype,
			NotNull:    notNull != 0,
			PrimaryKey: pk != 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading columns of %s.%s: %w", schema, table, err)
	}

	return cols, nil
}

func (s *Store) ensureRecordTable(ctx context.Context) error {
	ok, err := s.hasTable(ctx, clip.Table)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no %s table in %s", clip.ErrStoreUnavailable, clip.Table, s.path)
	}
	return nil
}

func (s *Store) hasTable(ctx context.Context, name string) (bool, error) {
	var found string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("inspecting %s: %w", s.path, mapDriverErr(err))
	}
	return true, nil
}

// mapDriverErr folds driver error codes into the domain taxonomy: busy and
// locked become lock contention, unreadable files become store unavailable.
// Errors without a domain meaning pass through unchanged.
func mapDriverErr(err error) error {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return err
	}
	switch serr.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return fmt.Errorf("%w: %v", clip.ErrLockContention, err)
	case sqlite3.ErrNotADB, sqlite3.ErrCorrupt:
		return fmt.Errorf("%w: %v", clip.ErrStoreUnavailable, err)
	}
	return err
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
