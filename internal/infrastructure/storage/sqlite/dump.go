package sqlite

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Dump writes the store's full contents to w as portable SQL text in the
// shape a SQLite shell produces: schema statements from sqlite_master, then
// one INSERT per row, all inside a transaction. Feeding the output back
// through a shell reproduces the store.
func (s *Store) Dump(ctx context.Context, w io.Writer) error {
	if _, err := fmt.Fprintln(w, "PRAGMA foreign_keys=OFF;"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "BEGIN TRANSACTION;"); err != nil {
		return err
	}

	tables, err := s.userTables(ctx)
	if err != nil {
		return err
	}

	for _, t := range tables {
		if _, err := fmt.Fprintf(w, "%s;\n", t.sql); err != nil {
			return err
		}
		if err := s.dumpRows(ctx, w, t.name); err != nil {
			return err
		}
	}

	_, err = fmt.Fprintln(w, "COMMIT;")
	return err
}

type tableDef struct {
	name string
	sql  string
}

func (s *Store) userTables(ctx context.Context) ([]tableDef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, sql FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND sql IS NOT NULL
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("listing tables in %s: %w", s.path, mapDriverErr(err))
	}
	defer rows.Close()

	var tables []tableDef
	for rows.Next() {
		var t tableDef
		if err := rows.Scan(&t.name, &t.sql); err != nil {
			return nil, fmt.Errorf("scanning table definition: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tables in %s: %w", s.path, err)
	}

	return tables, nil
}

// dumpRows emits one INSERT per row. Literal encoding is delegated to the
// store's own quote() function, which keeps the TEXT/BLOB distinction and
// the REAL storage class intact; driver-side scanning flattens both.
func (s *Store) dumpRows(ctx context.Context, w io.Writer, table string) error {
	cols, err := tableColumns(ctx, s.db, "main", table)
	if err != nil {
		return err
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = "quote(" + quoteIdent(c.Name) + ")"
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+strings.Join(quoted, ", ")+" FROM "+quoteIdent(table))
	if err != nil {
		return fmt.Errorf("reading %s rows: %w", table, mapDriverErr(err))
	}
	defer rows.Close()

	lits := make([]string, len(cols))
	ptrs := make([]any, len(cols))
	for i := range lits {
		ptrs[i] = &lits[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scanning %s row: %w", table, err)
		}
		if _, err := fmt.Fprintf(w, "INSERT INTO %s VALUES(%s);\n",
			quoteIdent(table), strings.Join(lits, ",")); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("reading %s rows: %w", table, err)
	}
	return nil
}
