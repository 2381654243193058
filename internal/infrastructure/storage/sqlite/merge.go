package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-sqlite3"

	"clipkeeper/internal/domain/clip"
)

// MergeStats reports the outcome of one merge.
type MergeStats struct {
	// Merged is the archive record count immediately after commit.
	Merged int
	// New is Merged minus the pre-merge count. Undercounts novelty when a
	// snapshot row is byte-identical to an archived row; that nets to zero.
	New int
}

// MergeFrom folds a snapshot into the archive as one atomic transaction:
// delete every archived record whose item also appears in the snapshot, then
// insert all snapshot records. The fresh rows replace the stale copies, which
// captures updated timestamps and metadata ("last write wins by content").
// On any failure the archive is left exactly as it was.
//
// The snapshot is attached on a pinned connection so ATTACH, the transaction,
// and DETACH share one session. SELECT * carries opaque columns verbatim;
// the column lists of both stores are verified identical first.
func (s *Store) MergeFrom(ctx context.Context, snapshotPath string) (MergeStats, error) {
	if _, err := os.Stat(snapshotPath); err != nil {
		return MergeStats{}, fmt.Errorf("%w: snapshot %s", clip.ErrStoreUnavailable, snapshotPath)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return MergeStats{}, fmt.Errorf("acquiring connection to %s: %w", s.path, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS snap", snapshotPath); err != nil {
		return MergeStats{}, fmt.Errorf("attaching snapshot %s: %w", snapshotPath, mapDriverErr(err))
	}
	defer conn.ExecContext(ctx, "DETACH DATABASE snap")

	if err := checkCompatible(ctx, conn); err != nil {
		return MergeStats{}, err
	}

	var before int
	if err := conn.QueryRowContext(ctx, countMainSQL).Scan(&before); err != nil {
		return MergeStats{}, fmt.Errorf("counting archive records: %w", mapDriverErr(err))
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return MergeStats{}, mergeFailure("beginning merge transaction", err)
	}

	if _, err := tx.ExecContext(ctx, deleteSupersededSQL); err != nil {
		tx.Rollback()
		return MergeStats{}, mergeFailure("removing superseded records", err)
	}

	if _, err := tx.ExecContext(ctx, insertSnapshotSQL); err != nil {
		tx.Rollback()
		return MergeStats{}, mergeFailure("inserting snapshot records", err)
	}

	var after int
	if err := tx.QueryRowContext(ctx, countMainSQL).Scan(&after); err != nil {
		tx.Rollback()
		return MergeStats{}, mergeFailure("counting merged records", err)
	}

	if err := tx.Commit(); err != nil {
		return MergeStats{}, mergeFailure("committing merge", err)
	}

	return MergeStats{Merged: after, New: after - before}, nil
}

var (
	countMainSQL        = "SELECT COUNT(*) FROM main." + quoteIdent(clip.Table)
	deleteSupersededSQL = "DELETE FROM main." + quoteIdent(clip.Table) +
		" WHERE item IN (SELECT item FROM snap." + quoteIdent(clip.Table) + ")"
	insertSnapshotSQL = "INSERT INTO main." + quoteIdent(clip.Table) +
		" SELECT * FROM snap." + quoteIdent(clip.Table)
)

// checkCompatible requires the snapshot's record-table columns to equal the
// archive's, by name and order. SELECT * would otherwise shuffle or drop
// opaque columns silently.
func checkCompatible(ctx context.Context, conn *sql.Conn) error {
	archiveCols, err := tableColumns(ctx, conn, "main", clip.Table)
	if err != nil {
		return err
	}
	snapCols, err := tableColumns(ctx, conn, "snap", clip.Table)
	if err != nil {
		return err
	}

	if len(archiveCols) == 0 {
		return fmt.Errorf("%w: archive has no %s table", clip.ErrStoreUnavailable, clip.Table)
	}
	if len(snapCols) == 0 {
		return fmt.Errorf("%w: snapshot has no %s table", clip.ErrStoreUnavailable, clip.Table)
	}

	if len(archiveCols) != len(snapCols) {
		return schemaMismatch(archiveCols, snapCols)
	}
	for i := range archiveCols {
		if archiveCols[i].Name != snapCols[i].Name {
			return schemaMismatch(archiveCols, snapCols)
		}
	}

	return nil
}

func schemaMismatch(archiveCols, snapCols []Column) error {
	return fmt.Errorf("%w: snapshot columns %v do not match archive columns %v",
		clip.ErrStoreUnavailable, columnNames(snapCols), columnNames(archiveCols))
}

func columnNames(cols []Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// mergeFailure classifies a mid-merge error: lock contention stays lock
// contention, everything else is an aborted transaction. Either way the
// transaction has been rolled back.
func mergeFailure(op string, err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && (serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%s: %w: %v", op, clip.ErrLockContention, err)
	}
	return fmt.Errorf("%s: %w: %v", op, clip.ErrTransactionAborted, err)
}
