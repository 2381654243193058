package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const runsTable = "backup_runs"

// RunRecord is one completed backup invocation, as kept in the archive's
// backup_runs table.
type RunRecord struct {
	ID           string
	StartedAt    int64
	FinishedAt   int64
	SnapshotFile string
	SourceCount  int
	ArchiveCount int
	NewCount     int
}

// RecordRun appends one row to the run ledger. The ledger table must exist
// (the migration runs before this during backup).
func (s *Store) RecordRun(ctx context.Context, run RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+runsTable+` (id, started_at, finished_at, snapshot_file, source_count, archive_count, new_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.SnapshotFile, run.SourceCount, run.ArchiveCount, run.NewCount)
	if err != nil {
		return fmt.Errorf("recording backup run %s: %w", run.ID, mapDriverErr(err))
	}
	return nil
}

// LastRun returns the most recent ledger row, or nil when the archive has no
// ledger yet (no backup ever ran, or the archive predates the ledger).
func (s *Store) LastRun(ctx context.Context) (*RunRecord, error) {
	ok, err := s.hasTable(ctx, runsTable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var run RunRecord
	err = s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, snapshot_file, source_count, archive_count, new_count
		FROM `+runsTable+`
		ORDER BY finished_at DESC, id DESC
		LIMIT 1
	`).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.SnapshotFile,
		&run.SourceCount, &run.ArchiveCount, &run.NewCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading last backup run: %w", mapDriverErr(err))
	}

	return &run, nil
}

// RunCount returns the number of recorded backup runs, 0 when the ledger is
// absent.
func (s *Store) RunCount(ctx context.Context) (int, error) {
	ok, err := s.hasTable(ctx, runsTable)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+runsTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting backup runs: %w", mapDriverErr(err))
	}
	return n, nil
}
