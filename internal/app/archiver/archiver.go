package archiver

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"clipkeeper/internal/app/archiver/config"
	"clipkeeper/internal/domain/clip"
	"clipkeeper/internal/infrastructure/migration"
	"clipkeeper/internal/infrastructure/storage/sqlite"
)

// App sequences the backup pipeline (snapshot -> initialize-or-merge ->
// ledger -> report) and fronts the archive for status, search, dump, and the
// interactive shell. It holds no state beyond configuration: every operation
// re-reads the stores from disk.
type App struct {
	cfg    *config.Config
	log    *slog.Logger
	engine migration.MigrationEngine
}

func New(cfg *config.Config, log *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		log:    log,
		engine: migration.DefaultEngine,
	}
}

// StatusReport is the read-only view over both stores.
type StatusReport struct {
	SourcePath  string
	SourceCount int
	SourceSize  int64

	ArchivePath   string
	ArchiveExists bool
	ArchiveCount  int
	ArchiveSize   int64
	Schema        string

	LastRun *sqlite.RunRecord
}

// BackupReport summarizes one completed backup invocation.
type BackupReport struct {
	SnapshotPath  string
	SnapshotSize  int64
	SourceCount   int
	SnapshotCount int
	ArchiveCount  int
	NewCount      int
	Initialized   bool
	ArchiveSize   int64
	Duration      time.Duration
	LedgerErr     error
}

// Status reports record counts and sizes for the source and the archive.
// A missing source store is an error; a missing archive only means no backup
// has run yet and is reported as such.
func (a *App) Status(ctx context.Context) (*StatusReport, error) {
	report := &StatusReport{
		SourcePath:  a.cfg.SourcePath(),
		ArchivePath: a.cfg.ArchivePath(),
	}

	source, err := sqlite.Open(report.SourcePath, sqlite.WithReadOnly(),
		sqlite.WithBusyTimeout(a.cfg.BusyTimeoutMS))
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if report.SourceCount, err = source.Count(ctx); err != nil {
		return nil, err
	}
	report.SourceSize = fileSize(report.SourcePath)

	if !sqlite.Exists(report.ArchivePath) {
		return report, nil
	}
	report.ArchiveExists = true
	report.ArchiveSize = fileSize(report.ArchivePath)

	archive, err := sqlite.Open(report.ArchivePath, sqlite.WithReadOnly(),
		sqlite.WithBusyTimeout(a.cfg.BusyTimeoutMS))
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	if report.ArchiveCount, err = archive.Count(ctx); err != nil {
		return nil, err
	}
	if report.Schema, err = archive.Schema(ctx); err != nil {
		return nil, err
	}
	if report.LastRun, err = archive.LastRun(ctx); err != nil {
		return nil, err
	}

	return report, nil
}

// Backup takes a snapshot of the source store and folds it into the archive,
// bootstrapping the archive from the snapshot on the first run. The snapshot
// file is retained as a backup artifact. The run is appended to the archive's
// ledger afterwards; a ledger failure is a warning on the report, not a
// backup failure, because the archive contents are already committed.
func (a *App) Backup(ctx context.Context) (*BackupReport, error) {
	started := time.Now()

	sourcePath := a.cfg.SourcePath()
	archivePath := a.cfg.ArchivePath()
	snapshotPath := a.cfg.SnapshotPath()

	if !sqlite.Exists(sourcePath) {
		return nil, fmt.Errorf("%w: source store %s", clip.ErrStoreUnavailable, sourcePath)
	}
	if err := os.MkdirAll(a.cfg.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory %s: %w", a.cfg.BackupDir, err)
	}

	a.log.Debug("taking snapshot", "source", sourcePath, "snapshot", snapshotPath)
	if err := sqlite.Snapshot(sourcePath, snapshotPath); err != nil {
		return nil, err
	}

	report := &BackupReport{
		SnapshotPath: snapshotPath,
		SnapshotSize: fileSize(snapshotPath),
	}

	var err error
	if report.SourceCount, err = a.countStore(ctx, sourcePath); err != nil {
		return nil, err
	}
	if report.SnapshotCount, err = a.countStore(ctx, snapshotPath); err != nil {
		return nil, err
	}

	if !sqlite.Exists(archivePath) {
		if err := sqlite.InitializeFrom(snapshotPath, archivePath); err != nil {
			return nil, err
		}
		report.Initialized = true
		report.ArchiveCount = report.SnapshotCount
		report.NewCount = report.SnapshotCount
		a.log.Info("archive initialized", "archive", archivePath, "records", report.ArchiveCount)
	} else {
		archive, err := sqlite.Open(archivePath, sqlite.WithBusyTimeout(a.cfg.BusyTimeoutMS))
		if err != nil {
			return nil, err
		}
		stats, err := archive.MergeFrom(ctx, snapshotPath)
		archive.Close()
		if err != nil {
			return nil, err
		}
		report.ArchiveCount = stats.Merged
		report.NewCount = stats.New
		a.log.Info("snapshot merged", "archive", archivePath,
			"records", stats.Merged, "new", stats.New)
	}

	report.LedgerErr = a.recordRun(ctx, archivePath, started, report)
	if report.LedgerErr != nil {
		a.log.Warn("backup succeeded but the run ledger was not updated",
			"error", report.LedgerErr)
	}

	report.ArchiveSize = fileSize(archivePath)
	report.Duration = time.Since(started)

	return report, nil
}

func (a *App) countStore(ctx context.Context, path string) (int, error) {
	store, err := sqlite.Open(path, sqlite.WithReadOnly(),
		sqlite.WithBusyTimeout(a.cfg.BusyTimeoutMS))
	if err != nil {
		return 0, err
	}
	defer store.Close()
	return store.Count(ctx)
}

func (a *App) recordRun(ctx context.Context, archivePath string, started time.Time, report *BackupReport) error {
	if err := migration.NewMigration(archivePath, a.engine).Up(); err != nil {
		return fmt.Errorf("migrating run ledger: %w", err)
	}

	archive, err := sqlite.Open(archivePath, sqlite.WithBusyTimeout(a.cfg.BusyTimeoutMS))
	if err != nil {
		return err
	}
	defer archive.Close()

	return archive.RecordRun(ctx, sqlite.RunRecord{
		ID:           uuid.NewString(),
		StartedAt:    started.Unix(),
		FinishedAt:   time.Now().Unix(),
		SnapshotFile: filepath.Base(report.SnapshotPath),
		SourceCount:  report.SourceCount,
		ArchiveCount: report.ArchiveCount,
		NewCount:     report.NewCount,
	})
}

// Search runs a substring query against the archive and returns the lazy
// result sequence; the caller must Close it. The pool handle is released
// before returning, the result rows pin their own connection until Close.
func (a *App) Search(ctx context.Context, q sqlite.Query) (*sqlite.Results, error) {
	archive, err := sqlite.Open(a.cfg.ArchivePath(), sqlite.WithReadOnly(),
		sqlite.WithBusyTimeout(a.cfg.BusyTimeoutMS))
	if err != nil {
		return nil, err
	}

	results, err := archive.Search(ctx, q)
	if err != nil {
		archive.Close()
		return nil, err
	}
	archive.Close()

	return results, nil
}

// SearchClips runs a substring query and returns typed records for the
// launcher JSON rendering.
func (a *App) SearchClips(ctx context.Context, term string, limit int) ([]clip.Clip, error) {
	archive, err := sqlite.Open(a.cfg.ArchivePath(), sqlite.WithReadOnly(),
		sqlite.WithBusyTimeout(a.cfg.BusyTimeoutMS))
	if err != nil {
		return nil, err
	}
	defer archive.Close()

	return archive.SearchClips(ctx, term, limit)
}

// Dump streams the archive to w as portable SQL text.
func (a *App) Dump(ctx context.Context, w io.Writer) error {
	archive, err := sqlite.Open(a.cfg.ArchivePath(), sqlite.WithReadOnly(),
		sqlite.WithBusyTimeout(a.cfg.BusyTimeoutMS))
	if err != nil {
		return err
	}
	defer archive.Close()

	return archive.Dump(ctx, w)
}

// Shell hands the terminal to the configured SQLite shell, opened on the
// archive. Stdio is passed through; the shell's exit status comes back as
// an *exec.ExitError for the CLI to propagate verbatim.
func (a *App) Shell() error {
	archivePath := a.cfg.ArchivePath()
	if !sqlite.Exists(archivePath) {
		return fmt.Errorf("%w: archive %s (run backup first)", clip.ErrStoreUnavailable, archivePath)
	}

	cmd := exec.Command(a.cfg.ShellBin, archivePath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	a.log.Debug("opening shell", "bin", a.cfg.ShellBin, "archive", archivePath)
	return cmd.Run()
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
