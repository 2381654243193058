package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the source store and merge it into the archive",
	Long: `Takes a point-in-time copy of the source database into the backup
directory, then folds it into the cumulative archive in one transaction:
records whose content already exists in the archive are replaced by the
fresh copies, everything else is appended. The first backup bootstraps the
archive from the snapshot. Snapshots are kept on disk, never pruned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("=== Clipboard Backup ===")
		fmt.Println()

		report, err := app.Backup(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("%s Snapshot written: %s (%s)\n",
			okMark(), filepath.Base(report.SnapshotPath), humanize.IBytes(uint64(report.SnapshotSize)))
		fmt.Printf("  Source records:   %d\n", report.SourceCount)
		fmt.Printf("  Snapshot records: %d\n", report.SnapshotCount)

		if report.Initialized {
			fmt.Printf("%s Archive initialized from snapshot\n", okMark())
		} else {
			fmt.Printf("%s Snapshot merged into archive\n", okMark())
		}
		fmt.Printf("  Archive records:  %d (%d new)\n", report.ArchiveCount, report.NewCount)

		if report.LedgerErr != nil {
			fmt.Printf("%s Run ledger not updated: %v\n", warnMark(), report.LedgerErr)
		}

		fmt.Println()
		fmt.Printf("Backup complete in %s: archive is %s\n",
			report.Duration.Round(time.Millisecond), humanize.IBytes(uint64(report.ArchiveSize)))

		return nil
	},
}

func okMark() string {
	return color.GreenString("✓")
}

func warnMark() string {
	return color.YellowString("⚠")
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
