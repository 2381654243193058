package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show source and archive record counts",
	Long: `Reports how many records the live source store currently holds, how many
the archive has accumulated, and when the last backup ran. Read-only: no
snapshot is taken and nothing is merged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := app.Status(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("=== Clipkeeper Status ===")
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Source:\t%s\t%d records\t%s\t\n",
			report.SourcePath, report.SourceCount, humanize.IBytes(uint64(report.SourceSize)))
		if report.ArchiveExists {
			fmt.Fprintf(w, "Archive:\t%s\t%d records\t%s\t\n",
				report.ArchivePath, report.ArchiveCount, humanize.IBytes(uint64(report.ArchiveSize)))
		} else {
			fmt.Fprintf(w, "Archive:\t%s\tnot created yet (run backup first)\t\t\n",
				report.ArchivePath)
		}
		w.Flush()

		if report.LastRun != nil {
			run := report.LastRun
			fmt.Printf("\nLast backup: %s (snapshot %s, %d new records)\n",
				time.Unix(run.FinishedAt, 0).Format("2006-01-02 15:04:05"),
				run.SnapshotFile, run.NewCount)
		}

		if report.Schema != "" {
			fmt.Println("\nRecord table:")
			for _, line := range strings.Split(report.Schema, "\n") {
				fmt.Println("  " + line)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
