package cmd

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write the archive as portable SQL text to stdout",
	Long: `Emits the full archive in the textual reload format a SQLite shell
produces: schema statements followed by one INSERT per row. Piping the
output into a SQLite shell on an empty file reproduces the archive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := bufio.NewWriter(os.Stdout)
		if err := app.Dump(cmd.Context(), w); err != nil {
			return err
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
