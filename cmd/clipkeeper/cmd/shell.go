package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive SQLite shell on the archive",
	Long: `Escape hatch: hands the terminal to the configured SQLite shell binary
opened directly on the archive file. The shell's exit code is passed through.
Anything you change in there is on you; the archive has no undo.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Printf("%s stdin is not a terminal; the shell will read piped input\n", warnMark())
		}
		return app.Shell()
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
