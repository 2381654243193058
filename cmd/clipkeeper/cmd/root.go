package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"clipkeeper/internal/app/archiver"
	"clipkeeper/internal/app/archiver/config"
	"clipkeeper/internal/domain/clip"
	"clipkeeper/internal/utils/logger"
)

var (
	cfg   *config.Config
	log   *slog.Logger
	app   *archiver.App
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "clipkeeper",
	Short: "clipkeeper - unbounded backup and search for clipboard history",
	Long: `clipkeeper backs up a clipboard manager's local database before its
retention window trims it, merging every snapshot into a cumulative archive
deduplicated by content. The archive only grows; nothing copied is ever lost.

Paths are configured through CLIPKEEPER_* environment variables (optionally
from a .env file), each with a default matching a stock Alfred installation.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the command tree and maps the failure class onto the process
// exit code: 2 for usage errors, 1 for operational failures, and for the
// shell escape hatch the child's exit status verbatim.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if errors.Is(err, clip.ErrInvalidArgument) {
		return 2
	}
	// Unknown subcommands are the one usage error cobra does not route
	// through the flag error func.
	if strings.HasPrefix(err.Error(), "unknown command") {
		return 2
	}
	return 1
}

func setupApp(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	env := cfg.Env
	if debug {
		env = config.EnvLocal
	}
	log = logger.New(env)

	app = archiver.New(cfg, log)
	return nil
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "force the pretty debug logger")

	// Bad flags are usage errors, same exit class as a bad --limit value.
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", clip.ErrInvalidArgument, err)
	})
}
