package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"clipkeeper/internal/domain/clip"
	"clipkeeper/internal/infrastructure/storage/sqlite"
)

var (
	searchSeparator string
	searchLimit     int
	searchFields    []string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the archive for records containing a substring",
	Long: `Case-sensitive substring search over archived clipboard content. Results
are ordered by how early the match occurs, most recent first among ties.

The default output is one record per line with the projected fields joined
by the separator. --json emits the launcher integration shape instead
(fixed fields, --fields does not apply).`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(1)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", clip.ErrInvalidArgument, err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if searchJSON {
			return printLauncherJSON(cmd, args[0])
		}
		return printDelimited(cmd, args[0])
	},
}

func printDelimited(cmd *cobra.Command, term string) error {
	results, err := app.Search(cmd.Context(), sqlite.Query{
		Term:   term,
		Limit:  searchLimit,
		Fields: searchFields,
	})
	if err != nil {
		return err
	}
	defer results.Close()

	for results.Next() {
		row, err := results.Scan()
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(row, searchSeparator))
	}

	return results.Err()
}

func printLauncherJSON(cmd *cobra.Command, term string) error {
	clips, err := app.SearchClips(cmd.Context(), term, searchLimit)
	if err != nil {
		return err
	}

	return json.NewEncoder(os.Stdout).Encode(clip.NewItemList(clips))
}

func init() {
	searchCmd.Flags().StringVar(&searchSeparator, "separator", "\t", "field separator for delimited output")
	searchCmd.Flags().IntVar(&searchLimit, "limit", sqlite.DefaultLimit, "maximum number of results")
	searchCmd.Flags().StringSliceVar(&searchFields, "fields", nil, "columns to print, in order (default ts,item)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "emit launcher JSON instead of delimited text")

	rootCmd.AddCommand(searchCmd)
}
