package main

import (
	"encoding/json"
	"os"
	"strings"

	"foody/indexer/internal/container"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search the index and print hits as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(app *container.Container) error {
			result, err := app.SearchText(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
