package main

import (
	"foody/indexer/internal/container"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run queued sync requests until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd.Context(), func(app *container.Container) error {
			return app.RunWorker(cmd.Context())
		})
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
