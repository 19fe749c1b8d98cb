package main

import (
	"foody/indexer/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var syncQueue bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Write every stored document into the search index",
	Long:  "Runs a full upsert pass from the document store into the search index. With --queue the pass is handed to a running worker instead.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd.Context(), func(app *container.Container) error {
			if syncQueue {
				id, err := app.RequestSync(cmd.Context(), "manual")
				if err != nil {
					return err
				}
				log.Infof("Sync queued as message %s", id)
				return nil
			}

			report, err := app.RunSync(cmd.Context())
			if report != nil {
				log.WithField("run_id", report.RunID).Infof("Sync summary: %d documents, %d created, %d updated",
					report.Attempted, report.Created, report.Updated)
			}
			return err
		})
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncQueue, "queue", false, "queue the sync for a worker instead of running it")
	rootCmd.AddCommand(syncCmd)
}
