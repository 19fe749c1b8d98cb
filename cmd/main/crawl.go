package main

import (
	"foody/indexer/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl every category and store new items",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd.Context(), func(app *container.Container) error {
			stats, err := app.RunCrawl(cmd.Context())
			if stats != nil {
				log.WithField("run_id", stats.RunID).Infof(
					"Crawl summary: %d categories, %d pages (%d timed out), %d captured, %d skipped, %d failed",
					stats.Categories, stats.Pages, stats.PageTimeouts, stats.Captured, stats.Skipped, stats.Failed)
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}
