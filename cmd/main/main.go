// Command indexer crawls the catalog, keeps the document store and syncs it
// into the search index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"foody/indexer/internal/config"
	"foody/indexer/internal/container"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "indexer",
	Short:         "Foody catalog crawler and search indexer",
	Long:          "Crawls restaurant listings and menus into a document store and syncs them into Elasticsearch.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded

		level, err := log.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		log.Debug("Configuration loaded successfully")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Errorf("❌ %v", err)
		stop()
		os.Exit(1)
	}
}

// withContainer builds the container for one command and closes it after.
func withContainer(ctx context.Context, fn func(*container.Container) error) error {
	app, err := container.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warnf("⚠️ Cleanup failed: %v", err)
		}
	}()
	return fn(app)
}
