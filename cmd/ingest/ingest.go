package ingest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/datastore"
	"github.com/karasolutions/mediascan-go/internal/ingest"
	"github.com/karasolutions/mediascan-go/internal/logging"
	"github.com/karasolutions/mediascan-go/internal/observability"
)

// Command creates the ingest subcommand, which bulk upserts scraped message
// rows from a CSV or JSON file.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [rows.csv|rows.json]",
		Short: "Bulk upsert scraped message rows into the store",
		Long:  "Load scraped channel messages from a CSV or JSON file. Rows whose message_id already exists are left untouched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(settings, args[0])
		},
	}
}

func runIngest(settings *conf.Settings, path string) error {
	logger := logging.ForService("ingest")

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	ds, err := datastore.New(settings, logging.ForService("datastore"), metrics.Datastore)
	if err != nil {
		return err
	}
	if err := ds.Open(); err != nil {
		return err
	}
	defer ds.Close()

	count, err := ingest.Run(path, ds, logger, metrics.Pipeline)
	if err != nil {
		return err
	}

	logger.Info("ingest finished", "rows_submitted", count)
	return nil
}
