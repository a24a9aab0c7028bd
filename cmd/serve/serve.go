package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/karasolutions/mediascan-go/internal/api"
	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/datastore"
	"github.com/karasolutions/mediascan-go/internal/logging"
	"github.com/karasolutions/mediascan-go/internal/observability"
)

// Command creates the serve subcommand, which runs the message API server.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the message API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), settings)
		},
	}

	cmd.Flags().StringVarP(&settings.HTTP.Port, "port", "p", settings.HTTP.Port, "Port to listen on")

	return cmd
}

func runServe(ctx context.Context, settings *conf.Settings) error {
	logger := logging.ForService("api")

	// API requests go to a rotated log file when one is configured, the
	// stdout logger stays as fallback.
	if settings.Main.Log.Enabled {
		level := slog.LevelInfo
		if settings.Debug {
			level = slog.LevelDebug
		}
		fileLogger, closeLogger, err := logging.NewFileLogger(settings.Main.Log.Path, "api", level, logging.FileConfig{
			MaxSizeMB:  settings.Main.Log.MaxSize,
			MaxBackups: settings.Main.Log.MaxBackups,
			MaxAgeDays: settings.Main.Log.MaxAge,
		})
		if err != nil {
			logger.Warn("failed to open log file, logging to stdout", "path", settings.Main.Log.Path, "error", err)
		} else {
			logger = fileLogger
			defer closeLogger() //nolint:errcheck // log file close failure is not actionable at shutdown
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	controller := api.New(settings, ds, logger, metrics)

	logger.Info("starting message API", "port", settings.HTTP.Port)
	if err := controller.Start(ctx); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
