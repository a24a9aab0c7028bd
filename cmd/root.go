package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/karasolutions/mediascan-go/cmd/detect"
	"github.com/karasolutions/mediascan-go/cmd/ingest"
	"github.com/karasolutions/mediascan-go/cmd/serve"
	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/logging"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mediascan",
		Short: "Channel media ingestion and object detection pipeline",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		detect.Command(settings),
		ingest.Command(settings),
		serve.Command(settings),
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
	}

	return rootCmd
}

// setupFlags defines flags global to the command line interface. The config
// file itself is loaded in main before the command tree runs, the --config
// flag is declared here so cobra accepts and documents it.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	var configPath string
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
}
