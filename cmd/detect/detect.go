package detect

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/karasolutions/mediascan-go/internal/analysis"
	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/datastore"
	"github.com/karasolutions/mediascan-go/internal/detector"
	"github.com/karasolutions/mediascan-go/internal/logging"
	"github.com/karasolutions/mediascan-go/internal/observability"
)

// Command creates the detect subcommand, which runs the detection model over
// an image directory and persists the results.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect [path]",
		Short: "Run object detection over a directory of images",
		Long:  "Analyze every image in the directory and store the detected objects. The directory defaults to input.path from the configuration.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				settings.Input.Path = args[0]
			}
			return runDetect(cmd.Context(), settings)
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().BoolVarP(&settings.Input.Recursive, "recursive", "r", settings.Input.Recursive, "Recursively analyze subdirectories")
	cmd.Flags().StringVarP(&settings.Detector.ModelPath, "model", "m", settings.Detector.ModelPath, "Path to the detection model file")
	cmd.Flags().Float64VarP(&settings.Detector.Threshold, "threshold", "t", settings.Detector.Threshold, "Confidence threshold for detections, between 0.0 and 1.0")
}

func runDetect(ctx context.Context, settings *conf.Settings) error {
	logger := logging.ForService("detect")

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

	det, err := detector.NewTFLiteDetector(settings, logging.ForService("detector"), metrics.Pipeline)
	if err != nil {
		return err
	}
	defer det.Close()

	count, err := analysis.DirectoryAnalysis(ctx, settings, ds, det, logger, metrics.Pipeline)
	if err != nil {
		return err
	}

	total, err := ds.CountDetections()
	if err != nil {
		return err
	}

	logger.Info("detection run finished", "new_detections", count, "total_detections", total)
	return nil
}
