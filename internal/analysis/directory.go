// Package analysis runs the object detection model over scraped media files
// and persists the resulting detection records.
package analysis

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/datastore"
	"github.com/karasolutions/mediascan-go/internal/detector"
	"github.com/karasolutions/mediascan-go/internal/errors"
	"github.com/karasolutions/mediascan-go/internal/logging"
	"github.com/karasolutions/mediascan-go/internal/observability/metrics"
)

// DirectoryAnalysis runs the detector over every image in the configured
// input directory and writes the detection records to the store in a single
// batch. Files are visited in the lexical order os.ReadDir returns. The run
// aborts on the first image the detector fails on, and nothing is persisted
// unless the whole directory succeeded.
//
// The returned count is the number of detection records written.
func DirectoryAnalysis(ctx context.Context, settings *conf.Settings, ds datastore.Interface, det detector.Interface, logger *slog.Logger, m *metrics.PipelineMetrics) (int, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	dir := settings.Input.Path
	images, err := collectImages(dir, settings.Input.Recursive)
	if err != nil {
		return 0, err
	}

	logger.Info("starting directory analysis", "directory", dir, "images", len(images))

	var records []datastore.Detection
	start := time.Now()

	for _, imagePath := range images {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		detections, err := det.Detect(ctx, imagePath)
		if err != nil {
			if m != nil {
				m.RecordImageFailed()
			}
			// Abort before persisting anything from this run.
			return 0, fmt.Errorf("analyzing %s: %w", filepath.Base(imagePath), err)
		}
		if m != nil {
			m.RecordImageProcessed()
		}

		imageName := filepath.Base(imagePath)
		for _, d := range detections {
			records = append(records, datastore.Detection{
				ImageName:  imageName,
				X1:         float64(d.X1),
				Y1:         float64(d.Y1),
				X2:         float64(d.X2),
				Y2:         float64(d.Y2),
				Confidence: float64(d.Confidence),
				Class:      d.Class,
			})
		}

		logger.Debug("image analyzed", "image", imageName, "detections", len(detections))
	}

	if err := ds.InsertDetections(records); err != nil {
		return 0, fmt.Errorf("persisting detections: %w", err)
	}
	if m != nil {
		m.RecordDetections(len(records))
	}

	logger.Info("directory analysis completed",
		"directory", dir,
		"images", len(images),
		"detections", len(records),
		"duration", time.Since(start))

	return len(records), nil
}

// collectImages lists the image files under dir. Without recursion only the
// directory's own entries are considered and subdirectories are skipped. The
// result follows os.ReadDir's lexical filename order.
func collectImages(dir string, recursive bool) ([]string, error) {
	if recursive {
		var images []string
		err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && isImageFile(entry.Name()) {
				images = append(images, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.New(fmt.Errorf("walking image directory: %w", err)).
				Component("analysis").
				Category(errors.CategoryFileIO).
				Context("directory", dir).
				Build()
		}
		return images, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading image directory: %w", err)).
			Component("analysis").
			Category(errors.CategoryFileIO).
			Context("directory", dir).
			Build()
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		images = append(images, filepath.Join(dir, entry.Name()))
	}
	return images, nil
}

// isImageFile reports whether the filename has an extension the scraper
// downloads.
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}
