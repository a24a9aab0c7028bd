// tflite.go: TensorFlow Lite backed implementation of the detection adapter.
package detector

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/errors"
	"github.com/karasolutions/mediascan-go/internal/logging"
	"github.com/karasolutions/mediascan-go/internal/observability/metrics"
)

// TFLiteDetector runs a YOLO style TFLite model over single images.
type TFLiteDetector struct {
	settings    *conf.Settings
	interpreter *tflite.Interpreter
	logger      *slog.Logger
	metrics     *metrics.PipelineMetrics

	inputSize    int
	outputRows   int
	outputStride int

	// The interpreter is not safe for concurrent invocation.
	mu sync.Mutex
}

// NewTFLiteDetector loads the model file from settings and prepares an
// interpreter for inference. The logger and metrics handles may be nil.
func NewTFLiteDetector(settings *conf.Settings, logger *slog.Logger, m *metrics.PipelineMetrics) (*TFLiteDetector, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	modelPath := settings.Detector.ModelPath
	start := time.Now()

	modelData, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to read model file: %w", err)).
			Component("detector").
			Category(errors.CategoryModelLoad).
			Context("model_path", modelPath).
			Timing("model-load", time.Since(start)).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, errors.Newf("cannot load TensorFlow Lite model").
			Component("detector").
			Category(errors.CategoryModelInit).
			Context("model_path", modelPath).
			Context("model_size_mb", len(modelData)/1024/1024).
			Build()
	}

	threads := determineThreadCount(settings.Detector.Threads)
	options := tflite.NewInterpreterOptions()

	if settings.Detector.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // G115: thread count bounded by CPU count, safe conversion
		if delegate == nil {
			logger.Warn("failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	options.SetErrorReporter(func(msg string, userData any) {
		logger.Error("TFLite error", "message", msg)
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		return nil, errors.Newf("cannot create interpreter").
			Component("detector").
			Category(errors.CategoryModelInit).
			Context("model_path", modelPath).
			Build()
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		return nil, errors.Newf("tensor allocation failed").
			Component("detector").
			Category(errors.CategoryModelInit).
			Context("model_path", modelPath).
			Build()
	}

	d := &TFLiteDetector{
		settings:    settings,
		interpreter: interpreter,
		logger:      logger,
		metrics:     m,
	}
	if err := d.validateTensorShapes(); err != nil {
		interpreter.Delete()
		return nil, err
	}

	// The model data is no longer needed, TFLite keeps its own copy.
	runtime.GC()

	logger.Info("detection model initialized",
		"model", filepath.Base(modelPath),
		"input_size", d.inputSize,
		"output_rows", d.outputRows,
		"classes", d.outputStride-5,
		"threads", threads,
		"total_cpus", runtime.NumCPU())

	return d, nil
}

// validateTensorShapes checks the model's tensor layout and records the input
// square size and output geometry.
func (d *TFLiteDetector) validateTensorShapes() error {
	input := d.interpreter.GetInputTensor(0)
	if input == nil || input.NumDims() != 4 || input.Dim(3) != 3 {
		return errors.Newf("unexpected model input shape, want [1,H,W,3]").
			Component("detector").
			Category(errors.CategoryModelInit).
			Build()
	}
	if input.Dim(1) != input.Dim(2) {
		return errors.Newf("model input is not square: %dx%d", input.Dim(1), input.Dim(2)).
			Component("detector").
			Category(errors.CategoryModelInit).
			Build()
	}
	d.inputSize = input.Dim(1)

	// The model's own tensor shape wins over the configured size.
	if configured := d.settings.Detector.InputSize; configured != 0 && configured != d.inputSize {
		d.logger.Warn("configured input size differs from model, using model shape",
			"configured", configured,
			"model", d.inputSize)
	}

	output := d.interpreter.GetOutputTensor(0)
	if output == nil || output.NumDims() != 3 || output.Dim(2) <= 5 {
		return errors.Newf("unexpected model output shape, want [1,N,5+classes]").
			Component("detector").
			Category(errors.CategoryModelInit).
			Build()
	}
	d.outputRows = output.Dim(1)
	d.outputStride = output.Dim(2)
	return nil
}

// Detect runs the model over the image at imagePath and returns the detected
// boxes in original pixel coordinates.
func (d *TFLiteDetector) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	imageName := filepath.Base(imagePath)

	img, err := loadImage(imagePath)
	if err != nil {
		return nil, errors.New(fmt.Errorf("%s: %w", imageName, err)).
			Component("detector").
			Category(errors.CategoryImageDecode).
			ImageContext(imageName).
			Build()
	}

	boxed, tf := letterbox(img, d.inputSize)

	inputTensor := d.interpreter.GetInputTensor(0)
	if inputTensor == nil {
		return nil, errors.Newf("cannot get input tensor").
			Component("detector").
			Category(errors.CategoryModelInference).
			ImageContext(imageName).
			Build()
	}
	fillInputTensor(boxed, inputTensor.Float32s(), d.inputSize)

	start := time.Now()
	if status := d.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.Newf("tensor invoke failed: %v", status).
			Component("detector").
			Category(errors.CategoryModelInference).
			ImageContext(imageName).
			Timing("inference", time.Since(start)).
			Build()
	}
	if d.metrics != nil {
		d.metrics.RecordInferenceDuration(time.Since(start).Seconds())
	}

	raw := extractOutput(d.interpreter.GetOutputTensor(0))
	decoded := decodePredictions(raw, d.outputRows, d.outputStride, d.inputSize,
		float32(d.settings.Detector.Threshold))
	kept := nonMaxSuppression(decoded, float32(d.settings.Detector.IoU))

	detections := make([]Detection, 0, len(kept))
	for _, det := range kept {
		detections = append(detections, tf.toOriginal(det))
	}

	d.logger.Debug("image analyzed",
		"image", imageName,
		"detections", len(detections),
		"duration", time.Since(start))

	return detections, nil
}

// Close releases the interpreter resources.
func (d *TFLiteDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.interpreter != nil {
		d.interpreter.Delete()
		d.interpreter = nil
	}
	return nil
}

// extractOutput copies the output tensor data so postprocessing does not
// alias interpreter memory.
func extractOutput(tensor *tflite.Tensor) []float32 {
	out := make([]float32, len(tensor.Float32s()))
	copy(out, tensor.Float32s())
	return out
}

// determineThreadCount returns the interpreter thread count, defaulting to
// the machine's CPU count when unset.
func determineThreadCount(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.NumCPU()
}
