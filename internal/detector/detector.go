// Package detector wraps a black-box object detection model behind a small
// adapter interface. Callers depend only on the input/output contract, not on
// how the model is fetched or instantiated.
package detector

import "context"

// Detection is one bounding box found in one image. Coordinates are pixel
// positions in the original image, confidence is in the range 0 to 1 and
// Class is the model's integer label id.
type Detection struct {
	X1         float32
	Y1         float32
	X2         float32
	Y2         float32
	Confidence float32
	Class      int
}

// Interface is the detection adapter contract. Detect returns a finite,
// possibly empty sequence of detections for the image at imagePath. An image
// that cannot be decoded or a failed model invocation yields an error
// carrying the image identifier; "no objects found" is an empty slice, never
// an error.
type Interface interface {
	Detect(ctx context.Context, imagePath string) ([]Detection, error)
	Close() error
}
