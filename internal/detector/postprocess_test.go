package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeRow builds one output tensor row: [cx, cy, w, h, objectness, classes...],
// coordinates normalized to the input square.
func makeRow(cx, cy, w, h, obj float32, classScores ...float32) []float32 {
	row := []float32{cx, cy, w, h, obj}
	return append(row, classScores...)
}

func TestDecodePredictions(t *testing.T) {
	t.Parallel()

	const inputSize = 640
	stride := 5 + 2 // two classes

	var data []float32
	data = append(data, makeRow(0.5, 0.5, 0.25, 0.25, 0.9, 0.1, 0.95)...) // strong class 1
	data = append(data, makeRow(0.2, 0.2, 0.1, 0.1, 0.05, 0.9, 0.1)...)   // below objectness threshold
	data = append(data, makeRow(0.8, 0.8, 0.1, 0.1, 0.6, 0.3, 0.2)...)    // conf 0.6*0.3=0.18, below threshold

	detections := decodePredictions(data, 3, stride, inputSize, 0.25)
	require.Len(t, detections, 1)

	d := detections[0]
	assert.Equal(t, 1, d.Class)
	assert.InDelta(t, 0.9*0.95, d.Confidence, 1e-5)
	// Box centered at 320,320 with side 160
	assert.InDelta(t, 240, d.X1, 0.5)
	assert.InDelta(t, 240, d.Y1, 0.5)
	assert.InDelta(t, 400, d.X2, 0.5)
	assert.InDelta(t, 400, d.Y2, 0.5)
}

func TestDecodePredictionsEmpty(t *testing.T) {
	t.Parallel()

	detections := decodePredictions(nil, 0, 7, 640, 0.25)
	assert.Empty(t, detections)
}

func TestIoU(t *testing.T) {
	t.Parallel()

	a := Detection{X1: 0, Y1: 0, X2: 10, Y2: 10}
	b := Detection{X1: 0, Y1: 0, X2: 10, Y2: 10}
	assert.InDelta(t, 1.0, iou(&a, &b), 1e-6, "identical boxes")

	c := Detection{X1: 20, Y1: 20, X2: 30, Y2: 30}
	assert.Zero(t, iou(&a, &c), "disjoint boxes")

	d := Detection{X1: 5, Y1: 0, X2: 15, Y2: 10}
	// intersection 50, union 150
	assert.InDelta(t, 1.0/3.0, iou(&a, &d), 1e-6)
}

func TestNonMaxSuppression(t *testing.T) {
	t.Parallel()

	detections := []Detection{
		{X1: 0, Y1: 0, X2: 10, Y2: 10, Confidence: 0.9, Class: 1},
		{X1: 1, Y1: 1, X2: 11, Y2: 11, Confidence: 0.8, Class: 1},  // overlaps first, same class
		{X1: 1, Y1: 1, X2: 11, Y2: 11, Confidence: 0.7, Class: 2},  // overlaps but different class
		{X1: 50, Y1: 50, X2: 60, Y2: 60, Confidence: 0.6, Class: 1}, // far away
	}

	kept := nonMaxSuppression(detections, 0.45)
	require.Len(t, kept, 3)

	// Highest confidence box survives, order is by confidence.
	assert.InDelta(t, 0.9, kept[0].Confidence, 1e-6)
	assert.InDelta(t, 0.7, kept[1].Confidence, 1e-6)
	assert.InDelta(t, 0.6, kept[2].Confidence, 1e-6)
}

func TestNonMaxSuppressionSingleBox(t *testing.T) {
	t.Parallel()

	single := []Detection{{X1: 0, Y1: 0, X2: 5, Y2: 5, Confidence: 0.5, Class: 0}}
	assert.Equal(t, single, nonMaxSuppression(single, 0.45))
	assert.Empty(t, nonMaxSuppression(nil, 0.45))
}
