// postprocess.go: decodes the raw YOLO output tensor into detection boxes.
package detector

import "sort"

// decodePredictions converts the flat output tensor into thresholded boxes in
// letterbox pixel space. Each row is [cx, cy, w, h, objectness, class scores...]
// with coordinates normalized to 0..1 of the model input square.
func decodePredictions(data []float32, rows, stride, inputSize int, confThreshold float32) []Detection {
	numClasses := stride - 5
	detections := make([]Detection, 0, 16)

	for r := range rows {
		row := data[r*stride : (r+1)*stride]
		objectness := row[4]
		if objectness < confThreshold {
			continue
		}

		// Best scoring class for this box.
		bestClass := 0
		bestScore := float32(0)
		for c := range numClasses {
			if row[5+c] > bestScore {
				bestScore = row[5+c]
				bestClass = c
			}
		}

		confidence := objectness * bestScore
		if confidence < confThreshold {
			continue
		}

		cx := row[0] * float32(inputSize)
		cy := row[1] * float32(inputSize)
		w := row[2] * float32(inputSize)
		h := row[3] * float32(inputSize)

		detections = append(detections, Detection{
			X1:         cx - w/2,
			Y1:         cy - h/2,
			X2:         cx + w/2,
			Y2:         cy + h/2,
			Confidence: confidence,
			Class:      bestClass,
		})
	}

	return detections
}

// nonMaxSuppression drops boxes that overlap a higher confidence box of the
// same class by more than the IoU threshold.
func nonMaxSuppression(detections []Detection, iouThreshold float32) []Detection {
	if len(detections) <= 1 {
		return detections
	}

	sort.Slice(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})

	kept := make([]Detection, 0, len(detections))
	suppressed := make([]bool, len(detections))

	for i := range detections {
		if suppressed[i] {
			continue
		}
		kept = append(kept, detections[i])
		for j := i + 1; j < len(detections); j++ {
			if suppressed[j] || detections[j].Class != detections[i].Class {
				continue
			}
			if iou(&detections[i], &detections[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}

	return kept
}

// iou computes intersection over union of two boxes.
func iou(a, b *Detection) float32 {
	interX1 := max(a.X1, b.X1)
	interY1 := max(a.Y1, b.Y1)
	interX2 := min(a.X2, b.X2)
	interY2 := min(a.Y2, b.Y2)

	interW := interX2 - interX1
	interH := interY2 - interY1
	if interW <= 0 || interH <= 0 {
		return 0
	}

	interArea := interW * interH
	areaA := (a.X2 - a.X1) * (a.Y2 - a.Y1)
	areaB := (b.X2 - b.X1) * (b.Y2 - b.Y1)

	union := areaA + areaB - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
