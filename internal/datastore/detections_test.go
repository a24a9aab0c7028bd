package datastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertDetections(t *testing.T) {
	store := newTestStore(t)

	batch := []Detection{
		{ImageName: "a.jpg", X1: 10, Y1: 20, X2: 110, Y2: 220, Confidence: 0.9, Class: 1},
		{ImageName: "a.jpg", X1: 5, Y1: 5, X2: 50, Y2: 50, Confidence: 0.7, Class: 3},
		{ImageName: "c.jpg", X1: 0, Y1: 0, X2: 640, Y2: 480, Confidence: 0.55, Class: 0},
	}
	require.NoError(t, store.InsertDetections(batch))

	count, err := store.CountDetections()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	detections, err := store.GetAllDetections()
	require.NoError(t, err)
	require.Len(t, detections, 3)
	assert.Equal(t, "a.jpg", detections[0].ImageName)
	assert.InDelta(t, 0.9, detections[0].Confidence, 1e-9)
	assert.Equal(t, 1, detections[0].Class)
}

func TestInsertDetectionsAppendOnly(t *testing.T) {
	store := newTestStore(t)

	row := Detection{ImageName: "a.jpg", X1: 1, Y1: 2, X2: 3, Y2: 4, Confidence: 0.8, Class: 2}
	require.NoError(t, store.InsertDetections([]Detection{row}))
	// Detections carry no natural key; a re-run appends.
	require.NoError(t, store.InsertDetections([]Detection{row}))

	count, err := store.CountDetections()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestInsertDetectionsEmptyBatch(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.InsertDetections(nil))

	count, err := store.CountDetections()
	require.NoError(t, err)
	assert.Zero(t, count)
}
