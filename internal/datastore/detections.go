// detections.go: detection record operations. Detections carry no natural
// key, so the insert path is append-only with no conflict handling.
package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/karasolutions/mediascan-go/internal/errors"
)

// InsertDetections appends detection rows in one all-or-nothing transaction.
// Rows are applied in the order submitted.
func (ds *DataStore) InsertDetections(detections []Detection) error {
	if len(detections) == 0 {
		return nil
	}

	start := time.Now()
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&detections).Error
	})
	ds.recordOp("insert", "detections", start, len(detections), err)

	if err != nil {
		return errors.New(fmt.Errorf("inserting %d detections: %w", len(detections), err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("rows", len(detections)).
			Build()
	}
	return nil
}

// GetAllDetections returns all detection rows in insertion order.
func (ds *DataStore) GetAllDetections() ([]Detection, error) {
	start := time.Now()
	var detections []Detection
	err := ds.DB.Order("id ASC").Find(&detections).Error
	ds.recordOp("list", "detections", start, len(detections), err)

	if err != nil {
		return nil, errors.New(fmt.Errorf("listing detections: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return detections, nil
}

// CountDetections returns the number of stored detection rows.
func (ds *DataStore) CountDetections() (int64, error) {
	start := time.Now()
	var count int64
	err := ds.DB.Model(&Detection{}).Count(&count).Error
	ds.recordOp("count", "detections", start, int(count), err)

	if err != nil {
		return 0, errors.New(fmt.Errorf("counting detections: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return count, nil
}
