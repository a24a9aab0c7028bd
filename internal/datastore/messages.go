// messages.go: message record operations, both the lenient bulk ingestion
// path and the strict single-record CRUD path used by the API.
package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/karasolutions/mediascan-go/internal/errors"
)

// BulkUpsertMessages inserts message rows as a single all-or-nothing
// transaction. A row whose message_id already exists is skipped without
// error and the stored row keeps its original field values
// (first-write-wins). Any other failure rolls back the whole batch.
func (ds *DataStore) BulkUpsertMessages(messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		// Rows are applied in the order submitted within the transaction.
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).Create(&messages).Error
	})
	ds.recordOp("bulk_upsert", "messages", start, len(messages), err)

	if err != nil {
		return errors.New(fmt.Errorf("bulk upserting %d messages: %w", len(messages), err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("rows", len(messages)).
			Build()
	}
	return nil
}

// CreateMessage persists a single message and populates its surrogate ID.
// Unlike BulkUpsertMessages this path rejects a duplicate message_id with
// ErrMessageExists; the interactive create and the bulk ingestion dedup
// deliberately behave differently.
func (ds *DataStore) CreateMessage(message *Message) error {
	start := time.Now()
	err := ds.DB.Create(message).Error
	ds.recordOp("create", "messages", start, 1, err)

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.New(fmt.Errorf("message_id %d: %w", message.MessageID, ErrMessageExists)).
				Component("datastore").
				Category(errors.CategoryConflict).
				Context("message_id", message.MessageID).
				Build()
		}
		return errors.New(fmt.Errorf("creating message: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("message_id", message.MessageID).
			Build()
	}
	return nil
}

// GetMessage retrieves a message by its natural key. An absent row yields
// ErrMessageNotFound, never a default-constructed record.
func (ds *DataStore) GetMessage(messageID int64) (*Message, error) {
	start := time.Now()
	var message Message
	err := ds.DB.Where("message_id = ?", messageID).First(&message).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrMessageNotFound
	}
	ds.recordOp("get", "messages", start, 1, err)

	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, errors.New(fmt.Errorf("getting message %d: %w", messageID, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("message_id", messageID).
			Build()
	}
	return &message, nil
}

// ListMessages returns all messages in creation (surrogate id) order.
func (ds *DataStore) ListMessages() ([]Message, error) {
	start := time.Now()
	var messages []Message
	err := ds.DB.Order("id ASC").Find(&messages).Error
	ds.recordOp("list", "messages", start, len(messages), err)

	if err != nil {
		return nil, errors.New(fmt.Errorf("listing messages: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return messages, nil
}

// DeleteMessage removes a message by its natural key in a single transaction
// and returns the deleted record. An absent row yields ErrMessageNotFound.
func (ds *DataStore) DeleteMessage(messageID int64) (*Message, error) {
	start := time.Now()
	var deleted Message
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).First(&deleted).Error; err != nil {
			return err
		}
		return tx.Delete(&Message{}, deleted.ID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrMessageNotFound
	}
	ds.recordOp("delete", "messages", start, 1, err)

	if err != nil {
		if errors.Is(err, ErrMessageNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, errors.New(fmt.Errorf("deleting message %d: %w", messageID, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("message_id", messageID).
			Build()
	}
	return &deleted, nil
}
