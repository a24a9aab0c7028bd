// model.go this code defines the data model for the application
package datastore

import "time"

// Message represents one ingested channel post.
//
// MessageID is the externally assigned natural key; the unique index is what
// makes the bulk ingestion path idempotent. MessageDate is a pointer so that
// a missing or unparseable timestamp is stored as NULL, never as a sentinel
// date. Text fields pass through unmodified.
type Message struct {
	ID              uint   `gorm:"primaryKey"`
	ChannelTitle    string `gorm:"index:idx_messages_channel_title"`
	ChannelUsername string `gorm:"index:idx_messages_channel_username"`
	MessageID       int64  `gorm:"uniqueIndex:idx_messages_message_id"`
	Message         string `gorm:"type:text"`
	MessageDate     *time.Time
	MediaPath       *string
	EmojiUsed       *string
	YoutubeLinks    *string
}

// Detection represents one bounding box found in one image.
//
// Detections carry no natural key; re-running a batch over the same
// directory appends new rows.
type Detection struct {
	ID         uint   `gorm:"primaryKey"`
	ImageName  string `gorm:"index:idx_detections_image_name"`
	X1         float64
	Y1         float64
	X2         float64
	Y2         float64
	Confidence float64
	Class      int
}
