// Package ingest loads externally scraped message rows from CSV or JSON
// files and bulk upserts them into the message store.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/karasolutions/mediascan-go/internal/datastore"
	"github.com/karasolutions/mediascan-go/internal/errors"
	"github.com/karasolutions/mediascan-go/internal/logging"
	"github.com/karasolutions/mediascan-go/internal/observability/metrics"
)

// dateLayouts are the timestamp formats the scraper emits, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Run loads the scraped rows from path and hands them to the bulk upsert
// path in one transaction. Rows whose message_id already exists are left
// untouched. It returns the number of rows submitted.
func Run(path string, ds datastore.Interface, logger *slog.Logger, m *metrics.PipelineMetrics) (int, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	messages, err := LoadMessages(path)
	if err != nil {
		return 0, err
	}

	if err := ds.BulkUpsertMessages(messages); err != nil {
		return 0, fmt.Errorf("upserting messages: %w", err)
	}
	if m != nil {
		m.RecordMessagesUpserted(len(messages))
	}

	logger.Info("messages ingested", "file", filepath.Base(path), "rows", len(messages))
	return len(messages), nil
}

// LoadMessages parses a scraped rows file into message records. The format
// is selected by file extension, .csv or .json.
func LoadMessages(path string) ([]datastore.Message, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSON(path)
	default:
		return nil, errors.Newf("unsupported rows file format %q, want .csv or .json", filepath.Ext(path)).
			Component("ingest").
			Category(errors.CategoryValidation).
			Context("path", path).
			Build()
	}
}

// rawRow mirrors the column names the scraper writes.
type rawRow struct {
	ChannelTitle    string `json:"channel_title"`
	ChannelUsername string `json:"channel_username"`
	MessageID       int64  `json:"message_id"`
	Message         string `json:"message"`
	MessageDate     string `json:"message_date"`
	MediaPath       string `json:"media_path"`
	EmojiUsed       string `json:"emoji_used"`
	YoutubeLinks    string `json:"youtube_links"`
}

// toMessage maps a scraped row onto the store model. An empty or
// unparseable timestamp becomes nil, stored as NULL. Empty optional text
// columns become nil as well.
func (r *rawRow) toMessage() datastore.Message {
	return datastore.Message{
		ChannelTitle:    r.ChannelTitle,
		ChannelUsername: r.ChannelUsername,
		MessageID:       r.MessageID,
		Message:         r.Message,
		MessageDate:     parseDate(r.MessageDate),
		MediaPath:       optional(r.MediaPath),
		EmojiUsed:       optional(r.EmojiUsed),
		YoutubeLinks:    optional(r.YoutubeLinks),
	}
}

func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts
		}
	}
	return nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func loadJSON(path string) ([]datastore.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading rows file: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	var rows []rawRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.New(fmt.Errorf("parsing rows file: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	messages := make([]datastore.Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, rows[i].toMessage())
	}
	return messages, nil
}

func loadCSV(path string) ([]datastore.Message, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading rows file: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.New(fmt.Errorf("parsing rows file: %w", err)).
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	if len(records) == 0 {
		return nil, nil
	}

	// First record is the header, columns may appear in any order.
	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["message_id"]; !ok {
		return nil, errors.Newf("rows file is missing the message_id column").
			Component("ingest").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	messages := make([]datastore.Message, 0, len(records)-1)
	for line, record := range records[1:] {
		messageID, err := strconv.ParseInt(strings.TrimSpace(field(record, "message_id")), 10, 64)
		if err != nil {
			return nil, errors.New(fmt.Errorf("invalid message_id on line %d: %w", line+2, err)).
				Component("ingest").
				Category(errors.CategoryFileParsing).
				Context("path", path).
				Build()
		}

		row := rawRow{
			ChannelTitle:    field(record, "channel_title"),
			ChannelUsername: field(record, "channel_username"),
			MessageID:       messageID,
			Message:         field(record, "message"),
			MessageDate:     field(record, "message_date"),
			MediaPath:       field(record, "media_path"),
			EmojiUsed:       field(record, "emoji_used"),
			YoutubeLinks:    field(record, "youtube_links"),
		}
		messages = append(messages, row.toMessage())
	}
	return messages, nil
}
