package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/datastore"
	"github.com/karasolutions/mediascan-go/internal/errors"
	"github.com/karasolutions/mediascan-go/internal/logging"
)

func writeRowsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{
		Output: conf.OutputSettings{
			SQLite: conf.SQLiteSettings{
				Enabled: true,
				Path:    filepath.Join(t.TempDir(), "test.db"),
			},
		},
	}
	ds, err := datastore.New(settings, logging.NewDiscardLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })
	return ds
}

func TestLoadMessagesCSV(t *testing.T) {
	t.Parallel()

	path := writeRowsFile(t, "rows.csv",
		"channel_title,channel_username,message_id,message,message_date,media_path,emoji_used,youtube_links\n"+
			"News,@news,100,hello world,2024-03-01 12:30:00,photos/100.jpg,🔥,\n"+
			"News,@news,101,no media,,,,\n")

	messages, err := LoadMessages(path)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	first := messages[0]
	assert.Equal(t, "News", first.ChannelTitle)
	assert.Equal(t, "@news", first.ChannelUsername)
	assert.Equal(t, int64(100), first.MessageID)
	assert.Equal(t, "hello world", first.Message)
	require.NotNil(t, first.MessageDate)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), first.MessageDate.UTC())
	require.NotNil(t, first.MediaPath)
	assert.Equal(t, "photos/100.jpg", *first.MediaPath)
	assert.Nil(t, first.YoutubeLinks)

	second := messages[1]
	assert.Nil(t, second.MessageDate, "missing timestamp maps to nil")
	assert.Nil(t, second.MediaPath)
}

func TestLoadMessagesCSVColumnOrderIndependent(t *testing.T) {
	t.Parallel()

	path := writeRowsFile(t, "rows.csv",
		"message,message_id,channel_title\nswapped columns,7,News\n")

	messages, err := LoadMessages(path)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, int64(7), messages[0].MessageID)
	assert.Equal(t, "swapped columns", messages[0].Message)
}

func TestLoadMessagesCSVErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing message_id column", func(t *testing.T) {
		path := writeRowsFile(t, "rows.csv", "channel_title,message\nNews,hi\n")
		_, err := LoadMessages(path)
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
	})

	t.Run("non-numeric message_id", func(t *testing.T) {
		path := writeRowsFile(t, "rows.csv", "message_id,message\nabc,hi\n")
		_, err := LoadMessages(path)
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMessages(filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
	})
}

func TestLoadMessagesJSON(t *testing.T) {
	t.Parallel()

	path := writeRowsFile(t, "rows.json", `[
		{"channel_title": "News", "channel_username": "@news", "message_id": 200,
		 "message": "hello", "message_date": "2024-03-01T12:30:00Z",
		 "media_path": "photos/200.jpg"},
		{"channel_title": "News", "message_id": 201, "message_date": "not a date"}
	]`)

	messages, err := LoadMessages(path)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	require.NotNil(t, messages[0].MessageDate)
	assert.Equal(t, int64(200), messages[0].MessageID)
	assert.Nil(t, messages[1].MessageDate, "unparseable timestamp maps to nil")
}

func TestLoadMessagesUnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := writeRowsFile(t, "rows.xml", "<rows/>")
	_, err := LoadMessages(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestRunIsIdempotent(t *testing.T) {
	ds := newTestStore(t)

	path := writeRowsFile(t, "rows.csv",
		"message_id,message\n1,first\n2,second\n")

	count, err := Run(path, ds, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Re-ingesting the same file plus one new row adds only the new row.
	path2 := writeRowsFile(t, "rows2.csv",
		"message_id,message\n1,changed text\n3,third\n")
	count, err = Run(path2, ds, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stored, err := ds.ListMessages()
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "first", stored[0].Message, "existing row keeps its original text")
}
