package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/datastore"
	"github.com/karasolutions/mediascan-go/internal/logging"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()

	settings := &conf.Settings{
		Output: conf.OutputSettings{
			SQLite: conf.SQLiteSettings{
				Enabled: true,
				Path:    filepath.Join(t.TempDir(), "test.db"),
			},
		},
		HTTP: conf.HTTPSettings{Port: "8080"},
	}

	ds, err := datastore.New(settings, logging.NewDiscardLogger(), nil)
	require.NoError(t, err)
	require.NoError(t, ds.Open())
	t.Cleanup(func() { _ = ds.Close() })

	return New(settings, ds, logging.NewDiscardLogger(), nil)
}

func doRequest(t *testing.T, c *Controller, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func createMessage(t *testing.T, c *Controller, messageID int64, text string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"channel_title": "News", "channel_username": "@news", "message_id": %d, "message": %q}`,
		messageID, text)
	return doRequest(t, c, http.MethodPost, "/messages", body)
}

func TestHealthCheck(t *testing.T) {
	c := newTestController(t)

	rec := doRequest(t, c, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestCreateMessage(t *testing.T) {
	c := newTestController(t)

	rec := createMessage(t, c, 100, "hello")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotZero(t, resp.ID)
	assert.Equal(t, int64(100), resp.MessageID)
	assert.Equal(t, "hello", resp.Message)
	assert.Nil(t, resp.MessageDate)
}

func TestCreateMessageConflict(t *testing.T) {
	c := newTestController(t)

	rec := createMessage(t, c, 100, "first")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = createMessage(t, c, 100, "second")
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.CorrelationID)

	// The original record is untouched.
	rec = doRequest(t, c, http.MethodGet, "/messages/100", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "first")
}

func TestCreateMessageBadRequest(t *testing.T) {
	c := newTestController(t)

	t.Run("malformed json", func(t *testing.T) {
		rec := doRequest(t, c, http.MethodPost, "/messages", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing message_id", func(t *testing.T) {
		rec := doRequest(t, c, http.MethodPost, "/messages", `{"message": "no id"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetMessage(t *testing.T) {
	c := newTestController(t)
	createMessage(t, c, 100, "hello")

	rec := doRequest(t, c, http.MethodGet, "/messages/100", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(100), resp.MessageID)
}

func TestGetMessageNotFound(t *testing.T) {
	c := newTestController(t)

	rec := doRequest(t, c, http.MethodGet, "/messages/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMessageInvalidID(t *testing.T) {
	c := newTestController(t)

	rec := doRequest(t, c, http.MethodGet, "/messages/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMessagesCreationOrder(t *testing.T) {
	c := newTestController(t)
	createMessage(t, c, 300, "third channel post")
	createMessage(t, c, 100, "first channel post")
	createMessage(t, c, 200, "second channel post")

	rec := doRequest(t, c, http.MethodGet, "/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 3)
	assert.Equal(t, int64(300), resp[0].MessageID)
	assert.Equal(t, int64(100), resp[1].MessageID)
	assert.Equal(t, int64(200), resp[2].MessageID)
}

func TestDeleteMessage(t *testing.T) {
	c := newTestController(t)
	createMessage(t, c, 100, "to be deleted")

	rec := doRequest(t, c, http.MethodDelete, "/messages/100", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(100), resp.MessageID)
	assert.Equal(t, "to be deleted", resp.Message)

	rec = doRequest(t, c, http.MethodDelete, "/messages/100", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteInvalidatesCache(t *testing.T) {
	c := newTestController(t)
	createMessage(t, c, 100, "hello")

	// Prime the caches.
	require.Equal(t, http.StatusOK, doRequest(t, c, http.MethodGet, "/messages", "").Code)
	require.Equal(t, http.StatusOK, doRequest(t, c, http.MethodGet, "/messages/100", "").Code)

	// A new message must appear in the list right away.
	createMessage(t, c, 200, "fresh")
	rec := doRequest(t, c, http.MethodGet, "/messages", "")
	var list []MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	// A deleted message must stop resolving right away.
	doRequest(t, c, http.MethodDelete, "/messages/100", "")
	rec = doRequest(t, c, http.MethodGet, "/messages/100", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
