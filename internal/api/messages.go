// messages.go: CRUD handlers for the message record store.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/karasolutions/mediascan-go/internal/datastore"
	"github.com/karasolutions/mediascan-go/internal/errors"
)

const messageListCacheKey = "messages:list"

// MessageRequest is the JSON body accepted by the create endpoint. Field
// names mirror the columns the scraper writes.
type MessageRequest struct {
	ChannelTitle    string     `json:"channel_title"`
	ChannelUsername string     `json:"channel_username"`
	MessageID       int64      `json:"message_id"`
	Message         string     `json:"message"`
	MessageDate     *time.Time `json:"message_date"`
	MediaPath       *string    `json:"media_path"`
	EmojiUsed       *string    `json:"emoji_used"`
	YoutubeLinks    *string    `json:"youtube_links"`
}

// MessageResponse is the JSON representation of a stored message.
type MessageResponse struct {
	ID              uint       `json:"id"`
	ChannelTitle    string     `json:"channel_title"`
	ChannelUsername string     `json:"channel_username"`
	MessageID       int64      `json:"message_id"`
	Message         string     `json:"message"`
	MessageDate     *time.Time `json:"message_date"`
	MediaPath       *string    `json:"media_path"`
	EmojiUsed       *string    `json:"emoji_used"`
	YoutubeLinks    *string    `json:"youtube_links"`
}

func toResponse(m *datastore.Message) *MessageResponse {
	return &MessageResponse{
		ID:              m.ID,
		ChannelTitle:    m.ChannelTitle,
		ChannelUsername: m.ChannelUsername,
		MessageID:       m.MessageID,
		Message:         m.Message,
		MessageDate:     m.MessageDate,
		MediaPath:       m.MediaPath,
		EmojiUsed:       m.EmojiUsed,
		YoutubeLinks:    m.YoutubeLinks,
	}
}

// CreateMessage handles POST /messages. A duplicate message_id conflicts
// instead of being silently deduplicated.
func (c *Controller) CreateMessage(ctx echo.Context) error {
	var req MessageRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}
	if req.MessageID == 0 {
		return c.HandleError(ctx, errors.NewStd("message_id is required"),
			"Invalid request body", http.StatusBadRequest)
	}

	message := &datastore.Message{
		ChannelTitle:    req.ChannelTitle,
		ChannelUsername: req.ChannelUsername,
		MessageID:       req.MessageID,
		Message:         req.Message,
		MessageDate:     req.MessageDate,
		MediaPath:       req.MediaPath,
		EmojiUsed:       req.EmojiUsed,
		YoutubeLinks:    req.YoutubeLinks,
	}

	if err := c.DS.CreateMessage(message); err != nil {
		if errors.Is(err, datastore.ErrMessageExists) {
			return c.HandleError(ctx, err,
				fmt.Sprintf("Message with message_id %d already exists", req.MessageID),
				http.StatusConflict)
		}
		return c.HandleError(ctx, err, "Failed to store message", http.StatusInternalServerError)
	}

	c.invalidateMessageCache(message.MessageID)
	return ctx.JSON(http.StatusOK, toResponse(message))
}

// GetMessage handles GET /messages/:message_id.
func (c *Controller) GetMessage(ctx echo.Context) error {
	messageID, err := parseMessageID(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid message_id", http.StatusBadRequest)
	}

	cacheKey := messageCacheKey(messageID)
	if cached, found := c.messageCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	message, err := c.DS.GetMessage(messageID)
	if err != nil {
		if errors.Is(err, datastore.ErrMessageNotFound) {
			return c.HandleError(ctx, err,
				fmt.Sprintf("Message with message_id %d not found", messageID),
				http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to read message", http.StatusInternalServerError)
	}

	resp := toResponse(message)
	c.messageCache.SetDefault(cacheKey, resp)
	return ctx.JSON(http.StatusOK, resp)
}

// ListMessages handles GET /messages. Records come back in creation order.
func (c *Controller) ListMessages(ctx echo.Context) error {
	if cached, found := c.messageCache.Get(messageListCacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	messages, err := c.DS.ListMessages()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to list messages", http.StatusInternalServerError)
	}

	resp := make([]*MessageResponse, 0, len(messages))
	for i := range messages {
		resp = append(resp, toResponse(&messages[i]))
	}

	c.messageCache.SetDefault(messageListCacheKey, resp)
	return ctx.JSON(http.StatusOK, resp)
}

// DeleteMessage handles DELETE /messages/:message_id and returns the
// deleted record.
func (c *Controller) DeleteMessage(ctx echo.Context) error {
	messageID, err := parseMessageID(ctx)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid message_id", http.StatusBadRequest)
	}

	message, err := c.DS.DeleteMessage(messageID)
	if err != nil {
		if errors.Is(err, datastore.ErrMessageNotFound) {
			return c.HandleError(ctx, err,
				fmt.Sprintf("Message with message_id %d not found", messageID),
				http.StatusNotFound)
		}
		return c.HandleError(ctx, err, "Failed to delete message", http.StatusInternalServerError)
	}

	c.invalidateMessageCache(messageID)
	return ctx.JSON(http.StatusOK, toResponse(message))
}

func parseMessageID(ctx echo.Context) (int64, error) {
	return strconv.ParseInt(ctx.Param("message_id"), 10, 64)
}

func messageCacheKey(messageID int64) string {
	return "message:" + strconv.FormatInt(messageID, 10)
}

// invalidateMessageCache drops the cached list and the cached record after
// a write.
func (c *Controller) invalidateMessageCache(messageID int64) {
	c.messageCache.Delete(messageListCacheKey)
	c.messageCache.Delete(messageCacheKey(messageID))
}
