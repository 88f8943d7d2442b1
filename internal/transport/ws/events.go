package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/brainacademy/realtime/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeChatSend = "chat.send"
	EventTypePing     = "ping"
)

// Event types - Server → Client
const (
	EventTypeBroadcast = "broadcast"
	EventTypeChat      = "chat.message"
	EventTypePersonal  = "notification"
	EventTypeSystem    = "system"
	EventTypePong      = "pong"
	EventTypeError     = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type ChatSendPayload struct {
	Payload json.RawMessage `json:"payload"`
}

// --- Server → Client payloads ---

type ChatPayload struct {
	domain.ChatMessage
}

type NotificationPayload struct {
	UserID       uuid.UUID       `json:"user_id"`
	Notification json.RawMessage `json:"notification"`
}

// SystemPayload announces group membership changes ("joined" | "left").
type SystemPayload struct {
	Action  string     `json:"action"`
	GroupID string     `json:"group_id"`
	UserID  *uuid.UUID `json:"user_id,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Data:      raw,
		Timestamp: time.Now().Unix(),
	}, nil
}
