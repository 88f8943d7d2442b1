package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one entry in a group's replay buffer. Immutable once
// appended; Seq is monotonic within its group.
type ChatMessage struct {
	Seq        uint64          `json:"seq"`
	GroupID    string          `json:"group_id"`
	SenderID   *uuid.UUID      `json:"sender_id,omitempty"`
	SenderName string          `json:"sender_name,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}
