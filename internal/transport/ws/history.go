package ws

import (
	"sync"
	"time"

	"github.com/brainacademy/realtime/internal/domain"
)

// defaultHistoryCapacity is the per-group replay buffer bound.
const defaultHistoryCapacity = 100

// HistoryStore is the bounded, append-only replay buffer per group.
// History is process-local and lost on restart; durable chat storage is an
// external concern.
type HistoryStore struct {
	mu       sync.RWMutex
	capacity int
	seqs     map[string]uint64
	messages map[string][]domain.ChatMessage
}

func NewHistoryStore(capacity int) *HistoryStore {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}
	return &HistoryStore{
		capacity: capacity,
		seqs:     make(map[string]uint64),
		messages: make(map[string][]domain.ChatMessage),
	}
}

// Append stamps msg with the group's next sequence number and the current
// time, appends it, and evicts oldest-first past capacity. Returns the
// stored message.
func (s *HistoryStore) Append(groupID string, msg domain.ChatMessage) domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seqs[groupID]++
	msg.Seq = s.seqs[groupID]
	msg.GroupID = groupID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	buf := append(s.messages[groupID], msg)
	if len(buf) > s.capacity {
		buf = buf[len(buf)-s.capacity:]
	}
	s.messages[groupID] = buf

	return msg
}

// History returns up to limit most recent messages, oldest-first. Unknown
// groups yield an empty slice, not an error. limit <= 0 means the whole
// buffer.
func (s *HistoryStore) History(groupID string, limit int) []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf := s.messages[groupID]
	if limit <= 0 || limit > len(buf) {
		limit = len(buf)
	}

	window := buf[len(buf)-limit:]
	out := make([]domain.ChatMessage, len(window))
	copy(out, window)
	return out
}

// Clear drops all messages for the group. Idempotent; sequence numbering
// continues from where it left off.
func (s *HistoryStore) Clear(groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, groupID)
}

// Len returns the number of retained messages for the group.
func (s *HistoryStore) Len(groupID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[groupID])
}
