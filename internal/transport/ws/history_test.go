package ws

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/brainacademy/realtime/internal/domain"
)

func chatPayload(text string) domain.ChatMessage {
	return domain.ChatMessage{Payload: json.RawMessage(fmt.Sprintf(`{"text":%q}`, text))}
}

func TestHistoryStore_AppendAssignsMonotonicSeq(t *testing.T) {
	store := NewHistoryStore(10)

	first := store.Append("group_a", chatPayload("one"))
	second := store.Append("group_a", chatPayload("two"))
	other := store.Append("group_b", chatPayload("elsewhere"))

	if first.Seq != 1 || second.Seq != 2 {
		t.Errorf("seqs = %d, %d, want 1, 2", first.Seq, second.Seq)
	}
	if other.Seq != 1 {
		t.Errorf("other group seq = %d, want independent counter starting at 1", other.Seq)
	}
	if first.CreatedAt.IsZero() {
		t.Error("Append() did not stamp CreatedAt")
	}
	if first.GroupID != "group_a" {
		t.Errorf("GroupID = %q, want %q", first.GroupID, "group_a")
	}
}

func TestHistoryStore_CapacityBound(t *testing.T) {
	const capacity = 5
	const extra = 3
	store := NewHistoryStore(capacity)

	for i := 0; i < capacity+extra; i++ {
		store.Append("group_a", chatPayload(fmt.Sprintf("msg-%d", i)))
	}

	history := store.History("group_a", capacity)
	if len(history) != capacity {
		t.Fatalf("History() = %d messages, want %d", len(history), capacity)
	}

	// Oldest `extra` messages were evicted; window is oldest-first.
	if history[0].Seq != extra+1 {
		t.Errorf("first retained seq = %d, want %d", history[0].Seq, extra+1)
	}
	for i := 1; i < len(history); i++ {
		if history[i].Seq != history[i-1].Seq+1 {
			t.Errorf("history not in seq order at %d: %d then %d", i, history[i-1].Seq, history[i].Seq)
		}
	}
}

func TestHistoryStore_HistoryLimit(t *testing.T) {
	store := NewHistoryStore(10)
	for i := 0; i < 6; i++ {
		store.Append("group_a", chatPayload(fmt.Sprintf("msg-%d", i)))
	}

	tests := []struct {
		name      string
		limit     int
		wantCount int
		wantFirst uint64
	}{
		{name: "limit within buffer", limit: 3, wantCount: 3, wantFirst: 4},
		{name: "limit beyond buffer", limit: 50, wantCount: 6, wantFirst: 1},
		{name: "zero limit returns all", limit: 0, wantCount: 6, wantFirst: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.History("group_a", tt.limit)
			if len(got) != tt.wantCount {
				t.Fatalf("History() = %d messages, want %d", len(got), tt.wantCount)
			}
			if got[0].Seq != tt.wantFirst {
				t.Errorf("first seq = %d, want %d", got[0].Seq, tt.wantFirst)
			}
		})
	}
}

func TestHistoryStore_UnknownGroupIsEmpty(t *testing.T) {
	store := NewHistoryStore(10)

	if got := store.History("never-seen", 50); len(got) != 0 {
		t.Errorf("History(unknown) = %d messages, want 0", len(got))
	}
}

func TestHistoryStore_ClearIdempotent(t *testing.T) {
	store := NewHistoryStore(10)

	// Clearing a group with no history is a no-op, not an error.
	store.Clear("group_a")
	if got := store.History("group_a", 50); len(got) != 0 {
		t.Fatalf("History() after clear of empty group = %d, want 0", len(got))
	}

	store.Append("group_a", chatPayload("hello"))
	store.Clear("group_a")
	store.Clear("group_a")

	if got := store.History("group_a", 50); len(got) != 0 {
		t.Errorf("History() after double clear = %d, want 0", len(got))
	}

	// Sequence numbering continues after a clear.
	msg := store.Append("group_a", chatPayload("again"))
	if msg.Seq != 2 {
		t.Errorf("seq after clear = %d, want 2", msg.Seq)
	}
}

func TestHistoryStore_DefaultCapacity(t *testing.T) {
	store := NewHistoryStore(0)

	for i := 0; i < defaultHistoryCapacity+1; i++ {
		store.Append("group_a", chatPayload("x"))
	}
	if got := store.Len("group_a"); got != defaultHistoryCapacity {
		t.Errorf("Len() = %d, want default capacity %d", got, defaultHistoryCapacity)
	}
}
