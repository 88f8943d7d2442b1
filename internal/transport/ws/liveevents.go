package ws

import (
	"log"
	"strings"
	"sync"
)

// GroupPrefixEvent prefixes the group identifier of live-event rooms.
const GroupPrefixEvent = "event_"

// eventTracker maintains the set of currently-active live event
// identifiers: an event becomes active on its first subscriber and inactive
// when its last subscriber leaves. The hub calls add/remove from its event
// loop.
type eventTracker struct {
	mu   sync.Mutex
	refs map[string]int
}

func newEventTracker() *eventTracker {
	return &eventTracker{refs: make(map[string]int)}
}

func (t *eventTracker) add(c *Client) {
	eventID, ok := eventIDOf(c)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refs[eventID]++
}

func (t *eventTracker) remove(c *Client) {
	eventID, ok := eventIDOf(c)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refs[eventID] <= 1 {
		delete(t.refs, eventID)
	} else {
		t.refs[eventID]--
	}
}

func (t *eventTracker) active() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.refs))
	for id := range t.refs {
		ids = append(ids, id)
	}
	return ids
}

func eventIDOf(c *Client) (string, bool) {
	if c.channel != ChannelEvents || !strings.HasPrefix(c.groupID, GroupPrefixEvent) {
		return "", false
	}
	return strings.TrimPrefix(c.groupID, GroupPrefixEvent), true
}

// LiveEventService fans messages out to a live event's room and reports
// which events currently have subscribers.
type LiveEventService struct {
	hub *Hub
}

func NewLiveEventService(hub *Hub) *LiveEventService {
	return &LiveEventService{hub: hub}
}

// BroadcastToEvent delivers payload to every connection in the event's room.
func (s *LiveEventService) BroadcastToEvent(eventID string, payload any) error {
	evt, err := NewEvent(EventTypeBroadcast, payload)
	if err != nil {
		log.Printf("ws live events: marshal error: %v", err)
		return err
	}
	s.hub.BroadcastToGroup(GroupPrefixEvent+eventID, evt)
	return nil
}

// ActiveEvents returns the identifiers of events with at least one
// subscriber on this process.
func (s *LiveEventService) ActiveEvents() []string {
	return s.hub.ActiveEvents()
}
