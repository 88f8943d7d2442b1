// Package ws is the realtime connection fan-out core: it tracks concurrent
// WebSocket connections grouped into channels and ad-hoc groups,
// authenticates opportunistically, broadcasts and unicasts messages, and
// keeps bounded chat history per group. All state is process-local; true
// cross-process fan-out belongs to an external relay.
package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brainacademy/realtime/internal/domain"
)

// Hub orchestrates connection lifecycle and message delivery. A single
// goroutine (Run) owns all registry mutation via the register, unregister
// and outbound channels, so per-channel broadcast order equals the order
// deliveries were queued on this process.
type Hub struct {
	registry *Registry
	history  *HistoryStore
	events   *eventTracker

	register   chan *Client
	unregister chan *Client
	outbound   chan *delivery

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// delivery addresses one queued fan-out: exactly one of channel, groupID or
// userID is set.
type delivery struct {
	data    []byte
	channel string
	groupID string
	userID  *uuid.UUID
}

func NewHub(historyCapacity int) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   NewRegistry(),
		history:    NewHistoryStore(historyCapacity),
		events:     newEventTracker(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan *delivery, 256),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.drainOutbound()
			h.closeAll()
			return

		case client := <-h.register:
			h.registry.Register(client)
			client.setState(StateActive)
			h.events.add(client)
			log.Printf("ws hub: connection %s joined channel %q (%d total)", client.id, client.channel, h.registry.TotalConnections())
			h.emitSystem(client, "joined")

		case client := <-h.unregister:
			h.drop(client, "disconnected")

		case d := <-h.outbound:
			h.deliver(d)
		}
	}
}

// Register hands the client to the event loop. Blocks until the loop takes
// it or the hub is shutting down.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
	}
}

// startPumps runs the client's read and write pumps, tracked for graceful
// drain on shutdown.
func (h *Hub) startPumps(c *Client) {
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		c.writePump()
	}()
	go func() {
		defer h.wg.Done()
		c.readPump()
	}()
}

// Unregister removes the client from all indices. Idempotent; safe to call
// from pump goroutines on abrupt close.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// BroadcastToChannel queues evt for every member of channel. Delivery is
// asynchronous: the call returns before all recipients are written to.
func (h *Hub) BroadcastToChannel(channel string, evt *Event) {
	h.queue(&delivery{data: marshalEvent(evt), channel: channel})
}

// BroadcastToGroup queues evt for every member of the group.
func (h *Hub) BroadcastToGroup(groupID string, evt *Event) {
	h.queue(&delivery{data: marshalEvent(evt), groupID: groupID})
}

// SendToUser queues evt for every live connection of the user (0, 1 or
// many). With zero connections the event is silently dropped: delivery is
// at-most-once, best-effort, no offline queue.
func (h *Hub) SendToUser(userID uuid.UUID, evt *Event) {
	id := userID
	h.queue(&delivery{data: marshalEvent(evt), userID: &id})
}

// HandleChat appends an inbound chat payload to the sender's group history
// and fans the stored message out to the group. Called from read pumps.
func (h *Hub) HandleChat(c *Client, payload json.RawMessage) {
	if c.groupID == "" {
		c.sendError("NO_GROUP", "this connection is not in a group")
		return
	}

	msg := domain.ChatMessage{Payload: payload}
	if c.claims != nil {
		id := c.claims.UserID
		msg.SenderID = &id
		msg.SenderName = c.claims.Name
	}
	msg = h.history.Append(c.groupID, msg)

	evt, err := NewEvent(EventTypeChat, ChatPayload{ChatMessage: msg})
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return
	}
	h.BroadcastToGroup(c.groupID, evt)
}

// --- read-only queries (safe for any caller) ---

// Stats summarizes live connections for the management API.
type Stats struct {
	TotalConnections int            `json:"total_connections"`
	Channels         map[string]int `json:"channels"`
	OnlineUsers      int            `json:"online_users"`
}

func (h *Hub) Stats() Stats {
	return Stats{
		TotalConnections: h.registry.TotalConnections(),
		Channels:         h.registry.CountByChannel(),
		OnlineUsers:      len(h.registry.OnlineUserIDs()),
	}
}

func (h *Hub) OnlineUserIDs() []uuid.UUID {
	return h.registry.OnlineUserIDs()
}

// GroupMemberIDs lists the group's members: user IDs for authenticated
// connections, connection IDs for anonymous ones.
func (h *Hub) GroupMemberIDs(groupID string) []string {
	members := h.registry.MembersOfGroup(groupID)
	ids := make([]string, 0, len(members))
	for _, c := range members {
		if c.claims != nil {
			ids = append(ids, c.claims.UserID.String())
		} else {
			ids = append(ids, c.id.String())
		}
	}
	return ids
}

func (h *Hub) History(groupID string, limit int) []domain.ChatMessage {
	return h.history.History(groupID, limit)
}

func (h *Hub) ClearHistory(groupID string) {
	h.history.Clear(groupID)
}

func (h *Hub) ActiveEvents() []string {
	return h.events.active()
}

// --- internals (event loop goroutine only, except queue) ---

func (h *Hub) queue(d *delivery) {
	if d.data == nil {
		return
	}
	select {
	case h.outbound <- d:
	case <-h.ctx.Done():
	}
}

// deliver fans one queued delivery out to its recipients. A recipient whose
// send buffer is full or whose transport failed is dropped; one bad peer
// never aborts delivery to the rest.
func (h *Hub) deliver(d *delivery) {
	var recipients []*Client
	switch {
	case d.userID != nil:
		recipients = h.registry.ConnectionsOfUser(*d.userID)
	case d.groupID != "":
		recipients = h.registry.MembersOfGroup(d.groupID)
	default:
		recipients = h.registry.MembersOfChannel(d.channel)
	}

	for _, c := range recipients {
		if !c.trySend(d.data) {
			h.drop(c, "send buffer full")
		}
	}
}

// drop unregisters the client and tears down its pumps. Idempotent.
func (h *Hub) drop(c *Client, reason string) {
	if !h.registry.Unregister(c) {
		return
	}
	c.setState(StateClosed)
	h.events.remove(c)
	close(c.send)
	close(c.done)
	log.Printf("ws hub: connection %s left channel %q: %s (%d total)", c.id, c.channel, reason, h.registry.TotalConnections())
	h.emitSystem(c, "left")
}

// emitSystem announces a group membership change to the remaining members.
func (h *Hub) emitSystem(c *Client, action string) {
	if c.groupID == "" {
		return
	}
	payload := SystemPayload{Action: action, GroupID: c.groupID}
	if c.claims != nil {
		id := c.claims.UserID
		payload.UserID = &id
	}
	evt, err := NewEvent(EventTypeSystem, payload)
	if err != nil {
		return
	}
	data := marshalEvent(evt)
	for _, member := range h.registry.MembersOfGroup(c.groupID) {
		if member == c {
			continue
		}
		member.trySend(data)
	}
}

// drainOutbound flushes deliveries queued before shutdown so the dispatch
// loop completes before teardown.
func (h *Hub) drainOutbound() {
	for {
		select {
		case d := <-h.outbound:
			h.deliver(d)
		default:
			return
		}
	}
}

func (h *Hub) closeAll() {
	clients := h.registry.AllConnections()
	for _, c := range clients {
		h.drop(c, "server shutting down")
		c.closeTransport()
	}
	log.Printf("ws hub: closed %d client connections", len(clients))
}

// Shutdown stops the event loop after draining queued deliveries, closes
// all client connections, and waits for pump goroutines to finish. Returns
// context.DeadlineExceeded if they do not finish within timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		log.Println("ws hub: shutdown complete")
		return nil
	case <-time.After(timeout):
		log.Println("ws hub: shutdown timeout reached, some pumps may still be running")
		return context.DeadlineExceeded
	}
}

func marshalEvent(evt *Event) []byte {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("ws hub: marshal error: %v", err)
		return nil
	}
	return data
}
