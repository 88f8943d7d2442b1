package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/brainacademy/realtime/internal/auth"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
)

// State is a connection's lifecycle position. A connection on a
// required-auth channel whose token fails never reaches StateActive.
type State int32

const (
	StateConnecting State = iota
	StateAccepted
	StateAuthenticating
	StateActive
	StateClosing
	StateClosed
)

// Client represents a single WebSocket connection. Its channel is fixed for
// the connection's lifetime; it belongs to at most one group. claims is nil
// for anonymous connections.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	id          uuid.UUID
	channel     string
	groupID     string
	claims      *auth.Claims
	connectedAt time.Time

	state atomic.Int32

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, channel, groupID string, claims *auth.Claims) *Client {
	c := &Client{
		hub:         hub,
		conn:        conn,
		id:          uuid.New(),
		channel:     channel,
		groupID:     groupID,
		claims:      claims,
		connectedAt: time.Now(),
		send:        make(chan []byte, sendBufSize),
		done:        make(chan struct{}),
	}
	c.state.Store(int32(StateAccepted))
	return c
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// trySend queues data without blocking. false means the client is gone or
// its buffer is full; the hub treats that as a transport failure.
func (c *Client) trySend(data []byte) (ok bool) {
	// send may be closed concurrently by the hub dropping this client.
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if c.State() == StateClosed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// readPump reads events from the WebSocket and routes them to the Hub. An
// abrupt close is a normal exit path: it unregisters the connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("ws: connection %s disconnected", c.id)
			} else {
				log.Printf("ws: read error from %s: %v", c.id, err)
			}
			return
		}

		c.handleEvent(&event)
	}
}

// writePump writes queued deliveries to the WebSocket and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.Printf("ws: write error to %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				log.Printf("ws: ping error to %s: %v", c.id, err)
				return
			}

		case <-c.done:
			return
		}
	}
}

// handleEvent routes an incoming client event.
func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypeChatSend:
		var p ChatSendPayload
		if err := json.Unmarshal(event.Data, &p); err != nil || len(p.Payload) == 0 {
			c.sendError("INVALID_PAYLOAD", "invalid chat.send payload")
			return
		}
		c.hub.HandleChat(c, p.Payload)

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong, Timestamp: time.Now().Unix()})
	c.trySend(data)
}

func (c *Client) sendError(code, message string) {
	evt, err := NewEvent(EventTypeError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *Client) closeTransport() {
	if c.conn != nil {
		c.conn.Close(websocket.StatusNormalClosure, "server shutting down")
	}
}
