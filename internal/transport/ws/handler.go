package ws

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/brainacademy/realtime/internal/auth"
)

// Channel names. A connection joins exactly one channel at handshake time.
const (
	ChannelGeneral       = "general"
	ChannelChat          = "chat"
	ChannelStudyGroup    = "study_group"
	ChannelNotifications = "notifications"
	ChannelAlumni        = "alumni"
	ChannelEvents        = "events"
)

// Group identifier prefixes per endpoint.
const (
	GroupPrefixChat  = "group_"
	GroupPrefixStudy = "study_"
)

// StatusAuthRequired is the close code sent when a required-auth channel
// rejects the supplied token. Clients can distinguish it from a normal
// closure.
const StatusAuthRequired websocket.StatusCode = 4001

// Handler upgrades HTTP requests to WebSocket connections and hands them to
// the hub. Auth is done via ?token=xxx query param (WebSocket can't send
// headers). Whether a failed token closes the connection or degrades it to
// anonymous depends on the endpoint's channel policy.
type Handler struct {
	hub            *Hub
	verifier       *auth.Verifier
	originPatterns []string
}

func NewHandler(hub *Hub, verifier *auth.Verifier, originPatterns []string) *Handler {
	return &Handler{
		hub:            hub,
		verifier:       verifier,
		originPatterns: originPatterns,
	}
}

// General serves /ws: optional auth, channel "general" or caller-supplied
// via ?channel=, no group.
func (h *Handler) General(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		channel = ChannelGeneral
	}
	h.serve(w, r, channel, "", false)
}

// Chat serves /ws/chat/{group_id}: optional auth, group chat room.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ChannelChat, GroupPrefixChat+chi.URLParam(r, "group_id"), false)
}

// StudyGroup serves /ws/study-group/{group_id}: auth required.
func (h *Handler) StudyGroup(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ChannelStudyGroup, GroupPrefixStudy+chi.URLParam(r, "group_id"), true)
}

// Notifications serves /ws/notifications: auth required, per-user delivery.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ChannelNotifications, "", true)
}

// Alumni serves /ws/alumni: optional auth.
func (h *Handler) Alumni(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ChannelAlumni, "", false)
}

// Events serves /ws/events/{event_id}: optional auth, live event room.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ChannelEvents, GroupPrefixEvent+chi.URLParam(r, "event_id"), false)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, channel, groupID string, requireAuth bool) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Printf("ws: accept error: %v", err)
		return
	}

	client := NewClient(h.hub, conn, channel, groupID, nil)

	tokenStr := r.URL.Query().Get("token")
	switch {
	case tokenStr != "":
		client.setState(StateAuthenticating)
		claims, err := h.verifier.Verify(tokenStr)
		if err == nil {
			client.claims = claims
			break
		}
		if requireAuth {
			h.reject(client, "authentication failed")
			return
		}
		log.Printf("ws: %s: token rejected, continuing anonymously", channel)

	case requireAuth:
		h.reject(client, "authentication required")
		return
	}

	h.hub.Register(client)
	h.hub.startPumps(client)
}

// reject closes the handshake-complete connection with the auth close code.
// The connection never reaches StateActive and is never registered.
func (h *Handler) reject(client *Client, reason string) {
	client.setState(StateClosing)
	client.conn.Close(StatusAuthRequired, reason)
	client.setState(StateClosed)
	log.Printf("ws: %s: closed %s: %s", client.channel, client.id, reason)
}
