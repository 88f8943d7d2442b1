package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brainacademy/realtime/internal/domain"
	"github.com/brainacademy/realtime/internal/transport/ws"
	"github.com/brainacademy/realtime/pkg/validator"
)

const defaultHistoryLimit = 50

// RealtimeHandler exposes the query/management surface over the connection
// fan-out core. All lookups are total functions over identifiers: unknown
// channels and groups yield empty results, not errors.
type RealtimeHandler struct {
	hub        *ws.Hub
	notifier   *ws.Notifier
	liveEvents *ws.LiveEventService
}

func NewRealtimeHandler(hub *ws.Hub, notifier *ws.Notifier, liveEvents *ws.LiveEventService) *RealtimeHandler {
	return &RealtimeHandler{
		hub:        hub,
		notifier:   notifier,
		liveEvents: liveEvents,
	}
}

func (h *RealtimeHandler) ConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := h.hub.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"total_connections": stats.TotalConnections,
		"channels":          stats.Channels,
		"online_users":      stats.OnlineUsers,
	})
}

func (h *RealtimeHandler) OnlineUsers(w http.ResponseWriter, r *http.Request) {
	ids := h.hub.OnlineUserIDs()
	users := make([]string, 0, len(ids))
	for _, id := range ids {
		users = append(users, id.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"online_users": users,
	})
}

func (h *RealtimeHandler) GroupMembers(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")
	members := h.hub.GroupMemberIDs(groupID)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "success",
		"group_id":     groupID,
		"members":      members,
		"member_count": len(members),
	})
}

func (h *RealtimeHandler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "Limit must be a positive integer")
			return
		}
		limit = parsed
	}

	history := h.hub.History(groupID, limit)
	if history == nil {
		history = []domain.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"group_id":      groupID,
		"history":       history,
		"message_count": len(history),
	})
}

func (h *RealtimeHandler) ClearChatHistory(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")
	h.hub.ClearHistory(groupID)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "chat history cleared for " + groupID,
	})
}

type broadcastInput struct {
	Channel string          `json:"channel"`
	Message json.RawMessage `json:"message"`
}

// Broadcast queues a message for every member of a channel. The request
// returns before delivery to all recipients completes.
func (h *RealtimeHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	var input broadcastInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateBroadcast(input.Channel, input.Message); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	evt, err := ws.NewEvent(ws.EventTypeBroadcast, input.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}
	h.hub.BroadcastToChannel(input.Channel, evt)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"channel": input.Channel,
	})
}

type notifyInput struct {
	Notification json.RawMessage `json:"notification"`
}

// Notify queues a notification for every live connection of a user. A user
// with no connections receives nothing.
func (h *RealtimeHandler) Notify(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	var input notifyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateNotification(input.Notification); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	if err := h.notifier.NotifyUser(userID, input.Notification); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"user_id": userID.String(),
	})
}

func (h *RealtimeHandler) ActiveEvents(w http.ResponseWriter, r *http.Request) {
	events := h.liveEvents.ActiveEvents()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"active_events": events,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}
