package ws

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
)

// Notifier delivers per-user notifications over the hub. A user with no
// live connections receives nothing: at-most-once, best-effort, no offline
// queue.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

// NotifyUser sends notification to every live connection of the user.
func (n *Notifier) NotifyUser(userID uuid.UUID, notification json.RawMessage) error {
	evt, err := NewEvent(EventTypePersonal, NotificationPayload{
		UserID:       userID,
		Notification: notification,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return err
	}
	n.hub.SendToUser(userID, evt)
	return nil
}
