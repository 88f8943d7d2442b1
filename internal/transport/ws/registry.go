package ws

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the authoritative bookkeeping of who is connected where:
// every live client, indexed by channel, by group, and by user identity.
// Mutation goes through the Hub's event loop only; the read methods are safe
// for any caller (the management API queries them directly).
type Registry struct {
	mu sync.RWMutex

	// conns maps connection ID → client.
	conns    map[uuid.UUID]*Client
	channels map[string]map[*Client]struct{}
	groups   map[string]map[*Client]struct{}
	users    map[uuid.UUID]map[*Client]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[uuid.UUID]*Client),
		channels: make(map[string]map[*Client]struct{}),
		groups:   make(map[string]map[*Client]struct{}),
		users:    make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Register adds the client to its channel index and, if it carries a group,
// to that group's index. Multiple simultaneous connections per user are
// allowed (multiple browser tabs).
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[c.id] = c

	if r.channels[c.channel] == nil {
		r.channels[c.channel] = make(map[*Client]struct{})
	}
	r.channels[c.channel][c] = struct{}{}

	if c.groupID != "" {
		if r.groups[c.groupID] == nil {
			r.groups[c.groupID] = make(map[*Client]struct{})
		}
		r.groups[c.groupID][c] = struct{}{}
	}

	if c.claims != nil {
		if r.users[c.claims.UserID] == nil {
			r.users[c.claims.UserID] = make(map[*Client]struct{})
		}
		r.users[c.claims.UserID][c] = struct{}{}
	}
}

// Unregister removes the client from all indices. Idempotent: removing a
// client that is already gone is a no-op and returns false.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[c.id]; !ok {
		return false
	}
	delete(r.conns, c.id)

	if members, ok := r.channels[c.channel]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.channels, c.channel)
		}
	}

	if c.groupID != "" {
		if members, ok := r.groups[c.groupID]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(r.groups, c.groupID)
			}
		}
	}

	if c.claims != nil {
		if conns, ok := r.users[c.claims.UserID]; ok {
			delete(conns, c)
			if len(conns) == 0 {
				delete(r.users, c.claims.UserID)
			}
		}
	}

	return true
}

// AllConnections returns a snapshot of every live connection.
func (r *Registry) AllConnections() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// MembersOfChannel returns a snapshot of the channel's members. Unknown
// channels yield an empty slice, not an error.
func (r *Registry) MembersOfChannel(channel string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.channels[channel])
}

// MembersOfGroup returns a snapshot of the group's members.
func (r *Registry) MembersOfGroup(groupID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.groups[groupID])
}

// ConnectionsOfUser returns every live connection of a user identity.
func (r *Registry) ConnectionsOfUser(userID uuid.UUID) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.users[userID])
}

// OnlineUserIDs returns the distinct authenticated identities currently
// connected. Anonymous connections are excluded.
func (r *Registry) OnlineUserIDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids
}

// CountByChannel returns the live connection count per channel.
func (r *Registry) CountByChannel() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int, len(r.channels))
	for channel, members := range r.channels {
		counts[channel] = len(members)
	}
	return counts
}

// TotalConnections returns the number of live connections.
func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func snapshot(members map[*Client]struct{}) []*Client {
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}
