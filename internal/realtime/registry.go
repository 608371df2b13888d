package realtime

import (
	"sort"
	"sync"
)

// Registry maps online users to their live connections.
//
// It is the only shared-write structure in the relay. All access goes through
// the mutex so register/deregister/lookup form a consistent sequence: no lost
// updates and no reads of a half-updated set.
//
// Invariants:
//   - A connection appears in at most one user's set at any time
//     (the gateway binds each connection to exactly one user).
//   - A user with an empty connection set is removed from the map, so
//     OnlineUsers is exactly "keys with non-empty sets".
type Registry struct {
	mu    sync.RWMutex
	users map[string]map[string]*Client // user id -> conn id -> client
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]map[string]*Client),
	}
}

// Register adds the connection to the user's set. It is idempotent for the
// same connection and reports whether the user transitioned offline -> online
// (their first live connection).
func (r *Registry) Register(client *Client) (cameOnline bool) {
	if r == nil || client == nil || client.UserID == "" || client.ConnID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.users[client.UserID]
	if set == nil {
		set = make(map[string]*Client, 1)
		r.users[client.UserID] = set
		cameOnline = true
	}
	set[client.ConnID] = client

	metricConnections.Set(float64(r.connectionCountLocked()))
	metricOnlineUsers.Set(float64(len(r.users)))
	return cameOnline
}

// Deregister removes the connection from the user's set. It is a no-op when
// the connection is already absent (double disconnects are expected) and
// reports whether the user transitioned online -> offline (last connection gone).
func (r *Registry) Deregister(userID, connID string) (wentOffline bool) {
	if r == nil || userID == "" || connID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.users[userID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(r.users, userID)
		wentOffline = true
	}

	metricConnections.Set(float64(r.connectionCountLocked()))
	metricOnlineUsers.Set(float64(len(r.users)))
	return wentOffline
}

// ConnectionsFor returns a snapshot of the user's live connections.
// The snapshot may go stale immediately; callers must tolerate delivery to a
// connection that has since disconnected.
func (r *Registry) ConnectionsFor(userID string) []*Client {
	if r == nil || userID == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.users[userID]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	return out
}

// AllConnections returns a snapshot of every live connection across all users.
func (r *Registry) AllConnections() []*Client {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Client
	for _, set := range r.users {
		for _, c := range set {
			out = append(out, c)
		}
	}
	return out
}

// OnlineUsers returns a sorted snapshot of users with at least one live
// connection. Order carries no meaning; sorting keeps a single snapshot
// stable for logs and tests.
func (r *Registry) OnlineUsers() []string {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.users))
	for id := range r.users {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) connectionCountLocked() int {
	n := 0
	for _, set := range r.users {
		n += len(set)
	}
	return n
}
