package realtime

import "sync"

// Registry maps user IDs to their authenticated connections.
// A user is present iff at least one of their connections is registered.
type Registry struct {
	mu      sync.RWMutex
	users   map[int64][]*Connection
	owners  map[*Connection]int64
	tracker PresenceTracker
}

// NewRegistry creates an empty registry. tracker may be nil.
func NewRegistry(tracker PresenceTracker) *Registry {
	return &Registry{
		users:   make(map[int64][]*Connection),
		owners:  make(map[*Connection]int64),
		tracker: tracker,
	}
}

// Register adds conn to the set of userID. Registering the same connection again is a no-op.
func (r *Registry) Register(userID int64, conn *Connection) {
	r.mu.Lock()
	if _, ok := r.owners[conn]; ok {
		r.mu.Unlock()
		return
	}
	r.owners[conn] = userID
	r.users[userID] = append(r.users[userID], conn)
	first := len(r.users[userID]) == 1
	r.mu.Unlock()

	if first && r.tracker != nil {
		r.tracker.Online(userID)
	}
}

// Unregister removes conn from whichever set holds it.
// Unknown connections are ignored.
func (r *Registry) Unregister(conn *Connection) {
	r.mu.Lock()
	userID, ok := r.owners[conn]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.owners, conn)

	conns := r.users[userID]
	for i, c := range conns {
		if c == conn {
			conns = append(conns[:i:i], conns[i+1:]...)
			break
		}
	}

	last := len(conns) == 0
	if last {
		delete(r.users, userID)
	} else {
		r.users[userID] = conns
	}
	r.mu.Unlock()

	if last && r.tracker != nil {
		r.tracker.Offline(userID)
	}
}

// ConnectionsFor returns a snapshot of the connections of userID.
func (r *Registry) ConnectionsFor(userID int64) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.users[userID]
	out := make([]*Connection, len(conns))
	copy(out, conns)
	return out
}

// Stats returns the number of users and connections currently registered.
func (r *Registry) Stats() (users, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), len(r.owners)
}
