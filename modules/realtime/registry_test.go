package realtime

import (
	"sync"
	"testing"
)

type recordingTracker struct {
	mu      sync.Mutex
	online  []int64
	offline []int64
}

func (r *recordingTracker) Online(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.online = append(r.online, userID)
}

func (r *recordingTracker) Offline(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline = append(r.offline, userID)
}

func newTestConnection() *Connection {
	return NewConnection(&fakeTransport{}, nil)
}

func TestRegistry_RegisterAndConnectionsFor(t *testing.T) {
	r := NewRegistry(nil)
	a1, a2, b1 := newTestConnection(), newTestConnection(), newTestConnection()

	r.Register(1, a1)
	r.Register(1, a2)
	r.Register(2, b1)

	got := r.ConnectionsFor(1)
	if len(got) != 2 || got[0] != a1 || got[1] != a2 {
		t.Fatalf("ConnectionsFor(1) = %v, want [a1 a2]", got)
	}
	if got := r.ConnectionsFor(2); len(got) != 1 || got[0] != b1 {
		t.Fatalf("ConnectionsFor(2) = %v, want [b1]", got)
	}

	users, conns := r.Stats()
	if users != 2 || conns != 3 {
		t.Errorf("Stats() = (%d, %d), want (2, 3)", users, conns)
	}
}

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	c := newTestConnection()

	r.Register(1, c)
	r.Register(1, c)

	if got := len(r.ConnectionsFor(1)); got != 1 {
		t.Errorf("len(ConnectionsFor(1)) = %d, want 1", got)
	}
}

func TestRegistry_UnregisterRemovesEmptyEntry(t *testing.T) {
	r := NewRegistry(nil)
	a1, a2 := newTestConnection(), newTestConnection()
	r.Register(1, a1)
	r.Register(1, a2)

	r.Unregister(a1)
	if got := r.ConnectionsFor(1); len(got) != 1 || got[0] != a2 {
		t.Fatalf("ConnectionsFor(1) = %v, want [a2]", got)
	}

	r.Unregister(a2)
	got := r.ConnectionsFor(1)
	if got == nil || len(got) != 0 {
		t.Fatalf("ConnectionsFor(1) = %#v, want empty non-nil slice", got)
	}
	if users, conns := r.Stats(); users != 0 || conns != 0 {
		t.Errorf("Stats() = (%d, %d), want (0, 0)", users, conns)
	}
}

func TestRegistry_UnregisterTwiceAndUnknown(t *testing.T) {
	r := NewRegistry(nil)
	a, b := newTestConnection(), newTestConnection()
	r.Register(1, a)
	r.Register(2, b)

	r.Unregister(a)
	r.Unregister(a)
	r.Unregister(newTestConnection())

	if got := len(r.ConnectionsFor(1)); got != 0 {
		t.Errorf("len(ConnectionsFor(1)) = %d, want 0", got)
	}
	if got := r.ConnectionsFor(2); len(got) != 1 || got[0] != b {
		t.Errorf("ConnectionsFor(2) = %v, want [b]", got)
	}
}

func TestRegistry_SnapshotIsIndependent(t *testing.T) {
	r := NewRegistry(nil)
	a1, a2 := newTestConnection(), newTestConnection()
	r.Register(1, a1)
	r.Register(1, a2)

	snapshot := r.ConnectionsFor(1)
	r.Unregister(a1)

	if len(snapshot) != 2 || snapshot[0] != a1 || snapshot[1] != a2 {
		t.Errorf("snapshot changed after Unregister: %v", snapshot)
	}
}

func TestRegistry_SequenceMatchesModel(t *testing.T) {
	r := NewRegistry(nil)
	conns := make([]*Connection, 6)
	for i := range conns {
		conns[i] = newTestConnection()
	}

	model := map[int64]map[*Connection]bool{}
	register := func(user int64, c *Connection) {
		r.Register(user, c)
		for _, set := range model {
			if set[c] {
				return
			}
		}
		if model[user] == nil {
			model[user] = map[*Connection]bool{}
		}
		model[user][c] = true
	}
	unregister := func(c *Connection) {
		r.Unregister(c)
		for user, set := range model {
			delete(set, c)
			if len(set) == 0 {
				delete(model, user)
			}
		}
	}

	steps := []func(){
		func() { register(1, conns[0]) },
		func() { register(1, conns[1]) },
		func() { register(2, conns[2]) },
		func() { unregister(conns[0]) },
		func() { register(3, conns[3]) },
		func() { register(1, conns[1]) },
		func() { unregister(conns[5]) },
		func() { register(2, conns[4]) },
		func() { unregister(conns[2]) },
		func() { unregister(conns[1]) },
		func() { unregister(conns[1]) },
	}

	for i, step := range steps {
		step()
		for user := int64(1); user <= 3; user++ {
			got := r.ConnectionsFor(user)
			if len(got) != len(model[user]) {
				t.Fatalf("step %d: len(ConnectionsFor(%d)) = %d, want %d", i, user, len(got), len(model[user]))
			}
			for _, c := range got {
				if !model[user][c] {
					t.Fatalf("step %d: unexpected connection %s for user %d", i, c.ID(), user)
				}
			}
		}
	}
}

func TestRegistry_PresenceTracker(t *testing.T) {
	tracker := &recordingTracker{}
	r := NewRegistry(tracker)
	a1, a2 := newTestConnection(), newTestConnection()

	r.Register(7, a1)
	r.Register(7, a2)
	r.Unregister(a1)
	r.Unregister(a2)
	r.Unregister(a2)

	if len(tracker.online) != 1 || tracker.online[0] != 7 {
		t.Errorf("online = %v, want [7]", tracker.online)
	}
	if len(tracker.offline) != 1 || tracker.offline[0] != 7 {
		t.Errorf("offline = %v, want [7]", tracker.offline)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			c := newTestConnection()
			r.Register(user, c)
			_ = r.ConnectionsFor(user)
			r.Unregister(c)
		}(int64(i % 5))
	}
	wg.Wait()

	if users, conns := r.Stats(); users != 0 || conns != 0 {
		t.Errorf("Stats() = (%d, %d), want (0, 0)", users, conns)
	}
}
