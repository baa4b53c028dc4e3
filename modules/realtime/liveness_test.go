package realtime

import (
	"testing"
	"time"
)

func TestMonitor_SweepPingsThenTerminates(t *testing.T) {
	var terminated []*Connection
	m := NewMonitor(time.Hour, newMockLogger(), func(c *Connection) {
		terminated = append(terminated, c)
	})

	tr := &fakeTransport{}
	conn := NewConnection(tr, nil)
	m.Track(conn)

	m.sweep()
	if tr.pingCount() != 1 {
		t.Fatalf("pings after first sweep = %d, want 1", tr.pingCount())
	}
	if conn.IsAlive() {
		t.Error("connection should be marked not-alive after a sweep")
	}
	if len(terminated) != 0 {
		t.Fatal("connection terminated after a single sweep")
	}

	m.sweep()
	if len(terminated) != 1 || terminated[0] != conn {
		t.Fatalf("terminated = %v, want [conn]", terminated)
	}
	if !tr.isClosed() {
		t.Error("transport should be closed")
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestMonitor_PongKeepsConnectionAlive(t *testing.T) {
	terminated := 0
	m := NewMonitor(time.Hour, newMockLogger(), func(*Connection) { terminated++ })

	tr := &fakeTransport{}
	conn := NewConnection(tr, nil)
	m.Track(conn)

	for i := 0; i < 5; i++ {
		m.sweep()
		conn.MarkAlive()
	}

	if terminated != 0 {
		t.Errorf("terminated = %d, want 0", terminated)
	}
	if tr.pingCount() != 5 {
		t.Errorf("pings = %d, want 5", tr.pingCount())
	}
	if tr.isClosed() {
		t.Error("transport should stay open")
	}
}

func TestMonitor_TerminateUnregisters(t *testing.T) {
	r := NewRegistry(nil)
	m := NewMonitor(time.Hour, newMockLogger(), r.Unregister)

	dead := newTestConnection()
	live := newTestConnection()
	r.Register(1, dead)
	r.Register(1, live)
	m.Track(dead)
	m.Track(live)

	m.sweep()
	live.MarkAlive()
	m.sweep()

	got := r.ConnectionsFor(1)
	if len(got) != 1 || got[0] != live {
		t.Errorf("ConnectionsFor(1) = %v, want [live]", got)
	}
}

func TestMonitor_UntrackedIsIgnored(t *testing.T) {
	m := NewMonitor(time.Hour, newMockLogger(), nil)

	tr := &fakeTransport{}
	conn := NewConnection(tr, nil)
	m.Track(conn)
	m.Untrack(conn)

	m.sweep()
	m.sweep()

	if tr.pingCount() != 0 || tr.isClosed() {
		t.Error("untracked connection should not be touched")
	}
}

func TestMonitor_StartStop(t *testing.T) {
	m := NewMonitor(10*time.Millisecond, newMockLogger(), nil)
	tr := &fakeTransport{}
	conn := NewConnection(tr, nil)
	m.Track(conn)

	m.Start()
	deadline := time.Now().Add(2 * time.Second)
	for tr.pingCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()
	m.Stop()

	if tr.pingCount() == 0 {
		t.Error("monitor loop never pinged")
	}
}

func TestMonitor_StopWithoutStart(t *testing.T) {
	m := NewMonitor(0, newMockLogger(), nil)

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() blocked without Start()")
	}
	if m.interval != DefaultHeartbeatInterval {
		t.Errorf("interval = %v, want %v", m.interval, DefaultHeartbeatInterval)
	}
}
