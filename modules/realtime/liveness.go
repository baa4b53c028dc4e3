package realtime

import (
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
)

// DefaultHeartbeatInterval is the time between two liveness sweeps.
const DefaultHeartbeatInterval = 30 * time.Second

// Monitor pings tracked connections and terminates the ones that did not
// answer the previous ping.
type Monitor struct {
	interval    time.Duration
	logger      types.Logger
	onTerminate func(*Connection)

	mu    sync.Mutex
	conns map[*Connection]struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewMonitor creates a monitor. onTerminate runs after a dead connection is closed.
func NewMonitor(interval time.Duration, logger types.Logger, onTerminate func(*Connection)) *Monitor {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Monitor{
		interval:    interval,
		logger:      logger,
		onTerminate: onTerminate,
		conns:       make(map[*Connection]struct{}),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Track starts watching conn. The connection starts alive.
func (m *Monitor) Track(conn *Connection) {
	conn.MarkAlive()
	m.mu.Lock()
	m.conns[conn] = struct{}{}
	m.mu.Unlock()
}

// Untrack stops watching conn.
func (m *Monitor) Untrack(conn *Connection) {
	m.mu.Lock()
	delete(m.conns, conn)
	m.mu.Unlock()
}

// Count returns the number of tracked connections.
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conns)
}

// Connections returns a snapshot of the tracked connections.
func (m *Monitor) Connections() []*Connection {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Connection, 0, len(m.conns))
	for c := range m.conns {
		out = append(out, c)
	}
	return out
}

// Start runs the sweep loop in a goroutine.
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		go m.run()
	})
}

// Stop halts the sweep loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})

	started := true
	m.startOnce.Do(func() {
		started = false
		close(m.done)
	})
	if started {
		<-m.done
	}
}

func (m *Monitor) run() {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep terminates connections that missed the last ping and pings the rest.
func (m *Monitor) sweep() {
	for _, conn := range m.Connections() {
		if wasAlive := conn.alive.Swap(false); !wasAlive {
			m.terminate(conn)
			continue
		}
		if err := conn.Ping(); err != nil {
			m.logger.Debug("Ping failed", "connection", conn.ID(), "error", err)
		}
	}
}

func (m *Monitor) terminate(conn *Connection) {
	_ = conn.Close()
	m.Untrack(conn)
	if m.onTerminate != nil {
		m.onTerminate(conn)
	}
	m.logger.Info("Terminated unresponsive connection", "connection", conn.ID())
}
