package sse

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/listenupapp/readlist/internal/id"
	"github.com/listenupapp/readlist/internal/readinglist"
)

const (
	queueSize         = 1000
	clientBufferSize  = 100
	heartbeatInterval = 30 * time.Second
)

// Client is one open stream. A user may have several (tabs, devices).
type Client struct {
	ID          string
	UserID      string
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}

	seq atomic.Uint64
}

// NextID returns the id for the next frame written to this client.
func (c *Client) NextID() uint64 {
	return c.seq.Add(1)
}

// Manager routes reading-list changes to the owner's open streams.
// Emit never blocks the list: a full queue or a slow client drops the event.
type Manager struct {
	logger    *slog.Logger
	queue     chan Event
	heartbeat time.Duration

	mu     sync.RWMutex
	byUser map[string]map[string]*Client

	closeMu sync.RWMutex
	closed  bool

	running sync.WaitGroup
}

// NewManager creates a manager. Call Start to begin delivery.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		logger:    logger,
		queue:     make(chan Event, queueSize),
		heartbeat: heartbeatInterval,
		byUser:    make(map[string]map[string]*Client),
	}
}

// Start delivers queued events until ctx is canceled or Shutdown closes the queue.
func (m *Manager) Start(ctx context.Context) {
	m.running.Add(1)
	defer m.running.Done()

	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-m.queue:
			if !ok {
				return
			}
			m.deliver(event)
		case <-ticker.C:
			m.deliver(NewHeartbeatEvent())
		case <-ctx.Done():
			m.disconnectAll()
			return
		}
	}
}

// Shutdown stops accepting events, flushes what is queued and closes every stream.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closeMu.Lock()
	if m.closed {
		m.closeMu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.closeMu.Unlock()

	flushed := make(chan struct{})
	go func() {
		defer close(flushed)
		for event := range m.queue {
			m.deliver(event)
		}
	}()

	select {
	case <-flushed:
	case <-ctx.Done():
		m.logger.Warn("change stream flush timed out")
	}

	m.running.Wait()
	m.disconnectAll()
	return nil
}

// deliver fans an event out to its user's clients, or to everyone when it has no user.
func (m *Manager) deliver(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if event.UserID != "" {
		m.sendAll(m.byUser[event.UserID], event)
		return
	}
	for _, clients := range m.byUser {
		m.sendAll(clients, event)
	}
}

func (m *Manager) sendAll(clients map[string]*Client, event Event) {
	for _, c := range clients {
		select {
		case c.EventChan <- event:
		default:
			m.logger.Warn("change dropped for slow client",
				"client_id", c.ID,
				"user_id", c.UserID,
				"event_type", string(event.Type))
		}
	}
}

// Connect opens a stream for userID.
func (m *Manager) Connect(userID string) (*Client, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}
	c := &Client{
		ID:          clientID,
		UserID:      userID,
		ConnectedAt: time.Now(),
		EventChan:   make(chan Event, clientBufferSize),
		Done:        make(chan struct{}),
	}

	m.mu.Lock()
	if m.byUser[userID] == nil {
		m.byUser[userID] = make(map[string]*Client)
	}
	m.byUser[userID][clientID] = c
	streams := len(m.byUser[userID])
	m.mu.Unlock()

	m.logger.Debug("change stream opened", "client_id", clientID, "user_id", userID, "user_streams", streams)
	return c, nil
}

// Disconnect closes a stream. Unknown or already closed clients are ignored.
func (m *Manager) Disconnect(c *Client) {
	m.mu.Lock()
	clients := m.byUser[c.UserID]
	if _, ok := clients[c.ID]; !ok {
		m.mu.Unlock()
		return
	}
	delete(clients, c.ID)
	if len(clients) == 0 {
		delete(m.byUser, c.UserID)
	}
	m.mu.Unlock()

	close(c.Done)
	close(c.EventChan)

	m.logger.Debug("change stream closed", "client_id", c.ID, "duration", time.Since(c.ConnectedAt))
}

// Emit queues an event. Events emitted after Shutdown are dropped.
func (m *Manager) Emit(event Event) {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.queue <- event:
	default:
		m.logger.Error("change queue full, dropping event", "event_type", string(event.Type))
	}
}

// EmitterFor returns a reading-list emitter that forwards userID's list
// changes to that user's streams.
func (m *Manager) EmitterFor(userID string) readinglist.Emitter {
	return readinglist.EmitterFunc(func(e readinglist.Event) {
		m.Emit(NewListEvent(userID, e))
	})
}

// ClientCount returns the number of open streams across all users.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, clients := range m.byUser {
		n += len(clients)
	}
	return n
}

func (m *Manager) disconnectAll() {
	m.mu.Lock()
	byUser := m.byUser
	m.byUser = make(map[string]map[string]*Client)
	m.mu.Unlock()

	for _, clients := range byUser {
		for _, c := range clients {
			close(c.Done)
			close(c.EventChan)
		}
	}
}
