// Package ws streams snapshots and emergency alerts to browser clients.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/cabina/internal/domain/model"
	"github.com/okian/cabina/internal/domain/protocol"
	"github.com/okian/cabina/pkg/logger"
	"github.com/okian/cabina/pkg/metrics"
)

// Event names sent to clients.
const (
	EventConnected      = "connected"
	EventStateUpdate    = "state_update"
	EventEmergencyAlert = "emergency_alert"
)

const (
	defaultClientBuffer = 16
	writeTimeout        = 5 * time.Second
)

// Event is one message on the stream.
type Event struct {
	Event     string             `json:"event"`
	SessionID string             `json:"session_id,omitempty"`
	Snapshot  *model.Snapshot    `json:"snapshot,omitempty"`
	Protocol  *protocol.Protocol `json:"protocol,omitempty"`
	Incident  *model.Incident    `json:"incident,omitempty"`
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClientBuffer sets how many events a slow client may lag before
// events are dropped for it.
func WithClientBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.clientBuffer = n
		}
	}
}

type client struct {
	send chan Event
}

// Hub fans events out to every connected client.
type Hub struct {
	latest       func() model.Snapshot
	upgrader     websocket.Upgrader
	clientBuffer int
	logger       logger.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates a hub. latest supplies the snapshot sent on connect.
func NewHub(latest func() model.Snapshot, opts ...Option) *Hub {
	h := &Hub{
		latest: latest,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clientBuffer: defaultClientBuffer,
		logger:       logger.Nop(),
		clients:      make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run broadcasts every snapshot from ch until ctx ends or ch closes.
func (h *Hub) Run(ctx context.Context, ch <-chan model.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			h.Broadcast(stateEvent(snap))
		}
	}
}

// NotifyIncident broadcasts an emergency alert.
func (h *Hub) NotifyIncident(_ context.Context, inc model.Incident) { //nolint:gocritic // hugeParam: matches the worker incident hook
	h.Broadcast(Event{Event: EventEmergencyAlert, Incident: &inc})
}

// Broadcast queues ev for every client. Clients with a full buffer miss it.
func (h *Hub) Broadcast(ev Event) { //nolint:gocritic // hugeParam
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
		}
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error(ctx, "failed to upgrade the websocket", logger.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	sessionID := uuid.NewString()
	snap := h.latest()
	hello := stateEvent(snap)
	hello.Event = EventConnected
	hello.SessionID = sessionID
	if err := h.write(conn, hello); err != nil {
		return
	}

	c := &client{send: make(chan Event, h.clientBuffer)}
	h.register(c)
	defer h.unregister(c)
	h.logger.Info(ctx, "websocket client connected", logger.String("session_id", sessionID))

	// Reads only detect the close; clients send nothing we act on.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			h.logger.Info(ctx, "websocket client disconnected", logger.String("session_id", sessionID))
			return
		case ev := <-c.send:
			if err := h.write(conn, ev); err != nil {
				h.logger.Warn(ctx, "failed to write websocket event", logger.Error(err))
				return
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, ev Event) error { //nolint:gocritic // hugeParam
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(ev)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.AddWebSocketClients(1)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	metrics.AddWebSocketClients(-1)
}

func stateEvent(snap model.Snapshot) Event { //nolint:gocritic // hugeParam
	p := protocol.For(snap.Result.State)
	return Event{Event: EventStateUpdate, Snapshot: &snap, Protocol: &p}
}
