// Package realtime pushes scope and succession-graph events to websocket
// clients. Clients join named streams; every message published on a stream
// reaches all of its current subscribers in publish order.
package realtime

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/teamflow/pkg/logger"
	"github.com/charlesng35/teamflow/pkg/metrics"
)

// Message is the JSON frame delivered to subscribers. Seq increases by one
// for every message this hub broadcasts, so a client can spot gaps after a
// reconnect.
type Message struct {
	Stream string         `json:"stream,omitempty"`
	Event  string         `json:"event"`
	Seq    uint64         `json:"seq,omitempty"`
	Data   any            `json:"data,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// Hub tracks connected clients and their stream subscriptions.
type Hub struct {
	mu      sync.RWMutex
	topics  map[string]map[*client]struct{}
	clients map[*client]struct{}
	closed  bool

	seq      atomic.Uint64
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithAllowedOrigins admits browser origins beyond same-host and loopback.
// "*" admits any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = newOriginPolicy(origins).check
	}
}

// NewHub constructs an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		topics:  make(map[string]map[*client]struct{}),
		clients: make(map[*client]struct{}),
		log:     logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     newOriginPolicy(nil).check,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve upgrades the request and subscribes the client to streams. allowed
// restricts what the client may join later; nil admits any stream. Serve
// blocks until the client disconnects.
func (h *Hub) Serve(streams []string, allowed map[string]struct{}, w http.ResponseWriter, r *http.Request) {
	if h.isClosed() {
		http.Error(w, "realtime hub is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(h, conn, uuid.NewString(), allowed)
	go c.writePump()
	if !h.attach(c) {
		c.close()
		return
	}

	h.subscribe(c, streams)
	c.acknowledge()
	h.log.Debug("client connected", zap.String("client", c.id), zap.Strings("streams", h.streamsOf(c)))
	c.readPump()
}

// BroadcastStream delivers message to every subscriber of stream.
func (h *Hub) BroadcastStream(stream string, message Message) {
	stream = NormalizeStream(stream)
	if stream == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers := h.topics[stream]
	if len(subscribers) == 0 {
		return
	}
	message.Stream = stream
	message.Seq = h.seq.Add(1)
	for c := range subscribers {
		c.deliver(message)
	}
}

// Publish makes the hub a services event publisher. It never fails.
func (h *Hub) Publish(_ context.Context, stream string, message Message) error {
	h.BroadcastStream(stream, message)
	return nil
}

// Subscribers reports how many clients listen on stream.
func (h *Hub) Subscribers(stream string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[NormalizeStream(stream)])
}

// Clients reports how many sockets are connected.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	connected := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		connected = append(connected, c)
	}
	h.mu.Unlock()

	for _, c := range connected {
		c.close()
	}
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

func (h *Hub) attach(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.RealtimeClients.Inc()
	return true
}

func (h *Hub) detach(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		metrics.RealtimeClients.Dec()
	}
	for stream := range c.streams {
		h.leaveLocked(c, stream)
	}
}

func (h *Hub) subscribe(c *client, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, connected := h.clients[c]; !connected {
		return
	}
	for _, stream := range NormalizeStreams(streams...) {
		if !c.permits(stream) {
			h.log.Debug("refusing stream", zap.String("client", c.id), zap.String("stream", stream))
			continue
		}
		if h.topics[stream] == nil {
			h.topics[stream] = make(map[*client]struct{})
		}
		h.topics[stream][c] = struct{}{}
		c.streams[stream] = struct{}{}
	}
}

func (h *Hub) unsubscribe(c *client, streams []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, stream := range NormalizeStreams(streams...) {
		h.leaveLocked(c, stream)
	}
}

func (h *Hub) leaveLocked(c *client, stream string) {
	delete(c.streams, stream)
	if subscribers, ok := h.topics[stream]; ok {
		delete(subscribers, c)
		if len(subscribers) == 0 {
			delete(h.topics, stream)
		}
	}
}

// streamsOf lists c's subscriptions in sorted order.
func (h *Hub) streamsOf(c *client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	streams := make([]string, 0, len(c.streams))
	for stream := range c.streams {
		streams = append(streams, stream)
	}
	sort.Strings(streams)
	return streams
}
