package realtime

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/charlesng35/teamflow/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxControlSize = 4 << 10
	sendBuffer     = 64
)

// control is a client->server frame: {"action":"subscribe","streams":["tasks"]}.
type control struct {
	Action  string   `json:"action"`
	Streams []string `json:"streams"`
}

// client is one websocket connection. streams is guarded by hub.mu.
type client struct {
	hub     *Hub
	conn    *websocket.Conn
	id      string
	allowed map[string]struct{}
	streams map[string]struct{}
	send    chan Message
	done    chan struct{}
	once    sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, id string, allowed map[string]struct{}) *client {
	return &client{
		hub:     hub,
		conn:    conn,
		id:      id,
		allowed: allowed,
		streams: make(map[string]struct{}),
		send:    make(chan Message, sendBuffer),
		done:    make(chan struct{}),
	}
}

// permits reports whether the client may join stream. An empty allow list
// admits any stream.
func (c *client) permits(stream string) bool {
	if len(c.allowed) == 0 {
		return true
	}
	_, ok := c.allowed[stream]
	return ok
}

// deliver queues msg without blocking. A client whose buffer is full is
// disconnected rather than stalling the broadcaster.
func (c *client) deliver(msg Message) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		metrics.RealtimeDropped.Inc()
		c.hub.log.Warn("disconnecting slow client", zap.String("client", c.id), zap.String("stream", msg.Stream))
		go c.close()
	}
}

func (c *client) acknowledge() {
	c.deliver(Message{Event: EventSubscriptions, Data: c.hub.streamsOf(c)})
}

func (c *client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxControlSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("client closed unexpectedly", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
		if len(payload) > 0 {
			c.handle(payload)
		}
	}
}

func (c *client) handle(payload []byte) {
	var frame control
	if err := json.Unmarshal(payload, &frame); err != nil {
		c.hub.log.Debug("ignoring malformed control frame", zap.String("client", c.id), zap.Error(err))
		return
	}

	switch strings.ToLower(strings.TrimSpace(frame.Action)) {
	case "subscribe":
		c.hub.subscribe(c, frame.Streams)
		c.acknowledge()
	case "unsubscribe":
		c.hub.unsubscribe(c, frame.Streams)
		c.acknowledge()
	case "ping":
		c.deliver(Message{Event: EventPong})
	default:
		c.hub.log.Debug("unsupported control action", zap.String("client", c.id), zap.String("action", frame.Action))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close detaches the client and stops writePump, which owns the socket and
// releases it after sending the close frame.
func (c *client) close() {
	c.once.Do(func() {
		c.hub.detach(c)
		close(c.done)
	})
}
