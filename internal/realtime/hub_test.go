package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, streams ...string) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(streams, KnownStreams(), w, r)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readEvent skips frames until one with the given event arrives.
func readEvent(t *testing.T, conn *websocket.Conn, event string) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Event == event {
			return msg
		}
	}
}

func TestHubAcknowledgesInitialStreams(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "Tasks", "secrets", "tasks")

	ack := readEvent(t, conn, EventSubscriptions)
	require.Equal(t, []any{StreamTasks}, ack.Data)
	require.Equal(t, 1, hub.Clients())
}

func TestHubBroadcastsToStreamSubscribers(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, StreamTasks)
	readEvent(t, conn, EventSubscriptions)
	require.Zero(t, hub.Subscribers(StreamScope))

	for version := 1; version <= 2; version++ {
		require.NoError(t, hub.Publish(context.Background(), StreamTasks, Message{
			Event: EventGraphChanged,
			Data:  map[string]any{"version": version},
		}))
	}
	hub.BroadcastStream(StreamScope, Message{Event: EventScopeChanged})

	first := readEvent(t, conn, EventGraphChanged)
	second := readEvent(t, conn, EventGraphChanged)
	require.Equal(t, StreamTasks, first.Stream)
	require.Equal(t, first.Seq+1, second.Seq)
}

func TestHubControlFrames(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, StreamScope)
	readEvent(t, conn, EventSubscriptions)

	require.NoError(t, conn.WriteJSON(control{Action: "subscribe", Streams: []string{StreamTasks, "secrets"}}))
	ack := readEvent(t, conn, EventSubscriptions)
	require.Equal(t, []any{StreamScope, StreamTasks}, ack.Data)
	require.Zero(t, hub.Subscribers("secrets"))

	require.NoError(t, conn.WriteJSON(control{Action: "unsubscribe", Streams: []string{StreamTasks}}))
	ack = readEvent(t, conn, EventSubscriptions)
	require.Equal(t, []any{StreamScope}, ack.Data)
	require.Zero(t, hub.Subscribers(StreamTasks))

	require.NoError(t, conn.WriteJSON(control{Action: "ping"}))
	readEvent(t, conn, EventPong)
}

func TestHubUnregistersClosedClients(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, StreamScope)
	readEvent(t, conn, EventSubscriptions)
	require.Equal(t, 1, hub.Subscribers(StreamScope))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers(StreamScope) == 0 && hub.Clients() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, StreamTasks)
	readEvent(t, conn, EventSubscriptions)

	hub.Close()
	require.Zero(t, hub.Clients())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	rec := httptest.NewRecorder()
	hub.Serve(nil, nil, rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOriginPolicy(t *testing.T) {
	policy := newOriginPolicy([]string{"https://board.example.com"})
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "http://api.example.com/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	require.True(t, policy.check(request("")))
	require.True(t, policy.check(request("https://api.example.com")))
	require.True(t, policy.check(request("http://localhost:5173")))
	require.True(t, policy.check(request("https://board.example.com:8443")))
	require.False(t, policy.check(request("https://evil.example.net")))

	require.True(t, newOriginPolicy([]string{"*"}).check(request("https://evil.example.net")))
}

func TestNormalizeStreams(t *testing.T) {
	require.Equal(t, []string{"tasks", "scope"}, NormalizeStreams(" Tasks", "scope", "", "TASKS"))
	require.Equal(t, "localhost", hostWithoutPort("localhost:3000"))
	require.Equal(t, "example.com", hostWithoutPort("https://example.com:8443"))
}
