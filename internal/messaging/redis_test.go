package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/teamflow/internal/realtime"
)

func TestNewRedisPublisherRequiresAddress(t *testing.T) {
	_, err := NewRedisPublisher(RedisConfig{})
	require.Error(t, err)
}

func TestNewRedisPublisherFailsWhenUnreachable(t *testing.T) {
	_, err := NewRedisPublisher(RedisConfig{Address: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	require.Error(t, err)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	payload, err := encodeEnvelope(Envelope{
		Origin:  "instance-a",
		Stream:  realtime.StreamTasks,
		Message: realtime.Message{Event: realtime.EventGraphChanged, Data: map[string]any{"version": 2}},
	})
	require.NoError(t, err)

	decoded, err := decodeEnvelope(payload)
	require.NoError(t, err)
	require.Equal(t, "instance-a", decoded.Origin)
	require.Equal(t, realtime.StreamTasks, decoded.Stream)
	require.Equal(t, realtime.EventGraphChanged, decoded.Message.Event)
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	_, err := decodeEnvelope([]byte("not json"))
	require.Error(t, err)

	_, err = decodeEnvelope([]byte(`{"origin":"a"}`))
	require.Error(t, err)
}

func TestDecodeSkipsOwnMessages(t *testing.T) {
	p := &RedisPublisher{origin: "self"}

	own, err := encodeEnvelope(Envelope{Origin: "self", Stream: realtime.StreamScope})
	require.NoError(t, err)
	_, relay, err := p.decode(own)
	require.NoError(t, err)
	require.False(t, relay)

	foreign, err := encodeEnvelope(Envelope{Origin: "other", Stream: realtime.StreamScope})
	require.NoError(t, err)
	envelope, relay, err := p.decode(foreign)
	require.NoError(t, err)
	require.True(t, relay)
	require.Equal(t, realtime.StreamScope, envelope.Stream)
}
