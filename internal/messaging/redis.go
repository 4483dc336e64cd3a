// Package messaging fans realtime events out across server instances through
// redis pub/sub.
package messaging

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/charlesng35/teamflow/internal/realtime"
	"github.com/charlesng35/teamflow/pkg/logger"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "teamflow:events"

const defaultTimeout = 5 * time.Second

// RedisConfig captures the redis connection parameters.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration
	Channel  string
}

// Envelope is the wire form of a realtime message on the redis channel.
type Envelope struct {
	Origin  string           `json:"origin"`
	Stream  string           `json:"stream"`
	Message realtime.Message `json:"message"`
	At      time.Time        `json:"at"`
}

// Broadcaster receives messages relayed from other instances.
type Broadcaster interface {
	BroadcastStream(stream string, message realtime.Message)
}

// RedisPublisher publishes realtime messages to a redis channel and relays
// messages published by other instances into a local broadcaster.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	origin  string
	timeout time.Duration
	log     *zap.Logger
}

// NewRedisPublisher connects to redis and verifies the connection.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	address := strings.TrimSpace(cfg.Address)
	if address == "" {
		return nil, errors.New("messaging: redis address is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}

	opts := &redis.Options{
		Addr:         address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("messaging: connect redis: %w", err)
	}

	return &RedisPublisher{
		client:  client,
		channel: channel,
		origin:  uuid.NewString(),
		timeout: timeout,
		log:     logger.WithModule("messaging"),
	}, nil
}

// Channel returns the pub/sub channel name.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Publish sends message to the channel tagged with this instance's origin.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, message realtime.Message) error {
	payload, err := encodeEnvelope(Envelope{
		Origin:  p.origin,
		Stream:  stream,
		Message: message,
		At:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("messaging: publish: %w", err)
	}
	return nil
}

// Relay subscribes to the channel and forwards messages from other instances
// to target until ctx is done.
func (p *RedisPublisher) Relay(ctx context.Context, target Broadcaster) error {
	pubsub := p.client.Subscribe(ctx, p.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("messaging: subscribe %s: %w", p.channel, err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			envelope, relay, err := p.decode([]byte(msg.Payload))
			if err != nil {
				p.log.Warn("dropping malformed event", zap.Error(err))
				continue
			}
			if relay {
				target.BroadcastStream(envelope.Stream, envelope.Message)
			}
		}
	}
}

// Ping reports whether redis is reachable.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the redis connection pool.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// decode parses a payload and reports whether it came from another instance.
func (p *RedisPublisher) decode(payload []byte) (Envelope, bool, error) {
	envelope, err := decodeEnvelope(payload)
	if err != nil {
		return Envelope{}, false, err
	}
	return envelope, envelope.Origin != p.origin, nil
}

func encodeEnvelope(envelope Envelope) ([]byte, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("messaging: encode event: %w", err)
	}
	return payload, nil
}

func decodeEnvelope(payload []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("messaging: decode event: %w", err)
	}
	if strings.TrimSpace(envelope.Stream) == "" {
		return Envelope{}, errors.New("messaging: event has no stream")
	}
	return envelope, nil
}
