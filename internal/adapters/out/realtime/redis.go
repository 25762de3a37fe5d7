package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the Redis pub/sub channel parcel events travel on.
const DefaultRedisChannel = "parceltrack:events"

// RedisBridge relays events between server instances through Redis pub/sub.
type RedisBridge struct {
	client  redis.UniversalClient
	channel string
	hub     *Hub
	logger  *slog.Logger
}

func NewRedisBridge(client redis.UniversalClient, channel string, hub *Hub, logger *slog.Logger) (*RedisBridge, error) {
	if client == nil {
		return nil, errs.NewValueIsRequiredError("client")
	}
	if hub == nil {
		return nil, errs.NewValueIsRequiredError("hub")
	}
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBridge{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger.With("component", "RedisBridge"),
	}, nil
}

func (b *RedisBridge) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", b.channel, err)
	}
	return nil
}

// Run subscribes to the channel and forwards messages to the hub until ctx is
// done.
func (b *RedisBridge) Run(ctx context.Context) error {
	return b.run(ctx, nil)
}

// run closes ready, when non-nil, once the subscription is confirmed.
func (b *RedisBridge) run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	if ready != nil {
		close(ready)
	}
	b.logger.Info("listening for parcel events", "channel", b.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("redis subscription closed")
			}
			var event events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("discarding malformed event", "error", err)
				continue
			}
			_ = b.hub.Publish(ctx, event)
		}
	}
}
