// Package realtime fans committed parcel events out to connected clients.
//
// The Hub keeps an in-process registry of subscriptions keyed by channel name.
// Delivery is best effort and at most once: each subscription owns a bounded
// buffer, and an event that does not fit is dropped for that subscriber only.
// Nothing is persisted or replayed; a client sees the events published while it
// is connected.
//
// Bridges (PostgreSQL LISTEN/NOTIFY, Redis pub/sub) relay events between the
// hubs of several server instances.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"parceltrack/internal/core/domain/events"
)

// DefaultBuffer is the per-subscription queue length used when none is configured.
const DefaultBuffer = 16

// Subscription receives the events published on its channels.
type Subscription struct {
	id       uint64
	channels []string
	events   chan events.Event
	dropped  atomic.Int64
	once     sync.Once
}

// Events is closed when the subscription is cancelled.
func (s *Subscription) Events() <-chan events.Event {
	return s.events
}

// Channels returns the channel names the subscription listens on.
func (s *Subscription) Channels() []string {
	return append([]string(nil), s.channels...)
}

// Dropped counts events discarded because the buffer was full.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Hub is safe for concurrent use.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[uint64]*Subscription
	nextID   uint64
	buffer   int
	logger   *slog.Logger
}

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		channels: make(map[string]map[uint64]*Subscription),
		buffer:   buffer,
		logger:   logger.With("component", "RealtimeHub"),
	}
}

// Subscribe registers a subscription on channels. The returned function removes
// it and closes its event stream; calling it more than once is harmless.
func (h *Hub) Subscribe(channels ...string) (*Subscription, func()) {
	h.mu.Lock()
	h.nextID++
	sub := &Subscription{
		id:       h.nextID,
		channels: dedupe(channels),
		events:   make(chan events.Event, h.buffer),
	}
	for _, ch := range sub.channels {
		subs, ok := h.channels[ch]
		if !ok {
			subs = make(map[uint64]*Subscription)
			h.channels[ch] = subs
		}
		subs[sub.id] = sub
	}
	h.mu.Unlock()

	return sub, func() { h.unsubscribe(sub) }
}

func (h *Hub) unsubscribe(sub *Subscription) {
	sub.once.Do(func() {
		h.mu.Lock()
		for _, ch := range sub.channels {
			subs := h.channels[ch]
			delete(subs, sub.id)
			if len(subs) == 0 {
				delete(h.channels, ch)
			}
		}
		// Publishers hold the read lock while sending, so closing under the write
		// lock never races with a send.
		close(sub.events)
		h.mu.Unlock()
	})
}

// Publish delivers event to every current subscriber of any of its channels.
// A subscriber listening on several of those channels receives it once.
// Publish never blocks on a slow subscriber and always returns nil.
func (h *Hub) Publish(_ context.Context, event events.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := make(map[uint64]struct{})
	for _, ch := range event.Channels {
		for id, sub := range h.channels[ch] {
			if _, done := delivered[id]; done {
				continue
			}
			delivered[id] = struct{}{}

			select {
			case sub.events <- event:
			default:
				sub.dropped.Add(1)
				h.logger.Debug("dropped event for slow subscriber",
					"type", event.Type,
					"parcel_id", event.ParcelID,
					"channel", ch)
			}
		}
	}
	return nil
}

// SubscriberCount reports how many subscriptions listen on channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func dedupe(channels []string) []string {
	seen := make(map[string]struct{}, len(channels))
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		if ch == "" {
			continue
		}
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	return out
}
