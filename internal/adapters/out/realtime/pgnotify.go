package realtime

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/pkg/errs"

	"github.com/lib/pq"
)

// DefaultNotifyChannel is the PostgreSQL NOTIFY channel parcel events travel on.
const DefaultNotifyChannel = "parcel_events"

// PostgreSQL rejects NOTIFY payloads of 8000 bytes or more.
const maxNotifyPayload = 7999

// PgNotifyBridge relays events between server instances through PostgreSQL
// LISTEN/NOTIFY. Publish sends the event to the database; Run listens on the same
// channel and hands every notification, including this instance's own, to the
// local hub.
type PgNotifyBridge struct {
	db      *sql.DB
	dsn     string
	channel string
	hub     *Hub
	logger  *slog.Logger
}

func NewPgNotifyBridge(db *sql.DB, dsn string, channel string, hub *Hub, logger *slog.Logger) (*PgNotifyBridge, error) {
	if db == nil {
		return nil, errs.NewValueIsRequiredError("db")
	}
	if dsn == "" {
		return nil, errs.NewValueIsRequiredError("dsn")
	}
	if hub == nil {
		return nil, errs.NewValueIsRequiredError("hub")
	}
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PgNotifyBridge{
		db:      db,
		dsn:     dsn,
		channel: channel,
		hub:     hub,
		logger:  logger.With("component", "PgNotifyBridge"),
	}, nil
}

func (b *PgNotifyBridge) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if len(payload) > maxNotifyPayload {
		return fmt.Errorf("event payload of %d bytes exceeds the NOTIFY limit", len(payload))
	}

	if _, err := b.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", b.channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", b.channel, err)
	}
	return nil
}

// Run blocks until ctx is done, forwarding notifications to the hub. The
// listener reconnects on its own; events sent while it is disconnected are lost.
func (b *PgNotifyBridge) Run(ctx context.Context) error {
	listener := pq.NewListener(b.dsn, 100*time.Millisecond, 10*time.Second,
		func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventDisconnected:
				b.logger.Warn("notify listener disconnected", "error", err)
			case pq.ListenerEventReconnected:
				b.logger.Info("notify listener reconnected")
			case pq.ListenerEventConnectionAttemptFailed:
				b.logger.Warn("notify listener connection attempt failed", "error", err)
			}
		})
	defer listener.Close()

	if err := listener.Listen(b.channel); err != nil {
		return fmt.Errorf("listen %s: %w", b.channel, err)
	}
	b.logger.Info("listening for parcel events", "channel", b.channel)

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case n, ok := <-listener.Notify:
			if !ok {
				return errors.New("notify listener closed")
			}
			// nil after a reconnect
			if n == nil {
				continue
			}
			b.forward(ctx, []byte(n.Extra))
		case <-time.After(90 * time.Second):
			go func() {
				if err := listener.Ping(); err != nil {
					b.logger.Warn("notify listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (b *PgNotifyBridge) forward(ctx context.Context, payload []byte) {
	var event events.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logger.Warn("discarding malformed event", "error", err)
		return
	}
	_ = b.hub.Publish(ctx, event)
}
