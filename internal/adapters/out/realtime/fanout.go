package realtime

import (
	"context"
	"errors"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/core/ports"
)

// Fanout hands an event to every sink in order. A failing sink does not stop
// the others; their errors are joined.
type Fanout []ports.EventPublisher

func (f Fanout) Publish(ctx context.Context, event events.Event) error {
	var err error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		err = errors.Join(err, sink.Publish(ctx, event))
	}
	return err
}
