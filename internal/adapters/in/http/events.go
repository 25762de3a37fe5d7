package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"parceltrack/internal/adapters/in/http/api"
	"parceltrack/internal/core/application/usecases/queries"
	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// StreamEvents handles GET /api/v1/events as a server-sent event stream.
//
// Every caller receives its own user channel, admins also receive the admin channel.
// Each parcelId asks for that parcel's channel and must pass the same view check as
// GetParcel. An agent watching a parcel is checked again when the parcel is
// reassigned and stops receiving its channel once access is lost. Delivery is at
// most once: events published while the client is disconnected are not replayed.
func (s *Server) StreamEvents(ctx echo.Context, params api.StreamEventsParams) error {
	if s.hub == nil {
		return errs.NewDependencyFailureError("realtime hub", errs.ErrValueIsRequired)
	}

	caller := callerOf(ctx)
	reqCtx := ctx.Request().Context()

	channels := []string{events.UserChannel(caller.UserID())}
	if caller.IsAdmin() {
		channels = append(channels, events.AdminChannel)
	}
	if params.ParcelId != nil {
		for _, raw := range *params.ParcelId {
			pid, err := parcelID(raw)
			if err != nil {
				return err
			}
			query, err := queries.NewGetParcelQuery(caller, pid)
			if err != nil {
				return err
			}
			if _, err = s.handlers.GetParcel.Handle(reqCtx, query); err != nil {
				return err
			}
			channels = append(channels, events.ParcelChannel(pid))
		}
	}

	sub, unsubscribe := s.hub.Subscribe(channels...)
	defer unsubscribe()

	allowed := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		allowed[ch] = struct{}{}
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)

	// A comment line commits the headers so clients see the stream open.
	if _, err := fmt.Fprint(res, ": connected\n\n"); err != nil {
		return nil
	}
	res.Flush()

	s.logger.DebugContext(reqCtx, "event stream opened", "userId", caller.UserID(), "channels", channels)

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-reqCtx.Done():
			s.logger.DebugContext(reqCtx, "event stream closed", "userId", caller.UserID(), "dropped", sub.Dropped())
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if !deliverable(event, allowed) {
				continue
			}
			if err := writeEvent(res, event); err != nil {
				s.logger.WarnContext(reqCtx, "failed to write event", "type", event.Type, "error", err)
				return nil
			}
			res.Flush()

			if event.Type == events.ParcelAssigned && caller.IsAgent() {
				s.recheckParcelChannel(ctx, event.ParcelID, allowed)
			}
		}
	}
}

func writeEvent(res *echo.Response, event events.Event) error {
	payload := event
	payload.Channels = nil
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event.Type, data)
	return err
}

// deliverable reports whether event was published on a channel the caller may still read.
func deliverable(event events.Event, allowed map[string]struct{}) bool {
	for _, ch := range event.Channels {
		if _, ok := allowed[ch]; ok {
			return true
		}
	}
	return false
}

// recheckParcelChannel runs the view check for a watched parcel again and revokes
// its channel when the caller no longer passes it.
func (s *Server) recheckParcelChannel(ctx echo.Context, rawID string, allowed map[string]struct{}) {
	pid, err := kernel.UUIDFromString(rawID)
	if err != nil {
		return
	}
	channel := events.ParcelChannel(pid)
	if _, watched := allowed[channel]; !watched {
		return
	}

	caller := callerOf(ctx)
	reqCtx := ctx.Request().Context()
	query, err := queries.NewGetParcelQuery(caller, pid)
	if err != nil {
		return
	}
	if _, err = s.handlers.GetParcel.Handle(reqCtx, query); err != nil {
		if errs.KindOf(err) == errs.KindForbidden || errs.KindOf(err) == errs.KindNotFound {
			delete(allowed, channel)
			s.logger.DebugContext(reqCtx, "parcel channel revoked", "userId", caller.UserID(), "parcelId", rawID)
			return
		}
		s.logger.WarnContext(reqCtx, "failed to recheck parcel access", "parcelId", rawID, "error", err)
	}
}
