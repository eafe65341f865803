// Package sse implements the SSE Gateway (C8): the sole read-only
// serializer between a conversation's Event Bus and an HTTP client. It
// never persists or interprets events, and holds no state beyond the one
// open connection it's currently serving.
package sse

import (
	"fmt"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/store"
)

// heartbeatInterval is how often a comment line is sent to keep
// intermediate proxies from closing an idle stream.
const heartbeatInterval = 15 * time.Second

// Serve streams bus onto c's response as text/event-stream, honoring
// Last-Event-ID for resume, until the client disconnects. Modeled on the
// teacher's connection-handling shape (register, stream, clean up on
// disconnect) adapted from a WebSocket upgrade to a write-only HTTP stream.
func Serve(c *echo.Context, bus *events.Bus, durable *store.EventStore, conversationID string) error {
	lastEventID := parseLastEventID(c.Request().Header.Get("Last-Event-ID"))

	ch, backlog, resync := bus.Subscribe(lastEventID)
	defer bus.Unsubscribe(ch)

	w := c.Response()
	h := w.Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(200)
	w.Flush()

	ctx := c.Request().Context()

	if resync {
		resyncEnv := events.Envelope{
			Sequence:  lastEventID,
			Kind:      events.KindLifecycleResync,
			Timestamp: time.Now(),
		}
		if err := writeEnvelope(w, resyncEnv); err != nil {
			return nil
		}
		if durable != nil {
			replay, err := durable.ListAfter(ctx, conversationID, lastEventID)
			if err == nil {
				backlog = replay
			}
		}
	}

	for _, env := range backlog {
		if err := writeEnvelope(w, env); err != nil {
			return nil
		}
	}
	w.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case env, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeEnvelope(w, env); err != nil {
				return nil
			}
			w.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ":\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case <-ctx.Done():
			return nil
		}
	}
}

// parseLastEventID parses the Last-Event-ID header, returning -1 (no
// resume requested) if absent or malformed.
func parseLastEventID(raw string) int {
	if raw == "" {
		return -1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

func writeEnvelope(w interface{ Write([]byte) (int, error) }, env events.Envelope) error {
	_, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", env.Sequence, env.Kind, env.Payload)
	return err
}
