package sse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/sse"
)

func TestServeStreamsLiveEventsAndHonorsDisconnect(t *testing.T) {
	bus := events.NewBus()

	e := echo.New()
	done := make(chan struct{})
	e.GET("/stream", func(c *echo.Context) error {
		defer close(done)
		return sse.Serve(c, bus, nil, "conv-1")
	})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	go e.ServeHTTP(rec, req)

	// Give the handler time to subscribe before publishing.
	time.Sleep(20 * time.Millisecond)
	bus.Publish(events.KindTurnStarted, events.TurnStartedPayload{Round: 0, ParticipantName: "Pro"})
	time.Sleep(20 * time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after client disconnect")
	}

	body := rec.Body.String()
	assert.Contains(t, body, "event: turn.started")
	assert.Contains(t, body, "id: 0")
	assert.Contains(t, body, `"participant_name":"Pro"`)
}

func TestServeReplaysBacklogOnResume(t *testing.T) {
	bus := events.NewBus()
	bus.Publish(events.KindLifecycleReady, events.LifecyclePayload{})   // sequence 0, already seen by client
	bus.Publish(events.KindLifecycleRunning, events.LifecyclePayload{}) // sequence 1, missed
	bus.Publish(events.KindRoundCompleted, events.RoundCompletedPayload{Round: 0}) // sequence 2, missed

	e := echo.New()
	done := make(chan struct{})
	e.GET("/stream", func(c *echo.Context) error {
		defer close(done)
		return sse.Serve(c, bus, nil, "conv-2")
	})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/stream", nil).WithContext(ctx)
	req.Header.Set("Last-Event-ID", "0")
	rec := httptest.NewRecorder()

	go e.ServeHTTP(rec, req)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after client disconnect")
	}

	body := rec.Body.String()
	require.False(t, strings.Contains(body, "event: lifecycle.ready"), "already-seen event must not be replayed")
	assert.True(t, strings.Contains(body, "event: lifecycle.running"))
	assert.True(t, strings.Contains(body, "event: round.completed"))
}
