// Package events implements the per-debate Event Bus (C6): an ordered,
// bounded, fan-out channel carrying typed lifecycle/turn/round/quality/cost
// events, with a ring buffer for reconnect resume.
//
// Lifecycle: a Bus is created when a conversation is started and lives for
// the lifetime of the orchestrator task owning that conversation (see
// pkg/orchestrator). The SSE Gateway (pkg/sse) is the sole consumer; the
// Orchestrator is the sole producer.
package events

import (
	"encoding/json"
	"time"
)

// Kind identifies the kind of event on the bus.
type Kind string

const (
	KindLifecycleReady     Kind = "lifecycle.ready"
	KindLifecycleRunning   Kind = "lifecycle.running"
	KindLifecyclePaused    Kind = "lifecycle.paused"
	KindLifecycleCompleted Kind = "lifecycle.completed"
	KindLifecycleError     Kind = "lifecycle.error"
	KindLifecycleResync    Kind = "lifecycle.resync"

	KindTurnStarted   Kind = "turn.started"
	KindTurnToken     Kind = "turn.token_delta"
	KindTurnCompleted Kind = "turn.completed"

	KindRoundCompleted Kind = "round.completed"

	KindJudgeAssessment Kind = "judge.assessment"

	KindQualityContradiction Kind = "quality.contradiction_detected"
	KindQualityLoop          Kind = "quality.loop_detected"
	KindQualityHealth        Kind = "quality.health_update"

	KindCostWarning Kind = "cost.warning"
)

// Envelope is the event bus's wire format: {sequence, kind, timestamp, payload}.
// Sequence is a per-conversation monotonic integer assigned at publish
// time — the external resume cursor used by Last-Event-ID reconnects.
type Envelope struct {
	Sequence  int             `json:"sequence"`
	Kind      Kind            `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// marshalPayload is a small helper so callers can pass a typed payload
// struct instead of hand-marshaling json.RawMessage everywhere.
func marshalPayload(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Payload types are internal structs fully under our control;
		// a marshal failure here indicates a programming error, not a
		// runtime condition callers should handle.
		panic("events: payload marshal failed: " + err.Error())
	}
	return b
}
