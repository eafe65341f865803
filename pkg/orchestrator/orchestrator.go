// Package orchestrator implements the Orchestrator FSM (C7): the per-debate
// task that dispatches turns to participants, invokes the judge, applies
// cost governance, and drives the debate from configured through to a
// terminal completed or errored state.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/models"
	"github.com/agora-debate/agora/pkg/provider"
	"github.com/agora-debate/agora/pkg/quality"
	"github.com/agora-debate/agora/pkg/store"
)

// defaultTurnDeadline is the per-turn wall-clock budget from turn.started
// to the terminal delta.
const defaultTurnDeadline = 120 * time.Second

// defaultProviderConcurrency bounds the number of concurrent outbound
// provider streams across every running debate in the process.
const defaultProviderConcurrency = 16

// ErrNotRunning is returned by a control command issued against a debate
// the Manager has no record of.
var ErrNotRunning = fmt.Errorf("orchestrator: debate is not running")

// ErrAlreadyRunning is returned by Start when a debate task is already
// active for the given conversation.
var ErrAlreadyRunning = fmt.Errorf("orchestrator: debate already running")

// Deps is every collaborator a Debate task needs, shared across every
// conversation the Manager runs.
type Deps struct {
	Conversations *store.ConversationStore
	Messages      *store.MessageStore
	Judges        *store.JudgeStore
	Events        *store.EventStore
	EventRegistry *events.Registry
	Providers     *provider.Registry
	Pipeline      *quality.Pipeline
	ProviderLimit *semaphore.Weighted
	TurnDeadline  time.Duration
}

// NewDeps fills in defaults (turn deadline, provider concurrency semaphore)
// for any zero-valued field.
func NewDeps(d Deps) Deps {
	if d.TurnDeadline <= 0 {
		d.TurnDeadline = defaultTurnDeadline
	}
	if d.ProviderLimit == nil {
		d.ProviderLimit = semaphore.NewWeighted(defaultProviderConcurrency)
	}
	return d
}

// Manager owns one Debate task per live conversation. Grounded on the
// worker pool's active-session registry: a mutex-guarded map from ID to a
// cancellation handle, so Stop/Pause/Resume can reach a running task
// without either side needing to poll.
type Manager struct {
	deps Deps

	mu      sync.Mutex
	debates map[string]*Debate
}

// NewManager creates a Manager that dispatches every started debate against
// the shared deps.
func NewManager(deps Deps) *Manager {
	return &Manager{deps: NewDeps(deps), debates: make(map[string]*Debate)}
}

// Start transitions a CONFIGURED conversation to READY/RUNNING and spawns
// its Debate task as a background goroutine. Start returns once the task
// has been registered; it does not wait for the debate to finish.
func (m *Manager) Start(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	if _, ok := m.debates[conversationID]; ok {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}

	conv, err := m.deps.Conversations.Get(ctx, conversationID)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("load conversation: %w", err)
	}
	if conv.Status != models.ConversationStatusCreated {
		m.mu.Unlock()
		return fmt.Errorf("orchestrator: conversation %s is not in created status", conversationID)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	d := &Debate{
		id:      conversationID,
		deps:    m.deps,
		conv:    conv,
		bus:     m.deps.EventRegistry.GetOrCreate(conversationID),
		control: make(chan controlMsg, 4),
		cancel:  cancel,
	}
	m.debates[conversationID] = d
	m.mu.Unlock()

	if err := m.deps.Conversations.UpdateStatus(ctx, conversationID, models.ConversationStatusRunning); err != nil {
		m.remove(conversationID)
		cancel()
		return fmt.Errorf("mark conversation running: %w", err)
	}
	conv.Status = models.ConversationStatusRunning
	d.publish(ctx, events.KindLifecycleReady, events.LifecyclePayload{})
	d.publish(ctx, events.KindLifecycleRunning, events.LifecyclePayload{})

	go func() {
		d.run(runCtx)
		m.remove(conversationID)
	}()
	return nil
}

func (m *Manager) remove(conversationID string) {
	m.mu.Lock()
	delete(m.debates, conversationID)
	m.mu.Unlock()
}

func (m *Manager) get(conversationID string) (*Debate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.debates[conversationID]
	if !ok {
		return nil, ErrNotRunning
	}
	return d, nil
}

// Pause requests the debate pause at the next turn boundary.
func (m *Manager) Pause(ctx context.Context, conversationID string) error {
	d, err := m.get(conversationID)
	if err != nil {
		return err
	}
	return d.sendControl(ctx, controlMsg{cmd: cmdPause})
}

// Resume requests the debate resume. overrideCriticalCost bypasses exactly
// one pending critical cost-governance pause, per conversation.
func (m *Manager) Resume(ctx context.Context, conversationID string, overrideCriticalCost bool) error {
	d, err := m.get(conversationID)
	if err != nil {
		return err
	}
	return d.sendControl(ctx, controlMsg{cmd: cmdResume, overrideCriticalCost: overrideCriticalCost})
}

// Stop requests immediate termination at the next delta boundary. The
// in-flight turn, if any, is cancelled and discarded rather than persisted.
func (m *Manager) Stop(ctx context.Context, conversationID string) error {
	d, err := m.get(conversationID)
	if err != nil {
		return err
	}
	return d.sendControl(ctx, controlMsg{cmd: cmdStop})
}

type command int

const (
	cmdPause command = iota
	cmdResume
	cmdStop
)

type controlMsg struct {
	cmd                  command
	overrideCriticalCost bool
	ack                  chan error
}

// Debate is the per-conversation FSM task.
type Debate struct {
	id      string
	deps    Deps
	conv    *models.Conversation
	bus     *events.Bus
	control chan controlMsg
	cancel  context.CancelFunc

	paused                  bool
	criticalOverridePending bool
	stopped                 bool
}

func (d *Debate) sendControl(ctx context.Context, msg controlMsg) error {
	msg.ack = make(chan error, 1)
	select {
	case d.control <- msg:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-msg.ack:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publish sends env on the bus and best-effort mirrors it to durable
// storage; a persistence failure here never fails the turn, since the bus
// is still the authoritative live path (see pkg/store.EventStore).
func (d *Debate) publish(ctx context.Context, kind events.Kind, payload any) {
	env := d.bus.Publish(kind, payload)
	if d.deps.Events == nil {
		return
	}
	if err := d.deps.Events.Append(ctx, d.id, env); err != nil {
		slog.Error("failed to append event to durable log", "conversation_id", d.id, "error", err)
	}
}

// run is the FSM's main loop: dispatch a turn, check for control commands
// between turns, and keep going until COMPLETED or ERROR.
func (d *Debate) run(ctx context.Context) {
	defer d.deps.EventRegistry.Remove(d.id)

	for {
		if d.drainControlAndCheckStop(ctx) {
			d.finish(ctx, models.ConversationStatusCompleted, events.KindLifecycleCompleted, "stopped")
			return
		}
		for d.paused {
			msg := <-d.control
			d.handleControl(ctx, msg)
			if d.stopped {
				d.finish(ctx, models.ConversationStatusCompleted, events.KindLifecycleCompleted, "stopped")
				return
			}
		}

		outcome := dispatchTurn(ctx, d)
		switch outcome.kind {
		case outcomeError:
			d.finishErr(ctx, models.ConversationStatusErrored, outcome.message, outcome.errKind)
			return
		case outcomeStopped:
			d.finish(ctx, models.ConversationStatusCompleted, events.KindLifecycleCompleted, "stopped")
			return
		case outcomeRoundCompleted:
			if done, err := d.afterRound(ctx); err != nil {
				d.finishErr(ctx, models.ConversationStatusErrored, err.Error(), errKindPersistenceFatal)
				return
			} else if done {
				d.finish(ctx, models.ConversationStatusCompleted, events.KindLifecycleCompleted, "max rounds reached")
				return
			}
		}
	}
}

// drainControlAndCheckStop processes any control messages already queued
// without blocking, so a pending stop/pause is observed between turns even
// if the debate goroutine is otherwise free-running.
func (d *Debate) drainControlAndCheckStop(ctx context.Context) bool {
	for {
		select {
		case msg := <-d.control:
			d.handleControl(ctx, msg)
			if d.stopped {
				return true
			}
		default:
			return false
		}
	}
}

func (d *Debate) handleControl(ctx context.Context, msg controlMsg) {
	switch msg.cmd {
	case cmdPause:
		d.paused = true
		if err := d.deps.Conversations.UpdateStatus(ctx, d.id, models.ConversationStatusPaused); err != nil {
			msg.ack <- err
			return
		}
		d.publish(ctx, events.KindLifecyclePaused, events.LifecyclePayload{})
		msg.ack <- nil
	case cmdResume:
		d.paused = false
		if msg.overrideCriticalCost {
			d.criticalOverridePending = true
		}
		if err := d.deps.Conversations.UpdateStatus(ctx, d.id, models.ConversationStatusRunning); err != nil {
			msg.ack <- err
			return
		}
		d.publish(ctx, events.KindLifecycleRunning, events.LifecyclePayload{})
		msg.ack <- nil
	case cmdStop:
		d.stopped = true
		d.cancel()
		msg.ack <- nil
	}
}

func (d *Debate) finish(ctx context.Context, status models.ConversationStatus, kind events.Kind, message string) {
	if err := d.deps.Conversations.UpdateStatus(ctx, d.id, status); err != nil {
		slog.Error("failed to persist terminal conversation status", "conversation_id", d.id, "error", err)
	}
	d.publish(ctx, kind, events.LifecyclePayload{Message: message})
}

// finishErr is finish's ERROR-path variant: it additionally stamps the
// machine-readable error_kind from the documented taxonomy onto the
// lifecycle.error payload.
func (d *Debate) finishErr(ctx context.Context, status models.ConversationStatus, message string, kind errKind) {
	if err := d.deps.Conversations.UpdateStatus(ctx, d.id, status); err != nil {
		slog.Error("failed to persist terminal conversation status", "conversation_id", d.id, "error", err)
	}
	d.publish(ctx, events.KindLifecycleError, events.LifecyclePayload{Message: message, ErrKind: string(kind)})
}

// afterRound runs the judge (if its cadence matches this round) and reports
// whether the debate has reached max_rounds.
func (d *Debate) afterRound(ctx context.Context) (done bool, err error) {
	round := d.conv.CurrentRoundIndex
	if judgeShouldRun(d.conv.Judge.Cadence, round, d.conv.MaxRounds) {
		runJudge(ctx, d)
	}
	if round+1 >= d.conv.MaxRounds {
		return true, nil
	}
	d.conv.CurrentRoundIndex = round + 1
	d.conv.CurrentTurnIndex = 0
	if err := d.deps.Conversations.UpdateProgress(ctx, d.id, d.conv.CurrentRoundIndex, d.conv.CurrentTurnIndex); err != nil {
		return false, fmt.Errorf("advance round: %w", err)
	}
	return false, nil
}

// judgeShouldRun implements the judge-cadence decision.
func judgeShouldRun(cadence models.JudgeCadence, roundIndex, maxRounds int) bool {
	switch cadence {
	case models.JudgeCadencePerRound:
		return true
	case models.JudgeCadenceFinalRound:
		return roundIndex+1 >= maxRounds
	default:
		return false
	}
}
