package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agora-debate/agora/pkg/contextbuilder"
	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/models"
	"github.com/agora-debate/agora/pkg/provider"
	"github.com/agora-debate/agora/pkg/quality"
	"github.com/agora-debate/agora/pkg/tokenacct"
)

type outcomeKind int

const (
	outcomeContinue outcomeKind = iota
	outcomeRoundCompleted
	outcomeStopped
	outcomeError
)

type turnOutcome struct {
	kind    outcomeKind
	message string
	errKind errKind
}

// dispatchTurn implements the FSM's dispatch_turn step: build the prompt,
// stream the completion, finalize and persist the Message, fire the
// quality pipeline, apply cost governance, and advance the turn counters.
func dispatchTurn(ctx context.Context, d *Debate) turnOutcome {
	round := d.conv.CurrentRoundIndex
	turnIndex := d.conv.CurrentTurnIndex
	participant := d.conv.Participants[turnIndex]

	history, err := d.deps.Messages.ListByConversation(ctx, d.id)
	if err != nil {
		return turnOutcome{kind: outcomeError, message: fmt.Sprintf("load history: %v", err), errKind: errKindPersistenceFatal}
	}

	prompt := contextbuilder.Build(history, contextbuilder.Params{
		Conversation:         d.conv,
		Participant:          participant,
		RoundNumber:          round,
		ReservedOutputTokens: participant.MaxOutputTokens,
	})
	messages := toProviderMessages(prompt)

	d.publish(ctx, events.KindTurnStarted, events.TurnStartedPayload{
		Round:            round,
		TurnIndex:        turnIndex,
		ParticipantIndex: participant.Index,
		ParticipantName:  participant.Name,
	})

	p, err := d.deps.Providers.Resolve(participant.Model)
	if err != nil {
		return turnOutcome{kind: outcomeError, message: fmt.Sprintf("resolve provider: %v", err), errKind: errKindProviderInvalid}
	}

	if d.deps.ProviderLimit != nil {
		if err := d.deps.ProviderLimit.Acquire(ctx, 1); err != nil {
			return turnOutcome{kind: outcomeStopped}
		}
		defer d.deps.ProviderLimit.Release(1)
	}

	turnCtx, cancelTurn := context.WithTimeout(ctx, d.deps.TurnDeadline)
	defer cancelTurn()

	started := time.Now()
	text, usage, err := streamWithRetry(turnCtx, d, p, participant, messages, provider.Params{
		Temperature:     participant.Temperature,
		MaxOutputTokens: participant.MaxOutputTokens,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return turnOutcome{kind: outcomeStopped}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return turnOutcome{kind: outcomeError, message: err.Error(), errKind: errKindProviderTimeout}
		}
		return turnOutcome{kind: outcomeError, message: err.Error(), errKind: classifyProviderErr(err)}
	}

	cost := tokenacct.Cost(participant.Model, usage.InputTokens, usage.OutputTokens)
	msg := &models.Message{
		ID:               uuid.NewString(),
		ConversationID:   d.id,
		ParticipantIndex: participant.Index,
		ParticipantName:  participant.Name,
		Model:            participant.Model,
		Role:             models.MessageRoleAssistant,
		Content:          text,
		RoundNumber:      round,
		TurnIndex:        turnIndex,
		InputTokens:      int(usage.InputTokens),
		OutputTokens:     int(usage.OutputTokens),
		ResponseTimeMS:   time.Since(started).Milliseconds(),
		CostUSD:          cost,
	}
	if err := d.deps.Messages.Insert(ctx, msg); err != nil {
		return turnOutcome{kind: outcomeError, message: fmt.Sprintf("persist message: %v", err), errKind: errKindPersistenceFatal}
	}
	if err := d.deps.Conversations.ApplyTurnCost(ctx, d.id, participant.Model, usage.InputTokens, usage.OutputTokens, cost); err != nil {
		return turnOutcome{kind: outcomeError, message: fmt.Sprintf("apply turn cost: %v", err), errKind: errKindPersistenceFatal}
	}
	d.conv.AggregateCostUSD += cost

	d.publish(ctx, events.KindTurnCompleted, events.TurnCompletedPayload{
		MessageID:      msg.ID,
		InputTokens:    msg.InputTokens,
		OutputTokens:   msg.OutputTokens,
		CostUSD:        msg.CostUSD,
		ResponseTimeMS: msg.ResponseTimeMS,
	})

	if d.deps.Pipeline != nil {
		fullHistory := append(append([]models.Message{}, history...), *msg)
		go d.deps.Pipeline.Run(context.Background(), quality.Input{
			Conversation: d.conv,
			NewMessage:   *msg,
			History:      fullHistory,
		})
	}

	if paused := d.applyCostGovernance(ctx); paused {
		// A critical cost level pauses the debate like a pause command does;
		// run() then waits on the control channel until a resume arrives.
		if err := d.deps.Conversations.UpdateStatus(ctx, d.id, models.ConversationStatusPaused); err != nil {
			return turnOutcome{kind: outcomeError, message: fmt.Sprintf("pause on critical cost: %v", err), errKind: errKindPersistenceFatal}
		}
		d.publish(ctx, events.KindLifecyclePaused, events.LifecyclePayload{Message: "critical cost level reached"})
	}

	turnIndex++
	if turnIndex >= len(d.conv.Participants) {
		d.conv.CurrentTurnIndex = turnIndex
		d.publish(ctx, events.KindRoundCompleted, events.RoundCompletedPayload{Round: round})
		return turnOutcome{kind: outcomeRoundCompleted}
	}
	d.conv.CurrentTurnIndex = turnIndex
	if err := d.deps.Conversations.UpdateProgress(ctx, d.id, round, turnIndex); err != nil {
		return turnOutcome{kind: outcomeError, message: fmt.Sprintf("advance turn: %v", err), errKind: errKindPersistenceFatal}
	}
	return turnOutcome{kind: outcomeContinue}
}

// applyCostGovernance recomputes the cost-warning level after a turn and,
// on a level transition, publishes cost.warning. Crossing into critical
// pauses the FSM unless a resume's override_critical_cost already
// consumed the pending override for this boundary.
func (d *Debate) applyCostGovernance(ctx context.Context) (paused bool) {
	level := tokenacct.Classify(d.conv.AggregateCostUSD, d.conv.CostWarningThreshold)
	if string(level) == d.conv.LastCostWarningLevel {
		return false
	}
	d.conv.LastCostWarningLevel = string(level)
	if err := d.deps.Conversations.UpdateCostWarningLevel(ctx, d.id, string(level)); err != nil {
		return false
	}
	d.publish(ctx, events.KindCostWarning, events.CostWarningPayload{
		Level:        string(level),
		TotalCostUSD: d.conv.AggregateCostUSD,
		ThresholdUSD: d.conv.CostWarningThreshold,
	})

	if level != tokenacct.WarningCritical {
		return false
	}
	if d.criticalOverridePending {
		d.criticalOverridePending = false
		return false
	}
	d.paused = true
	return true
}

// streamWithRetry opens a completion stream and retries on transient
// failure per the documented policy: up to 2 retries with exponential
// backoff, 1s then 4s, plus jitter. Each attempt runs under its own
// TurnDeadline, nested inside the turn-wide deadline dispatchTurn sets.
func streamWithRetry(ctx context.Context, d *Debate, p provider.Provider, participant models.Participant, messages []provider.Message, params provider.Params) (string, provider.Usage, error) {
	var lastErr error
	b := newRetryBackoff()
	for attempt := 0; attempt <= maxStreamRetries; attempt++ {
		attemptCtx, cancelAttempt := context.WithTimeout(ctx, d.deps.TurnDeadline)
		text, usage, err := streamOnce(attemptCtx, d, participant, p, messages, params)
		cancelAttempt()
		if err == nil {
			return text, usage, nil
		}
		lastErr = err
		class := provider.ClassOf(err)
		if class != provider.ErrorClassRateLimit && class != provider.ErrorClassTransport {
			return "", provider.Usage{}, err
		}
		if attempt == maxStreamRetries {
			break
		}
		delay := b.NextBackOff()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", provider.Usage{}, ctx.Err()
		}
	}
	return "", provider.Usage{}, fmt.Errorf("stream exhausted retries: %w", lastErr)
}

func streamOnce(ctx context.Context, d *Debate, participant models.Participant, p provider.Provider, messages []provider.Message, params provider.Params) (string, provider.Usage, error) {
	deltas, errs := p.Stream(ctx, participant.Model, messages, params)
	var sb strings.Builder
	var usage provider.Usage
	for {
		select {
		case delta, ok := <-deltas:
			if !ok {
				return sb.String(), usage, nil
			}
			if delta.Text != "" {
				sb.WriteString(delta.Text)
				d.publish(ctx, events.KindTurnToken, events.TurnTokenDeltaPayload{
					ParticipantIndex: participant.Index,
					Delta:            delta.Text,
				})
			}
			if delta.Usage != nil {
				usage = *delta.Usage
			}
		case err := <-errs:
			if err != nil {
				return "", provider.Usage{}, err
			}
		case <-ctx.Done():
			return "", provider.Usage{}, ctx.Err()
		}
	}
}

func toProviderMessages(prompt []contextbuilder.PromptMessage) []provider.Message {
	out := make([]provider.Message, len(prompt))
	for i, m := range prompt {
		out[i] = provider.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
