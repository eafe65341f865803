package quality

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/models"
	"github.com/agora-debate/agora/pkg/store"
)

// neutralCitationScore is the citation component's value when a
// conversation has no citations yet: absence of evidence isn't evidence of
// a problem, so it scores neutral rather than zero.
const neutralCitationScore = 100

// recentMessageWindow bounds how many of the most recent messages count
// toward the coherence and contradiction components, so an early,
// long-resolved issue doesn't keep dragging the score down forever. The loop
// component is not windowed: every loop not yet broken counts.
const recentMessageWindow = 20

// HealthScorer computes the weighted composite health score after every
// turn and persists a new HealthSample.
type HealthScorer struct {
	Contradictions *store.ContradictionStore
	Loops          *store.LoopStore
	Citations      *store.CitationStore
	Health         *store.HealthStore
	Conversations  *store.ConversationStore
	Bus            *events.Bus

	Weights models.HealthWeights
}

func (s *HealthScorer) Name() string { return "health" }

func (s *HealthScorer) weights() models.HealthWeights {
	if s.Weights == (models.HealthWeights{}) {
		return models.DefaultHealthWeights()
	}
	return s.Weights
}

// Analyze recomputes every health component from the conversation's current
// contradictions, loops, and citations, and persists the resulting sample.
func (s *HealthScorer) Analyze(ctx context.Context, in Input) error {
	convID := in.Conversation.ID

	contradictions, _, err := s.Contradictions.List(ctx, convID, store.ContradictionFilter{Limit: 1000})
	if err != nil {
		return fmt.Errorf("list contradictions: %w", err)
	}
	loops, _, err := s.Loops.List(ctx, convID, store.LoopFilter{Limit: 1000})
	if err != nil {
		return fmt.Errorf("list loops: %w", err)
	}
	citations, err := s.Citations.ListByConversation(ctx, convID)
	if err != nil {
		return fmt.Errorf("list citations: %w", err)
	}

	components := models.HealthComponents{
		Coherence:     coherenceScore(in.History),
		Contradiction: contradictionScore(contradictions, recentWindowIDs(in.History)),
		Loop:          loopScore(loops),
		Citation:      citationScore(citations),
	}
	w := s.weights()
	overall := clamp100(w.Coherence*components.Coherence +
		w.Contradiction*components.Contradiction +
		w.Loop*components.Loop +
		w.Citation*components.Citation)

	sample := &models.HealthSample{
		ID:                 uuid.NewString(),
		ConversationID:     convID,
		OverallScore:       int(overall + 0.5),
		Components:         components,
		MessageCount:       len(in.History),
		ContradictionCount: len(contradictions),
		LoopCount:          len(loops),
	}
	if err := s.Health.Insert(ctx, sample); err != nil {
		return fmt.Errorf("insert health sample: %w", err)
	}
	if err := s.Conversations.UpdateHealthScore(ctx, convID, sample.OverallScore); err != nil {
		return fmt.Errorf("update conversation health score: %w", err)
	}
	if s.Bus != nil {
		s.Bus.Publish(events.KindQualityHealth, events.QualityHealthPayload{
			OverallScore: sample.OverallScore,
			Status:       string(sample.Status()),
			Components: map[string]float64{
				"coherence":     components.Coherence,
				"contradiction": components.Contradiction,
				"loop":          components.Loop,
				"citation":      components.Citation,
			},
		})
	}
	return nil
}

// recentWindowIDs returns the IDs of the most recent recentMessageWindow
// messages, for scoping which contradictions count as "current".
func recentWindowIDs(history []models.Message) map[string]bool {
	start := 0
	if len(history) > recentMessageWindow {
		start = len(history) - recentMessageWindow
	}
	ids := make(map[string]bool, len(history)-start)
	for _, m := range history[start:] {
		ids[m.ID] = true
	}
	return ids
}

// coherenceScore is a simple length/variance-based proxy: extremely short
// or degenerate responses near the tail drag coherence down. A full
// semantic coherence model is out of scope; this keeps the component
// responsive to an obviously-broken stream of turns.
func coherenceScore(history []models.Message) float64 {
	if len(history) == 0 {
		return 100
	}
	start := 0
	if len(history) > recentMessageWindow {
		start = len(history) - recentMessageWindow
	}
	window := history[start:]

	degenerate := 0
	for _, m := range window {
		if len(m.Content) < 20 {
			degenerate++
		}
	}
	penalty := float64(degenerate) / float64(len(window)) * 100
	return clamp100(100 - penalty)
}

// contradictionScore penalizes by count and severity of unresolved
// contradictions touching the recent message window.
func contradictionScore(contradictions []models.Contradiction, recentIDs map[string]bool) float64 {
	penalty := 0.0
	for _, c := range contradictions {
		if c.Resolved {
			continue
		}
		if !recentIDs[c.MessageAID] && !recentIDs[c.MessageBID] {
			continue
		}
		switch c.Severity {
		case models.SeverityCritical:
			penalty += 30
		case models.SeverityHigh:
			penalty += 18
		case models.SeverityMedium:
			penalty += 8
		case models.SeverityLow:
			penalty += 3
		}
	}
	return clamp100(100 - penalty)
}

// loopScore penalizes by the number of active (un-broken) loops and how
// many times each has repeated.
func loopScore(loops []models.ConversationLoop) float64 {
	penalty := 0.0
	for _, l := range loops {
		if l.InterventionStatus == models.InterventionBroken {
			continue
		}
		penalty += 10 + float64(l.RepetitionCount-2)*5
	}
	return clamp100(100 - penalty)
}

// citationScore rewards a high verified-to-total ratio, defaulting to
// neutralCitationScore when no citations exist yet.
func citationScore(citations []models.Citation) float64 {
	if len(citations) == 0 {
		return neutralCitationScore
	}
	verified := 0
	for _, c := range citations {
		if c.Verified {
			verified++
		}
	}
	return clamp100(float64(verified) / float64(len(citations)) * 100)
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
