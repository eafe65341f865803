package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/agora-debate/agora/pkg/events"
	"github.com/agora-debate/agora/pkg/models"
	"github.com/agora-debate/agora/pkg/provider"
)

var judgeSchema = []byte(`{
	"type": "object",
	"properties": {
		"winner_participant": {"type": "integer"},
		"reasoning": {"type": "string"},
		"participant_scores": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"participant_index": {"type": "integer"},
					"score": {"type": "number"},
					"notes": {"type": "string"}
				},
				"required": ["participant_index", "score"]
			}
		}
	},
	"required": ["winner_participant", "reasoning", "participant_scores"]
}`)

type judgeVerdict struct {
	WinnerParticipant int                       `json:"winner_participant"`
	Reasoning         string                    `json:"reasoning"`
	ParticipantScores []models.ParticipantScore `json:"participant_scores"`
}

// defaultJudgeModel is used when a Conversation's JudgeConfig.Model is
// unset.
const defaultJudgeModel = "gpt-4o-mini"

// runJudge invokes the judge against the round just completed. A schema
// failure is logged and skipped: the debate continues regardless, per the
// documented judge-cadence failure policy.
func runJudge(ctx context.Context, d *Debate) {
	model := d.conv.Judge.Model
	if model == "" {
		model = defaultJudgeModel
	}
	p, err := d.deps.Providers.Resolve(model)
	if err != nil {
		slog.Error("judge: no provider for model", "conversation_id", d.id, "model", model, "error", err)
		return
	}

	history, err := d.deps.Messages.ListByConversation(ctx, d.id)
	if err != nil {
		slog.Error("judge: failed to load history", "conversation_id", d.id, "error", err)
		return
	}

	raw, err := p.CompleteStructured(ctx, model, judgePrompt(d.conv, history, d.conv.CurrentRoundIndex), judgeSchema)
	if err != nil {
		slog.Error("judge: completion failed", "conversation_id", d.id, "round", d.conv.CurrentRoundIndex, "error", err)
		return
	}
	var verdict judgeVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		slog.Error("judge: schema verdict did not parse, skipping", "conversation_id", d.id, "round", d.conv.CurrentRoundIndex, "error", err)
		return
	}

	assessment := &models.JudgeAssessment{
		ID:                uuid.NewString(),
		ConversationID:    d.id,
		RoundNumber:       d.conv.CurrentRoundIndex,
		WinnerParticipant: verdict.WinnerParticipant,
		Reasoning:         verdict.Reasoning,
		ParticipantScores: verdict.ParticipantScores,
	}
	if err := d.deps.Judges.Create(ctx, assessment); err != nil {
		slog.Error("judge: failed to persist assessment", "conversation_id", d.id, "error", err)
		return
	}

	scores := make([]events.JudgeParticipantScoreDTO, len(assessment.ParticipantScores))
	for i, s := range assessment.ParticipantScores {
		scores[i] = events.JudgeParticipantScoreDTO{ParticipantIndex: s.ParticipantIndex, Score: s.Score, Notes: s.Notes}
	}
	d.publish(ctx, events.KindJudgeAssessment, events.JudgeAssessmentPayload{
		Round:             assessment.RoundNumber,
		WinnerParticipant: assessment.WinnerParticipant,
		Reasoning:         assessment.Reasoning,
		ParticipantScores: scores,
	})
}

func judgePrompt(conv *models.Conversation, history []models.Message, round int) []provider.Message {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Debate topic: %s\n\nTranscript for round %d:\n", conv.Topic, round))
	for _, m := range history {
		if m.RoundNumber != round {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n\n", m.ParticipantName, m.Content)
	}
	sb.WriteString("Judge this round: name the strongest participant, explain why, and score every participant.")
	return []provider.Message{
		{Role: "system", Content: "You are an impartial debate judge. Respond only with the requested JSON."},
		{Role: "user", Content: sb.String()},
	}
}
