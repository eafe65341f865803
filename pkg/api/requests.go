package api

import "github.com/agora-debate/agora/pkg/models"

// CreateDebateRequest is POST /debates's body.
type CreateDebateRequest struct {
	Topic                string                    `json:"topic"`
	Participants         []ParticipantRequest      `json:"participants"`
	MaxRounds            int                       `json:"max_rounds"`
	ContextWindowRounds  int                       `json:"context_window_rounds"`
	CostWarningThreshold float64                   `json:"cost_warning_threshold"`
	Judge                *JudgeRequest             `json:"judge,omitempty"`
}

// ParticipantRequest is one entry of CreateDebateRequest.Participants.
type ParticipantRequest struct {
	Name            string  `json:"name"`
	Model           string  `json:"model"`
	SystemPrompt    string  `json:"system_prompt"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_tokens"`
}

// JudgeRequest is CreateDebateRequest.Judge.
type JudgeRequest struct {
	Model   string `json:"model,omitempty"`
	Cadence string `json:"cadence,omitempty"`
}

// ResumeRequest is POST /debates/{id}/resume's body.
type ResumeRequest struct {
	OverrideCriticalCost bool `json:"override_critical_cost"`
}

// ResolveRequest is POST /contradictions/{id}/resolve's body.
type ResolveRequest struct {
	Note string `json:"note"`
}

// toParticipants converts the wire request into the persistence-shaped
// models.Participant slice, assigning Index by position.
func (r CreateDebateRequest) toParticipants() []models.Participant {
	out := make([]models.Participant, len(r.Participants))
	for i, p := range r.Participants {
		out[i] = models.Participant{
			Index:           i,
			Name:            p.Name,
			Model:           p.Model,
			SystemPrompt:    p.SystemPrompt,
			Temperature:     p.Temperature,
			MaxOutputTokens: p.MaxOutputTokens,
		}
	}
	return out
}

// toJudgeConfig converts the optional wire Judge block into
// models.JudgeConfig, defaulting an absent block to "never".
func (r CreateDebateRequest) toJudgeConfig() models.JudgeConfig {
	if r.Judge == nil {
		return models.JudgeConfig{Cadence: models.JudgeCadenceNever}
	}
	cadence := models.JudgeCadence(r.Judge.Cadence)
	if cadence == "" {
		cadence = models.JudgeCadenceNever
	}
	return models.JudgeConfig{Model: r.Judge.Model, Cadence: cadence}
}
