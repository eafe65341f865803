package models

import "time"

// ParticipantScore is one participant's judged score for a round.
type ParticipantScore struct {
	ParticipantIndex int     `json:"participant_index"`
	Score            float64 `json:"score"`
	Notes            string  `json:"notes,omitempty"`
}

// JudgeAssessment is a persisted record of a judge's structured verdict for
// a round, giving GET /conversations/{id}/judge-assessments a real backing
// store instead of only the transient event-bus payload.
type JudgeAssessment struct {
	ID                string             `json:"id"`
	ConversationID    string             `json:"conversation_id"`
	RoundNumber       int                `json:"round_number"`
	WinnerParticipant int                `json:"winner_participant"`
	Reasoning         string             `json:"reasoning"`
	ParticipantScores []ParticipantScore `json:"participant_scores"`
	CreatedAt         time.Time          `json:"created_at"`
}
