package events

// Each payload struct below is the `data:` body for its Kind: one typed
// struct per event kind, with the kind discriminator living on the
// envelope's `Kind` field rather than duplicated inside the payload, since
// every event already carries `event: <kind>` on the SSE wire.

// LifecyclePayload carries an optional human message for lifecycle.* events.
type LifecyclePayload struct {
	Message string `json:"message,omitempty"`
	ErrKind string `json:"error_kind,omitempty"` // set only on lifecycle.error, see pkg/orchestrator errors
}

// TurnStartedPayload is published at the start of a turn.
type TurnStartedPayload struct {
	Round            int    `json:"round"`
	TurnIndex        int    `json:"turn_index"`
	ParticipantIndex int    `json:"participant_index"`
	ParticipantName  string `json:"participant_name"`
}

// TurnTokenDeltaPayload carries one streamed text fragment.
type TurnTokenDeltaPayload struct {
	ParticipantIndex int    `json:"participant_index"`
	Delta            string `json:"delta"`
}

// TurnCompletedPayload is published once a turn's Message is persisted.
type TurnCompletedPayload struct {
	MessageID      string  `json:"message_id"`
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	CostUSD        float64 `json:"cost_usd"`
	ResponseTimeMS int64   `json:"response_time_ms"`
}

// RoundCompletedPayload is published when all participants have turned once.
type RoundCompletedPayload struct {
	Round int `json:"round"`
}

// JudgeAssessmentPayload mirrors pkg/models.JudgeAssessment for the live event.
type JudgeAssessmentPayload struct {
	Round             int                       `json:"round"`
	WinnerParticipant int                       `json:"winner_participant"`
	Reasoning         string                    `json:"reasoning"`
	ParticipantScores []JudgeParticipantScoreDTO `json:"participant_scores"`
}

// JudgeParticipantScoreDTO is the wire shape of one participant's judged score.
type JudgeParticipantScoreDTO struct {
	ParticipantIndex int     `json:"participant_index"`
	Score            float64 `json:"score"`
	Notes            string  `json:"notes,omitempty"`
}

// QualityContradictionPayload is published on a new contradiction detection.
type QualityContradictionPayload struct {
	ContradictionID string  `json:"contradiction_id"`
	MessageAID      string  `json:"message_a_id"`
	MessageBID      string  `json:"message_b_id"`
	Severity        string  `json:"severity"`
	Confidence      float64 `json:"confidence"`
	SimilarityScore float64 `json:"similarity_score"`
}

// QualityLoopPayload is published on a new or updated loop detection.
type QualityLoopPayload struct {
	LoopID             string `json:"loop_id"`
	PatternHash        string `json:"pattern_hash"`
	LoopSize           int    `json:"loop_size"`
	RepetitionCount    int    `json:"repetition_count"`
	InterventionStatus string `json:"intervention_status"`
}

// QualityHealthPayload is published after each turn's health score update.
type QualityHealthPayload struct {
	OverallScore int             `json:"overall_score"`
	Status       string          `json:"status"`
	Components   map[string]float64 `json:"components"`
}

// CostWarningPayload is published on a cost-threshold level transition.
type CostWarningPayload struct {
	Level        string  `json:"level"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	ThresholdUSD float64 `json:"threshold_usd"`
}
