// Package models defines the domain entities for the debate engine:
// conversations, participants, messages, and the quality-analysis
// children that hang off a conversation's transcript.
package models

import "time"

// ConversationStatus is the externally-visible lifecycle state of a debate.
// It mirrors (but does not replace) the Orchestrator FSM's internal states —
// CONFIGURED/READY collapse to StatusCreated, TURN_STREAMING/TURN_FINALIZING/
// ROUND_CHECK/JUDGE_MAYBE collapse to StatusRunning.
type ConversationStatus string

const (
	ConversationStatusCreated   ConversationStatus = "created"
	ConversationStatusRunning   ConversationStatus = "running"
	ConversationStatusPaused    ConversationStatus = "paused"
	ConversationStatusCompleted ConversationStatus = "completed"
	ConversationStatusErrored   ConversationStatus = "errored"
)

// JudgeCadence controls how often the judge is invoked.
type JudgeCadence string

const (
	JudgeCadencePerRound   JudgeCadence = "per_round"
	JudgeCadenceFinalRound JudgeCadence = "final_round"
	JudgeCadenceNever      JudgeCadence = "never"
)

// JudgeConfig is the optional judge configuration for a Conversation.
type JudgeConfig struct {
	Model   string       `json:"model,omitempty"`
	Cadence JudgeCadence `json:"cadence"`
}

// TokenTotals accumulates per-model token usage for a Conversation.
type TokenTotals struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Conversation is a single debate instance — the aggregate root owning
// Messages, MessageEmbeddings, Contradictions, ConversationLoops, and
// HealthSamples.
type Conversation struct {
	ID           string             `json:"id"`
	Topic        string             `json:"topic"`
	Participants []Participant      `json:"participants"`
	MaxRounds    int                `json:"max_rounds"`
	ContextWindowRounds int         `json:"context_window_rounds"`
	CostWarningThreshold float64    `json:"cost_warning_threshold"`
	Judge        JudgeConfig        `json:"judge"`
	Status       ConversationStatus `json:"status"`

	CurrentRoundIndex int `json:"current_round_index"`
	CurrentTurnIndex  int `json:"current_turn_index"`

	AggregateCostUSD float64                `json:"aggregate_cost_usd"`
	TokenTotals      map[string]TokenTotals `json:"token_totals"` // keyed by model identifier

	CurrentHealthScore int `json:"current_health_score"`

	// LastCostWarningLevel tracks the most recently published cost.warning
	// level so the Orchestrator only republishes on a level transition, and
	// so a critical-override resume only bypasses the boundary it was issued
	// for (see S4).
	LastCostWarningLevel string `json:"last_cost_warning_level,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Participant is a member of a Conversation, immutable after creation.
// Index is 0-based and authoritative for turn cycling.
type Participant struct {
	Index          int     `json:"index"`
	Name           string  `json:"name"`
	Model          string  `json:"model"`
	SystemPrompt   string  `json:"system_prompt"`
	Temperature    float64 `json:"temperature"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}
