package models

import "time"

// MessageRole is the role a message plays in a provider-facing prompt.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one completed turn. Never mutated after finalization; deleted
// only by conversation cascade.
type Message struct {
	ID               string      `json:"id"`
	ConversationID   string      `json:"conversation_id"`
	ParticipantIndex int         `json:"participant_index"`
	ParticipantName  string      `json:"participant_name"` // name snapshot at turn time
	Model            string      `json:"model"`            // model snapshot at turn time
	Role             MessageRole `json:"role"`
	Content          string      `json:"content"`
	SequenceNumber   int         `json:"sequence_number"` // global 0-based, dense, monotonic
	RoundNumber      int         `json:"round_number"`
	TurnIndex        int         `json:"turn_index"`
	InputTokens      int         `json:"input_tokens"`
	OutputTokens     int         `json:"output_tokens"`
	ResponseTimeMS   int64       `json:"response_time_ms"`
	CostUSD          float64     `json:"cost_usd"`
	CreatedAt        time.Time   `json:"created_at"`
}

// MessageEmbedding is a 1:1 optional side-table to Message.
type MessageEmbedding struct {
	MessageID        string    `json:"message_id"`
	Vector           []float32 `json:"vector"` // fixed dimension, see pkg/embedder.Dimension
	EmbeddingModel   string    `json:"embedding_model"`
	EmbeddingVersion string    `json:"embedding_version"`
	EmbeddedText     string    `json:"embedded_text"`
	CreatedAt        time.Time `json:"created_at"`
}
