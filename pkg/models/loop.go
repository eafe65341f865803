package models

import "time"

// InterventionStatus tracks how a detected loop has been handled.
type InterventionStatus string

const (
	InterventionDetected   InterventionStatus = "detected"
	InterventionIntervened InterventionStatus = "intervened"
	InterventionBroken     InterventionStatus = "broken"
)

// ConversationLoop is a detected repeating pattern in the transcript.
type ConversationLoop struct {
	ID                     string             `json:"id"`
	ConversationID         string             `json:"conversation_id"`
	PatternHash            string             `json:"pattern_hash"` // stable fingerprint, unique per conversation
	Description            string             `json:"description"`
	LoopSize               int                `json:"loop_size"`        // messages composing one repeat
	RepetitionCount        int                `json:"repetition_count"` // >= 2
	FirstOccurrenceMessageID string           `json:"first_occurrence_message_id"`
	LastOccurrenceMessageID  string           `json:"last_occurrence_message_id"`
	InterventionStatus     InterventionStatus `json:"intervention_status"`
	SuggestedIntervention  string             `json:"suggested_intervention,omitempty"`
	DetectedAt             time.Time          `json:"detected_at"`
}
