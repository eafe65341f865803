package models

import "time"

// Citation gives the citation health component a real producer: a
// participant's claim, the source it cites, and whether that source has
// been verified.
//
// When no Citations exist for a conversation, the citation health component
// stays at its neutral default of 100.
type Citation struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	Claim          string    `json:"claim"`
	Source         string    `json:"source"`
	Verified       bool      `json:"verified"`
	CreatedAt      time.Time `json:"created_at"`
}
