package dto

import (
	"time"

	"github.com/google/uuid"
)

// ScoredReplyMessage travels on the in-process scored-reply topic.
type ScoredReplyMessage struct {
	ChildId        uuid.UUID `json:"child_id"`
	ConversationId uuid.UUID `json:"conversation_id"`
	MessageId      uuid.UUID `json:"message_id"`
	Question       string    `json:"question"`
	Score          int       `json:"score"`
	ScoredAt       time.Time `json:"scored_at"`
}

// MisuseAlertResponse is pushed to parents over the websocket.
type MisuseAlertResponse struct {
	ChildId        uuid.UUID `json:"child_id"`
	ChildName      string    `json:"child_name"`
	ConversationId uuid.UUID `json:"conversation_id"`
	MessageId      uuid.UUID `json:"message_id"`
	Question       string    `json:"question"`
	Score          int       `json:"score"`
	FlaggedAt      time.Time `json:"flagged_at"`
}
