package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Conversation is a two-party exchange. Membership is symmetric: both
// participants see the same conversation, messages and updatedAt watermark.
type Conversation struct {
	ID           uuid.UUID
	Title        string
	Participants []uuid.UUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasParticipant reports whether userID belongs to the conversation.
func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	return lo.Contains(c.Participants, userID)
}

// Touch bumps the updatedAt watermark. Called on every new message or
// participant change so conversation lists sort by recency.
func (c *Conversation) Touch(now time.Time) {
	c.UpdatedAt = now
}

// ConversationView is a conversation rendered for one viewer: resolved
// participants, the latest message and the viewer's live unread count.
type ConversationView struct {
	Conversation Conversation
	Participants []User
	LastMessage  *Message
	UnreadCount  int64
}
