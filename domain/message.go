package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is an immutable chat event. IDs are assigned by storage from a
// monotonic sequence; they are the ordering key for chronological replay
// and for unread-count comparison.
type Message struct {
	ID             int64
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	CreatedAt      time.Time
}
