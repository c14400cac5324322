package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReadState is a per (conversation, user) bookmark of the last message the
// user has seen. A nil LastReadMessageID means the user marked an empty
// conversation read, or never marked it at all.
//
// Updates are last-write-wins: marking read with an older message id than
// the stored one still overwrites the pointer and timestamp.
type ReadState struct {
	ConversationID    uuid.UUID
	UserID            uuid.UUID
	LastReadMessageID *int64
	LastReadAt        time.Time
}
