//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IConversationRepository interface {
	Save(conv domain.Conversation) error
	GetByID(id uuid.UUID) (domain.Conversation, error)
	FindBetween(a, b uuid.UUID) (domain.Conversation, bool, error)
	ListForUser(userID uuid.UUID) ([]domain.Conversation, error)
}

type ConversationRepository struct {
	db *badger.DB
}

func NewConversationRepository(db *badger.DB) IConversationRepository {
	return &ConversationRepository{db: db}
}

type conversationRecord struct {
	ID           string    `json:"id"`
	Title        string    `json:"title,omitempty"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func conversationKey(id uuid.UUID) []byte {
	return []byte("conv:" + id.String())
}

// pairKey indexes a two-party conversation under its sorted participant
// pair, so repeated create requests between the same two users resolve to
// the existing conversation.
func pairKey(a, b uuid.UUID) []byte {
	low, high := a.String(), b.String()
	if strings.Compare(low, high) > 0 {
		low, high = high, low
	}
	return []byte("convpair:" + low + ":" + high)
}

func (c *ConversationRepository) Save(conv domain.Conversation) error {
	record, err := json.Marshal(fromConversation(conv))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(conversationKey(conv.ID), record); err != nil {
			return err
		}
		if len(conv.Participants) == 2 {
			key := pairKey(conv.Participants[0], conv.Participants[1])
			return txn.Set(key, []byte(conv.ID.String()))
		}
		return nil
	})
}

func (c *ConversationRepository) GetByID(id uuid.UUID) (domain.Conversation, error) {
	var record conversationRecord
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(conversationKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Conversation{}, errors.ErrConversationNotFound
		}
		return domain.Conversation{}, err
	}
	return toConversation(record)
}

// FindBetween returns the existing two-party conversation between a and b,
// if any. The boolean reports whether one was found.
func (c *ConversationRepository) FindBetween(a, b uuid.UUID) (domain.Conversation, bool, error) {
	var rawID []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(pairKey(a, b))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rawID = append([]byte(nil), val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Conversation{}, false, nil
	}
	if err != nil {
		return domain.Conversation{}, false, err
	}

	id, err := uuid.Parse(string(rawID))
	if err != nil {
		return domain.Conversation{}, false, err
	}
	conv, err := c.GetByID(id)
	if err != nil {
		return domain.Conversation{}, false, err
	}
	return conv, true, nil
}

// ListForUser scans the conversation prefix and keeps those the user is a
// participant of, newest activity first.
func (c *ConversationRepository) ListForUser(userID uuid.UUID) ([]domain.Conversation, error) {
	var records []conversationRecord
	err := c.db.View(func(txn *badger.Txn) error {
		prefix := []byte("conv:")
		options := badger.DefaultIteratorOptions
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record conversationRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			if lo.Contains(record.Participants, userID.String()) {
				records = append(records, record)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	conversations := make([]domain.Conversation, 0, len(records))
	for _, record := range records {
		conv, err := toConversation(record)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

func fromConversation(conv domain.Conversation) conversationRecord {
	return conversationRecord{
		ID:    conv.ID.String(),
		Title: conv.Title,
		Participants: lo.Map(conv.Participants, func(id uuid.UUID, _ int) string {
			return id.String()
		}),
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

func toConversation(record conversationRecord) (domain.Conversation, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Conversation{}, err
	}
	participants := make([]uuid.UUID, 0, len(record.Participants))
	for _, raw := range record.Participants {
		participantID, err := uuid.Parse(raw)
		if err != nil {
			return domain.Conversation{}, err
		}
		participants = append(participants, participantID)
	}
	return domain.Conversation{
		ID:           id,
		Title:        record.Title,
		Participants: participants,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}, nil
}
