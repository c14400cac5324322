//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Append(msg domain.Message) (domain.Message, error)
	ListByConversation(convID uuid.UUID) ([]domain.Message, error)
	Newest(convID uuid.UUID) (*domain.Message, error)
	Count(convID uuid.UUID) (int64, error)
	CountAfter(convID uuid.UUID, messageID int64) (int64, error)
	Resolve(messageID int64) (domain.Message, error)
	Close() error
}

type MessageRepository struct {
	db  *badger.DB
	seq *badger.Sequence
	log *slog.Logger
}

// NewMessageRepository reserves a badger sequence for message ids.
// Ids are monotonically increasing per store, which makes them the ordering
// key for chronological replay and unread-count comparison.
func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte("seq:message"), 128)
	if err != nil {
		return nil, fmt.Errorf("message sequence init failed: %w", err)
	}
	return &MessageRepository{db: db, seq: seq, log: log}, nil
}

type messageRecord struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// messageKey is "msg:{conversation}:{id padded to 19 digits}". The zero
// padding makes lexicographical key order equal numeric id order, so prefix
// scans return messages chronologically.
func messageKey(convID uuid.UUID, id int64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d", convID, id))
}

func conversationPrefix(convID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", convID))
}

// messageIDKey is the global id index, used to resolve a message without
// knowing its conversation (read-mark validation).
func messageIDKey(id int64) []byte {
	return []byte(fmt.Sprintf("msgid:%019d", id))
}

// Append assigns the next sequence id and persists the message under both
// its conversation key and the global id index in one transaction.
func (m *MessageRepository) Append(msg domain.Message) (domain.Message, error) {
	next, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("sequence next failed: %w", err)
	}
	// Sequence values start at 0; ids start at 1.
	msg.ID = int64(next) + 1

	record, err := json.Marshal(fromMessage(msg))
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal failed: %w", err)
	}

	convID := msg.ConversationID
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(convID, msg.ID), record); err != nil {
			return err
		}
		return txn.Set(messageIDKey(msg.ID), record)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

func (m *MessageRepository) ListByConversation(convID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := conversationPrefix(convID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record messageRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			msg, err := toMessage(record)
			if err != nil {
				return err
			}
			messages = append(messages, msg)
		}
		return nil
	})
	return messages, err
}

// Newest returns the message with the highest id in the conversation, or
// nil when the conversation has no messages.
func (m *MessageRepository) Newest(convID uuid.UUID) (*domain.Message, error) {
	var newest *domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := conversationPrefix(convID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the largest possible padded id, then step back.
		seekKey := append(append([]byte(nil), prefix...), []byte("9999999999999999999")...)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefix) {
			return nil
		}

		var record messageRecord
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
		if err != nil {
			return err
		}
		msg, err := toMessage(record)
		if err != nil {
			return err
		}
		newest = &msg
		return nil
	})
	return newest, err
}

func (m *MessageRepository) Count(convID uuid.UUID) (int64, error) {
	return m.countFrom(convID, 1)
}

// CountAfter counts messages in the conversation with id > messageID.
func (m *MessageRepository) CountAfter(convID uuid.UUID, messageID int64) (int64, error) {
	return m.countFrom(convID, messageID+1)
}

func (m *MessageRepository) countFrom(convID uuid.UUID, firstID int64) (int64, error) {
	var count int64
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := conversationPrefix(convID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(messageKey(convID, firstID)); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Resolve looks a message up by id alone via the global index.
func (m *MessageRepository) Resolve(messageID int64) (domain.Message, error) {
	var record messageRecord
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(messageIDKey(messageID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Message{}, errors.ErrMessageNotFound
		}
		return domain.Message{}, err
	}
	return toMessage(record)
}

// Close releases unused sequence ids back to badger.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

func fromMessage(msg domain.Message) messageRecord {
	return messageRecord{
		ID:             msg.ID,
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

func toMessage(record messageRecord) (domain.Message, error) {
	convID, err := uuid.Parse(record.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	senderID, err := uuid.Parse(record.SenderID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:             record.ID,
		ConversationID: convID,
		SenderID:       senderID,
		Content:        record.Content,
		CreatedAt:      record.CreatedAt,
	}, nil
}
