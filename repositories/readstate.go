//go:generate go run go.uber.org/mock/mockgen -source=readstate.go -destination=../mocks/mock_readstate_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IReadStateRepository interface {
	Upsert(state domain.ReadState) error
	Get(convID, userID uuid.UUID) (*domain.ReadState, error)
}

type ReadStateRepository struct {
	db *badger.DB
}

func NewReadStateRepository(db *badger.DB) IReadStateRepository {
	return &ReadStateRepository{db: db}
}

type readStateRecord struct {
	LastReadMessageID *int64    `json:"lastReadMessageId"`
	LastReadAt        time.Time `json:"lastReadAt"`
}

func readStateKey(convID, userID uuid.UUID) []byte {
	return []byte("read:" + convID.String() + ":" + userID.String())
}

// Upsert overwrites the row unconditionally: last write wins, no monotonic
// check on the message id.
func (r *ReadStateRepository) Upsert(state domain.ReadState) error {
	record, err := json.Marshal(readStateRecord{
		LastReadMessageID: state.LastReadMessageID,
		LastReadAt:        state.LastReadAt,
	})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(readStateKey(state.ConversationID, state.UserID), record)
	})
}

// Get returns nil (no error) when the pair has never been marked read.
func (r *ReadStateRepository) Get(convID, userID uuid.UUID) (*domain.ReadState, error) {
	var record readStateRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(readStateKey(convID, userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.ReadState{
		ConversationID:    convID,
		UserID:            userID,
		LastReadMessageID: record.LastReadMessageID,
		LastReadAt:        record.LastReadAt,
	}, nil
}
