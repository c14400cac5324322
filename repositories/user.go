//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	Create(user domain.User) error
	GetByID(id uuid.UUID) (domain.User, error)
	GetByEmail(email string) (domain.User, error)
	GetByUsername(username string) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// userRecord is the stored shape. Email and username are additionally
// indexed by dedicated keys pointing at the user id, both lowercased so
// lookups are case-insensitive.
type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
}

func userIDKey(id uuid.UUID) []byte {
	return []byte("user:id:" + id.String())
}

func userEmailKey(email string) []byte {
	return []byte("user:email:" + strings.ToLower(email))
}

func userNameKey(username string) []byte {
	return []byte("user:name:" + strings.ToLower(username))
}

// Create persists the user together with its email and username index keys.
// Uniqueness of both is checked inside the same transaction, so two
// concurrent registrations cannot both claim the same email.
func (u *UserRepository) Create(user domain.User) error {
	record, err := json.Marshal(fromUser(user))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userEmailKey(user.Email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if _, err := txn.Get(userNameKey(user.Username)); err == nil {
			return errors.ErrUsernameTaken
		}
		if err := txn.Set(userIDKey(user.ID), record); err != nil {
			return err
		}
		if err := txn.Set(userEmailKey(user.Email), []byte(user.ID.String())); err != nil {
			return err
		}
		return txn.Set(userNameKey(user.Username), []byte(user.ID.String()))
	})
}

func (u *UserRepository) GetByID(id uuid.UUID) (domain.User, error) {
	var record userRecord
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userIDKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.User{}, mapUserErr(err)
	}
	return toUser(record)
}

func (u *UserRepository) GetByEmail(email string) (domain.User, error) {
	return u.getByIndex(userEmailKey(email))
}

func (u *UserRepository) GetByUsername(username string) (domain.User, error) {
	return u.getByIndex(userNameKey(username))
}

// getByIndex resolves an index key to a user id, then loads the record.
func (u *UserRepository) getByIndex(indexKey []byte) (domain.User, error) {
	var record userRecord
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey)
		if err != nil {
			return err
		}
		var id []byte
		if err := item.Value(func(val []byte) error {
			id = append([]byte(nil), val...)
			return nil
		}); err != nil {
			return err
		}

		item, err = txn.Get([]byte("user:id:" + string(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.User{}, mapUserErr(err)
	}
	return toUser(record)
}

func mapUserErr(err error) error {
	if err == badger.ErrKeyNotFound {
		return errors.ErrUserNotFound
	}
	return err
}

func fromUser(user domain.User) userRecord {
	return userRecord{
		ID:           user.ID.String(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Roles:        user.Roles,
		CreatedAt:    user.CreatedAt,
	}
}

func toUser(record userRecord) (domain.User, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:           id,
		Username:     record.Username,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		Roles:        record.Roles,
		CreatedAt:    record.CreatedAt,
	}, nil
}
