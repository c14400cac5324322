package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newConversation(a, b uuid.UUID, updatedAt time.Time) domain.Conversation {
	return domain.Conversation{
		ID:           uuid.New(),
		Participants: []uuid.UUID{a, b},
		CreatedAt:    updatedAt,
		UpdatedAt:    updatedAt,
	}
}

func TestConversationRepository_Save_And_GetByID(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t))
	alice, bob := uuid.New(), uuid.New()
	conv := newConversation(alice, bob, time.Now().UTC().Truncate(time.Millisecond))
	conv.Title = "project talk"

	req.NoError(repository.Save(conv))

	loaded, err := repository.GetByID(conv.ID)
	req.NoError(err)
	req.Equal(conv.ID, loaded.ID)
	req.Equal("project talk", loaded.Title)
	req.ElementsMatch(conv.Participants, loaded.Participants)
}

func TestConversationRepository_GetByID_Unknown(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t))

	_, err := repository.GetByID(uuid.New())

	req.ErrorIs(err, errors.ErrConversationNotFound)
}

func TestConversationRepository_FindBetween_Is_Order_Insensitive(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t))
	alice, bob := uuid.New(), uuid.New()
	conv := newConversation(alice, bob, time.Now().UTC())
	req.NoError(repository.Save(conv))

	// When looking the pair up in both orders
	found, ok, err := repository.FindBetween(alice, bob)
	req.NoError(err)
	req.True(ok)
	req.Equal(conv.ID, found.ID)

	found, ok, err = repository.FindBetween(bob, alice)
	req.NoError(err)
	req.True(ok)
	req.Equal(conv.ID, found.ID)
}

func TestConversationRepository_FindBetween_Absent_Pair(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t))

	_, ok, err := repository.FindBetween(uuid.New(), uuid.New())

	req.NoError(err)
	req.False(ok)
}

func TestConversationRepository_ListForUser_Sorted_By_Activity(t *testing.T) {
	req := require.New(t)
	repository := NewConversationRepository(openTestDB(t))
	alice, bob, clara := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC().Truncate(time.Millisecond)

	older := newConversation(alice, bob, now.Add(-time.Hour))
	newer := newConversation(alice, clara, now)
	unrelated := newConversation(bob, clara, now)
	req.NoError(repository.Save(older))
	req.NoError(repository.Save(newer))
	req.NoError(repository.Save(unrelated))

	// When listing alice's conversations
	conversations, err := repository.ListForUser(alice)
	req.NoError(err)

	// Then only hers come back, most recent activity first
	req.Len(conversations, 2)
	req.Equal(newer.ID, conversations[0].ID)
	req.Equal(older.ID, conversations[1].ID)
}
