package http

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type apiFixture struct {
	auth   *mocks.MockIAuthService
	chat   *mocks.MockIChatService
	server *httptest.Server
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	authMock := mocks.NewMockIAuthService(ctrl)
	chatMock := mocks.NewMockIChatService(ctrl)

	api := NewAPI(slog.Default(), authMock, chatMock)
	router := NewRouter(api, http.NotFoundHandler(), prometheus.NewRegistry())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return apiFixture{auth: authMock, chat: chatMock, server: server}
}

func (f apiFixture) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.server.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func (f apiFixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAPI_Register(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	user := domain.User{
		ID:        uuid.New(),
		Username:  "alice",
		Email:     "alice@example.com",
		CreatedAt: time.Now().UTC(),
	}
	f.auth.EXPECT().
		Register("alice@example.com", "alice", "ComplexPass123!").
		Return(services.AuthResult{User: user, Token: "signed-token"}, nil)

	resp := f.post(t, "/api/chat/register", map[string]string{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "ComplexPass123!",
	})

	req.Equal(http.StatusCreated, resp.StatusCode)
	body := decode[authResponse](t, resp)
	req.Equal("signed-token", body.Token)
	req.Equal(user.ID.String(), body.User.ID)
}

func TestAPI_Register_Conflict(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.auth.EXPECT().
		Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(services.AuthResult{}, errors.ErrUserAlreadyExists)

	resp := f.post(t, "/api/chat/register", map[string]string{
		"email":    "dupe@example.com",
		"username": "dupe",
		"password": "ComplexPass123!",
	})

	req.Equal(http.StatusConflict, resp.StatusCode)
}

func TestAPI_Login_Unauthorized(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	f.auth.EXPECT().
		Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(services.AuthResult{}, errors.ErrInvalidCredentials)

	resp := f.post(t, "/api/chat/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})

	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_CreateConversation(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	initiatorID := uuid.New()
	targetID := uuid.New()
	convID := uuid.New()

	f.chat.EXPECT().
		CreateConversation(gomock.Any(), gomock.Cond(func(cmd services.CreateConversationCommand) bool {
			return cmd.InitiatorID == initiatorID &&
				cmd.TargetUserID != nil && *cmd.TargetUserID == targetID
		})).
		Return(domain.ConversationView{
			Conversation: domain.Conversation{
				ID:           convID,
				Participants: []uuid.UUID{initiatorID, targetID},
			},
		}, nil)

	resp := f.post(t, "/api/chat/conversations", map[string]string{
		"initiatorId":  initiatorID.String(),
		"targetUserId": targetID.String(),
	})

	req.Equal(http.StatusCreated, resp.StatusCode)
	body := decode[conversationResponse](t, resp)
	req.Equal(convID.String(), body.ID)
}

func TestAPI_CreateConversation_Bad_Ids(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)

	resp := f.post(t, "/api/chat/conversations", map[string]string{
		"initiatorId": "not-a-uuid",
	})

	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_SendMessage(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	convID := uuid.New()
	senderID := uuid.New()

	f.chat.EXPECT().
		SendMessage(gomock.Any(), services.SendMessageCommand{
			ConversationID: convID,
			SenderID:       senderID,
			Content:        "hello",
		}).
		Return(domain.Message{
			ID:             3,
			ConversationID: convID,
			SenderID:       senderID,
			Content:        "hello",
		}, nil)

	resp := f.post(t, "/api/chat/conversations/"+convID.String()+"/messages", map[string]string{
		"senderId": senderID.String(),
		"content":  "hello",
	})

	req.Equal(http.StatusCreated, resp.StatusCode)
	body := decode[messageResponse](t, resp)
	req.Equal(int64(3), body.ID)
	req.Equal("hello", body.Content)
}

func TestAPI_SendMessage_Forbidden_Maps_To_400(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	convID := uuid.New()

	f.chat.EXPECT().
		SendMessage(gomock.Any(), gomock.Any()).
		Return(domain.Message{}, errors.ErrNotParticipant)

	resp := f.post(t, "/api/chat/conversations/"+convID.String()+"/messages", map[string]string{
		"senderId": uuid.NewString(),
		"content":  "hello",
	})

	req.Equal(http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ListMessages_Unknown_Conversation(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	convID := uuid.New()

	f.chat.EXPECT().
		Messages(gomock.Any(), convID).
		Return(nil, errors.ErrConversationNotFound)

	resp := f.get(t, "/api/chat/conversations/"+convID.String()+"/messages")

	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ListConversations(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	userID := uuid.New()
	other := uuid.New()

	f.chat.EXPECT().
		Conversations(gomock.Any(), userID).
		Return([]domain.ConversationView{
			{
				Conversation: domain.Conversation{
					ID:           uuid.New(),
					Participants: []uuid.UUID{userID, other},
				},
				LastMessage: &domain.Message{ID: 9, Content: "latest"},
				UnreadCount: 4,
			},
		}, nil)

	resp := f.get(t, "/api/chat/users/"+userID.String()+"/conversations")

	req.Equal(http.StatusOK, resp.StatusCode)
	body := decode[[]conversationResponse](t, resp)
	req.Len(body, 1)
	req.Equal(int64(4), body[0].UnreadCount)
	req.NotNil(body[0].LastMessage)
	req.Equal("latest", body[0].LastMessage.Content)
}

func TestAPI_MarkRead(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	convID := uuid.New()
	userID := uuid.New()
	messageID := int64(5)

	f.chat.EXPECT().
		MarkConversationRead(gomock.Any(), services.MarkReadCommand{
			ConversationID: convID,
			UserID:         userID,
			MessageID:      &messageID,
		}).
		Return(domain.ConversationView{
			Conversation: domain.Conversation{ID: convID},
			UnreadCount:  0,
		}, nil)

	resp := f.post(t, "/api/chat/conversations/"+convID.String()+"/read", map[string]any{
		"userId":    userID.String(),
		"messageId": messageID,
	})

	req.Equal(http.StatusOK, resp.StatusCode)
	body := decode[conversationResponse](t, resp)
	req.Zero(body.UnreadCount)
}

func TestAPI_MarkRead_Foreign_Message(t *testing.T) {
	req := require.New(t)
	f := newAPIFixture(t)
	convID := uuid.New()

	f.chat.EXPECT().
		MarkConversationRead(gomock.Any(), gomock.Any()).
		Return(domain.ConversationView{}, errors.ErrMessageNotInConversation)

	resp := f.post(t, "/api/chat/conversations/"+convID.String()+"/read", map[string]any{
		"userId": uuid.NewString(),
	})

	req.Equal(http.StatusBadRequest, resp.StatusCode)
}
