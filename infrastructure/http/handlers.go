// Package http exposes the REST surface: account endpoints, conversation
// and message endpoints, and the read-state endpoint. Live delivery happens
// over the websocket; these handlers are the durable side of the system.
package http

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type API struct {
	log  *slog.Logger
	auth services.IAuthService
	chat services.IChatService
}

func NewAPI(log *slog.Logger, auth services.IAuthService, chat services.IChatService) *API {
	return &API{log: log, auth: auth, chat: chat}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type createConversationRequest struct {
	InitiatorID  string `json:"initiatorId"`
	TargetUserID string `json:"targetUserId"`
	TargetEmail  string `json:"targetEmail"`
	Title        string `json:"title"`
}

type sendMessageRequest struct {
	SenderID string `json:"senderId"`
	Content  string `json:"content"`
}

type markReadRequest struct {
	UserID    string `json:"userId"`
	MessageID *int64 `json:"messageId"`
}

type messageResponse struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type conversationResponse struct {
	ID           string           `json:"id"`
	Title        string           `json:"title,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	Participants []userResponse   `json:"participants"`
	LastMessage  *messageResponse `json:"lastMessage,omitempty"`
	UnreadCount  int64            `json:"unreadCount"`
}

func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := a.auth.Register(req.Email, req.Username, req.Password)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, authResponse{
		User:  toUserResponse(result.User),
		Token: result.Token,
	})
}

func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := a.auth.Login(req.Email, req.Username, req.Password)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, authResponse{
		User:  toUserResponse(result.User),
		Token: result.Token,
	})
}

func (a *API) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	views, err := a.chat.Conversations(r.Context(), userID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	responses := make([]conversationResponse, 0, len(views))
	for _, view := range views {
		responses = append(responses, toConversationResponse(view))
	}
	a.writeJSON(w, http.StatusOK, responses)
}

func (a *API) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	initiatorID, err := uuid.Parse(req.InitiatorID)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid initiator id")
		return
	}

	cmd := services.CreateConversationCommand{
		InitiatorID: initiatorID,
		TargetEmail: req.TargetEmail,
		Title:       req.Title,
	}
	if req.TargetUserID != "" {
		targetID, err := uuid.Parse(req.TargetUserID)
		if err != nil {
			a.writeError(w, http.StatusBadRequest, "invalid target user id")
			return
		}
		cmd.TargetUserID = &targetID
	}

	view, err := a.chat.CreateConversation(r.Context(), cmd)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, toConversationResponse(view))
}

func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	convID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	messages, err := a.chat.Messages(r.Context(), convID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	responses := make([]messageResponse, 0, len(messages))
	for _, msg := range messages {
		responses = append(responses, toMessageResponse(msg))
	}
	a.writeJSON(w, http.StatusOK, responses)
}

func (a *API) SendMessage(w http.ResponseWriter, r *http.Request) {
	convID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	senderID, err := uuid.Parse(req.SenderID)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid sender id")
		return
	}

	msg, err := a.chat.SendMessage(r.Context(), services.SendMessageCommand{
		ConversationID: convID,
		SenderID:       senderID,
		Content:        req.Content,
	})
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

func (a *API) MarkRead(w http.ResponseWriter, r *http.Request) {
	convID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		a.writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	view, err := a.chat.MarkConversationRead(r.Context(), services.MarkReadCommand{
		ConversationID: convID,
		UserID:         userID,
		MessageID:      req.MessageID,
	})
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, toConversationResponse(view))
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.Error("Failed to encode response", "error", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, status int, message string) {
	a.writeJSON(w, status, map[string]string{"error": message})
}

func (a *API) writeDomainError(w http.ResponseWriter, err error) {
	status := errors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		a.log.Error("Request failed", "error", err)
		a.writeError(w, status, "internal error")
		return
	}
	a.writeError(w, status, err.Error())
}

func toUserResponse(user domain.User) userResponse {
	return userResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func toMessageResponse(msg domain.Message) messageResponse {
	return messageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

func toConversationResponse(view domain.ConversationView) conversationResponse {
	resp := conversationResponse{
		ID:          view.Conversation.ID.String(),
		Title:       view.Conversation.Title,
		CreatedAt:   view.Conversation.CreatedAt,
		UpdatedAt:   view.Conversation.UpdatedAt,
		UnreadCount: view.UnreadCount,
	}
	resp.Participants = make([]userResponse, 0, len(view.Participants))
	for _, user := range view.Participants {
		resp.Participants = append(resp.Participants, toUserResponse(user))
	}
	if view.LastMessage != nil {
		msg := toMessageResponse(*view.LastMessage)
		resp.LastMessage = &msg
	}
	return resp
}
