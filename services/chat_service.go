//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type CreateConversationCommand struct {
	InitiatorID  uuid.UUID
	TargetUserID *uuid.UUID
	TargetEmail  string
	Title        string
}

type SendMessageCommand struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
}

type MarkReadCommand struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID
	MessageID      *int64
}

type IChatService interface {
	CreateConversation(ctx context.Context, cmd CreateConversationCommand) (domain.ConversationView, error)
	Conversations(ctx context.Context, userID uuid.UUID) ([]domain.ConversationView, error)
	Messages(ctx context.Context, convID uuid.UUID) ([]domain.Message, error)
	SendMessage(ctx context.Context, cmd SendMessageCommand) (domain.Message, error)
	MarkConversationRead(ctx context.Context, cmd MarkReadCommand) (domain.ConversationView, error)
	HandleTyping(ctx context.Context, convID, userID uuid.UUID, isTyping bool) error
}

// ChatService is the transactional domain logic around conversations,
// messages and read-state. Every durable state change completes before the
// dispatcher is invoked, so a recipient never observes a live event for
// state it cannot yet read back.
type ChatService struct {
	log           *slog.Logger
	users         repositories.IUserRepository
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	readStates    repositories.IReadStateRepository
	dispatcher    contract.IDispatcher
	moderator     *moderation.Moderator
	metrics       *observability.Metrics
}

func NewChatService(
	log *slog.Logger,
	users repositories.IUserRepository,
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	readStates repositories.IReadStateRepository,
	dispatcher contract.IDispatcher,
	moderator *moderation.Moderator,
	metrics *observability.Metrics,
) *ChatService {
	return &ChatService{
		log:           log,
		users:         users,
		conversations: conversations,
		messages:      messages,
		readStates:    readStates,
		dispatcher:    dispatcher,
		moderator:     moderator,
		metrics:       metrics,
	}
}

// CreateConversation starts (or revives) the two-party conversation between
// the initiator and the target, then fans a conversation-upsert event out
// to both participants.
func (s *ChatService) CreateConversation(_ context.Context, cmd CreateConversationCommand) (domain.ConversationView, error) {
	initiator, err := s.users.GetByID(cmd.InitiatorID)
	if err != nil {
		return domain.ConversationView{}, err
	}

	target, err := s.resolveTarget(cmd)
	if err != nil {
		return domain.ConversationView{}, err
	}
	if initiator.ID == target.ID {
		return domain.ConversationView{}, errors.ErrSelfConversation
	}

	now := time.Now().UTC()
	conv, found, err := s.conversations.FindBetween(initiator.ID, target.ID)
	if err != nil {
		return domain.ConversationView{}, err
	}
	if !found {
		conv = domain.Conversation{
			ID:           uuid.New(),
			Participants: []uuid.UUID{initiator.ID, target.ID},
			CreatedAt:    now,
		}
	}
	if title := strings.TrimSpace(cmd.Title); title != "" {
		conv.Title = title
	}
	conv.Touch(now)

	if err := s.conversations.Save(conv); err != nil {
		return domain.ConversationView{}, err
	}

	view, err := s.buildView(conv, initiator.ID)
	if err != nil {
		return domain.ConversationView{}, err
	}

	s.dispatcher.Dispatch(conv.Participants, toConversationEvent(view))
	return view, nil
}

func (s *ChatService) Conversations(_ context.Context, userID uuid.UUID) ([]domain.ConversationView, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}

	conversations, err := s.conversations.ListForUser(user.ID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ConversationView, 0, len(conversations))
	for _, conv := range conversations {
		view, err := s.buildView(conv, user.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *ChatService) Messages(_ context.Context, convID uuid.UUID) ([]domain.Message, error) {
	if _, err := s.conversations.GetByID(convID); err != nil {
		return nil, err
	}
	return s.messages.ListByConversation(convID)
}

// SendMessage persists the message, bumps the conversation watermark,
// advances the sender's own read-state, then fans the message out to all
// participants (the sender included, so every device converges on the same
// stored truth).
func (s *ChatService) SendMessage(_ context.Context, cmd SendMessageCommand) (domain.Message, error) {
	conv, err := s.conversations.GetByID(cmd.ConversationID)
	if err != nil {
		return domain.Message{}, err
	}
	sender, err := s.users.GetByID(cmd.SenderID)
	if err != nil {
		return domain.Message{}, err
	}
	if !conv.HasParticipant(sender.ID) {
		return domain.Message{}, errors.ErrNotParticipant
	}

	content := strings.TrimSpace(cmd.Content)
	if content == "" {
		return domain.Message{}, errors.ErrEmptyContent
	}
	if s.moderator != nil {
		content = s.moderator.Censor(content)
	}

	now := time.Now().UTC()
	msg, err := s.messages.Append(domain.Message{
		ConversationID: conv.ID,
		SenderID:       sender.ID,
		Content:        content,
		CreatedAt:      now,
	})
	if err != nil {
		return domain.Message{}, err
	}
	s.metrics.MessagesStored.Inc()

	conv.Touch(now)
	if err := s.conversations.Save(conv); err != nil {
		return domain.Message{}, err
	}

	// The sender has obviously seen their own message.
	if err := s.readStates.Upsert(domain.ReadState{
		ConversationID:    conv.ID,
		UserID:            sender.ID,
		LastReadMessageID: &msg.ID,
		LastReadAt:        now,
	}); err != nil {
		return domain.Message{}, err
	}

	s.dispatcher.Dispatch(conv.Participants, toMessageEvent(msg))
	return msg, nil
}

// MarkConversationRead moves the user's read bookmark. With an explicit
// message id the message must belong to the conversation; without one the
// bookmark moves to the newest message at call time (nil for an empty
// conversation). Re-marking with the same or an older id still succeeds:
// last write wins.
func (s *ChatService) MarkConversationRead(_ context.Context, cmd MarkReadCommand) (domain.ConversationView, error) {
	conv, err := s.conversations.GetByID(cmd.ConversationID)
	if err != nil {
		return domain.ConversationView{}, err
	}
	user, err := s.users.GetByID(cmd.UserID)
	if err != nil {
		return domain.ConversationView{}, err
	}
	if !conv.HasParticipant(user.ID) {
		return domain.ConversationView{}, errors.ErrNotParticipant
	}

	var lastReadMessageID *int64
	if cmd.MessageID != nil {
		msg, err := s.messages.Resolve(*cmd.MessageID)
		if err != nil {
			return domain.ConversationView{}, err
		}
		if msg.ConversationID != conv.ID {
			return domain.ConversationView{}, errors.ErrMessageNotInConversation
		}
		lastReadMessageID = &msg.ID
	} else {
		newest, err := s.messages.Newest(conv.ID)
		if err != nil {
			return domain.ConversationView{}, err
		}
		if newest != nil {
			lastReadMessageID = &newest.ID
		}
	}

	if err := s.readStates.Upsert(domain.ReadState{
		ConversationID:    conv.ID,
		UserID:            user.ID,
		LastReadMessageID: lastReadMessageID,
		LastReadAt:        time.Now().UTC(),
	}); err != nil {
		return domain.ConversationView{}, err
	}

	return s.buildView(conv, user.ID)
}

// HandleTyping relays a typing signal to every participant except its
// originator. A user may only emit typing signals in conversations they
// belong to.
func (s *ChatService) HandleTyping(_ context.Context, convID, userID uuid.UUID, isTyping bool) error {
	conv, err := s.conversations.GetByID(convID)
	if err != nil {
		return err
	}
	user, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(user.ID) {
		return errors.ErrNotParticipant
	}

	recipients := lo.Filter(conv.Participants, func(id uuid.UUID, _ int) bool {
		return id != user.ID
	})

	summary := toUserSummary(user)
	s.dispatcher.Dispatch(recipients, event.TypingSignal{
		ConversationID: conv.ID.String(),
		UserID:         user.ID.String(),
		IsTyping:       isTyping,
		User:           &summary,
	})
	return nil
}

func (s *ChatService) resolveTarget(cmd CreateConversationCommand) (domain.User, error) {
	if cmd.TargetUserID != nil {
		return s.users.GetByID(*cmd.TargetUserID)
	}
	if email := strings.TrimSpace(cmd.TargetEmail); email != "" {
		return s.users.GetByEmail(email)
	}
	return domain.User{}, errors.ErrMissingTarget
}

// unreadCount derives the viewer's unread count from the read bookmark.
// Recomputed on every call, never cached: new messages can arrive between
// computations.
func (s *ChatService) unreadCount(conv domain.Conversation, userID uuid.UUID) (int64, error) {
	state, err := s.readStates.Get(conv.ID, userID)
	if err != nil {
		return 0, err
	}
	if state != nil && state.LastReadMessageID != nil {
		return s.messages.CountAfter(conv.ID, *state.LastReadMessageID)
	}
	return s.messages.Count(conv.ID)
}

func (s *ChatService) buildView(conv domain.Conversation, viewerID uuid.UUID) (domain.ConversationView, error) {
	participants := make([]domain.User, 0, len(conv.Participants))
	for _, id := range conv.Participants {
		user, err := s.users.GetByID(id)
		if err != nil {
			return domain.ConversationView{}, err
		}
		participants = append(participants, user)
	}

	lastMessage, err := s.messages.Newest(conv.ID)
	if err != nil {
		return domain.ConversationView{}, err
	}

	unread, err := s.unreadCount(conv, viewerID)
	if err != nil {
		return domain.ConversationView{}, err
	}

	return domain.ConversationView{
		Conversation: conv,
		Participants: participants,
		LastMessage:  lastMessage,
		UnreadCount:  unread,
	}, nil
}

func toUserSummary(user domain.User) event.UserSummary {
	return event.UserSummary{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
	}
}

func toMessageEvent(msg domain.Message) event.MessageReceived {
	return event.MessageReceived{
		ID:             msg.ID,
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
}

func toConversationEvent(view domain.ConversationView) event.ConversationUpdated {
	evt := event.ConversationUpdated{
		ID:        view.Conversation.ID.String(),
		Title:     view.Conversation.Title,
		CreatedAt: view.Conversation.CreatedAt,
		UpdatedAt: view.Conversation.UpdatedAt,
		Participants: lo.Map(view.Participants, func(user domain.User, _ int) event.UserSummary {
			return toUserSummary(user)
		}),
		UnreadCount: view.UnreadCount,
	}
	if view.LastMessage != nil {
		lastMessage := toMessageEvent(*view.LastMessage)
		evt.LastMessage = &lastMessage
	}
	return evt
}
