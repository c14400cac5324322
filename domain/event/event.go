// Package event defines the closed set of domain events delivered to live
// connections, and the single codec that turns them into wire envelopes.
package event

import (
	"encoding/json"
	"time"
)

// Kind doubles as the "type" discriminator on the wire envelope.
type Kind string

const (
	KindMessage      Kind = "message"
	KindConversation Kind = "conversation"
	KindTyping       Kind = "typing"
	KindStatus       Kind = "status"
)

type DomainEvent interface {
	Kind() Kind
}

// UserSummary is the projection of a participant carried inside events.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DisplayName resolves the name shown next to a typing indicator,
// preferring the username over the email.
func (u UserSummary) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// MessageReceived is fanned out to every participant of the conversation
// after the message has been durably stored.
type MessageReceived struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (MessageReceived) Kind() Kind { return KindMessage }

// ConversationUpdated is fanned out on creation or participant change.
type ConversationUpdated struct {
	ID           string           `json:"id"`
	Title        string           `json:"title,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	Participants []UserSummary    `json:"participants"`
	LastMessage  *MessageReceived `json:"lastMessage,omitempty"`
	UnreadCount  int64            `json:"unreadCount"`
}

func (ConversationUpdated) Kind() Kind { return KindConversation }

// TypingSignal is fanned out to every participant except its originator.
type TypingSignal struct {
	ConversationID string       `json:"conversationId"`
	UserID         string       `json:"userId"`
	IsTyping       bool         `json:"isTyping"`
	User           *UserSummary `json:"user,omitempty"`
}

func (TypingSignal) Kind() Kind { return KindTyping }

// ConnectionStatus acknowledges a successful handshake. It is addressed to
// the single newly registered connection, never broadcast.
type ConnectionStatus struct {
	Status string
}

func (ConnectionStatus) Kind() Kind { return KindStatus }

// envelope is the default wire shape: {"type": ..., "payload": ...}.
type envelope struct {
	Type    Kind `json:"type"`
	Payload any  `json:"payload"`
}

// typingEnvelope flattens the typing payload to the top level. Clients read
// conversationId/userId/isTyping directly; the nested payload and the legacy
// "typing" alias are kept for older consumers.
type typingEnvelope struct {
	Type           Kind         `json:"type"`
	ConversationID string       `json:"conversationId"`
	UserID         string       `json:"userId"`
	IsTyping       bool         `json:"isTyping"`
	Typing         bool         `json:"typing"`
	Status         string       `json:"status"`
	DisplayName    string       `json:"displayName,omitempty"`
	User           *UserSummary `json:"user,omitempty"`
	Payload        TypingSignal `json:"payload"`
}

// Encode serializes one event into its wire envelope. Callers encode once
// per dispatch and reuse the frame for every recipient connection.
func Encode(e DomainEvent) ([]byte, error) {
	switch evt := e.(type) {
	case TypingSignal:
		status := "stopped"
		if evt.IsTyping {
			status = "typing"
		}
		env := typingEnvelope{
			Type:           KindTyping,
			ConversationID: evt.ConversationID,
			UserID:         evt.UserID,
			IsTyping:       evt.IsTyping,
			Typing:         evt.IsTyping,
			Status:         status,
			User:           evt.User,
			Payload:        evt,
		}
		if evt.User != nil {
			env.DisplayName = evt.User.DisplayName()
		}
		return json.Marshal(env)
	case ConnectionStatus:
		return json.Marshal(envelope{Type: KindStatus, Payload: evt.Status})
	default:
		return json.Marshal(envelope{Type: e.Kind(), Payload: e})
	}
}
