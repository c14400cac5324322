package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUserAlreadyExists        = fmt.Errorf("a user with this email already exists")
	ErrUsernameTaken            = fmt.Errorf("username already in use")
	ErrInvalidCredentials       = fmt.Errorf("invalid credentials")
	ErrInvalidPassword          = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration          = fmt.Errorf("token generation failed")
	ErrMissingIdentifier        = fmt.Errorf("either email or username must be provided")
	ErrUserNotFound             = fmt.Errorf("user not found")
	ErrConversationNotFound     = fmt.Errorf("conversation not found")
	ErrMessageNotFound          = fmt.Errorf("message not found")
	ErrMessageNotInConversation = fmt.Errorf("message does not belong to the conversation")
	ErrNotParticipant           = fmt.Errorf("user is not part of the conversation")
	ErrSelfConversation         = fmt.Errorf("cannot start a conversation with yourself")
	ErrEmptyContent             = fmt.Errorf("message content cannot be empty")
	ErrMissingTarget            = fmt.Errorf("either targetUserId or targetEmail must be provided")
	ErrConnectionClosed         = fmt.Errorf("connection closed")
	ErrWorkerPanic              = fmt.Errorf("worker panic")
)

// MapToHTTPStatus translates domain sentinels into HTTP status codes.
// Unknown errors fall back to 500 so internals are never leaked to clients.
func MapToHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrConversationNotFound),
		errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrMissingIdentifier),
		errors.Is(err, ErrMessageNotInConversation),
		errors.Is(err, ErrNotParticipant),
		errors.Is(err, ErrSelfConversation),
		errors.Is(err, ErrEmptyContent),
		errors.Is(err, ErrMissingTarget):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
