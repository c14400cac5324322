//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type IAuthService interface {
	Register(email, username, password string) (AuthResult, error)
	Login(email, username, password string) (AuthResult, error)
}

// AuthResult carries the authenticated user and a signed session token.
// The token's subject is the user id; the websocket handshake accepts it.
type AuthResult struct {
	User  domain.User
	Token string
}

type AuthService struct {
	userRepository repositories.IUserRepository
	tokenDuration  time.Duration
}

func NewAuthService(repo repositories.IUserRepository, tokenDuration time.Duration) IAuthService {
	return &AuthService{userRepository: repo, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(email, username, password string) (AuthResult, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	// Validate before any expensive cryptographic operation.
	valReq := auth.RegisterRequest{
		Email:    email,
		Username: username,
		Password: password,
	}
	if err := auth.ValidateRegister(valReq); err != nil {
		return AuthResult{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens in the service layer to keep the repository unaware
	// of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hashing failed: %w", err)
	}

	user := domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        strings.ToLower(email),
		PasswordHash: hashedPassword,
		Roles:        []string{"user"},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepository.Create(user); err != nil {
		return AuthResult{}, err // propagates ErrUserAlreadyExists / ErrUsernameTaken
	}

	token, err := auth.GenerateToken(user.ID.String(), user.Roles, s.tokenDuration)
	if err != nil {
		return AuthResult{}, errors.ErrTokenGeneration
	}

	return AuthResult{User: user, Token: token}, nil
}

// Login authenticates by email or username. Lookup and comparison failures
// collapse into one generic error to prevent user enumeration.
func (s *AuthService) Login(email, username, password string) (AuthResult, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)

	valReq := auth.LoginRequest{Email: email, Username: username, Password: password}
	if err := auth.ValidateLogin(valReq); err != nil {
		return AuthResult{}, err
	}

	var user domain.User
	var err error
	if email != "" {
		user, err = s.userRepository.GetByEmail(email)
	} else {
		user, err = s.userRepository.GetByUsername(username)
	}
	if err != nil {
		return AuthResult{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return AuthResult{}, errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID.String(), user.Roles, s.tokenDuration)
	if err != nil {
		return AuthResult{}, errors.ErrTokenGeneration
	}

	return AuthResult{User: user, Token: token}, nil
}
