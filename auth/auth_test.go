package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MonMotDePasseTr0pSûr!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Wrong password must not match
	match, err = ComparePassword("MauvaisMDP", hash)
	req.NoError(err)
	req.False(match)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"test@example.com", "tester", "ComplexPass123!"}, false},
		{"Invalid email", RegisterRequest{"notanemail", "tester", "ComplexPass123!"}, true},
		{"Username too short", RegisterRequest{"test@example.com", "ab", "ComplexPass123!"}, true},
		{"Password too short", RegisterRequest{"test@example.com", "tester", "Short1!"}, true},
		{"Missing digit", RegisterRequest{"test@example.com", "tester", "NoDigitPassword!"}, true},
		{"Missing special char", RegisterRequest{"test@example.com", "tester", "NoSpecialChar123"}, true},
		{"Missing uppercase", RegisterRequest{"test@example.com", "tester", "nouppercase123!!"}, true},
		{"Password too long (edge case)", RegisterRequest{"test@example.com", "tester", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestLoginValidation(t *testing.T) {
	req := require.New(t)

	// Either identifier works
	req.NoError(ValidateLogin(LoginRequest{Email: "test@example.com", Password: "whatever"}))
	req.NoError(ValidateLogin(LoginRequest{Username: "tester", Password: "whatever"}))

	// Neither identifier does not
	req.Error(ValidateLogin(LoginRequest{Password: "whatever"}))
}

func TestGenerateAndValidateToken(t *testing.T) {
	req := require.New(t)
	userID := "2d9f8c1a-22aa-4f83-9b06-2f4a5a9b7f11"

	token, err := GenerateToken(userID, []string{"user"}, time.Hour)
	req.NoError(err)
	req.NotEmpty(token)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal(userID, claims.UserID)
	req.Equal([]string{"user"}, claims.Roles)
	req.Equal("chat-relay", claims.Issuer)
}

func TestValidateToken_Expired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-1", nil, -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.Error(err)
}

func TestValidateToken_Garbage(t *testing.T) {
	req := require.New(t)

	_, err := ValidateToken("not.a.token")
	req.Error(err)
}

// BenchmarkHashPassword measures the CPU/RAM impact of the Argon2id settings.
func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
