package ports

import (
	"context"

	"github.com/leavehub/approval-system/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration. Username and
// Password are mandatory; everything else is optional profile data.
type RegisterInput struct {
	Username     string
	Password     string
	Email        string
	PhoneNumber  string
	BirthDate    string
	AvatarURL    string
	Nationality  string
	Address      string
	SocialQQ     string
	SocialWechat string
}

// LoginResult is what a successful login returns to the client.
type LoginResult struct {
	Token     string
	Username  string
	TokenType string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}
