package domain

import (
	"errors"
	"time"
)

var ErrBadCredentials = errors.New("invalid username or password")
var ErrUserNotFound = errors.New("user not found")
var ErrUsernameTaken = errors.New("username is already taken")
var ErrEmailTaken = errors.New("email is already taken")
var ErrUnauthenticated = errors.New("authentication required")
var ErrForbidden = errors.New("access forbidden")

// Token verification failures. All of them deny access; they stay distinct so
// logs and metrics can tell an expired token from a forged one.
var ErrTokenMalformed = errors.New("token malformed")
var ErrTokenBadSignature = errors.New("token signature invalid")
var ErrTokenExpired = errors.New("token expired")
var ErrTokenUnsupported = errors.New("token unsupported")

// User is the stored account record. The password hash never leaves the
// persistence and service layers; handlers see a Principal instead.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Email        string `json:"email,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	BirthDate    string `json:"birth_date,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Nationality  string `json:"nationality,omitempty"`
	Address      string `json:"address,omitempty"`
	SocialQQ     string `json:"social_qq,omitempty"`
	SocialWechat string `json:"social_wechat,omitempty"`

	// Reserved account-status flags. Nothing flips them yet; they are stored
	// so enabling enforcement later does not require a migration.
	Enabled            bool `json:"-"`
	Locked             bool `json:"-"`
	CredentialsExpired bool `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the request-scoped view of an authenticated user. It carries
// only what handlers need, keeping storage concerns out of the auth path.
type Principal struct {
	Username string `json:"username"`
}

// Principal derives the authentication view from the stored record.
func (u *User) Principal() Principal {
	return Principal{Username: u.Username}
}
