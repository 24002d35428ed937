package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/leavehub/approval-system/internal/core/domain"
	"github.com/leavehub/approval-system/internal/core/ports"
)

// dummyHash is compared against on the unknown-user path so login spends the
// same bcrypt work whether or not the username exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

const tokenType = "Bearer"

// AuthService implements registration and login on top of the user
// repository, the password hasher and the token service.
type AuthService struct {
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	tokens   ports.TokenService
	throttle ports.LoginThrottle
	audit    ports.AuditRecorder
	logger   zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenService,
	throttle ports.LoginThrottle,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		throttle: throttle,
		audit:    audit,
		logger:   logger,
	}
}

// Register creates a new user account. Username and email conflicts are
// reported with field-specific errors; the stored hash is never echoed back.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	if input.Username == "" || input.Password == "" {
		return nil, domain.ErrBadCredentials
	}

	taken, err := s.users.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		s.record(domain.AuditEvent{Username: input.Username, Action: domain.AuditRegisterConflict, Detail: "username"})
		return nil, domain.ErrUsernameTaken
	}

	if input.Email != "" {
		taken, err := s.users.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken {
			s.record(domain.AuditEvent{Username: input.Username, Action: domain.AuditRegisterConflict, Detail: "email"})
			return nil, domain.ErrEmailTaken
		}
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     input.Username,
		PasswordHash: hash,
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		BirthDate:    input.BirthDate,
		AvatarURL:    input.AvatarURL,
		Nationality:  input.Nationality,
		Address:      input.Address,
		SocialQQ:     input.SocialQQ,
		SocialWechat: input.SocialWechat,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	s.record(domain.AuditEvent{Username: created.Username, Action: domain.AuditUserRegistered})
	return created, nil
}

// Login verifies credentials and issues a token. Unknown username and wrong
// password return the identical error; the dummy comparison keeps the two
// paths close in timing as well as content.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrBadCredentials
	}

	if s.throttle != nil && !s.throttle.Allowed(ctx, username) {
		s.logger.Warn().Str("username", username).Msg("login throttled")
		s.record(domain.AuditEvent{Username: username, Action: domain.AuditLoginThrottled})
		return nil, domain.ErrBadCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if err == domain.ErrUserNotFound {
			s.hasher.Verify(password, dummyHash)
			s.loginFailed(ctx, username)
			return nil, domain.ErrBadCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.loginFailed(ctx, username)
		return nil, domain.ErrBadCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("throttle reset failed")
		}
	}
	s.record(domain.AuditEvent{Username: user.Username, Action: domain.AuditLoginSucceeded})

	return &ports.LoginResult{Token: token, Username: user.Username, TokenType: tokenType}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, username string) {
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, username); err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("throttle record failed")
		}
	}
	s.record(domain.AuditEvent{Username: username, Action: domain.AuditLoginFailed})
}

func (s *AuthService) record(event domain.AuditEvent) {
	if s.audit == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	s.audit.Enqueue(event)
}
