package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/leavehub/approval-system/internal/core/domain"
)

// minKeyBytes is the smallest signing key HS256 accepts safely (256 bits).
const minKeyBytes = 32

const defaultTokenTTL = 24 * time.Hour

var errUnexpectedAlg = errors.New("unexpected signing algorithm")

// JWTTokenService issues and verifies HS256-signed, time-bounded tokens.
// Tokens are self-contained: no server-side store, no revocation before
// expiry. The signing key is immutable after construction.
type JWTTokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenService builds a JWTTokenService. It refuses keys shorter than 256
// bits; callers treat that error as fatal configuration.
func NewTokenService(secret string, ttl time.Duration) (*JWTTokenService, error) {
	if len(secret) < minKeyBytes {
		return nil, fmt.Errorf("signing key is %d bytes, HS256 requires at least %d", len(secret), minKeyBytes)
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &JWTTokenService{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for username with iat = now and exp = now + TTL.
func (s *JWTTokenService) Issue(username string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.key)
}

// Verify checks signature and expiry, then compares the token subject against
// the caller-resolved current username. A subject mismatch means the token
// does not prove this identity and is reported as a signature-class failure.
func (s *JWTTokenService) Verify(raw, username string) error {
	claims, err := s.parse(raw)
	if err != nil {
		return err
	}
	if claims.Subject != username {
		return domain.ErrTokenBadSignature
	}
	return nil
}

// ExtractSubject parses and fully validates raw, returning its subject. The
// failure taxonomy matches Verify, so an expired or forged token never yields
// a subject.
func (s *JWTTokenService) ExtractSubject(raw string) (string, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *JWTTokenService) parse(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errUnexpectedAlg
		}
		return s.key, nil
	})
	if err != nil {
		return nil, classifyTokenError(err)
	}
	return claims, nil
}

// classifyTokenError maps jwt parse errors onto the domain taxonomy. Expired
// stays distinct from bad-signature: both deny access, but expiry is the
// expected steady-state failure and is logged more quietly.
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, errUnexpectedAlg), errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenUnsupported
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	default:
		return domain.ErrTokenMalformed
	}
}
