package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	maxFailures   = 5
	failureWindow = 15 * time.Minute
)

// LoginThrottle counts failed login attempts per username in Redis.
// Key format: login_fail:<username>, expiring after failureWindow.
//
// The throttle fails open: if Redis is unreachable, logins proceed
// unthrottled rather than locking everyone out.
type LoginThrottle struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewLoginThrottle creates a LoginThrottle wrapping the given Redis client.
func NewLoginThrottle(client *redis.Client, logger zerolog.Logger) *LoginThrottle {
	return &LoginThrottle{client: client, logger: logger}
}

// Allowed reports whether username is still under the failure limit.
func (t *LoginThrottle) Allowed(ctx context.Context, username string) bool {
	n, err := t.client.Get(ctx, t.key(username)).Int()
	if err == redis.Nil {
		return true
	}
	if err != nil {
		t.logger.Warn().Err(err).Msg("throttle lookup failed, failing open")
		return true
	}
	return n < maxFailures
}

// RecordFailure bumps the failure counter and refreshes its expiry.
func (t *LoginThrottle) RecordFailure(ctx context.Context, username string) error {
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, t.key(username))
	pipe.Expire(ctx, t.key(username), failureWindow)
	_, err := pipe.Exec(ctx)
	return err
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, username string) error {
	return t.client.Del(ctx, t.key(username)).Err()
}

func (t *LoginThrottle) key(username string) string {
	return "login_fail:" + username
}
