package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/leavehub/approval-system/internal/api/metrics"
	"github.com/leavehub/approval-system/internal/core/domain"
	"github.com/leavehub/approval-system/internal/core/ports"
)

// bearerPrefix is matched case-sensitively, per RFC 6750's canonical form.
const bearerPrefix = "Bearer "

const principalKey = "auth.principal"

// Authenticate extracts and verifies a bearer token and, on success, places
// the resolved principal in the request context. It never fails the request
// itself: a missing header, an invalid token, and a subject that no longer
// resolves all proceed anonymously. Whether anonymity is acceptable is the
// route's decision (see RequireAuth), not this filter's.
func Authenticate(tokens ports.TokenService, users ports.UserRepository, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractBearer(c.Request().Header.Get("Authorization"))
			if raw == "" {
				return next(c)
			}

			subject, err := tokens.ExtractSubject(raw)
			if err != nil {
				logTokenFailure(logger, c, err)
				metrics.TokenFailuresTotal.WithLabelValues(tokenFailureKind(err)).Inc()
				return next(c)
			}

			// A principal populated earlier in the chain wins; a second
			// authentication attempt on the same request never replaces it.
			if _, ok := CurrentPrincipal(c); ok {
				return next(c)
			}

			user, err := users.FindByUsername(c.Request().Context(), subject)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					// Token outlived its user. Treated exactly like a missing
					// header: anonymous passthrough.
					logger.Debug().Str("subject", subject).Msg("token subject no longer resolves")
				} else {
					logger.Warn().Err(err).Str("subject", subject).Msg("identity lookup failed")
				}
				return next(c)
			}

			if err := tokens.Verify(raw, user.Username); err != nil {
				logTokenFailure(logger, c, err)
				metrics.TokenFailuresTotal.WithLabelValues(tokenFailureKind(err)).Inc()
				return next(c)
			}

			c.Set(principalKey, user.Principal())
			return next(c)
		}
	}
}

// CurrentPrincipal returns the authenticated principal for this request, if
// one was established.
func CurrentPrincipal(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}

func extractBearer(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return header[len(bearerPrefix):]
}

// logTokenFailure keeps expiry quiet: it is the normal end of every token's
// life, unlike a forged or garbled one.
func logTokenFailure(logger zerolog.Logger, c echo.Context, err error) {
	evt := logger.Warn()
	if errors.Is(err, domain.ErrTokenExpired) {
		evt = logger.Debug()
	}
	evt.Err(err).Str("path", c.Request().URL.Path).Msg("token rejected")
}

func tokenFailureKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenExpired):
		return "expired"
	case errors.Is(err, domain.ErrTokenBadSignature):
		return "bad_signature"
	case errors.Is(err, domain.ErrTokenUnsupported):
		return "unsupported"
	default:
		return "malformed"
	}
}
