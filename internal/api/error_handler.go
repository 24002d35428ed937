package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/leavehub/approval-system/internal/api/handler"
	"github.com/leavehub/approval-system/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders the uniform envelope: {code, message, data?, timestamp}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, data := resolveError(err, log, c)
		_ = c.JSON(code, handler.Fail(code, msg, data))
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, interface{}) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	// Validation failures carry the field→message map in the envelope data.
	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "validation failed", ve.Fields
	}

	// Known domain errors → deterministic HTTP codes. Unknown-user and
	// wrong-password share one sentinel, so the 401 message cannot reveal
	// which it was.
	switch {
	case errors.Is(err, domain.ErrBadCredentials):
		return http.StatusUnauthorized, "invalid username or password", nil
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusBadRequest, "username is already taken", nil
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusBadRequest, "email is already taken", nil
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required", nil
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden", nil
	case errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenMalformed),
		errors.Is(err, domain.ErrTokenBadSignature),
		errors.Is(err, domain.ErrTokenUnsupported):
		return http.StatusUnauthorized, fmt.Sprintf("authentication required: %v", err), nil
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error", nil
}
