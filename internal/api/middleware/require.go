package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/leavehub/approval-system/internal/core/domain"
)

// RequireAuth rejects requests that reached a protected route without an
// authenticated principal. Authentication itself happened (or didn't) in
// Authenticate; this is the access-control decision.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentPrincipal(c); !ok {
				return domain.ErrUnauthenticated
			}
			return next(c)
		}
	}
}
