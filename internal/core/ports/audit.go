package ports

import (
	"context"

	"github.com/leavehub/approval-system/internal/core/domain"
)

// AuditRepository persists authentication audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
}

// AuditService records a single audit event. Implementations must tolerate
// persistence failures without surfacing them to the request path.
type AuditService interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// AuditRecorder is the fire-and-forget side consumed by the Authenticator.
// The queue dispatcher satisfies it.
type AuditRecorder interface {
	Enqueue(event domain.AuditEvent)
}

// LoginThrottle counts failed login attempts per username. Implementations
// fail open: an unavailable backend reports "not throttled".
type LoginThrottle interface {
	Allowed(ctx context.Context, username string) bool
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}
