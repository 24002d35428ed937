package domain

import "time"

// AuditAction identifies the kind of authentication event being recorded.
type AuditAction string

const (
	AuditLoginSucceeded   AuditAction = "login_succeeded"
	AuditLoginFailed      AuditAction = "login_failed"
	AuditLoginThrottled   AuditAction = "login_throttled"
	AuditUserRegistered   AuditAction = "user_registered"
	AuditRegisterConflict AuditAction = "register_conflict"
)

// AuditEvent is one entry in the authentication audit trail. Events are
// written asynchronously; a lost entry must never fail the request it
// describes.
type AuditEvent struct {
	Username   string
	Action     AuditAction
	Detail     string
	OccurredAt time.Time
}
