package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/leavehub/approval-system/internal/core/domain"
	"github.com/leavehub/approval-system/internal/core/ports"
)

// AuditWriter persists audit events delivered by the dispatcher.
type AuditWriter struct {
	repo   ports.AuditRepository
	logger zerolog.Logger
}

func NewAuditWriter(repo ports.AuditRepository, logger zerolog.Logger) *AuditWriter {
	return &AuditWriter{repo: repo, logger: logger}
}

// Record writes one audit event. Failures are returned for the dispatcher to
// log; they never reach the request that produced the event.
func (s *AuditWriter) Record(ctx context.Context, event domain.AuditEvent) error {
	if err := s.repo.Insert(ctx, event); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	s.logger.Debug().
		Str("username", event.Username).
		Str("action", string(event.Action)).
		Msg("audit event recorded")
	return nil
}
