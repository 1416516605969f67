package postgres

import (
	"context"
	"fmt"

	"marketintel/internal/model"
)

// AppendAudit inserts one audit_events row. The entity, source,
// insight, financial-period, coverage and search-result writes call it
// after their own write (source deletion inserts its row inside its
// transaction); the other write methods append no audit event.
func (s *Store) AppendAudit(ctx context.Context, e model.AuditEvent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_events (event_type, entity_type, entity_id, detail)
		VALUES ($1, $2, $3, $4)
	`, e.EventType, e.EntityType, e.EntityID, e.Detail)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) audit(ctx context.Context, eventType, entityType, entityID, detail string) {
	_ = s.AppendAudit(ctx, model.AuditEvent{
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	})
}
