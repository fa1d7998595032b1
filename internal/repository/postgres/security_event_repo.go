package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"securechain-api/pkg/security"
)

// SecurityEventRepository handles persistence of security events to database
type SecurityEventRepository struct {
	db DBTX
}

// NewSecurityEventRepository creates a new repository for security events
func NewSecurityEventRepository(db DBTX) *SecurityEventRepository {
	return &SecurityEventRepository{db: db}
}

// PersistEvent inserts a security event into the database
func (r *SecurityEventRepository) PersistEvent(ctx context.Context, event security.SecurityEvent) error {
	query := `
		INSERT INTO security_events (
			event_type, severity, service, environment, level,
			subject_type, subject_value, ip_address, user_agent,
			request_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	// Valid JSON null for empty details
	detailsJSON := []byte("null")
	if len(event.Details) > 0 {
		data, err := json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("failed to encode security event details: %w", err)
		}
		detailsJSON = data
	}

	_, err := r.db.Exec(ctx, query,
		string(event.Event),
		string(event.Severity),
		event.Service,
		event.Environment,
		event.Level,
		nullable(event.SubjectType),
		nullable(event.SubjectValue),
		nullable(event.IP),
		nullable(event.UserAgent),
		nullable(event.RequestID),
		detailsJSON,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to persist security event: %w", err)
	}
	return nil
}

// CreatePersistFunc creates a persist function for the SecurityLogger
func (r *SecurityEventRepository) CreatePersistFunc() func(context.Context, security.SecurityEvent) error {
	return r.PersistEvent
}
