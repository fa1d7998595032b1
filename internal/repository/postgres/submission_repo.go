package postgres

import (
	"context"
	"fmt"

	"securechain-api/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the repository needs
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type submissionRepo struct {
	db DBTX
}

// NewSubmissionRepository returns a Sink that persists accepted submissions
func NewSubmissionRepository(db DBTX) domain.Sink {
	return &submissionRepo{db: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS contact_submissions (
		id           UUID PRIMARY KEY,
		name         TEXT NOT NULL,
		email        TEXT NOT NULL,
		subject      TEXT NOT NULL,
		message      TEXT NOT NULL,
		request_id   TEXT,
		client_ip    TEXT,
		user_agent   TEXT,
		submitted_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_requests (
		id                  UUID PRIMARY KEY,
		project_name        TEXT NOT NULL,
		email               TEXT NOT NULL,
		telegram            TEXT,
		chain               TEXT NOT NULL,
		github              TEXT,
		timeline            TEXT,
		budget              TEXT,
		description         TEXT NOT NULL,
		attachment_name     TEXT,
		attachment_url      TEXT,
		request_id          TEXT,
		client_ip           TEXT,
		user_agent          TEXT,
		submitted_at        TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_requests_submitted_at ON audit_requests (submitted_at DESC);

	CREATE TABLE IF NOT EXISTS security_events (
		id            BIGSERIAL PRIMARY KEY,
		event_type    TEXT NOT NULL,
		severity      TEXT NOT NULL,
		service       TEXT NOT NULL,
		environment   TEXT NOT NULL,
		level         TEXT NOT NULL,
		subject_type  TEXT,
		subject_value TEXT,
		ip_address    TEXT,
		user_agent    TEXT,
		request_id    TEXT,
		details       JSONB,
		created_at    TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_security_events_created_at ON security_events (created_at DESC);
`

// EnsureSchema creates the submission and security event tables when they do not exist
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (r *submissionRepo) Record(ctx context.Context, submission domain.Submission, meta domain.SubmissionMeta) error {
	switch s := submission.(type) {
	case *domain.ContactSubmission:
		return r.insertContact(ctx, s, meta)
	case *domain.AuditRequestSubmission:
		return r.insertAuditRequest(ctx, s, meta)
	default:
		return fmt.Errorf("unsupported submission kind %q", submission.Kind())
	}
}

func (r *submissionRepo) insertContact(ctx context.Context, s *domain.ContactSubmission, meta domain.SubmissionMeta) error {
	query := `
		INSERT INTO contact_submissions (
			id, name, email, subject, message, request_id, client_ip, user_agent, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::timestamptz)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.Name, s.Email, s.Subject, s.Message,
		nullable(meta.RequestID), nullable(meta.IP), nullable(meta.UserAgent),
		s.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert contact submission: %w", err)
	}
	return nil
}

func (r *submissionRepo) insertAuditRequest(ctx context.Context, s *domain.AuditRequestSubmission, meta domain.SubmissionMeta) error {
	query := `
		INSERT INTO audit_requests (
			id, project_name, email, telegram, chain, github, timeline, budget, description,
			attachment_name, attachment_url, request_id, client_ip, user_agent, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15::timestamptz)
	`
	var attachmentName, attachmentURL *string
	if s.Attachment != nil {
		attachmentName = &s.Attachment.FileName
		attachmentURL = &s.Attachment.StorageURL
	}
	_, err := r.db.Exec(ctx, query,
		s.ID, s.ProjectName, s.Email, s.Telegram, s.Chain, s.GitHub, s.Timeline, s.Budget, s.Description,
		attachmentName, attachmentURL,
		nullable(meta.RequestID), nullable(meta.IP), nullable(meta.UserAgent),
		s.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit request: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
