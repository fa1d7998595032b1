package domain

import "context"

// Attachment references a stored documentation file
type Attachment struct {
	FileName   string `json:"file_name"`
	StorageURL string `json:"storage_url"`
}

// AuditRequestSubmission represents an accepted audit intake request
type AuditRequestSubmission struct {
	ID          string      `json:"id"`
	ProjectName string      `json:"project_name" form:"projectName" validate:"required"`
	Email       string      `json:"email" form:"email" validate:"required,form_email"`
	Telegram    *string     `json:"telegram,omitempty" form:"telegram"`
	Chain       string      `json:"chain" form:"chain" validate:"required"`
	GitHub      *string     `json:"github,omitempty" form:"github"`
	Timeline    *string     `json:"timeline,omitempty" form:"timeline"`
	Budget      *string     `json:"budget,omitempty" form:"budget"`
	Description string      `json:"description" form:"description" validate:"required"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	SubmittedAt string      `json:"submitted_at"`
}

func (s *AuditRequestSubmission) Kind() string         { return "audit_request" }
func (s *AuditRequestSubmission) SubmissionID() string { return s.ID }
func (s *AuditRequestSubmission) Timestamp() string    { return s.SubmittedAt }

// Audit request form field names
const (
	FieldProjectName = "projectName"
	FieldTelegram    = "telegram"
	FieldChain       = "chain"
	FieldGitHub      = "github"
	FieldTimeline    = "timeline"
	FieldBudget      = "budget"
	FieldDescription = "description"
	FieldFile        = "file"
)

// AuditRequestRequiredFields lists the fields the audit form cannot omit
var AuditRequestRequiredFields = []string{FieldProjectName, FieldEmail, FieldChain, FieldDescription}

// AuditRequestUsecase defines the audit request operation
type AuditRequestUsecase interface {
	// SubmitAuditRequest validates the fields, stores the optional file
	// and records the request
	SubmitAuditRequest(ctx context.Context, fields Fields, file *UploadedFile) SubmissionResult
}
