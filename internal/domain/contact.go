package domain

import "context"

// ContactSubmission represents an accepted contact form message
type ContactSubmission struct {
	ID          string `json:"id"`
	Name        string `json:"name" form:"name" validate:"required"`
	Email       string `json:"email" form:"email" validate:"required,form_email"`
	Subject     string `json:"subject" form:"subject" validate:"required"`
	Message     string `json:"message" form:"message" validate:"required,min=10"`
	SubmittedAt string `json:"submitted_at"`
}

func (s *ContactSubmission) Kind() string         { return "contact" }
func (s *ContactSubmission) SubmissionID() string { return s.ID }
func (s *ContactSubmission) Timestamp() string    { return s.SubmittedAt }

// Contact form field names
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldSubject = "subject"
	FieldMessage = "message"
)

// ContactRequiredFields lists the fields the contact form cannot omit
var ContactRequiredFields = []string{FieldName, FieldEmail, FieldSubject, FieldMessage}

// ContactMessageMinLength is the minimum message length in characters
const ContactMessageMinLength = 10

// ContactUsecase defines the contact form operation
type ContactUsecase interface {
	// SubmitContact validates the fields and records the message
	SubmitContact(ctx context.Context, fields Fields) SubmissionResult
}
