package sink

import (
	"context"
	"fmt"

	"securechain-api/internal/domain"
	"securechain-api/pkg/email"
)

// Mailer is implemented by *email.EmailService
type Mailer interface {
	SendContactEmail(data email.ContactEmailData) error
	SendAuditRequestEmail(data email.AuditRequestEmailData) error
}

// EmailSink notifies the team by email for every accepted submission
type EmailSink struct {
	mailer Mailer
}

func NewEmailSink(mailer Mailer) *EmailSink {
	return &EmailSink{mailer: mailer}
}

func (s *EmailSink) Record(ctx context.Context, submission domain.Submission, meta domain.SubmissionMeta) error {
	switch sub := submission.(type) {
	case *domain.ContactSubmission:
		return s.mailer.SendContactEmail(email.ContactEmailData{
			SubmissionID: sub.ID,
			SenderName:   sub.Name,
			SenderEmail:  sub.Email,
			Subject:      sub.Subject,
			Message:      sub.Message,
			SubmittedAt:  sub.SubmittedAt,
		})
	case *domain.AuditRequestSubmission:
		data := email.AuditRequestEmailData{
			SubmissionID: sub.ID,
			ProjectName:  sub.ProjectName,
			SenderEmail:  sub.Email,
			Telegram:     deref(sub.Telegram),
			Chain:        sub.Chain,
			GitHub:       deref(sub.GitHub),
			Timeline:     deref(sub.Timeline),
			Budget:       deref(sub.Budget),
			Description:  sub.Description,
			SubmittedAt:  sub.SubmittedAt,
		}
		if sub.Attachment != nil {
			data.AttachmentName = sub.Attachment.FileName
			data.AttachmentURL = sub.Attachment.StorageURL
		}
		return s.mailer.SendAuditRequestEmail(data)
	default:
		return fmt.Errorf("email sink: unsupported submission kind %q", submission.Kind())
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
