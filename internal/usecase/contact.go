package usecase

import (
	"context"

	"securechain-api/internal/domain"
	"securechain-api/pkg/validation"
)

type contactUsecase struct {
	sink domain.Sink
	opts options
}

// NewContactUsecase creates a new contact usecase
func NewContactUsecase(sink domain.Sink, opts ...Option) domain.ContactUsecase {
	return &contactUsecase{
		sink: sink,
		opts: buildOptions(opts),
	}
}

// SubmitContact validates the contact form and hands it to the sink
func (uc *contactUsecase) SubmitContact(ctx context.Context, fields domain.Fields) (result domain.SubmissionResult) {
	defer recoverSubmission("contact", &result)

	if missing := firstMissing(fields, domain.ContactRequiredFields); missing != "" {
		return domain.Failed(domain.CodeMissingRequiredField, domain.MsgMissingRequiredField, missing)
	}

	email := fields.Get(domain.FieldEmail)
	if !validation.IsValidEmail(email) {
		return domain.Failed(domain.CodeInvalidEmailFormat, domain.MsgInvalidEmailFormat, domain.FieldEmail)
	}

	message := fields.Get(domain.FieldMessage)
	if !validation.MinLength(message, domain.ContactMessageMinLength) {
		return domain.Failed(domain.CodeMessageTooShort, domain.MsgMessageTooShort, domain.FieldMessage)
	}

	submission := &domain.ContactSubmission{
		ID:          uc.opts.newID(),
		Name:        fields.Get(domain.FieldName),
		Email:       email,
		Subject:     fields.Get(domain.FieldSubject),
		Message:     message,
		SubmittedAt: uc.opts.timestamp(),
	}

	if uc.sink != nil {
		recordToSink(ctx, uc.sink, submission)
	}

	return domain.Succeeded(domain.MsgContactSent, submission.ID)
}
