package formclient

import (
	"context"
	"fmt"

	"securechain-api/internal/domain"
)

// Submitter delivers a snapshot to a handler. An error means the handler
// could not be reached; handler failures come back as a result.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (domain.SubmissionResult, error)
}

// SubmitterFunc adapts a function to Submitter
type SubmitterFunc func(ctx context.Context, s Submission) (domain.SubmissionResult, error)

func (f SubmitterFunc) Submit(ctx context.Context, s Submission) (domain.SubmissionResult, error) {
	return f(ctx, s)
}

// InProcess calls the usecases directly, without a transport
func InProcess(contact domain.ContactUsecase, audit domain.AuditRequestUsecase) Submitter {
	return SubmitterFunc(func(ctx context.Context, s Submission) (domain.SubmissionResult, error) {
		switch s.Form {
		case FormContact:
			return contact.SubmitContact(ctx, s.Fields), nil
		case FormAuditRequest:
			return audit.SubmitAuditRequest(ctx, s.Fields, s.File), nil
		default:
			return domain.SubmissionResult{}, fmt.Errorf("formclient: unknown form %q", s.Form)
		}
	})
}
