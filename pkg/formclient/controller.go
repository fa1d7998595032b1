// Package formclient drives one form's submit lifecycle: it holds the
// form state, invokes a Submitter and maps the result to user feedback.
package formclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"securechain-api/internal/domain"
	"securechain-api/pkg/logger"
	"securechain-api/pkg/security"
	"securechain-api/pkg/validation"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// State of a form
type State int

const (
	Idle State = iota
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Form identifies which handler a controller talks to
type Form string

const (
	FormContact      Form = "contact"
	FormAuditRequest Form = "audit_request"
)

// Keys in the error map that are not form fields
const (
	ErrorKeyGeneral = "general"
	ErrorKeyFile    = domain.FieldFile
)

const (
	// MsgUnexpected is shown when the handler could not be reached at all
	MsgUnexpected = "An unexpected error occurred. Please try again."
	msgFallback   = "Submission failed"
)

var (
	ErrSubmissionInFlight = errors.New("formclient: a submission is already in progress")
	ErrNotIdle            = errors.New("formclient: reset the form before submitting again")
	ErrNoAttachments      = errors.New("formclient: this form does not take attachments")
)

// Submission is the snapshot handed to a Submitter
type Submission struct {
	Form   Form
	Fields domain.Fields
	File   *domain.UploadedFile
}

// Controller is the state machine behind one form instance. It is safe for
// concurrent use; at most one submission is in flight at a time.
type Controller struct {
	form      Form
	submitter Submitter
	notifier  Notifier
	validate  *validator.Validate

	mu          sync.Mutex
	state       State
	file        *domain.UploadedFile
	result      domain.SubmissionResult
	errors      map[string]string
	fieldErrors map[string]string
}

// Option customises a Controller
type Option func(*Controller)

// WithNotifier sets where toasts go. The default discards them.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// NewController creates an idle controller for form
func NewController(form Form, submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		form:      form,
		submitter: submitter,
		notifier:  NopNotifier{},
		validate:  validation.New(),
		errors:    map[string]string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the last handler result
func (c *Controller) Result() domain.SubmissionResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Errors returns the inline error map: "general", the field the handler
// named and "file" from AttachFile
func (c *Controller) Errors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyMap(c.errors)
}

// FieldErrors returns every field problem found in the last failed
// snapshot, not just the first one the handler reported
func (c *Controller) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyMap(c.fieldErrors)
}

// Attachment returns the file that will be sent with the next submission
func (c *Controller) Attachment() *domain.UploadedFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file
}

// AttachFile pre-checks the declared type and size and keeps the file for
// the next submission and any retry after a failure. A rejected file is reported under "file" and the
// previous attachment is kept.
func (c *Controller) AttachFile(file *domain.UploadedFile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.form != FormAuditRequest {
		return ErrNoAttachments
	}
	if c.state == Submitting {
		return ErrSubmissionInFlight
	}

	if file == nil {
		c.file = nil
		delete(c.errors, ErrorKeyFile)
		return nil
	}

	err := security.CheckAttachment(file.ContentType, file.Size)
	if err == nil {
		file, err = replayable(file)
	}
	if err != nil {
		msg := domain.MsgUnsupportedFileType
		if errors.Is(err, security.ErrFileTooLarge) {
			msg = domain.MsgFileTooLarge
		} else if !errors.Is(err, security.ErrUnsupportedFileType) {
			msg = MsgUnexpected
		}
		c.errors[ErrorKeyFile] = msg
		return err
	}

	c.file = file
	delete(c.errors, ErrorKeyFile)
	return nil
}

// replayable returns file with content that can be rewound for a retry.
// Streams that cannot seek are read once, up to the attachment limit, and
// the size is taken from what was read.
func replayable(file *domain.UploadedFile) (*domain.UploadedFile, error) {
	if file.Content == nil {
		return file, nil
	}
	if _, ok := file.Content.(io.Seeker); ok {
		return file, nil
	}

	data, err := io.ReadAll(io.LimitReader(file.Content, security.MaxAttachmentSize))
	if err != nil {
		return nil, fmt.Errorf("formclient: read attachment %s: %w", file.Name, err)
	}
	if !security.IsWithinSizeLimit(int64(len(data))) {
		return nil, security.ErrFileTooLarge
	}

	buffered := *file
	buffered.Size = int64(len(data))
	buffered.Content = bytes.NewReader(data)
	return &buffered, nil
}

// Submit sends the snapshot and blocks until the handler answers.
// Handler failures are reported through the returned result and the error
// maps; the error is non-nil only when the controller refused to submit.
func (c *Controller) Submit(ctx context.Context, fields domain.Fields) (domain.SubmissionResult, error) {
	c.mu.Lock()
	switch c.state {
	case Submitting:
		c.mu.Unlock()
		return domain.SubmissionResult{}, ErrSubmissionInFlight
	case Succeeded, Failed:
		c.mu.Unlock()
		return domain.SubmissionResult{}, ErrNotIdle
	}
	c.state = Submitting
	c.errors = map[string]string{}
	c.fieldErrors = nil
	snapshot := Submission{Form: c.form, Fields: copyMap(fields), File: c.file}
	c.mu.Unlock()

	result := c.invoke(ctx, snapshot)

	c.mu.Lock()
	c.result = result
	if result.Success {
		c.state = Succeeded
		c.file = nil
	} else {
		c.state = Failed
		c.recordFailure(snapshot, result)
	}
	c.mu.Unlock()

	c.notify(result)
	return result, nil
}

// Reset returns a finished form to Idle. After a success the form is
// cleared; after a failure the attachment is kept for the retry.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Submitting {
		return ErrSubmissionInFlight
	}
	c.state = Idle
	c.result = domain.SubmissionResult{}
	c.errors = map[string]string{}
	c.fieldErrors = nil
	return nil
}

// invoke rewinds a seekable attachment so retries resend the whole file,
// then calls the submitter, converting errors and panics into a failure
func (c *Controller) invoke(ctx context.Context, s Submission) (result domain.SubmissionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("form submitter panicked",
				zap.String("form", string(s.Form)),
				zap.Any("panic", r),
			)
			result = domain.Failed(domain.CodeUnexpectedError, MsgUnexpected, "")
		}
	}()

	if s.File != nil {
		if seeker, ok := s.File.Content.(io.Seeker); ok {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return domain.Failed(domain.CodeUnexpectedError, MsgUnexpected, "")
			}
		}
	}

	result, err := c.submitter.Submit(ctx, s)
	if err != nil {
		logger.Log.Warn("form submission failed",
			zap.String("form", string(s.Form)),
			zap.Error(err),
		)
		return domain.Failed(domain.CodeUnexpectedError, MsgUnexpected, "")
	}
	return result
}

// recordFailure fills the error maps. Callers hold c.mu.
func (c *Controller) recordFailure(s Submission, result domain.SubmissionResult) {
	msg := result.Error
	if msg == "" {
		msg = msgFallback
	}
	c.errors[ErrorKeyGeneral] = msg
	if result.Field != "" {
		c.errors[result.Field] = msg
	}

	if result.Code.Kind() == domain.KindValidation {
		c.fieldErrors = validation.FieldErrors(c.validate, c.record(s.Fields))
	}
}

// record builds the struct the validator rules are declared on
func (c *Controller) record(f domain.Fields) interface{} {
	if c.form == FormAuditRequest {
		return &domain.AuditRequestSubmission{
			ProjectName: f.Get(domain.FieldProjectName),
			Email:       f.Get(domain.FieldEmail),
			Chain:       f.Get(domain.FieldChain),
			Description: f.Get(domain.FieldDescription),
		}
	}
	return &domain.ContactSubmission{
		Name:    f.Get(domain.FieldName),
		Email:   f.Get(domain.FieldEmail),
		Subject: f.Get(domain.FieldSubject),
		Message: f.Get(domain.FieldMessage),
	}
}

func (c *Controller) notify(result domain.SubmissionResult) {
	if result.Success {
		c.notifier.Notify(Toast{Title: "Success!", Description: result.Message})
		return
	}
	msg := result.Error
	if msg == "" {
		msg = msgFallback
	}
	c.notifier.Notify(Toast{Title: "Error", Description: msg, Destructive: true})
}

func copyMap[M ~map[string]string](m M) M {
	if m == nil {
		return nil
	}
	out := make(M, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
