package domain

import (
	"context"
	"io"
	"strings"
)

// Fields is the raw field mapping extracted from a form post.
// Absent fields read as the empty string.
type Fields map[string]string

// Get returns the trimmed value of a field
func (f Fields) Get(name string) string {
	return strings.TrimSpace(f[name])
}

// Optional returns nil when the field is absent or blank
func (f Fields) Optional(name string) *string {
	v := f.Get(name)
	if v == "" {
		return nil
	}
	return &v
}

// ErrorCode identifies why a submission was rejected
type ErrorCode string

const (
	CodeMissingRequiredField ErrorCode = "MissingRequiredField"
	CodeInvalidEmailFormat   ErrorCode = "InvalidEmailFormat"
	CodeMessageTooShort      ErrorCode = "MessageTooShort"
	CodeUnsupportedFileType  ErrorCode = "UnsupportedFileType"
	CodeFileTooLarge         ErrorCode = "FileTooLarge"
	CodeUploadFailed         ErrorCode = "UploadFailed"
	CodeUnexpectedError      ErrorCode = "UnexpectedError"
)

// ErrorKind groups error codes by who can fix them
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindInfrastructure ErrorKind = "infrastructure"
	KindUnexpected     ErrorKind = "unexpected"
)

// Kind classifies the code
func (c ErrorCode) Kind() ErrorKind {
	switch c {
	case CodeMissingRequiredField, CodeInvalidEmailFormat, CodeMessageTooShort,
		CodeUnsupportedFileType, CodeFileTooLarge:
		return KindValidation
	case CodeUploadFailed:
		return KindInfrastructure
	default:
		return KindUnexpected
	}
}

// User-facing messages returned by the submission handlers
const (
	MsgMissingRequiredField = "Please fill in all required fields"
	MsgInvalidEmailFormat   = "Please enter a valid email address"
	MsgMessageTooShort      = "Message must be at least 10 characters long"
	MsgUnsupportedFileType  = "Only PDF and ZIP files are allowed"
	MsgFileTooLarge         = "File size must be less than 10MB"
	MsgUploadFailed         = "Failed to upload file. Please try again."
	MsgUnexpectedError      = "An unexpected error occurred. Please try again later."

	MsgContactSent          = "Your message has been sent successfully!"
	MsgAuditRequestReceived = "Your audit request has been submitted successfully!"
)

// SubmissionResult is what every handler returns. Exactly one of the
// success or failure groups is populated.
type SubmissionResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message,omitempty"`
	SubmissionID string    `json:"submission_id,omitempty"`
	Code         ErrorCode `json:"code,omitempty"`
	Error        string    `json:"error,omitempty"`
	Field        string    `json:"field,omitempty"`
}

// Succeeded builds a success result
func Succeeded(message, submissionID string) SubmissionResult {
	return SubmissionResult{Success: true, Message: message, SubmissionID: submissionID}
}

// Failed builds a failure result. field may be empty.
func Failed(code ErrorCode, message, field string) SubmissionResult {
	return SubmissionResult{Code: code, Error: message, Field: field}
}

// Unexpected is the catch-all failure
func Unexpected() SubmissionResult {
	return Failed(CodeUnexpectedError, MsgUnexpectedError, "")
}

// UploadedFile is an optional file attached to a submission.
// Size and ContentType are what the client declared.
type UploadedFile struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// Present reports whether a non-empty file was supplied
func (f *UploadedFile) Present() bool {
	return f != nil && f.Size > 0
}

// SubmissionMeta describes the request a submission arrived on.
// It travels to the Sink next to the record, never inside it.
type SubmissionMeta struct {
	RequestID string
	IP        string
	UserAgent string
}

// Submission is implemented by ContactSubmission and AuditRequestSubmission
type Submission interface {
	Kind() string
	SubmissionID() string
	Timestamp() string
}

// BlobStore persists an uploaded file and returns a publicly readable URL
type BlobStore interface {
	Store(ctx context.Context, fileName string, data []byte) (string, error)
}

// Sink records an accepted submission (log, database, notification)
type Sink interface {
	Record(ctx context.Context, submission Submission, meta SubmissionMeta) error
}

type metaKey struct{}

// WithMeta attaches request metadata to ctx for the usecases to pick up
func WithMeta(ctx context.Context, meta SubmissionMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFrom returns the metadata stored by WithMeta, or the zero value
func MetaFrom(ctx context.Context) SubmissionMeta {
	meta, _ := ctx.Value(metaKey{}).(SubmissionMeta)
	return meta
}
