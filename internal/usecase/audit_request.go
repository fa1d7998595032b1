package usecase

import (
	"context"
	"errors"
	"io"

	"securechain-api/internal/domain"
	"securechain-api/pkg/logger"
	"securechain-api/pkg/security"
	"securechain-api/pkg/security/antivirus"
	"securechain-api/pkg/validation"

	"go.uber.org/zap"
)

type auditRequestUsecase struct {
	blobs   domain.BlobStore
	scanner antivirus.Scanner
	sink    domain.Sink
	opts    options
}

// NewAuditRequestUsecase creates a new audit request usecase.
// blobs may be nil when no storage is configured; submissions that carry a
// file then fail with UploadFailed. A nil scanner skips malware scanning.
func NewAuditRequestUsecase(blobs domain.BlobStore, scanner antivirus.Scanner, sink domain.Sink, opts ...Option) domain.AuditRequestUsecase {
	if scanner == nil {
		scanner = antivirus.NewNoOpScanner()
	}
	return &auditRequestUsecase{
		blobs:   blobs,
		scanner: scanner,
		sink:    sink,
		opts:    buildOptions(opts),
	}
}

// SubmitAuditRequest validates the intake form, stores the optional file and
// hands the enriched record to the sink
func (uc *auditRequestUsecase) SubmitAuditRequest(ctx context.Context, fields domain.Fields, file *domain.UploadedFile) (result domain.SubmissionResult) {
	defer recoverSubmission("audit_request", &result)

	if missing := firstMissing(fields, domain.AuditRequestRequiredFields); missing != "" {
		return domain.Failed(domain.CodeMissingRequiredField, domain.MsgMissingRequiredField, missing)
	}

	email := fields.Get(domain.FieldEmail)
	if !validation.IsValidEmail(email) {
		return domain.Failed(domain.CodeInvalidEmailFormat, domain.MsgInvalidEmailFormat, domain.FieldEmail)
	}

	var attachment *domain.Attachment
	if file.Present() {
		stored, failure := uc.storeAttachment(ctx, file)
		if failure != nil {
			return *failure
		}
		attachment = stored
	}

	submission := &domain.AuditRequestSubmission{
		ID:          uc.opts.newID(),
		ProjectName: fields.Get(domain.FieldProjectName),
		Email:       email,
		Telegram:    fields.Optional(domain.FieldTelegram),
		Chain:       fields.Get(domain.FieldChain),
		GitHub:      fields.Optional(domain.FieldGitHub),
		Timeline:    fields.Optional(domain.FieldTimeline),
		Budget:      fields.Optional(domain.FieldBudget),
		Description: fields.Get(domain.FieldDescription),
		Attachment:  attachment,
		SubmittedAt: uc.opts.timestamp(),
	}

	if uc.sink != nil {
		recordToSink(ctx, uc.sink, submission)
	}

	return domain.Succeeded(domain.MsgAuditRequestReceived, submission.ID)
}

// storeAttachment checks, scans and stores the file. It returns either the
// attachment reference or the failure to report.
func (uc *auditRequestUsecase) storeAttachment(ctx context.Context, file *domain.UploadedFile) (*domain.Attachment, *domain.SubmissionResult) {
	fail := func(code domain.ErrorCode, message string) (*domain.Attachment, *domain.SubmissionResult) {
		r := domain.Failed(code, message, domain.FieldFile)
		return nil, &r
	}

	switch err := security.CheckAttachment(file.ContentType, file.Size); {
	case errors.Is(err, security.ErrUnsupportedFileType):
		return fail(domain.CodeUnsupportedFileType, domain.MsgUnsupportedFileType)
	case errors.Is(err, security.ErrFileTooLarge):
		return fail(domain.CodeFileTooLarge, domain.MsgFileTooLarge)
	}

	if file.Content == nil {
		logger.Log.Error("attachment has no content", zap.String("file_name", file.Name))
		r := domain.Unexpected()
		return nil, &r
	}

	// The declared size is client supplied; a read that fills the limit means
	// the real content is too large
	data, err := io.ReadAll(io.LimitReader(file.Content, security.MaxAttachmentSize))
	if err != nil {
		logger.Log.Error("failed to read attachment", zap.String("file_name", file.Name), zap.Error(err))
		r := domain.Unexpected()
		return nil, &r
	}
	if !security.IsWithinSizeLimit(int64(len(data))) {
		return fail(domain.CodeFileTooLarge, domain.MsgFileTooLarge)
	}

	meta := domain.MetaFrom(ctx)
	if check := security.ValidateContent(data); !check.Valid {
		security.DefaultLogger().LogUploadRejected(ctx, file.Name, check.Error, meta.IP, meta.RequestID)
		return fail(domain.CodeUnsupportedFileType, domain.MsgUnsupportedFileType)
	}

	if scan := uc.scanner.Scan(ctx, file.Name, data); !scan.Clean() {
		if scan.Error != nil {
			logger.Log.Error("attachment scan failed",
				zap.String("scanner", scan.ScannerName),
				zap.Error(scan.Error),
			)
		} else {
			security.DefaultLogger().LogUploadRejected(ctx, file.Name, "malware", meta.IP, meta.RequestID)
		}
		return fail(domain.CodeUploadFailed, domain.MsgUploadFailed)
	}

	if uc.blobs == nil {
		logger.Log.Error("attachment received but no blob store is configured")
		return fail(domain.CodeUploadFailed, domain.MsgUploadFailed)
	}

	name := security.SanitizeFilename(file.Name)
	if name != file.Name {
		security.DefaultLogger().LogSuspiciousInput(ctx, domain.FieldFile, file.Name, meta.IP, meta.RequestID)
	}
	url, err := uc.blobs.Store(ctx, name, data)
	if err != nil {
		logger.Log.Error("failed to store attachment",
			zap.String("file_name", name),
			zap.Error(err),
		)
		return fail(domain.CodeUploadFailed, domain.MsgUploadFailed)
	}

	return &domain.Attachment{FileName: name, StorageURL: url}, nil
}
