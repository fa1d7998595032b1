package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"securechain-api/internal/domain"
	"securechain-api/internal/usecase"
	"securechain-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const mib = 1024 * 1024

func validAudit() domain.Fields {
	return domain.Fields{
		"projectName": "Vaultline",
		"email":       "dev@vaultline.io",
		"chain":       "Ethereum",
		"description": "Lending protocol with two upgradeable proxies",
		"telegram":    "@vaultline",
		"budget":      "  ",
	}
}

func pdfBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, "%PDF-1.7\n")
	return data
}

func pdfUpload(name string, size int) *domain.UploadedFile {
	return &domain.UploadedFile{
		Name:        name,
		Size:        int64(size),
		ContentType: "application/pdf",
		Content:     bytes.NewReader(pdfBytes(size)),
	}
}

func TestSubmitAuditRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("Should accept a request without a file and skip the blob store", func(t *testing.T) {
		blobs, sink := new(MockBlobStore), new(MockSink)
		var recorded *domain.AuditRequestSubmission
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { recorded = args.Get(1).(*domain.AuditRequestSubmission) }).
			Return(nil).Once()

		result := usecase.NewAuditRequestUsecase(blobs, nil, sink).SubmitAuditRequest(ctx, validAudit(), nil)

		assert.True(t, result.Success)
		assert.Equal(t, "Your audit request has been submitted successfully!", result.Message)
		require.NotNil(t, recorded)
		assert.Nil(t, recorded.Attachment)
		require.NotNil(t, recorded.Telegram)
		assert.Equal(t, "@vaultline", *recorded.Telegram)
		assert.Nil(t, recorded.Budget)
		assert.Nil(t, recorded.GitHub)
		blobs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
		sink.AssertExpectations(t)
	})

	t.Run("Should reject a request missing chain", func(t *testing.T) {
		blobs, sink := new(MockBlobStore), new(MockSink)
		fields := validAudit()
		delete(fields, "chain")

		result := usecase.NewAuditRequestUsecase(blobs, nil, sink).
			SubmitAuditRequest(ctx, fields, pdfUpload("whitepaper.pdf", 1024))

		assert.False(t, result.Success)
		assert.Equal(t, domain.CodeMissingRequiredField, result.Code)
		assert.Equal(t, "Please fill in all required fields", result.Error)
		assert.Equal(t, "chain", result.Field)
		blobs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
		sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should reject an invalid email before looking at the file", func(t *testing.T) {
		fields := validAudit()
		fields["email"] = "a@b"
		file := &domain.UploadedFile{Name: "x.exe", Size: 20 * mib, ContentType: "application/x-msdownload"}

		result := usecase.NewAuditRequestUsecase(new(MockBlobStore), nil, new(MockSink)).
			SubmitAuditRequest(ctx, fields, file)

		assert.Equal(t, domain.CodeInvalidEmailFormat, result.Code)
	})

	t.Run("Should reject a 12 MiB file before any storage call", func(t *testing.T) {
		blobs, sink := new(MockBlobStore), new(MockSink)
		file := &domain.UploadedFile{Name: "big.pdf", Size: 12 * mib, ContentType: "application/pdf", Content: bytes.NewReader(nil)}

		result := usecase.NewAuditRequestUsecase(blobs, nil, sink).SubmitAuditRequest(ctx, validAudit(), file)

		assert.Equal(t, domain.CodeFileTooLarge, result.Code)
		assert.Equal(t, "File size must be less than 10MB", result.Error)
		assert.Equal(t, "file", result.Field)
		blobs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
		sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should reject a file of exactly 10 MiB", func(t *testing.T) {
		blobs := new(MockBlobStore)
		result := usecase.NewAuditRequestUsecase(blobs, nil, new(MockSink)).
			SubmitAuditRequest(ctx, validAudit(), pdfUpload("edge.pdf", 10*mib))

		assert.Equal(t, domain.CodeFileTooLarge, result.Code)
		blobs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should catch content larger than the declared size", func(t *testing.T) {
		blobs := new(MockBlobStore)
		file := &domain.UploadedFile{
			Name:        "liar.pdf",
			Size:        1024,
			ContentType: "application/pdf",
			Content:     bytes.NewReader(pdfBytes(11 * mib)),
		}

		result := usecase.NewAuditRequestUsecase(blobs, nil, new(MockSink)).SubmitAuditRequest(ctx, validAudit(), file)

		assert.Equal(t, domain.CodeFileTooLarge, result.Code)
		blobs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should reject unsupported declared types without calling the blob store", func(t *testing.T) {
		for _, contentType := range []string{"image/png", "text/plain", "application/x-msdownload", ""} {
			blobs := new(MockBlobStore)
			file := &domain.UploadedFile{Name: "f", Size: 100, ContentType: contentType, Content: bytes.NewReader(pdfBytes(100))}

			result := usecase.NewAuditRequestUsecase(blobs, nil, new(MockSink)).SubmitAuditRequest(ctx, validAudit(), file)

			assert.Equal(t, domain.CodeUnsupportedFileType, result.Code, contentType)
			assert.Equal(t, "Only PDF and ZIP files are allowed", result.Error)
			blobs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("Should check type before size", func(t *testing.T) {
		file := &domain.UploadedFile{Name: "big.png", Size: 50 * mib, ContentType: "image/png"}
		result := usecase.NewAuditRequestUsecase(new(MockBlobStore), nil, new(MockSink)).SubmitAuditRequest(ctx, validAudit(), file)
		assert.Equal(t, domain.CodeUnsupportedFileType, result.Code)
	})

	t.Run("Should reject content that is not really a PDF", func(t *testing.T) {
		blobs := new(MockBlobStore)
		file := &domain.UploadedFile{
			Name:        "fake.pdf",
			Size:        11,
			ContentType: "application/pdf",
			Content:     bytes.NewReader([]byte("hello world")),
		}

		result := usecase.NewAuditRequestUsecase(blobs, nil, new(MockSink)).SubmitAuditRequest(ctx, validAudit(), file)

		assert.Equal(t, domain.CodeUnsupportedFileType, result.Code)
		blobs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should store a 2 MiB PDF and reference the returned URL", func(t *testing.T) {
		blobs, sink := new(MockBlobStore), new(MockSink)
		const url = "https://blobs.example.com/audit/whitepaper.pdf"
		blobs.On("Store", mock.Anything, "whitepaper.pdf", mock.MatchedBy(func(data []byte) bool {
			return len(data) == 2*mib
		})).Return(url, nil).Once()

		var recorded *domain.AuditRequestSubmission
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { recorded = args.Get(1).(*domain.AuditRequestSubmission) }).
			Return(nil).Once()

		result := usecase.NewAuditRequestUsecase(blobs, nil, sink).
			SubmitAuditRequest(ctx, validAudit(), pdfUpload("whitepaper.pdf", 2*mib))

		assert.True(t, result.Success)
		require.NotNil(t, recorded)
		require.NotNil(t, recorded.Attachment)
		assert.Equal(t, "whitepaper.pdf", recorded.Attachment.FileName)
		assert.Equal(t, url, recorded.Attachment.StorageURL)
		blobs.AssertExpectations(t)
		sink.AssertExpectations(t)
	})

	t.Run("Should accept a ZIP archive", func(t *testing.T) {
		blobs, sink := new(MockBlobStore), new(MockSink)
		data := make([]byte, 4096)
		copy(data, []byte{0x50, 0x4B, 0x03, 0x04})
		blobs.On("Store", mock.Anything, "contracts.zip", mock.Anything).Return("https://cdn/contracts.zip", nil).Once()
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		file := &domain.UploadedFile{Name: "contracts.zip", Size: 4096, ContentType: "application/x-zip-compressed", Content: bytes.NewReader(data)}
		result := usecase.NewAuditRequestUsecase(blobs, nil, sink).SubmitAuditRequest(ctx, validAudit(), file)

		assert.True(t, result.Success)
		blobs.AssertExpectations(t)
	})

	t.Run("Should store the file under a sanitized name", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		security.InitSecurityLogger(zap.New(core), "securechain-api", "test")
		blobs, sink := new(MockBlobStore), new(MockSink)
		blobs.On("Store", mock.Anything, "report.pdf", mock.Anything).Return("https://cdn/report.pdf", nil).Once()
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		result := usecase.NewAuditRequestUsecase(blobs, nil, sink).
			SubmitAuditRequest(ctx, validAudit(), pdfUpload("../../etc/report.pdf", 2048))

		assert.True(t, result.Success)
		blobs.AssertExpectations(t)
		assert.Equal(t, 1, logs.FilterMessage("suspicious_input").Len())
	})

	t.Run("Should treat a zero-byte file as absent", func(t *testing.T) {
		blobs, sink := new(MockBlobStore), new(MockSink)
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		file := &domain.UploadedFile{Name: "", Size: 0, ContentType: "application/octet-stream"}

		result := usecase.NewAuditRequestUsecase(blobs, nil, sink).SubmitAuditRequest(ctx, validAudit(), file)

		assert.True(t, result.Success)
		blobs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should fail with UploadFailed and skip the sink when storage fails", func(t *testing.T) {
		blobs, sink := new(MockBlobStore), new(MockSink)
		blobs.On("Store", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("AccessDenied")).Once()

		result := usecase.NewAuditRequestUsecase(blobs, nil, sink).
			SubmitAuditRequest(ctx, validAudit(), pdfUpload("a.pdf", 2048))

		assert.False(t, result.Success)
		assert.Equal(t, domain.CodeUploadFailed, result.Code)
		assert.Equal(t, "Failed to upload file. Please try again.", result.Error)
		assert.NotContains(t, result.Error, "AccessDenied")
		sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should fail with UploadFailed when no blob store is configured", func(t *testing.T) {
		sink := new(MockSink)
		result := usecase.NewAuditRequestUsecase(nil, nil, sink).
			SubmitAuditRequest(ctx, validAudit(), pdfUpload("a.pdf", 2048))

		assert.Equal(t, domain.CodeUploadFailed, result.Code)
		sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should fail with UploadFailed when the scanner flags the file", func(t *testing.T) {
		blobs := new(MockBlobStore)
		result := usecase.NewAuditRequestUsecase(blobs, infectedScanner{}, new(MockSink)).
			SubmitAuditRequest(ctx, validAudit(), pdfUpload("a.pdf", 2048))

		assert.Equal(t, domain.CodeUploadFailed, result.Code)
		blobs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should map an unreadable upload to UnexpectedError", func(t *testing.T) {
		file := &domain.UploadedFile{Name: "a.pdf", Size: 2048, ContentType: "application/pdf", Content: failingReader{}}
		result := usecase.NewAuditRequestUsecase(new(MockBlobStore), nil, new(MockSink)).SubmitAuditRequest(ctx, validAudit(), file)
		assert.Equal(t, domain.CodeUnexpectedError, result.Code)
	})

	t.Run("Should map a blob store panic to UnexpectedError", func(t *testing.T) {
		sink := new(MockSink)
		result := usecase.NewAuditRequestUsecase(panickingBlobStore{}, nil, sink).
			SubmitAuditRequest(ctx, validAudit(), pdfUpload("a.pdf", 2048))

		assert.False(t, result.Success)
		assert.Equal(t, domain.CodeUnexpectedError, result.Code)
		sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should still succeed when the sink fails", func(t *testing.T) {
		sink := new(MockSink)
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

		result := usecase.NewAuditRequestUsecase(nil, nil, sink).SubmitAuditRequest(ctx, validAudit(), nil)

		assert.True(t, result.Success)
		sink.AssertExpectations(t)
	})

	t.Run("Should store at most once per repeated submission", func(t *testing.T) {
		blobs, sink := new(MockBlobStore), new(MockSink)
		blobs.On("Store", mock.Anything, mock.Anything, mock.Anything).Return("https://cdn/a.pdf", nil)
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		uc := usecase.NewAuditRequestUsecase(blobs, nil, sink)

		assert.True(t, uc.SubmitAuditRequest(ctx, validAudit(), pdfUpload("a.pdf", 2048)).Success)
		assert.True(t, uc.SubmitAuditRequest(ctx, validAudit(), pdfUpload("a.pdf", 2048)).Success)
		assert.True(t, uc.SubmitAuditRequest(ctx, validAudit(), nil).Success)

		blobs.AssertNumberOfCalls(t, "Store", 2)
		sink.AssertNumberOfCalls(t, "Record", 3)
	})
}
