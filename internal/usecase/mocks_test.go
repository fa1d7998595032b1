package usecase_test

import (
	"context"
	"errors"

	"securechain-api/internal/domain"
	"securechain-api/pkg/security/antivirus"

	"github.com/stretchr/testify/mock"
)

type MockSink struct {
	mock.Mock
}

func (m *MockSink) Record(ctx context.Context, submission domain.Submission, meta domain.SubmissionMeta) error {
	return m.Called(ctx, submission, meta).Error(0)
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Store(ctx context.Context, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, fileName, data)
	return args.String(0), args.Error(1)
}

type panickingSink struct{}

func (panickingSink) Record(ctx context.Context, submission domain.Submission, meta domain.SubmissionMeta) error {
	panic("sink exploded")
}

type panickingBlobStore struct{}

func (panickingBlobStore) Store(ctx context.Context, fileName string, data []byte) (string, error) {
	panic("blob store exploded")
}

type infectedScanner struct{}

func (infectedScanner) Scan(ctx context.Context, filename string, data []byte) antivirus.ScanResult {
	return antivirus.ScanResult{Infected: true, ThreatName: "Eicar-Test-Signature", ScannerName: "stub"}
}
func (infectedScanner) Name() string                       { return "stub" }
func (infectedScanner) Available(ctx context.Context) bool { return true }

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}
