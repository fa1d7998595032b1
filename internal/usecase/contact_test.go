package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"securechain-api/internal/domain"
	"securechain-api/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 30, 5, 123_000_000, time.FixedZone("WIB", 7*3600))

func validContact() domain.Fields {
	return domain.Fields{
		"name":    "Jo",
		"email":   "jo@x.com",
		"subject": "Hi",
		"message": "Hello there!",
	}
}

func TestSubmitContact(t *testing.T) {
	ctx := context.Background()

	t.Run("Should accept a valid message and record it once", func(t *testing.T) {
		sink := new(MockSink)
		uc := usecase.NewContactUsecase(sink,
			usecase.WithClock(func() time.Time { return fixedNow }),
			usecase.WithIDGenerator(func() string { return "sub-1" }),
		)

		var recorded *domain.ContactSubmission
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				recorded = args.Get(1).(*domain.ContactSubmission)
			}).
			Return(nil).Once()

		result := uc.SubmitContact(ctx, validContact())

		assert.True(t, result.Success)
		assert.Equal(t, "Your message has been sent successfully!", result.Message)
		assert.Equal(t, "sub-1", result.SubmissionID)
		assert.Empty(t, result.Code)
		require.NotNil(t, recorded)
		assert.Equal(t, "Jo", recorded.Name)
		assert.Equal(t, "Hello there!", recorded.Message)
		assert.Equal(t, "2024-03-09T07:30:05.123Z", recorded.SubmittedAt)
		sink.AssertExpectations(t)
	})

	t.Run("Should pass request metadata to the sink", func(t *testing.T) {
		sink := new(MockSink)
		uc := usecase.NewContactUsecase(sink)
		meta := domain.SubmissionMeta{RequestID: "req-1", IP: "203.0.113.9", UserAgent: "curl/8"}
		sink.On("Record", mock.Anything, mock.Anything, meta).Return(nil).Once()

		result := uc.SubmitContact(domain.WithMeta(ctx, meta), validContact())

		assert.True(t, result.Success)
		sink.AssertExpectations(t)
	})

	t.Run("Should reject missing required fields without calling the sink", func(t *testing.T) {
		for _, field := range domain.ContactRequiredFields {
			sink := new(MockSink)
			uc := usecase.NewContactUsecase(sink)
			fields := validContact()
			delete(fields, field)

			result := uc.SubmitContact(ctx, fields)

			assert.False(t, result.Success, field)
			assert.Equal(t, domain.CodeMissingRequiredField, result.Code, field)
			assert.Equal(t, "Please fill in all required fields", result.Error)
			assert.Equal(t, field, result.Field)
			sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("Should treat whitespace-only values as missing", func(t *testing.T) {
		sink := new(MockSink)
		fields := validContact()
		fields["subject"] = "   \t"

		result := usecase.NewContactUsecase(sink).SubmitContact(ctx, fields)

		assert.Equal(t, domain.CodeMissingRequiredField, result.Code)
		sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should reject malformed emails", func(t *testing.T) {
		for _, email := range []string{"not-an-email", "a@b", "a@b@c.com", "jo @x.com"} {
			sink := new(MockSink)
			fields := validContact()
			fields["email"] = email

			result := usecase.NewContactUsecase(sink).SubmitContact(ctx, fields)

			assert.Equal(t, domain.CodeInvalidEmailFormat, result.Code, email)
			assert.Equal(t, "Please enter a valid email address", result.Error)
			assert.Equal(t, "email", result.Field)
			sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("Should report missing fields before a bad email", func(t *testing.T) {
		fields := validContact()
		fields["email"] = "nope"
		fields["message"] = ""

		result := usecase.NewContactUsecase(new(MockSink)).SubmitContact(ctx, fields)

		assert.Equal(t, domain.CodeMissingRequiredField, result.Code)
	})

	t.Run("Should enforce the message length boundary", func(t *testing.T) {
		sink := new(MockSink)
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		uc := usecase.NewContactUsecase(sink)

		short := validContact()
		short["message"] = "123456789"
		result := uc.SubmitContact(ctx, short)
		assert.Equal(t, domain.CodeMessageTooShort, result.Code)
		assert.Equal(t, "Message must be at least 10 characters long", result.Error)
		assert.Equal(t, "message", result.Field)

		exact := validContact()
		exact["message"] = "1234567890"
		assert.True(t, uc.SubmitContact(ctx, exact).Success)

		sink.AssertNumberOfCalls(t, "Record", 1)
	})

	t.Run("Should still succeed when the sink fails", func(t *testing.T) {
		sink := new(MockSink)
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

		result := usecase.NewContactUsecase(sink).SubmitContact(ctx, validContact())

		assert.True(t, result.Success)
		sink.AssertExpectations(t)
	})

	t.Run("Should still succeed when the sink panics", func(t *testing.T) {
		result := usecase.NewContactUsecase(panickingSink{}).SubmitContact(ctx, validContact())
		assert.True(t, result.Success)
	})

	t.Run("Should record each repeated submission independently", func(t *testing.T) {
		sink := new(MockSink)
		sink.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		uc := usecase.NewContactUsecase(sink)

		first := uc.SubmitContact(ctx, validContact())
		second := uc.SubmitContact(ctx, validContact())

		assert.True(t, first.Success)
		assert.True(t, second.Success)
		assert.NotEqual(t, first.SubmissionID, second.SubmissionID)
		sink.AssertNumberOfCalls(t, "Record", 2)
	})

	t.Run("Should convert an internal panic into UnexpectedError", func(t *testing.T) {
		uc := usecase.NewContactUsecase(new(MockSink),
			usecase.WithIDGenerator(func() string { panic("entropy exhausted") }),
		)

		result := uc.SubmitContact(ctx, validContact())

		assert.False(t, result.Success)
		assert.Equal(t, domain.CodeUnexpectedError, result.Code)
		assert.Equal(t, "An unexpected error occurred. Please try again later.", result.Error)
	})
}
