package usecase

import (
	"context"
	"fmt"
	"time"

	"securechain-api/internal/domain"
	"securechain-api/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// isoTimestamp matches JavaScript's Date.toISOString once converted to UTC
const isoTimestamp = "2006-01-02T15:04:05.000Z07:00"

// Option customises a submission usecase
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock overrides the time source used for SubmittedAt
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides submission ID generation
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) timestamp() string {
	return o.now().UTC().Format(isoTimestamp)
}

// firstMissing returns the first required field that is blank
func firstMissing(fields domain.Fields, required []string) string {
	for _, name := range required {
		if fields.Get(name) == "" {
			return name
		}
	}
	return ""
}

// recoverSubmission turns a panic anywhere in a handler into UnexpectedError
func recoverSubmission(kind string, result *domain.SubmissionResult) {
	if r := recover(); r != nil {
		logger.Log.Error("submission handler panicked",
			zap.String("kind", kind),
			zap.Any("panic", r),
			zap.Stack("stack"),
		)
		*result = domain.Unexpected()
	}
}

// recordToSink hands an accepted submission to the sink. Sink failures are
// logged for operators and never change the result the user sees.
func recordToSink(ctx context.Context, sink domain.Sink, submission domain.Submission) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("submission sink panicked",
				zap.String("kind", submission.Kind()),
				zap.String("submission_id", submission.SubmissionID()),
				zap.Any("panic", r),
			)
		}
	}()

	if err := sink.Record(ctx, submission, domain.MetaFrom(ctx)); err != nil {
		logger.Log.Error("failed to record submission",
			zap.String("kind", submission.Kind()),
			zap.String("submission_id", submission.SubmissionID()),
			zap.Error(fmt.Errorf("sink: %w", err)),
		)
	}
}
