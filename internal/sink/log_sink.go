package sink

import (
	"context"

	"securechain-api/internal/domain"

	"go.uber.org/zap"
)

// LogSink writes accepted submissions to the structured log
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a sink on top of log
func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("submissions")}
}

func (s *LogSink) Record(ctx context.Context, submission domain.Submission, meta domain.SubmissionMeta) error {
	s.log.Info("submission received",
		zap.String("kind", submission.Kind()),
		zap.String("submission_id", submission.SubmissionID()),
		zap.String("submitted_at", submission.Timestamp()),
		zap.String("request_id", meta.RequestID),
		zap.String("client_ip", meta.IP),
		zap.Any("submission", submission),
	)
	return nil
}
