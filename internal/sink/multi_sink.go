package sink

import (
	"context"
	"fmt"

	"securechain-api/internal/domain"
	"securechain-api/internal/monitoring"

	"go.uber.org/zap"
)

type namedSink struct {
	name string
	sink domain.Sink
}

// MultiSink fans a submission out to every registered sink in order.
// A failing sink is logged and counted and does not stop the others;
// Record itself never fails.
type MultiSink struct {
	sinks   []namedSink
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// NewMultiSink creates an empty fan-out. metrics may be nil.
func NewMultiSink(log *zap.Logger, metrics *monitoring.Metrics) *MultiSink {
	return &MultiSink{log: log, metrics: metrics}
}

// Add registers a sink under name
func (m *MultiSink) Add(name string, s domain.Sink) *MultiSink {
	m.sinks = append(m.sinks, namedSink{name: name, sink: s})
	return m
}

// Len returns the number of registered sinks
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

func (m *MultiSink) Record(ctx context.Context, submission domain.Submission, meta domain.SubmissionMeta) error {
	for _, s := range m.sinks {
		if err := m.recordOne(ctx, s, submission, meta); err != nil {
			m.log.Error("sink failed to record submission",
				zap.String("sink", s.name),
				zap.String("kind", submission.Kind()),
				zap.String("submission_id", submission.SubmissionID()),
				zap.String("request_id", meta.RequestID),
				zap.Error(err),
			)
			if m.metrics != nil {
				m.metrics.RecordSinkFailure(s.name, submission.Kind())
			}
		}
	}
	return nil
}

func (m *MultiSink) recordOne(ctx context.Context, s namedSink, submission domain.Submission, meta domain.SubmissionMeta) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.sink.Record(ctx, submission, meta)
}
