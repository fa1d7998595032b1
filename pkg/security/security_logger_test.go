package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@x.com", MaskEmail("jo@x.com"))
	assert.Equal(t, "***@x.com", MaskEmail("j@x.com"))
	assert.Equal(t, "***", MaskEmail("a"))
}

func TestSecurityLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := NewSecurityLogger(zap.New(core), "securechain-api", "test")
	ctx := context.Background()

	sl.LogValidationFailed(ctx, "contact", "InvalidEmailFormat", "email", "jo@x.com", "203.0.113.1", "req-1")
	sl.LogRateLimitTriggered(ctx, "203.0.113.1", "curl", "req-2", "/v1/contact")
	sl.LogUploadRejected(ctx, "eicar.zip", "malware", "203.0.113.1", "req-3")

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "j***@x.com", entries[0].ContextMap()["subject_value"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "rate_limit_triggered", entries[1].Message)

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "malware_detected", entries[2].Message)
	assert.Equal(t, "CRITICAL", entries[2].ContextMap()["severity"])
	assert.NotEqual(t, "eicar.zip", entries[2].ContextMap()["subject_value"])
}

func TestGetSeverityDefault(t *testing.T) {
	assert.Equal(t, SeverityMEDIUM, GetSeverity(EventType("unknown")))
}

func TestSecurityLoggerPersist(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := NewSecurityLogger(zap.New(core), "securechain-api", "test")

	var persisted []SecurityEvent
	sl.SetPersistFunc(func(ctx context.Context, e SecurityEvent) error {
		persisted = append(persisted, e)
		return nil
	})
	sl.LogRateLimitTriggered(context.Background(), "203.0.113.1", "curl", "req-1", "/v1/contact")

	require.Len(t, persisted, 1)
	assert.Equal(t, EventRateLimitTriggered, persisted[0].Event)
	assert.Equal(t, SeverityWARN, persisted[0].Severity)
	assert.Equal(t, "securechain-api", persisted[0].Service)
	assert.False(t, persisted[0].Timestamp.IsZero())

	sl.SetPersistFunc(func(ctx context.Context, e SecurityEvent) error {
		return assert.AnError
	})
	sl.LogRateLimitTriggered(context.Background(), "203.0.113.1", "curl", "req-2", "/v1/contact")

	assert.Equal(t, 1, logs.FilterMessage("failed to persist security event").Len())
}

func TestLogSuspiciousInput(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := NewSecurityLogger(zap.New(core), "securechain-api", "test")

	sl.LogSuspiciousInput(context.Background(), "file", "../../etc/passwd.pdf", "203.0.113.9", "req-7")

	entries := logs.FilterMessage("suspicious_input").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "HIGH", entries[0].ContextMap()["severity"])
	assert.Equal(t, HashValue("../../etc/passwd.pdf"), entries[0].ContextMap()["subject_value"])
}
