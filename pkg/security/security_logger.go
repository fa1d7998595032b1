package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"securechain-api/pkg/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of security event
type EventType string

const (
	EventRateLimitTriggered EventType = "rate_limit_triggered"
	EventValidationFailed   EventType = "validation_failed"
	EventUploadRejected     EventType = "upload_rejected"
	EventMalwareDetected    EventType = "malware_detected"
	EventSuspiciousInput    EventType = "suspicious_input"
	EventServerError        EventType = "server_error"
)

// Severity is derived from EventType, never supplied by callers
type Severity string

const (
	SeverityINFO     Severity = "INFO"
	SeverityMEDIUM   Severity = "MEDIUM"
	SeverityWARN     Severity = "WARN"
	SeverityHIGH     Severity = "HIGH"
	SeverityCRITICAL Severity = "CRITICAL"
)

var eventSeverity = map[EventType]Severity{
	EventValidationFailed:   SeverityINFO,
	EventServerError:        SeverityMEDIUM,
	EventRateLimitTriggered: SeverityWARN,
	EventUploadRejected:     SeverityWARN,
	EventSuspiciousInput:    SeverityHIGH,
	EventMalwareDetected:    SeverityCRITICAL,
}

// GetSeverity returns the severity for an event type, MEDIUM if unmapped
func GetSeverity(eventType EventType) Severity {
	if severity, ok := eventSeverity[eventType]; ok {
		return severity
	}
	return SeverityMEDIUM
}

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Environment  string                 `json:"env"`
	Level        string                 `json:"level"`
	Event        EventType              `json:"event"`
	Severity     Severity               `json:"severity"`
	SubjectType  string                 `json:"subject_type,omitempty"`  // "email", "ip", "file"
	SubjectValue string                 `json:"subject_value,omitempty"` // Masked or hashed for PII
	IP           string                 `json:"ip,omitempty"`
	UserAgent    string                 `json:"user_agent,omitempty"`
	RequestID    string                 `json:"request_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SecurityLogger provides structured logging for security events
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
	persist     func(context.Context, SecurityEvent) error
}

var defaultLogger *SecurityLogger

// InitSecurityLogger builds the default security logger on top of base
func InitSecurityLogger(base *zap.Logger, serviceName, environment string) *SecurityLogger {
	sl := NewSecurityLogger(base, serviceName, environment)
	defaultLogger = sl
	return sl
}

// NewSecurityLogger creates a security logger writing to base
func NewSecurityLogger(base *zap.Logger, serviceName, environment string) *SecurityLogger {
	return &SecurityLogger{
		zapLogger:   base.Named("security"),
		serviceName: serviceName,
		environment: environment,
	}
}

// DefaultLogger returns the default security logger instance
func DefaultLogger() *SecurityLogger {
	if defaultLogger == nil {
		return NewSecurityLogger(logger.Log, "securechain-api", getEnvironment())
	}
	return defaultLogger
}

// Log logs a security event
func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = sl.serviceName
	event.Environment = sl.environment
	event.Severity = GetSeverity(event.Event)

	level := zapcore.WarnLevel
	switch event.Severity {
	case SeverityINFO, SeverityMEDIUM:
		level = zapcore.InfoLevel
	case SeverityHIGH, SeverityCRITICAL:
		level = zapcore.ErrorLevel
	}
	event.Level = level.String()

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("event", string(event.Event)),
		zap.String("severity", string(event.Severity)),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	sl.zapLogger.Log(level, string(event.Event), fields...)

	if sl.persist != nil {
		if err := sl.persist(ctx, event); err != nil {
			sl.zapLogger.Warn("failed to persist security event",
				zap.String("event", string(event.Event)),
				zap.Error(err),
			)
		}
	}
}

// SetPersistFunc stores every logged event through fn in addition to the log
func (sl *SecurityLogger) SetPersistFunc(fn func(context.Context, SecurityEvent) error) {
	sl.persist = fn
}

// LogRateLimitTriggered logs when rate limiting is triggered
func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, ip, userAgent, requestID, endpoint string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
		Details:      map[string]interface{}{"endpoint": endpoint},
	})
}

// LogValidationFailed logs a rejected form submission
func (sl *SecurityLogger) LogValidationFailed(ctx context.Context, form, code, field, email, ip, requestID string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventValidationFailed,
		SubjectType:  "email",
		SubjectValue: maskValue("email", email),
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]interface{}{"form": form, "code": code, "field": field},
	})
}

// LogUploadRejected logs an attachment refused by type, size, content or scanner checks
func (sl *SecurityLogger) LogUploadRejected(ctx context.Context, fileName, reason, ip, requestID string) {
	event := EventUploadRejected
	if reason == "malware" {
		event = EventMalwareDetected
	}
	sl.Log(ctx, SecurityEvent{
		Event:        event,
		SubjectType:  "file",
		SubjectValue: HashValue(fileName),
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]interface{}{"reason": reason},
	})
}

// LogSuspiciousInput logs client input that had to be rewritten before use,
// such as a file name carrying path components
func (sl *SecurityLogger) LogSuspiciousInput(ctx context.Context, field, value, ip, requestID string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventSuspiciousInput,
		SubjectType:  field,
		SubjectValue: HashValue(value),
		IP:           ip,
		RequestID:    requestID,
		Details:      map[string]interface{}{"field": field},
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// --- Helper Functions ---

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	atIndex := -1
	for i, c := range email {
		if c == '@' {
			atIndex = i
			break
		}
	}
	if atIndex <= 1 {
		return "***" + email[1:]
	}
	return string(email[0]) + "***" + email[atIndex:]
}

// HashValue creates a SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

// maskValue masks a value based on its type
func maskValue(subjectType, value string) string {
	if value == "" {
		return ""
	}
	switch subjectType {
	case "email":
		return MaskEmail(value)
	case "ip":
		return value // IPs are not PII in security context
	default:
		return HashValue(value)
	}
}

// getEnvironment determines the current environment
func getEnvironment() string {
	env := os.Getenv("GIN_MODE")
	if env == "release" {
		return "production"
	}
	return "development"
}
