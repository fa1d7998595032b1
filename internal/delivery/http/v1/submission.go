package v1

import (
	"context"
	"net/http"

	"securechain-api/internal/delivery/http/middleware"
	"securechain-api/internal/delivery/http/response"
	"securechain-api/internal/domain"
	"securechain-api/internal/monitoring"
	"securechain-api/pkg/security"

	"github.com/gin-gonic/gin"
)

// statusFor maps a failed result to its HTTP status
func statusFor(code domain.ErrorCode) int {
	switch {
	case code == domain.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case code.Kind() == domain.KindValidation:
		return http.StatusBadRequest
	case code == domain.CodeUploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// submissionContext carries the request metadata down to the sinks
func submissionContext(c *gin.Context) context.Context {
	return domain.WithMeta(c.Request.Context(), domain.SubmissionMeta{
		RequestID: middleware.GetRequestID(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}

// renderSubmission writes the result and records its outcome
func renderSubmission(c *gin.Context, metrics *monitoring.Metrics, form string, fields domain.Fields, result domain.SubmissionResult) {
	if metrics != nil {
		metrics.RecordSubmission(form, result)
	}

	if result.Success {
		response.Submission(c, http.StatusOK, result)
		return
	}

	if result.Code.Kind() == domain.KindValidation {
		security.DefaultLogger().LogValidationFailed(
			c.Request.Context(),
			form,
			string(result.Code),
			result.Field,
			fields.Get(domain.FieldEmail),
			c.ClientIP(),
			middleware.GetRequestID(c),
		)
	}
	response.Submission(c, statusFor(result.Code), result)
}

// firstValues flattens a parsed form, keeping the first value of each key
func firstValues(values map[string][]string) domain.Fields {
	fields := make(domain.Fields, len(values))
	for k, v := range values {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields
}
