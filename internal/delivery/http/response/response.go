package response

import (
	"securechain-api/internal/domain"

	"github.com/gin-gonic/gin"
)

// Response standardizes the API JSON response
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Code      string      `json:"code,omitempty"`
	Field     string      `json:"field,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// SubmissionData is the payload of a successful submission
type SubmissionData struct {
	SubmissionID string `json:"submission_id"`
}

func requestID(c *gin.Context) string {
	reqID, _ := c.Get(string(domain.KeyRequestID))
	idStr, _ := reqID.(string) // Safe type assertion
	return idStr
}

// Success sends a success response
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestID(c),
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string, err interface{}) {
	c.JSON(code, Response{
		Success:   false,
		Message:   message,
		Error:     err,
		RequestID: requestID(c),
	})
}

// Submission renders a handler result. Failures repeat the user-facing
// message in both message and error so clients can read either.
func Submission(c *gin.Context, code int, result domain.SubmissionResult) {
	if result.Success {
		Success(c, code, result.Message, SubmissionData{SubmissionID: result.SubmissionID})
		return
	}
	c.JSON(code, Response{
		Success:   false,
		Message:   result.Error,
		Code:      string(result.Code),
		Field:     result.Field,
		Error:     result.Error,
		RequestID: requestID(c),
	})
}
