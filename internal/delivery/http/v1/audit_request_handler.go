package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"securechain-api/internal/domain"
	"securechain-api/internal/monitoring"
	"securechain-api/pkg/apperror"
	"securechain-api/pkg/logger"
	"securechain-api/pkg/security"
	"securechain-api/pkg/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartMemory is how much of a multipart body is held in memory
// before parts spill to temporary files
const multipartMemory = 8 << 20

// UploadLimiter throttles documentation uploads
type UploadLimiter interface {
	AllowUpload(ctx context.Context, ip, email string) (bool, int, error)
}

type AuditRequestHandler struct {
	auditUC domain.AuditRequestUsecase
	limiter UploadLimiter
	metrics *monitoring.Metrics
}

// NewAuditRequestHandler registers the audit request routes
func NewAuditRequestHandler(public gin.IRoutes, auditUC domain.AuditRequestUsecase, limiter UploadLimiter, metrics *monitoring.Metrics) {
	handler := &AuditRequestHandler{
		auditUC: auditUC,
		limiter: limiter,
		metrics: metrics,
	}

	public.POST("/audit-requests", handler.SubmitAuditRequest)
}

// SubmitAuditRequest godoc
// @Summary      Request an Audit
// @Description  Submit a smart contract audit request with optional PDF or ZIP documentation (under 10MB).
// @Tags         audit
// @Accept       multipart/form-data
// @Produce      json
// @Param        projectName  formData  string  true   "Project name"
// @Param        email        formData  string  true   "Contact email"
// @Param        chain        formData  string  true   "Target blockchain"
// @Param        description  formData  string  true   "Project description"
// @Param        telegram     formData  string  false  "Telegram handle"
// @Param        github       formData  string  false  "Repository URL"
// @Param        timeline     formData  string  false  "Desired timeline"
// @Param        budget       formData  string  false  "Budget range"
// @Param        file         formData  file    false  "Documentation (PDF or ZIP)"
// @Success      200  {object}  response.Response{data=response.SubmissionData}
// @Failure      400  {object}  response.Response
// @Failure      413  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Failure      500  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /audit-requests [post]
func (h *AuditRequestHandler) SubmitAuditRequest(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if isBodyTooLarge(err) {
			renderSubmission(c, h.metrics, "audit_request", nil,
				domain.Failed(domain.CodeFileTooLarge, domain.MsgFileTooLarge, domain.FieldFile))
			return
		}
		_ = c.Error(bodyError(err))
		return
	}
	if c.Request.MultipartForm != nil {
		defer func() { _ = c.Request.MultipartForm.RemoveAll() }()
	}

	fields := firstValues(c.Request.PostForm)

	file, err := uploadedFile(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if file != nil {
		defer file.close()
	}

	var upload *domain.UploadedFile
	if file != nil {
		upload = &file.UploadedFile
		if upload.Present() && acceptable(fields, upload) && !h.allowUpload(c, fields) {
			return
		}
	}

	result := h.auditUC.SubmitAuditRequest(submissionContext(c), fields, upload)
	if result.Success && upload.Present() && h.metrics != nil {
		h.metrics.RecordAttachmentSize(int(upload.Size))
	}
	renderSubmission(c, h.metrics, "audit_request", fields, result)
}

// acceptable runs the checks that need no file content, so requests the
// usecase will reject do not spend upload budget
func acceptable(fields domain.Fields, upload *domain.UploadedFile) bool {
	return validation.RequiredFieldsPresent(fields, domain.AuditRequestRequiredFields) &&
		validation.IsValidEmail(fields.Get(domain.FieldEmail)) &&
		security.CheckAttachment(upload.ContentType, upload.Size) == nil
}

// allowUpload applies the upload limiter and writes the rejection itself
func (h *AuditRequestHandler) allowUpload(c *gin.Context, fields domain.Fields) bool {
	if h.limiter == nil {
		return true
	}

	allowed, retryAfter, err := h.limiter.AllowUpload(c.Request.Context(), c.ClientIP(), fields.Get(domain.FieldEmail))
	if allowed {
		if err != nil {
			logger.Log.Debug("upload limiter skipped", zap.Error(err))
		}
		return true
	}

	if retryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(retryAfter))
	}
	if err != nil {
		_ = c.Error(apperror.ServiceUnavailable("Uploads are temporarily unavailable. Please try again.", err))
		return false
	}
	_ = c.Error(apperror.TooManyRequests("Upload limit reached. Please try again later."))
	return false
}

type formFile struct {
	domain.UploadedFile
	close func()
}

// uploadedFile returns the "file" part, or nil when none was sent
func uploadedFile(c *gin.Context) (*formFile, error) {
	if c.Request.MultipartForm == nil {
		return nil, nil
	}

	f, header, err := c.Request.FormFile(domain.FieldFile)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, bodyError(err)
	}

	return &formFile{
		UploadedFile: domain.UploadedFile{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Content:     f,
		},
		close: func() { _ = f.Close() },
	}, nil
}
