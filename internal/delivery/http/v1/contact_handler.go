package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"securechain-api/internal/domain"
	"securechain-api/internal/monitoring"
	"securechain-api/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type ContactHandler struct {
	contactUC domain.ContactUsecase
	metrics   *monitoring.Metrics
}

// NewContactHandler registers the contact routes (public, no auth required)
func NewContactHandler(public gin.IRoutes, contactUC domain.ContactUsecase, metrics *monitoring.Metrics) {
	handler := &ContactHandler{
		contactUC: contactUC,
		metrics:   metrics,
	}

	public.POST("/contact", handler.SubmitContact)
}

// SubmitContact godoc
// @Summary      Submit Contact Form
// @Description  Send a message to the SecureChain team. Accepts JSON or form-encoded fields.
// @Tags         contact
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        contact  body      domain.ContactSubmission  true  "Contact Form Data"
// @Success      200      {object}  response.Response{data=response.SubmissionData}
// @Failure      400      {object}  response.Response
// @Failure      413      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	fields, err := contactFields(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result := h.contactUC.SubmitContact(submissionContext(c), fields)
	renderSubmission(c, h.metrics, "contact", fields, result)
}

// contactFields reads the posted fields from either encoding
func contactFields(c *gin.Context) (domain.Fields, error) {
	if c.ContentType() != binding.MIMEJSON {
		if err := c.Request.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, bodyError(err)
		}
		return firstValues(c.Request.PostForm), nil
	}

	var raw map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&raw); err != nil {
		return nil, bodyError(err)
	}

	fields := make(domain.Fields, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case nil:
		case string:
			fields[k] = v
		default:
			fields[k] = fmt.Sprint(v)
		}
	}
	return fields, nil
}

// bodyError classifies a failure to read the request body
func bodyError(err error) error {
	if isBodyTooLarge(err) {
		return apperror.PayloadTooLarge("Request body too large", err)
	}
	return apperror.BadRequest("Invalid request body", err)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
