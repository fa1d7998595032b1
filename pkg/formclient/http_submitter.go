package formclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"securechain-api/internal/domain"
)

// envelope mirrors the API response body
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field"`
	Data    struct {
		SubmissionID string `json:"submission_id"`
	} `json:"data"`
	Error interface{} `json:"error"`
}

// HTTPSubmitter posts snapshots to the intake API
type HTTPSubmitter struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

// NewHTTPSubmitter targets the API at baseURL, e.g. https://api.securechain.io
func NewHTTPSubmitter(baseURL string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPSubmitter{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    client,
		userAgent: "securechain-formctl/1.0",
	}
}

// Submit sends contact forms as JSON and audit requests as multipart
func (h *HTTPSubmitter) Submit(ctx context.Context, s Submission) (domain.SubmissionResult, error) {
	var (
		req *http.Request
		err error
	)
	switch s.Form {
	case FormContact:
		req, err = h.contactRequest(ctx, s)
	case FormAuditRequest:
		req, err = h.auditRequest(ctx, s)
	default:
		return domain.SubmissionResult{}, fmt.Errorf("formclient: unknown form %q", s.Form)
	}
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("formclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("formclient: read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("formclient: unexpected response (status %d): %w", resp.StatusCode, err)
	}
	return env.result(resp.StatusCode), nil
}

func (h *HTTPSubmitter) contactRequest(ctx context.Context, s Submission) (*http.Request, error) {
	payload, err := json.Marshal(s.Fields)
	if err != nil {
		return nil, fmt.Errorf("formclient: encode fields: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/contact", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (h *HTTPSubmitter) auditRequest(ctx context.Context, s Submission) (*http.Request, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(s.Fields))
	for k := range s.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, s.Fields[k]); err != nil {
			return nil, fmt.Errorf("formclient: write field %s: %w", k, err)
		}
	}

	if s.File.Present() {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, domain.FieldFile, s.File.Name))
		header.Set("Content-Type", s.File.ContentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("formclient: create file part: %w", err)
		}
		if s.File.Content == nil {
			return nil, fmt.Errorf("formclient: file %s has no content", s.File.Name)
		}
		n, err := io.Copy(part, s.File.Content)
		if err != nil {
			return nil, fmt.Errorf("formclient: read file %s: %w", s.File.Name, err)
		}
		if n != s.File.Size {
			return nil, fmt.Errorf("formclient: file %s: read %d of %d bytes", s.File.Name, n, s.File.Size)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/audit-requests", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

// result converts the envelope. Transport-level rejections such as rate
// limiting carry no code and surface their message as a general error.
func (e envelope) result(status int) domain.SubmissionResult {
	if e.Success {
		return domain.Succeeded(e.Message, e.Data.SubmissionID)
	}

	msg := e.Message
	if s, ok := e.Error.(string); ok && s != "" {
		msg = s
	}

	code := domain.ErrorCode(e.Code)
	if code == "" {
		code = domain.CodeUnexpectedError
		if status == http.StatusRequestEntityTooLarge {
			code = domain.CodeFileTooLarge
		}
	}
	return domain.Failed(code, msg, e.Field)
}
