package security

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxAttachmentSize is the upper bound (exclusive) for audit documentation uploads
const MaxAttachmentSize int64 = 10 * 1024 * 1024

var (
	ErrUnsupportedFileType = errors.New("file type not allowed")
	ErrFileTooLarge        = errors.New("file exceeds maximum size")
)

// Declared MIME types accepted for documentation uploads
var allowedMIMETypes = map[string]bool{
	"application/pdf":              true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
}

// Magic byte signatures per canonical type
var magicBytes = map[string][][]byte{
	"application/pdf": {{0x25, 0x50, 0x44, 0x46}}, // %PDF
	"application/zip": {
		{0x50, 0x4B, 0x03, 0x04}, // local file header
		{0x50, 0x4B, 0x05, 0x06}, // empty archive
		{0x50, 0x4B, 0x07, 0x08}, // spanned archive
	},
}

// FileValidationResult contains the result of content validation
type FileValidationResult struct {
	Valid        bool   // Whether the content passed all checks
	DetectedMIME string // MIME type sniffed from content
	Error        string // Reason for rejection
}

// IsAllowedFileType checks the declared MIME type against the whitelist.
// Parameters such as "; charset=..." are ignored.
func IsAllowedFileType(contentType string) bool {
	return allowedMIMETypes[normalizeMIME(contentType)]
}

// IsWithinSizeLimit reports whether size is strictly below MaxAttachmentSize
func IsWithinSizeLimit(size int64) bool {
	return size < MaxAttachmentSize
}

// CheckAttachment runs the declared-metadata checks in order: type, then size
func CheckAttachment(contentType string, size int64) error {
	if !IsAllowedFileType(contentType) {
		return ErrUnsupportedFileType
	}
	if !IsWithinSizeLimit(size) {
		return ErrFileTooLarge
	}
	return nil
}

// ValidateContent re-checks the actual bytes after they were read:
// 1. Length below MaxAttachmentSize
// 2. Sniffed MIME type is PDF or ZIP
// 3. Magic bytes match the sniffed type
func ValidateContent(data []byte) FileValidationResult {
	result := FileValidationResult{}

	if !IsWithinSizeLimit(int64(len(data))) {
		result.Error = "file content exceeds maximum size"
		return result
	}

	detected := mimetype.Detect(data)
	canonical := ""
	for m := detected; m != nil; m = m.Parent() {
		if _, ok := magicBytes[m.String()]; ok {
			canonical = m.String()
			break
		}
	}
	result.DetectedMIME = detected.String()
	if canonical == "" {
		result.Error = "MIME type not allowed: " + detected.String()
		return result
	}

	if !validateMagicBytes(canonical, data) {
		result.Error = "file content does not match its type (potential file spoofing detected)"
		return result
	}

	result.Valid = true
	return result
}

// validateMagicBytes checks if file content starts with expected magic bytes
func validateMagicBytes(mime string, data []byte) bool {
	if len(data) < 4 {
		return false
	}
	for _, sig := range magicBytes[mime] {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}

// SanitizeFilename strips any directory components and control characters
// from a client supplied file name
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if name == "." || name == "/" || name == "" {
		return "attachment"
	}
	return name
}

func normalizeMIME(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
