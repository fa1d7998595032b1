package validation

import (
	"strings"
	"unicode/utf8"
)

// RequiredFieldsPresent fails if any required field is absent or blank
func RequiredFieldsPresent(fields map[string]string, required []string) bool {
	for _, name := range required {
		if strings.TrimSpace(fields[name]) == "" {
			return false
		}
	}
	return true
}

// IsValidEmail checks the local@domain.tld shape. Not an RFC 5322 parser:
// exotic but legal addresses may be rejected.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// MinLength reports whether s has at least n characters
func MinLength(s string, n int) bool {
	return utf8.RuneCountInString(s) >= n
}
