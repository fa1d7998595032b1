package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps form field names to user-friendly labels
var FieldLabels = map[string]string{
	// Contact form
	"name":    "Name",
	"email":   "Email",
	"subject": "Subject",
	"message": "Message",

	// Audit request form
	"projectName": "Project Name",
	"telegram":    "Telegram",
	"chain":       "Blockchain / Stack",
	"github":      "GitHub Repository",
	"timeline":    "Desired Timeline",
	"budget":      "Budget Range",
	"description": "Project Description",
}

// FieldErrors validates s and returns one message per failing field,
// keyed by form field name. Returns nil when s is valid.
func FieldErrors(v *validator.Validate, s interface{}) map[string]string {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]string{"general": err.Error()}
	}

	out := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		if _, seen := out[e.Field()]; seen {
			continue
		}
		out[e.Field()] = formatSingleError(e)
	}
	return out
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)

	case "min":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters long", label, param)
		}
		return fmt.Sprintf("%s must be at least %s", label, param)

	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters long", label, param)
		}
		return fmt.Sprintf("%s must be at most %s", label, param)

	case "email", "form_email":
		return "Please enter a valid email address"

	case "url":
		return fmt.Sprintf("%s must be a valid URL", label)

	default:
		return fmt.Sprintf("%s is invalid (%s)", label, e.Tag())
	}
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return formatCamelCase(fieldName)
}

// formatCamelCase converts camelCase to spaced words
func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
