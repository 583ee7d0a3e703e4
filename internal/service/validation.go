package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	apperrors "github.com/joshliford/amplify-guitar/pkg/util"
)

const (
	minPasswordLen    = 8
	minNameLen        = 2
	maxNameLen        = 40
	maxDisplayNameLen = 20
)

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", apperrors.NewValidationError("invalid email format", map[string]any{"field": "email"})
	}
	return strings.ToLower(email), nil
}

func validatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return apperrors.NewValidationError("password cannot be empty", map[string]any{"field": "password"})
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return apperrors.NewValidationError("password must be at least 8 characters", map[string]any{"field": "password"})
	}
	return nil
}

func validateName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	n := utf8.RuneCountInString(value)
	if n < minNameLen || n > maxNameLen {
		return "", apperrors.NewValidationError(field+" must be between 2 and 40 characters", map[string]any{"field": field})
	}
	return value, nil
}

func validateDisplayName(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.NewValidationError("display name cannot be empty", map[string]any{"field": "displayName"})
	}
	if utf8.RuneCountInString(value) > maxDisplayNameLen {
		return "", apperrors.NewValidationError("display name cannot exceed 20 characters", map[string]any{"field": "displayName"})
	}
	return value, nil
}
