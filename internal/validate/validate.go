// Package validate holds the credential and status validation rules enforced
// at registration and login time.
package validate

import (
	"regexp"
	"strings"
	"unicode"

	apperrors "co2plus/internal/errors"
	"co2plus/internal/model"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var validStatuses = map[string]bool{
	model.StatusPending:   true,
	model.StatusActive:    true,
	model.StatusInactive:  true,
	model.StatusRejected:  true,
	model.StatusSuspended: true,
}

// Username requires a trimmed length of 2-50 characters.
func Username(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 || len(trimmed) > 50 {
		return apperrors.NewValidationError("username must be 2-50 characters")
	}
	return nil
}

// Email requires a local@domain.tld shape.
func Email(email string) error {
	if !emailRe.MatchString(email) {
		return apperrors.NewValidationError("invalid email format")
	}
	return nil
}

// Password requires at least 8 characters with upper, lower, digit and
// special. Checked with rune scans since RE2 has no lookahead.
func Password(pw string) error {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if len(pw) < 8 || !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return apperrors.NewValidationError(
			"password must be 8+ chars and include uppercase, lowercase, number, and special character")
	}
	return nil
}

// OTP requires exactly six digits.
func OTP(otp string) error {
	if len(otp) != 6 {
		return apperrors.NewValidationError("OTP must be 6 digits")
	}
	for _, r := range otp {
		if r < '0' || r > '9' {
			return apperrors.NewValidationError("OTP must be 6 digits")
		}
	}
	return nil
}

// Status reports whether s is a known account status.
func Status(s string) bool {
	return validStatuses[s]
}
