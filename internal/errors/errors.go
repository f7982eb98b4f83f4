package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned on any credential mismatch. The wording
	// is deliberately generic to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserAlreadyExists is returned when registering an email already present.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrAccountLocked is returned while the lockout window is active.
	ErrAccountLocked = errors.New("account locked due to multiple failed attempts, try again later")
	// ErrEmailUnverified is returned when logging in before OTP verification.
	ErrEmailUnverified = errors.New("please verify your email first")
	// ErrAlreadyVerified is returned when verifying an already verified email.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrNoOTP is returned when no OTP is pending for the account.
	ErrNoOTP = errors.New("no OTP found, please register again")
	// ErrInvalidOTP is returned when the submitted code does not match.
	ErrInvalidOTP = errors.New("invalid OTP")
	// ErrExpiredOTP is returned when the code is past its expiry window.
	ErrExpiredOTP = errors.New("OTP expired, please register again")
	// ErrOTPDelivery is returned when the verification email cannot be sent.
	ErrOTPDelivery = errors.New("failed to send OTP, check email configuration")
	// ErrRoleNotConfigured is returned when the fallback USER role is absent.
	ErrRoleNotConfigured = errors.New("USER role not configured in roles table")
	// ErrAlreadyInStatus is returned when a status transition is a no-op.
	ErrAlreadyInStatus = errors.New("user already in requested status")
	// ErrInvalidStatus is returned for a status outside the known set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrMissingToken is returned when no bearer token accompanies the request.
	ErrMissingToken = errors.New("token missing")
	// ErrInvalidToken is returned on any token verification failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden is returned when the caller's role is not allowed.
	ErrForbidden = errors.New("access denied")
	// ErrNotificationNotFound is returned when a notification lookup misses.
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrInvalidEvent is returned for a malformed or unrecognized event.
	ErrInvalidEvent = errors.New("invalid event")
)

// ValidationError carries a caller-facing message for malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors collapse to
// a generic 500 so internals never leak to clients.
func MapErrorToHTTP(err error) *HTTPError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return NewHTTPError(http.StatusBadRequest, ve.Message, "VALIDATION_FAILED")
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrUserAlreadyExists):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "USER_ALREADY_EXISTS")
	case errors.Is(err, ErrAccountLocked):
		return NewHTTPError(http.StatusTooManyRequests, err.Error(), "ACCOUNT_LOCKED")
	case errors.Is(err, ErrEmailUnverified):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "EMAIL_UNVERIFIED")
	case errors.Is(err, ErrAlreadyVerified):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "ALREADY_VERIFIED")
	case errors.Is(err, ErrNoOTP):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "NO_OTP")
	case errors.Is(err, ErrInvalidOTP):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_OTP")
	case errors.Is(err, ErrExpiredOTP):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "EXPIRED_OTP")
	case errors.Is(err, ErrOTPDelivery):
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "OTP_DELIVERY_FAILED")
	case errors.Is(err, ErrRoleNotConfigured):
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "ROLE_NOT_CONFIGURED")
	case errors.Is(err, ErrAlreadyInStatus):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "ALREADY_IN_STATUS")
	case errors.Is(err, ErrInvalidStatus):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_STATUS")
	case errors.Is(err, ErrMissingToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "TOKEN_MISSING")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_TOKEN")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrNotificationNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "NOTIFICATION_NOT_FOUND")
	case errors.Is(err, ErrInvalidEvent):
		return NewHTTPError(http.StatusInternalServerError, err.Error(), "INVALID_EVENT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
