package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstreamUnavailable is returned when the catalog source cannot be reached
	ErrUpstreamUnavailable = errors.New("upstream temporarily unavailable")

	// ErrUpstreamRejected is returned when the catalog source answers with a non-success code
	ErrUpstreamRejected = errors.New("upstream rejected request")

	// ErrMalformedPayload is returned when a catalog document cannot be parsed
	ErrMalformedPayload = errors.New("malformed catalog payload")
)

// UserFriendlyError wraps an error with a user-friendly message
type UserFriendlyError struct {
	Err            error
	UserMessage    string
	HTTPStatusCode int
}

// Error implements the error interface
func (e *UserFriendlyError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap returns the underlying error
func (e *UserFriendlyError) Unwrap() error {
	return e.Err
}

// NewUserFriendlyError creates a new user-friendly error
func NewUserFriendlyError(err error, userMessage string, statusCode int) *UserFriendlyError {
	return &UserFriendlyError{
		Err:            err,
		UserMessage:    userMessage,
		HTTPStatusCode: statusCode,
	}
}
