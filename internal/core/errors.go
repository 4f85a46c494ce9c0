package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeSessionNotFound = "session_not_found"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnauthorized    = "unauthorized"
)

var (
	ErrSessionNotFound = coreError(ErrCodeSessionNotFound, "session not found")
	ErrUnknownTab      = coreError(ErrCodeBadRequest, "unknown tab")
	ErrUnknownNight    = coreError(ErrCodeBadRequest, "unknown night")

	// ErrHubStopped is returned to callers once Run has exited.
	ErrHubStopped = errors.New("hub stopped")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
