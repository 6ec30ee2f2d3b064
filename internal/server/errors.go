package server

import "fmt"

// Error codes for the streaming server
const (
	ErrCodeServerStart = "SERVER_START_FAILED"
	ErrCodeUpgrade     = "WEBSOCKET_UPGRADE_FAILED"
)

// ServerError represents a streaming server failure
type ServerError struct {
	Code    string
	Message string
	Cause   error
}

func (e *ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServerError) Unwrap() error {
	return e.Cause
}

// NewServerError creates a new server error
func NewServerError(code, message string, cause error) *ServerError {
	return &ServerError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
