package capture

// CaptureError represents audio capture failures
type CaptureError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error codes for capture operations
const (
	ErrCodeCaptureUnavailable = "CAPTURE_UNAVAILABLE"
	ErrCodeInvalidAudioFile   = "INVALID_AUDIO_FILE"
)

func (e *CaptureError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CaptureError) Unwrap() error {
	return e.Cause
}

// NewCaptureError creates a new capture error
func NewCaptureError(code, message string, cause error) *CaptureError {
	return &CaptureError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
