package generation

// GenerationError represents failures of the external image-generation
// service. All of these are transient environment errors: the caller falls
// back to the local transform path exactly once and never retries the
// service within the same transform cycle.
type GenerationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error codes for generation service failures
const (
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInvalidResponse    = "INVALID_RESPONSE"
)

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// NewGenerationError creates a new generation error
func NewGenerationError(code, message string, cause error) *GenerationError {
	return &GenerationError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
