package transform

// TransformError represents transform and mask contract errors
type TransformError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error codes for transform operations
const (
	ErrCodeInvalidDimensions = "INVALID_DIMENSIONS"
	ErrCodeInvalidMaskMode   = "INVALID_MASK_MODE"
)

func (e *TransformError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *TransformError) Unwrap() error {
	return e.Cause
}

// NewTransformError creates a new transform error
func NewTransformError(code, message string, cause error) *TransformError {
	return &TransformError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
