package features

// FeatureError represents feature-extraction contract errors
type FeatureError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error codes for feature extraction
const (
	ErrCodeInvalidInputLength = "INVALID_INPUT_LENGTH"
)

func (e *FeatureError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *FeatureError) Unwrap() error {
	return e.Cause
}

// NewFeatureError creates a new feature error
func NewFeatureError(code, message string, cause error) *FeatureError {
	return &FeatureError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
