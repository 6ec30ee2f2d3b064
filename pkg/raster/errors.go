package raster

// RasterError represents image buffer and codec errors
type RasterError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error codes for raster operations
const (
	ErrCodeInvalidImageFormat = "INVALID_IMAGE_FORMAT"
	ErrCodeDecoding           = "DECODING_FAILED"
	ErrCodeEncoding           = "ENCODING_FAILED"
)

func (e *RasterError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RasterError) Unwrap() error {
	return e.Cause
}

// NewRasterError creates a new raster error
func NewRasterError(code, message string, cause error) *RasterError {
	return &RasterError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
