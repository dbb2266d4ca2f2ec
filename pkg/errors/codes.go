package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every module.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_011"
	ErrCodeCancelled          ErrorCode = "COMMON_012"
)

// Molecule module error codes.
const (
	ErrCodeMoleculeInvalidSMILES ErrorCode = "MOL_001"
	ErrCodeMoleculeEmptyInput    ErrorCode = "MOL_002"
	ErrCodeStructureNotFound     ErrorCode = "MOL_003"
	ErrCodeStructureInvalid      ErrorCode = "MOL_004"
	ErrCodeNameUnavailable       ErrorCode = "MOL_005"
)

// Render module error codes. These map one-to-one onto the failure taxonomy
// of the load workflow: every one of them converges on the fallback view.
const (
	ErrCodeRenderLibraryUnavailable ErrorCode = "RND_001"
	ErrCodeRenderDeadlineExceeded   ErrorCode = "RND_002"
	ErrCodeRenderSurfaceFailed      ErrorCode = "RND_003"
	ErrCodeRenderSessionTornDown    ErrorCode = "RND_004"
)

// Prediction module error codes.
const (
	ErrCodePredictionFailed      ErrorCode = "PRED_001"
	ErrCodePredictionUnavailable ErrorCode = "PRED_002"
)

// Chat module error codes.
const (
	ErrCodeChatDisabled ErrorCode = "CHAT_001"
	ErrCodeChatFailed   ErrorCode = "CHAT_002"
)

// Aliases kept for call-site readability.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeTimeout      = ErrCodeTimeout
	CodeCancelled    = ErrCodeCancelled
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// httpStatusByCode maps error codes to the HTTP status returned by the API
// layer. Codes not present default to 500.
var httpStatusByCode = map[ErrorCode]int{
	ErrCodeBadRequest:             http.StatusBadRequest,
	ErrCodeValidation:             http.StatusBadRequest,
	ErrCodeMoleculeInvalidSMILES:  http.StatusBadRequest,
	ErrCodeMoleculeEmptyInput:     http.StatusBadRequest,
	ErrCodeNotFound:               http.StatusNotFound,
	ErrCodeStructureNotFound:      http.StatusNotFound,
	ErrCodeNameUnavailable:        http.StatusNotFound,
	ErrCodeTooManyRequests:        http.StatusTooManyRequests,
	ErrCodeTimeout:                http.StatusGatewayTimeout,
	ErrCodeRenderDeadlineExceeded: http.StatusGatewayTimeout,
	ErrCodeServiceUnavailable:     http.StatusServiceUnavailable,
	ErrCodeExternalService:        http.StatusBadGateway,
	ErrCodePredictionUnavailable:  http.StatusServiceUnavailable,
	ErrCodeChatDisabled:           http.StatusServiceUnavailable,
	ErrCodeFeatureDisabled:        http.StatusServiceUnavailable,
	ErrCodeStructureInvalid:       http.StatusBadGateway,
	ErrCodeCancelled:              499, // client closed request (nginx convention)
}

// HTTPStatus returns the HTTP status code associated with c.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := httpStatusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}
