package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	CodeOK           ErrorCode = "OK"
	CodeUnknown      ErrorCode = "COMMON_000"
	CodeInternal     ErrorCode = "COMMON_001"
	CodeInvalidParam ErrorCode = "COMMON_002"
	CodeTimeout      ErrorCode = "COMMON_003"
	CodeIO           ErrorCode = "COMMON_004"
	CodeCancelled    ErrorCode = "COMMON_005"
)

// Cheminformatics error codes.
const (
	CodeInvalidStructure  ErrorCode = "CHEM_001"
	CodeNoConformer       ErrorCode = "CHEM_002"
	CodeUnsupportedFormat ErrorCode = "CHEM_003"
	CodeMinimizationError ErrorCode = "CHEM_004"
)

// Remote service error codes.
const (
	CodeNetwork       ErrorCode = "NET_001"
	CodeRateLimited   ErrorCode = "NET_002"
	CodeRemoteService ErrorCode = "REMOTE_001"
	CodeParse         ErrorCode = "REMOTE_002"
)

// ErrorCodeMessage maps each ErrorCode to its default message.
var ErrorCodeMessage = map[ErrorCode]string{
	CodeUnknown:      "unknown error",
	CodeInternal:     "internal error",
	CodeInvalidParam: "invalid parameter",
	CodeTimeout:      "operation timed out",
	CodeIO:           "file I/O failure",
	CodeCancelled:    "operation cancelled",

	CodeInvalidStructure:  "invalid molecule structure",
	CodeNoConformer:       "no conformer available",
	CodeUnsupportedFormat: "unsupported output format",
	CodeMinimizationError: "geometry minimization failed",

	CodeNetwork:       "network error",
	CodeRateLimited:   "remote service rate limit reached",
	CodeRemoteService: "remote service rejected the request",
	CodeParse:         "failed to parse remote response",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsTransient reports whether the code describes a condition that is worth
// retrying: plain network failures. Rate limits are handled separately by
// the polling path, and everything else is considered permanent.
func IsTransient(code ErrorCode) bool {
	return code == CodeNetwork
}

// ModuleForCode returns the module prefix of an ErrorCode ("CHEM", "NET", ...).
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
