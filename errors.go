package meschooldata

import "errors"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodePackageLoad indicates the external package could not be located or
	// loaded. Fatal; every call on the client reports it.
	CodePackageLoad Code = "PACKAGE_LOAD"

	// CodeForeignCall indicates a failure raised inside one of the external
	// package's functions. The foreign message passes through unmodified.
	CodeForeignCall Code = "FOREIGN_CALL"

	// CodeUnexpectedReturn indicates the year-range query returned a value
	// matching none of the known shapes. The observed Lua type is carried in
	// the error metadata under "lua_type".
	CodeUnexpectedReturn Code = "UNEXPECTED_RETURN_TYPE"

	// CodeFrameConversion indicates a tabular value could not be converted
	// across the language boundary.
	CodeFrameConversion Code = "FRAME_CONVERSION"
)

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human-readable message
	Metadata map[string]string // Additional context for diagnostics
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// CodeOf extracts the error code from any error.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

func wrapError(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
