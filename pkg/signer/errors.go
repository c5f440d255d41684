package signer

import (
	"errors"
	"net/http"
)

// Code identifies the kind of a signing failure.
type Code string

const (
	CodeInvalidTransaction Code = "INVALID_TRANSACTION"
	CodeRemoteSigning      Code = "REMOTE_SIGNING_FAILURE"
	CodeLibrary            Code = "LIBRARY_ERROR"
	CodeEncoding           Code = "ENCODING_ERROR"
)

var codeDescriptions = map[Code]string{
	CodeInvalidTransaction: "invalid transaction",
	CodeRemoteSigning:      "remote signing failure",
	CodeLibrary:            "library error",
	CodeEncoding:           "encoding error",
}

// Valid reports whether c is one of the defined codes.
func (c Code) Valid() bool {
	_, ok := codeDescriptions[c]
	return ok
}

var httpStatusMap = map[Code]int{
	CodeInvalidTransaction: http.StatusBadRequest,
	CodeEncoding:           http.StatusBadRequest,
	CodeRemoteSigning:      http.StatusBadGateway,
	CodeLibrary:            http.StatusInternalServerError,
}

// Sentinels for use with errors.Is. They match any *Error with the same code.
var (
	ErrInvalidTransaction = &Error{Code: CodeInvalidTransaction}
	ErrRemoteSigning      = &Error{Code: CodeRemoteSigning}
	ErrLibrary            = &Error{Code: CodeLibrary}
	ErrEncoding           = &Error{Code: CodeEncoding}
)

// Error is the typed failure returned by every signer backend.
type Error struct {
	Code   Code
	Detail string
	cause  error
}

// NewError builds an error with the given code. Callers outside this package
// use it to rebuild errors received over the wire.
func NewError(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}

// InvalidTransaction reports structurally invalid input, malformed node
// responses or incomplete signing.
func InvalidTransaction(detail string) *Error {
	return &Error{Code: CodeInvalidTransaction, Detail: detail}
}

// RemoteSigningFailure reports a failure of the remote channel or wallet.
func RemoteSigningFailure(detail string, cause error) *Error {
	return &Error{Code: CodeRemoteSigning, Detail: detail, cause: cause}
}

// LibraryError wraps a failure reported by the key-management or
// cryptographic library. The cause message is kept verbatim in the detail.
func LibraryError(detail string, cause error) *Error {
	if cause != nil {
		detail = detail + ": " + cause.Error()
	}
	return &Error{Code: CodeLibrary, Detail: detail, cause: cause}
}

// EncodingError reports malformed hexadecimal text.
func EncodingError(detail string, cause error) *Error {
	return &Error{Code: CodeEncoding, Detail: detail, cause: cause}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	desc, ok := codeDescriptions[e.Code]
	if !ok {
		desc = string(e.Code)
	}
	if e.Detail == "" {
		return desc
	}
	return desc + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is a sentinel (detail-less) error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return t.Detail == "" && t.Code == e.Code
}

// FromError extracts a signer error from err's chain.
func FromError(err error) (*Error, bool) {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}

// CodeOf returns the code of err, or "" if err is not a signer error.
func CodeOf(err error) Code {
	if sErr, ok := FromError(err); ok {
		return sErr.Code
	}
	return ""
}

// HTTPStatus maps a code to an HTTP status. Unknown codes map to 500.
func HTTPStatus(code Code) int {
	if status, ok := httpStatusMap[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
