// Package goerror carries the error taxonomy shared by the vault usecases,
// the HTTP and GraphQL endpoints and the command line.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by store drivers for a missing site.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned by store drivers when an insert-if-absent finds
	// the site already present.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer represents server-side failures such as an unreachable store.
	TypeServer Type = iota
	// TypeBusiness represents vault rule violations, e.g. a duplicate site.
	TypeBusiness
	// TypeValidation represents malformed input.
	TypeValidation
)

var typeNames = map[Type]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code is a stable identifier callers branch on; it also picks the HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeUnauthorized
	CodeForbidden
	// CodeInvalidSecret marks stored key material that cannot produce a code.
	CodeInvalidSecret
)

var codes = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:      {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat: {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:  {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:      {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:      {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeUnauthorized:  {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeForbidden:     {"ERROR_CODE_FORBIDDEN", http.StatusForbidden},
	CodeInvalidSecret: {"ERROR_CODE_INVALID_SECRET", http.StatusUnprocessableEntity},
}

func (c Code) String() string {
	if info, ok := codes[c]; ok {
		return info.name
	}
	return codes[CodeInternal].name
}

// Error wraps a cause with a user-facing message, a Type and a Code.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error returns the cause's text when there is one, otherwise the message.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.errType.String()
	}
}

// String is the verbose form used in debug logs.
func (e *Error) String() string {
	return fmt.Sprintf("%s/%s: %s (cause: %v)", e.errType, e.code, e.msg, e.err)
}

// Msg returns the user-facing message.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

// Fields returns the field-to-message map, if any.
func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the code to an HTTP status.
func (e *Error) StatusCode() int {
	if info, ok := codes[e.code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func newError(err error, msg string, et Type, code Code, kv []string) *Error {
	e := &Error{err: err, msg: msg, errType: et, code: code}
	for i := 0; i+1 < len(kv); i += 2 {
		if e.fields == nil {
			e.fields = make(map[string]string, len(kv)/2)
		}
		e.fields[kv[i]] = kv[i+1]
	}
	return e
}

// NewServer wraps an infrastructure failure.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal, nil)
}

// NewBusiness reports a rule violation without an underlying cause.
func NewBusiness(msg string, code Code) error {
	return newError(nil, msg, TypeBusiness, code, nil)
}

// NewBusinessCause keeps the domain cause reachable through errors.Is and
// errors.As. Optional kv pairs become Fields.
func NewBusinessCause(err error, msg string, code Code, kv ...string) error {
	return newError(err, msg, TypeBusiness, code, kv)
}

// NewInvalidInput wraps a validation failure. Without a cause the kv pairs
// are the field messages; an odd kv list is reported as a format error.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return newError(err, "Validation error", TypeValidation, CodeInvalidInput, nil)
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	e := newError(nil, "Validation error", TypeValidation, CodeInvalidInput, kv)
	if e.fields == nil {
		e.fields = map[string]string{}
	}
	return e
}

// NewInvalidFormat reports a request that could not be decoded.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return newError(nil, msg, TypeValidation, CodeInvalidFormat, nil)
}
