package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a class of conversion failure.
// Codes are usable as errors.Is targets against any *Error in a chain.
type ErrorCode string

const (
	// ErrMalformedInput indicates the XML input could not be tokenized.
	ErrMalformedInput ErrorCode = "abx-malformed-input"
	// ErrInvalidEncoding indicates bytes that are not valid UTF-8 where UTF-8 is required.
	ErrInvalidEncoding ErrorCode = "abx-invalid-encoding"
	// ErrStringTooLong indicates a UTF-8 payload longer than 65535 bytes.
	ErrStringTooLong ErrorCode = "abx-string-too-long"
	// ErrBinaryTooLong indicates a raw byte payload longer than 65535 bytes.
	ErrBinaryTooLong ErrorCode = "abx-binary-too-long"
	// ErrIO indicates the output sink rejected bytes.
	ErrIO ErrorCode = "abx-io"
	// ErrPoolExhausted indicates the interned string pool has no free index left.
	ErrPoolExhausted ErrorCode = "abx-pool-exhausted"
	// ErrUnbalancedTags indicates an end tag was emitted with no open tag.
	ErrUnbalancedTags ErrorCode = "abx-unbalanced-tags"
	// ErrInvalidHex indicates hex attribute text could not be decoded.
	ErrInvalidHex ErrorCode = "abx-invalid-hex"
	// ErrInvalidBase64 indicates base64 attribute text could not be decoded.
	ErrInvalidBase64 ErrorCode = "abx-invalid-base64"
)

// Error implements the error interface so a code can be passed to errors.Is.
func (c ErrorCode) Error() string {
	return string(c)
}

// Error describes a conversion failure with its code and optional context.
// Length and Limit are set for size ceiling violations; Line and Column for
// failures that can be attributed to an input position.
type Error struct {
	Err     error
	Code    ErrorCode
	Message string
	Length  int
	Limit   int
	Line    int
	Column  int
}

// Error formats the failure for display, including code, message, and context.
func (e *Error) Error() string {
	if e == nil {
		return "abx error <nil>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Limit > 0 {
		fmt.Fprintf(&b, " (%d bytes, max %d)", e.Length, e.Limit)
	}
	if e.Line > 0 && e.Column > 0 {
		fmt.Fprintf(&b, " at line %d, column %d", e.Line, e.Column)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is the ErrorCode of e.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	code, ok := target.(ErrorCode)
	return ok && code == e.Code
}

// New builds an Error with a code and message.
func New(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf formats a message and builds an Error.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap builds an Error that carries cause as its underlying error.
func Wrap(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Err: cause}
}

// TooLong builds a size ceiling violation.
func TooLong(code ErrorCode, length, limit int) *Error {
	msg := "string too long"
	if code == ErrBinaryTooLong {
		msg = "binary data too long"
	}
	return &Error{Code: code, Message: msg, Length: length, Limit: limit}
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in err's chain, or "" when none.
func CodeOf(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}
