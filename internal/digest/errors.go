package digest

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes encoding failures.
type ErrorKind string

const (
	// KindUndefinedLength: a sequence or map whose length is not known
	// up front. Without a length prefix the encoding is ambiguous.
	KindUndefinedLength ErrorKind = "UNDEFINED_LENGTH"

	// KindLengthTooLarge: a length that does not fit the 16-byte prefix.
	KindLengthTooLarge ErrorKind = "LENGTH_TOO_LARGE"

	// KindCustom: an error raised by a CanonicalEncoder implementation.
	KindCustom ErrorKind = "CUSTOM"

	// KindUnsupportedType: a Go type with no canonical shape
	// (complex numbers, unsafe pointers, opaque structs, cyclic values).
	KindUnsupportedType ErrorKind = "UNSUPPORTED_TYPE"
)

// EncodeError aborts a digest computation. No partial digest is ever
// produced.
type EncodeError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *EncodeError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// Is matches any EncodeError of the same Kind, so the sentinels below
// work with errors.Is.
func (e *EncodeError) Is(target error) bool {
	var other *EncodeError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && other.Message == "" && other.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrUndefinedLength = &EncodeError{Kind: KindUndefinedLength}
	ErrLengthTooLarge  = &EncodeError{Kind: KindLengthTooLarge}
	ErrCustom          = &EncodeError{Kind: KindCustom}
	ErrUnsupportedType = &EncodeError{Kind: KindUnsupportedType}
)

// Custom returns a KindCustom error. CanonicalEncoder implementations
// use it to reject values they cannot encode.
func Custom(format string, args ...any) error {
	return &EncodeError{Kind: KindCustom, Message: fmt.Sprintf(format, args...)}
}

// asEncodeError classifies an error returned from user code. Errors
// that are already EncodeErrors (possibly wrapped) pass through.
func asEncodeError(err error) error {
	var encErr *EncodeError
	if errors.As(err, &encErr) {
		return err
	}
	return &EncodeError{Kind: KindCustom, Message: err.Error(), Err: err}
}

func unsupported(format string, args ...any) error {
	return &EncodeError{Kind: KindUnsupportedType, Message: fmt.Sprintf(format, args...)}
}

// prefixError adds traversal context ("field Inner", "[3]") while
// keeping the EncodeError reachable through errors.As.
func prefixError(err error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
