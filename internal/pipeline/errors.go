package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes controller failures for the presentation layer.
type ErrorKind string

const (
	KindNoActiveImage         ErrorKind = "no_active_image"
	KindDecodeFailure         ErrorKind = "decode_failure"
	KindInvalidPreprocessMode ErrorKind = "invalid_preprocess_mode"
	KindInvalidFormat         ErrorKind = "invalid_format"
	KindBusy                  ErrorKind = "busy"
	KindDetectionFailure      ErrorKind = "detection_failure"
	KindPersistFailure        ErrorKind = "persist_failure"
	KindZoomLimit             ErrorKind = "zoom_limit"
)

// Severity levels reported alongside an error.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Error is a recoverable controller failure. A controller operation that
// returns an *Error leaves the session state unchanged.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Severity is "warning" for rejected user actions and "error" for failures.
func (e *Error) Severity() string {
	switch e.Kind {
	case KindNoActiveImage, KindInvalidPreprocessMode, KindBusy, KindZoomLimit:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrNoActiveImage         = &Error{Kind: KindNoActiveImage, Message: "no image loaded"}
	ErrDecodeFailure         = &Error{Kind: KindDecodeFailure, Message: "image could not be decoded"}
	ErrInvalidPreprocessMode = &Error{Kind: KindInvalidPreprocessMode, Message: "unrecognized preprocessing mode"}
	ErrInvalidFormat         = &Error{Kind: KindInvalidFormat, Message: "unsupported output format"}
	ErrBusy                  = &Error{Kind: KindBusy, Message: "another operation is in progress"}
	ErrDetectionFailure      = &Error{Kind: KindDetectionFailure, Message: "text detection failed"}
	ErrPersistFailure        = &Error{Kind: KindPersistFailure, Message: "output could not be written"}
	ErrZoomLimit             = &Error{Kind: KindZoomLimit, Message: "zoom factor is at its limit"}
)

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the kind of a controller error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is a controller error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
