package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable classification of a failure.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindSourceUnavailable ErrorKind = "SOURCE_UNAVAILABLE"
	KindStorage           ErrorKind = "STORAGE_ERROR"
	KindRender            ErrorKind = "RENDER_ERROR"
	KindInternal          ErrorKind = "INTERNAL_ERROR"
)

// Error is a classified failure. Message and Details are safe to show to
// callers; Err carries the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(message string, details map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func NotFound(message string, details map[string]string) *Error {
	return &Error{Kind: KindNotFound, Message: message, Details: details}
}

// SourceUnavailable reports that an upstream provider could not be read.
func SourceUnavailable(source string, err error) *Error {
	return &Error{
		Kind:    KindSourceUnavailable,
		Message: "External data source unavailable",
		Details: map[string]string{"source": source},
		Err:     err,
	}
}

func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Message: "Storage failure", Err: err}
}

func Render(err error) *Error {
	return &Error{Kind: KindRender, Message: "Summary image generation failed", Err: err}
}

// ErrNotFound is returned by stores when no row matches.
var ErrNotFound = errors.New("not found")

// KindOf returns the classification of err, or KindInternal when err carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
