package models

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-checkable class of a failed booking.
type Kind string

// Error kinds reported to callers.
const (
	KindExtraction Kind = "extraction_error"
	KindValidation Kind = "validation_error"
	KindProvider   Kind = "provider_error"
)

// Sentinels for errors.Is; each matches every *Error of the same kind.
var (
	ErrExtraction = errors.New("extraction failed")
	ErrValidation = errors.New("validation failed")
	ErrProvider   = errors.New("calendar provider failed")
)

// Error is a terminal booking failure.
type Error struct {
	Kind    Kind
	Message string
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

// Is lets errors.Is match an *Error against the sentinel of its kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrExtraction:
		return e.Kind == KindExtraction
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrProvider:
		return e.Kind == KindProvider
	}
	return false
}

// ExtractionError reports a failed or unusable language model response.
func ExtractionError(msg string, err error) *Error {
	return &Error{Kind: KindExtraction, Message: msg, Err: err}
}

// ValidationError reports extracted data that cannot be turned into a payload.
func ValidationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// ProviderError reports a rejected or failed calendar create call.
func ProviderError(msg string, err error) *Error {
	return &Error{Kind: KindProvider, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
