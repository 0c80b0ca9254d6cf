// Package apperr defines the error taxonomy shared by the store, handlers,
// and orchestrator.
package apperr

import (
	"errors"
	"fmt"
)

// Kind categorizes an error.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindConfiguration   Kind = "configuration"
	KindExternalService Kind = "external_service"
	KindInternal        Kind = "internal"
)

// Sentinel errors for use with errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConfiguration   = errors.New("configuration error")
	ErrExternalService = errors.New("external service error")
)

// Error is a structured error carrying the failed operation and its kind.
type Error struct {
	Op     string
	Kind   Kind
	Field  string // validation: offending field
	Status int    // external service: upstream status code, 0 if none
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrExternalService:
		return e.Kind == KindExternalService
	}
	return false
}

// Validation reports bad or missing input for field.
func Validation(op, field, msg string) error {
	return &Error{Op: op, Kind: KindValidation, Field: field, Msg: msg}
}

// Required is shorthand for a missing required field.
func Required(op, field string) error {
	return Validation(op, field, field+" is required")
}

// NotFound reports a missing entity.
func NotFound(op, what, id string) error {
	return &Error{Op: op, Kind: KindNotFound, Msg: fmt.Sprintf("%s not found: %s", what, id)}
}

// Configuration reports missing credentials or connection settings.
func Configuration(op, msg string) error {
	return &Error{Op: op, Kind: KindConfiguration, Msg: msg}
}

// External wraps a failure from a collaborator such as the LLM, the vector
// index, or the project tracker.
func External(op, service string, status int, err error) error {
	msg := service + " request failed"
	if status > 0 {
		msg = fmt.Sprintf("%s request failed with status %d", service, status)
	}
	return &Error{Op: op, Kind: KindExternalService, Status: status, Msg: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-facing text of err: the message alone for
// validation and not-found errors, without the operation prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" && (e.Kind == KindValidation || e.Kind == KindNotFound) {
		return e.Msg
	}
	return err.Error()
}
