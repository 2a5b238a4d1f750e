package entity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrInvalidSelector = errors.New("invalid selector")
	ErrInvalidURL      = errors.New("invalid url")
	ErrUnknownReport   = errors.New("unknown report")
	ErrSessionClosed   = errors.New("session closed")
	ErrNothingSelected = errors.New("selection unchanged after commit")
)

type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

type NavigationError struct {
	URL    string
	Status int
	Err    error
}

func (e *NavigationError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("navigate %s: %v", e.URL, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("navigate %s: status %d", e.URL, e.Status)
	default:
		return fmt.Sprintf("navigate %s: failed", e.URL)
	}
}

func (e *NavigationError) Unwrap() error { return e.Err }

type FieldFillError struct {
	Selector string
	Expected string
	Actual   string
	Attempts []FillAttempt
	Err      error
}

func (e *FieldFillError) Error() string {
	msg := fmt.Sprintf("fill %s: expected %q, got %q", e.Selector, e.Expected, e.Actual)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FieldFillError) Unwrap() error { return e.Err }

type ExportTimeoutError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *ExportTimeoutError) Error() string {
	return fmt.Sprintf("download after %s not completed within %s", e.Selector, e.Timeout)
}

func (e *ExportTimeoutError) Unwrap() error { return e.Err }

type DownloadPersistError struct {
	Source      string
	Destination string
	Err         error
}

func (e *DownloadPersistError) Error() string {
	return fmt.Sprintf("persist download %s -> %s: %v", e.Source, e.Destination, e.Err)
}

func (e *DownloadPersistError) Unwrap() error { return e.Err }

// InteractionError is a click or wait failure outside the field fill path.
type InteractionError struct {
	Selector string
	Action   string
	Err      error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.Selector, e.Err)
}

func (e *InteractionError) Unwrap() error { return e.Err }

// StageError tags a fatal error with the component that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind(), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Kind names the error taxonomy entry of the wrapped error.
func (e *StageError) Kind() string {
	return ErrorKind(e.Err)
}

func ErrorKind(err error) string {
	var (
		authErr     *AuthError
		navErr      *NavigationError
		fillErr     *FieldFillError
		timeoutErr  *ExportTimeoutError
		persistErr  *DownloadPersistError
		interactErr *InteractionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fillErr):
		return "FieldFillError"
	case errors.As(err, &authErr):
		return "AuthError"
	case errors.As(err, &navErr):
		return "NavigationError"
	case errors.As(err, &timeoutErr):
		return "ExportTimeoutError"
	case errors.As(err, &persistErr):
		return "DownloadPersistError"
	case errors.As(err, &interactErr):
		return "InteractionError"
	case errors.Is(err, ErrUnknownReport):
		return "UnknownReport"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Canceled"
	default:
		return "Error"
	}
}

func AsStageError(err error) *StageError {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	return &StageError{Stage: StagePipeline, Err: err}
}
