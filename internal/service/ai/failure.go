package ai

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a completion did not produce text.
type FailureKind string

const (
	FailureUnavailable   FailureKind = "unavailable"
	FailureInvalidInput  FailureKind = "invalid_input"
	FailureProvider      FailureKind = "provider"
	FailureEmptyResponse FailureKind = "empty_response"
)

// Failure is the error half of a completion result.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("completion %s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("completion %s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf reports the failure kind carried by err, or "" when err is not a *Failure.
func KindOf(err error) FailureKind {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind
	}
	return ""
}

func newFailure(kind FailureKind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}
