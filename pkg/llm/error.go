package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreachable is the kind for failures to get any answer from the
	// inference endpoint: transport errors, auth errors, non-2xx replies.
	ErrUnreachable = errors.New("inference endpoint unreachable")

	// ErrMalformedResponse is the kind for replies that do not have the
	// expected shape.
	ErrMalformedResponse = errors.New("malformed inference response")
)

// InferenceError is returned by every Caller implementation.
type InferenceError struct {
	// Kind is ErrUnreachable or ErrMalformedResponse.
	Kind error

	// Provider names the backend that failed.
	Provider string

	Err error
}

func (e *InferenceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *InferenceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Unreachable builds an InferenceError of kind ErrUnreachable.
func Unreachable(provider string, err error) *InferenceError {
	return &InferenceError{Kind: ErrUnreachable, Provider: provider, Err: err}
}

// Malformed builds an InferenceError of kind ErrMalformedResponse.
func Malformed(provider string, err error) *InferenceError {
	return &InferenceError{Kind: ErrMalformedResponse, Provider: provider, Err: err}
}
