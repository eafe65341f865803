// Package provider implements the Completion Provider (C3): a uniform
// streaming + structured-completion interface with five concrete model-
// family backends, selected by a provider-name prefix on the model string,
// registered in a thread-safe Registry.
package provider

import (
	"context"
	"errors"
)

// ErrorClass classifies a completion failure.
type ErrorClass string

const (
	ErrorClassRateLimit     ErrorClass = "rate_limit"
	ErrorClassContextLength ErrorClass = "context_length"
	ErrorClassAuth          ErrorClass = "auth"
	ErrorClassTransport     ErrorClass = "transport"
	ErrorClassInvalid       ErrorClass = "invalid"
)

// Error wraps a completion failure with its classification, so callers
// (the Orchestrator's retry policy) can branch on ErrorClass without
// string-matching.
type Error struct {
	Class ErrorClass
	Err   error
}

func (e *Error) Error() string { return string(e.Class) + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// ClassOf extracts the ErrorClass from err, or ErrorClassTransport if err
// isn't a *Error (a conservative default: transient, retryable).
func ClassOf(err error) ErrorClass {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Class
	}
	return ErrorClassTransport
}

// Message is one (role, content) prompt turn, independent of
// pkg/models.Message so providers don't import the persistence-shaped type.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Delta is one fragment of a streaming completion. The final Delta in a
// stream carries Usage and an empty Text.
type Delta struct {
	Text  string
	Usage *Usage // non-nil only on the terminal delta
}

// Usage is final token accounting for one completion.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Params tunes a single completion call.
type Params struct {
	Temperature     float64
	MaxOutputTokens int
}

// Provider is the uniform interface every model backend implements.
// Implementations must yield at least one Delta before the terminal usage
// Delta, even if that means a single Delta carrying both full text and
// usage (non-streaming backends).
type Provider interface {
	// Stream issues a streaming completion. The returned channel is closed
	// after the terminal Delta (or after ctx is done / an error occurs).
	Stream(ctx context.Context, model string, messages []Message, params Params) (<-chan Delta, <-chan error)

	// CompleteStructured issues a non-streaming completion constrained to
	// jsonSchema, returning the raw JSON response. Used only by the Judge.
	CompleteStructured(ctx context.Context, model string, messages []Message, jsonSchema []byte) ([]byte, error)

	// CountTokens estimates the token count model's tokenizer would assign
	// to text. Providers delegate to pkg/tokenacct unless they wrap a
	// vendor SDK with its own estimator.
	CountTokens(model, text string) int
}
