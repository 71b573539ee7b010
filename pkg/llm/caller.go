// Package llm is the inference boundary: the prompt-in, text-out contract
// the answer pipeline uses and the errors a backend can fail with.
package llm

import "context"

// Caller sends one prompt to a model and returns its generated text.
type Caller interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CallFunc adapts a plain function to Caller.
type CallFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CallFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
