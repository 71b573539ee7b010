package testutils

import (
	"context"
	"sync"
)

// MockCaller is a scripted llm.Caller. Responses are returned in order; once
// exhausted, the last response repeats.
type MockCaller struct {
	mu      sync.Mutex
	prompts []string

	Responses []string

	// Err, when set, is returned from every call.
	Err error

	// Respond, when set, computes the reply and takes precedence over
	// Responses.
	Respond func(prompt string) (string, error)
}

func NewMockCaller(responses ...string) *MockCaller {
	return &MockCaller{Responses: responses}
}

func (m *MockCaller) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.prompts)
	m.prompts = append(m.prompts, prompt)

	if m.Err != nil {
		return "", m.Err
	}
	if m.Respond != nil {
		return m.Respond(prompt)
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if n >= len(m.Responses) {
		n = len(m.Responses) - 1
	}
	return m.Responses[n], nil
}

// Prompts returns every prompt received, in call order.
func (m *MockCaller) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
