package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/hpungsan/clinicseo/internal/errors"
)

// MockGenerator returns a fixed HTML reply without network access.
type MockGenerator struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

// NewMock returns a MockGenerator with a small canned reply.
func NewMock() *MockGenerator {
	return &MockGenerator{
		Reply: "<p>Mock clinic content.</p>\n<h2>Expertise and Facilities</h2><ul><li>General care</li></ul>",
	}
}

// Name returns "mock".
func (m *MockGenerator) Name() string { return ProviderMock }

// Generate records the prompt and returns Reply or Err.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (*Result, error) {
	if ctx.Err() != nil {
		return nil, errors.NewCancelled("generation")
	}

	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	text, err := PostProcess(m.Reply)
	if err != nil {
		return nil, errors.NewGenerationFailed(ProviderMock, err)
	}
	return &Result{
		Text:             text,
		Provider:         ProviderMock,
		Model:            ProviderMock,
		PromptTokens:     int64(len(strings.Fields(prompt))),
		CompletionTokens: int64(len(strings.Fields(text))),
	}, nil
}

// Prompts returns the prompts received so far.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
