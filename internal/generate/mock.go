package generate

import (
	"context"
	"sync"
	"time"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
)

// MockGenerator is a scriptable Generator for tests and offline runs. It
// records every prompt it receives and honors context cancellation.
type MockGenerator struct {
	mu      sync.Mutex
	prompts []string

	// Response is returned from every call when Err is nil.
	Response *models.RefinementResult
	// Err, when set, is returned from every call.
	Err error
	// Delay is slept (cancellably) before responding.
	Delay time.Duration
}

// NewMockGenerator returns a mock with a minimal valid response.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Response: &models.RefinementResult{
			Markup:         "<h1>Mock Candidate</h1>\n<p>Generated for testing.</p>",
			DigitalSummary: "Mock document",
			ChangeLog:      []string{"mock generation"},
		},
	}
}

func (m *MockGenerator) Draft(ctx context.Context, sourceText string, goals models.CareerGoals) (*models.RefinementResult, error) {
	return m.respond(ctx, "draft:"+goals.TargetRole)
}

func (m *MockGenerator) Refine(ctx context.Context, prompt string) (*models.RefinementResult, error) {
	return m.respond(ctx, prompt)
}

func (m *MockGenerator) respond(ctx context.Context, prompt string) (*models.RefinementResult, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	out := *m.Response
	return &out, nil
}

// Prompts returns a copy of all prompts seen so far.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
