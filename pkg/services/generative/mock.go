package generative

import (
	"context"
	"sync"

	"github.com/JayanthPabbathy/real-estate-investment-agent/pkg/analysis"
)

// MockGenerator is a scripted Generator for tests and the "mock" provider.
// Responses are returned in order; the last entry repeats once the script is
// exhausted. An empty script yields a fixed Hold narrative.
type MockGenerator struct {
	mu        sync.Mutex
	responses []MockResponse
	callCount int
}

// MockResponse is one scripted Generate outcome.
type MockResponse struct {
	Result *analysis.NarrativeResult
	Err    error
}

func NewMockGenerator(responses ...MockResponse) *MockGenerator {
	return &MockGenerator{responses: responses}
}

// Generate returns the next scripted response.
func (m *MockGenerator) Generate(_ context.Context, _ NarrativeInput) (*analysis.NarrativeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.responses) == 0 {
		m.callCount++
		return &analysis.NarrativeResult{
			Recommendation: analysis.RecommendationHold,
			Confidence:     0.7,
			Reasoning:      "Scripted mock narrative for offline runs.",
			Sentiment:      "Neutral",
		}, nil
	}

	idx := m.callCount
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.callCount++

	resp := m.responses[idx]
	if resp.Err != nil {
		return nil, resp.Err
	}
	// Copy so callers cannot mutate the script.
	result := *resp.Result
	return &result, nil
}

// ProviderName identifies the backing provider.
func (m *MockGenerator) ProviderName() string {
	return "mock"
}

// CallCount returns how many times Generate has been invoked.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
