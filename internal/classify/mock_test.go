package classify

import (
	"context"
	"sync"

	"github.com/sells-group/survey-coder/internal/config"
	"github.com/sells-group/survey-coder/internal/model"
	"github.com/sells-group/survey-coder/pkg/anthropic"
)

// mockClient answers CreateMessage from a per-prompt function and records
// every request it sees.
type mockClient struct {
	mu       sync.Mutex
	requests []anthropic.MessageRequest
	respond  func(req anthropic.MessageRequest) (*anthropic.MessageResponse, error)
}

func (m *mockClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.respond(req)
}

func (m *mockClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// textResponse wraps a plain text answer in a message response.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 10},
	}
}

// mockEmbedder returns canned vectors, or fails.
type mockEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = m.vectors[t]
	}
	return out, nil
}

func testConfig() config.AnthropicConfig {
	return config.AnthropicConfig{
		Key:           "test-key",
		ClassifyModel: "claude-haiku-4-5-20251001",
		MaxTokens:     4000,
	}
}

func testCodebook() *model.Codebook {
	return &model.Codebook{Codes: []model.Code{
		{Label: "Pay", Description: "Compensation and benefits"},
		{Label: "Culture", Description: "Team and workplace culture"},
	}}
}
