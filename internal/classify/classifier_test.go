package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/survey-coder/internal/model"
	"github.com/sells-group/survey-coder/pkg/anthropic"
)

func TestClassifySingle(t *testing.T) {
	t.Parallel()

	client := &mockClient{respond: func(req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return textResponse("  Pay\n"), nil
	}}
	c := NewClassifier(client, testConfig(), model.ModeSingleLabel, "Why did you leave?", testCodebook())

	result, usage := c.Classify(context.Background(), "The salary was too low")
	assert.Equal(t, "Pay", result)
	assert.Equal(t, int64(100), usage.InputTokens)

	require.Equal(t, 1, client.callCount())
	req := client.requests[0]
	assert.Equal(t, "claude-haiku-4-5-20251001", req.Model)
	assert.Equal(t, int64(4000), req.MaxTokens)
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.0, *req.Temperature)
	assert.Contains(t, req.Messages[0].Content, "Why did you leave?")
	assert.Contains(t, req.Messages[0].Content, "- Code: Pay")
	assert.Contains(t, req.Messages[0].Content, "The salary was too low")
}

func TestClassifySingleAPIFailure(t *testing.T) {
	t.Parallel()

	client := &mockClient{respond: func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return nil, errors.New("invalid_request_error")
	}}
	c := NewClassifier(client, testConfig(), model.ModeSingleLabel, "q", testCodebook())

	result, _ := c.Classify(context.Background(), "anything")
	assert.Equal(t, model.APIError, result)
	// Non-transient errors are not retried.
	assert.Equal(t, 1, client.callCount())
}

func TestClassifySingleEmptyResponse(t *testing.T) {
	t.Parallel()

	client := &mockClient{respond: func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return textResponse("   "), nil
	}}
	c := NewClassifier(client, testConfig(), model.ModeSingleLabel, "q", testCodebook())

	result, _ := c.Classify(context.Background(), "anything")
	assert.Equal(t, model.APIError, result)
}

func TestClassifyMulti(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare json", `{"assigned_codes": ["Pay", "Culture"]}`, "Pay | Culture"},
		{"fenced json", "```json\n{\"assigned_codes\": [\"Pay\"]}\n```", "Pay"},
		{"prose wrapped", `Here you go: {"assigned_codes": ["Culture"]}`, "Culture"},
		{"empty list is a sentinel", `{"assigned_codes": []}`, model.NoCodeApplied},
		{"unparseable is a failure", "I cannot classify this.", model.APIError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := &mockClient{respond: func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
				return textResponse(tt.text), nil
			}}
			c := NewClassifier(client, testConfig(), model.ModeMultiLabel, "q", testCodebook())

			result, _ := c.Classify(context.Background(), "response text")
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestClassifyMultiPromptSchema(t *testing.T) {
	t.Parallel()

	client := &mockClient{respond: func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return textResponse(`{"assigned_codes": []}`), nil
	}}
	c := NewClassifier(client, testConfig(), model.ModeMultiLabel, "q", testCodebook())
	c.Classify(context.Background(), "response text")

	require.Equal(t, 1, client.callCount())
	assert.Contains(t, client.requests[0].Messages[0].Content, `"assigned_codes": string[]`)
}
