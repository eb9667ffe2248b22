// Package classify implements the classification pipeline: a single/multi
// label classifier over a fixed codebook, and the orchestrator that drives
// cluster-accelerated batch runs.
package classify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/survey-coder/internal/config"
	"github.com/sells-group/survey-coder/internal/model"
	"github.com/sells-group/survey-coder/internal/resilience"
	"github.com/sells-group/survey-coder/pkg/anthropic"
)

// multiLabelResult is the structured shape requested in multi-label mode.
type multiLabelResult struct {
	AssignedCodes []string `json:"assigned_codes"`
}

// Classifier labels one response at a time against a fixed codebook. The
// mode is selected once per run, not per item. Classify never returns an
// error: any upstream failure degrades to the APIError sentinel so one bad
// item cannot abort a batch.
type Classifier struct {
	client       anthropic.Client
	cfg          config.AnthropicConfig
	mode         model.Mode
	question     string
	codebookText string
	retry        resilience.RetryConfig
}

// NewClassifier builds a Classifier for one run. The codebook is rendered to
// its stable textual form once, up front.
func NewClassifier(client anthropic.Client, cfg config.AnthropicConfig, mode model.Mode, question string, cb *model.Codebook) *Classifier {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "classify")
	return &Classifier{
		client:       client,
		cfg:          cfg,
		mode:         mode,
		question:     question,
		codebookText: cb.PromptText(),
		retry:        retry,
	}
}

// Classify returns the serialized Classification Result for one response:
// a single label, a joined multi-label string, or a sentinel.
func (c *Classifier) Classify(ctx context.Context, response string) (string, anthropic.TokenUsage) {
	if c.mode == model.ModeMultiLabel {
		return c.classifyMulti(ctx, response)
	}
	return c.classifySingle(ctx, response)
}

func (c *Classifier) classifySingle(ctx context.Context, response string) (string, anthropic.TokenUsage) {
	resp, err := c.send(ctx, singleLabelSystemPrompt, singleLabelPrompt(c.question, response, c.codebookText))
	if err != nil {
		zap.L().Warn("classify: single-label call failed",
			zap.String("response", truncate(response, 80)),
			zap.Error(err),
		)
		return model.APIError, anthropic.TokenUsage{}
	}

	label := strings.TrimSpace(anthropic.ExtractText(resp))
	if label == "" {
		return model.APIError, resp.Usage
	}
	return label, resp.Usage
}

func (c *Classifier) classifyMulti(ctx context.Context, response string) (string, anthropic.TokenUsage) {
	resp, err := c.send(ctx, multiLabelSystemPrompt, multiLabelPrompt(c.question, response, c.codebookText))
	if err != nil {
		zap.L().Warn("classify: multi-label call failed",
			zap.String("response", truncate(response, 80)),
			zap.Error(err),
		)
		return model.APIError, anthropic.TokenUsage{}
	}

	var result multiLabelResult
	if err := anthropic.ParseStructured(resp, &result); err != nil {
		// A malformed structured response is equivalent to an API failure
		// for this item.
		zap.L().Warn("classify: unparseable multi-label response",
			zap.String("response", truncate(response, 80)),
			zap.Error(err),
		)
		return model.APIError, resp.Usage
	}

	return model.JoinLabels(result.AssignedCodes), resp.Usage
}

func (c *Classifier) send(ctx context.Context, system, prompt string) (*anthropic.MessageResponse, error) {
	temperature := 0.0
	req := anthropic.MessageRequest{
		Model:       c.cfg.ClassifyModel,
		MaxTokens:   c.cfg.MaxTokens,
		System:      system,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	}
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.client.CreateMessage(ctx, req)
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
