// Package codebook builds and evolves the thematic codebook via the LLM:
// initial generation from a response sample, instruction-based refinement,
// and merge of two codebooks.
package codebook

import (
	"context"
	"encoding/json"
	"math/rand"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/survey-coder/internal/config"
	"github.com/sells-group/survey-coder/internal/model"
	"github.com/sells-group/survey-coder/pkg/anthropic"
)

// Sample returns the first n members of the response set, in iteration order.
// Used for initial generation.
func Sample(rs *model.ResponseSet, n int) []string {
	if n > rs.Len() {
		n = rs.Len()
	}
	return rs.Members[:n]
}

// RandomSample draws n members uniformly without replacement. The draw is
// unseeded: repeated refinement runs see different samples.
func RandomSample(rs *model.ResponseSet, n int) []string {
	if n >= rs.Len() {
		n = rs.Len()
	}
	perm := rand.Perm(rs.Len())
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = rs.Members[perm[i]]
	}
	return out
}

// Generate creates an initial codebook from a sample of unique responses.
// A generation failure is fatal to the caller: there is nothing to classify
// against without a codebook.
func Generate(ctx context.Context, client anthropic.Client, cfg config.AnthropicConfig, question string, examples []string) (*model.Codebook, error) {
	if len(examples) == 0 {
		return nil, eris.New("codebook: no responses to sample")
	}

	prompt := generatePrompt(question, examples) + codebookSchemaSuffix
	cb, err := requestCodebook(ctx, client, cfg, analystSystemPrompt, prompt)
	if err != nil {
		return nil, eris.Wrap(err, "codebook: generate")
	}

	zap.L().Info("codebook generated",
		zap.Int("codes", len(cb.Codes)),
		zap.Int("sample_size", len(examples)),
	)
	return cb, nil
}

// Merge consolidates two codebooks into one via the LLM, honoring optional
// user instructions.
func Merge(ctx context.Context, client anthropic.Client, cfg config.AnthropicConfig, base, next *model.Codebook, instructions string) (*model.Codebook, error) {
	baseJSON, err := promptJSON(base)
	if err != nil {
		return nil, err
	}
	nextJSON, err := promptJSON(next)
	if err != nil {
		return nil, err
	}

	cb, err := requestCodebook(ctx, client, cfg, mergeSystemPrompt, mergePrompt(baseJSON, nextJSON, instructions))
	if err != nil {
		return nil, eris.Wrap(err, "codebook: merge")
	}

	zap.L().Info("codebooks merged",
		zap.Int("base_codes", len(base.Codes)),
		zap.Int("new_codes", len(next.Codes)),
		zap.Int("merged_codes", len(cb.Codes)),
	)
	return cb, nil
}

// Refine rewrites the current codebook strictly following the user's
// instructions, without sampling new responses.
func Refine(ctx context.Context, client anthropic.Client, cfg config.AnthropicConfig, current *model.Codebook, instructions string) (*model.Codebook, error) {
	currentJSON, err := promptJSON(current)
	if err != nil {
		return nil, err
	}

	cb, err := requestCodebook(ctx, client, cfg, mergeSystemPrompt, refinePrompt(currentJSON, instructions))
	if err != nil {
		return nil, eris.Wrap(err, "codebook: refine")
	}

	zap.L().Info("codebook refined",
		zap.Int("codes_before", len(current.Codes)),
		zap.Int("codes_after", len(cb.Codes)),
	)
	return cb, nil
}

// requestCodebook asks for a structured codebook and parses the response.
// If structured parsing fails it retries once with the raw text of a fresh
// call before giving up; parse failures in this path are fatal, unlike in
// classification, because the result replaces the codebook wholesale.
func requestCodebook(ctx context.Context, client anthropic.Client, cfg config.AnthropicConfig, system, prompt string) (*model.Codebook, error) {
	temperature := 0.0
	req := anthropic.MessageRequest{
		Model:       cfg.GenerateModel,
		MaxTokens:   cfg.MaxTokens,
		System:      system,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt},
		},
	}

	resp, err := client.CreateMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(cfg.GenerateModel, "codebook")

	var cb model.Codebook
	if parseErr := anthropic.ParseStructured(resp, &cb); parseErr == nil {
		if validErr := cb.Validate(); validErr == nil {
			return &cb, nil
		}
	} else {
		zap.L().Warn("codebook: structured parse failed, retrying with raw response", zap.Error(parseErr))
	}

	// Second attempt: a fresh call, parsed from raw text.
	resp, err = client.CreateMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(cfg.GenerateModel, "codebook")

	cb = model.Codebook{}
	if err := anthropic.ParseStructured(resp, &cb); err != nil {
		return nil, err
	}
	if err := cb.Validate(); err != nil {
		return nil, err
	}
	return &cb, nil
}

// promptJSON serializes a codebook as indented JSON for embedding in merge
// and refine prompts.
func promptJSON(cb *model.Codebook) (string, error) {
	payload := struct {
		Codes []model.Code `json:"codes"`
	}{Codes: cb.Codes}
	if payload.Codes == nil {
		payload.Codes = []model.Code{}
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "codebook: marshal for prompt")
	}
	return string(data), nil
}
