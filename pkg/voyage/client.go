// Package voyage provides a client for the Voyage AI embeddings API.
package voyage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the embedding operations used by the clustering pipeline.
type Client interface {
	// Embed returns one vector per input text, same length and order as the
	// input. It never returns partial results: any failure is total.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// TotalTokens reports the tokens consumed across all Embed calls so far.
	TotalTokens() int64
}

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "voyage-3.5-lite"

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Option configures the Voyage client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(c *httpClient) {
		c.model = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithMaxBatch overrides the per-request input limit.
func WithMaxBatch(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.maxBatch = n
		}
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	model    string
	maxBatch int
	http     *http.Client

	tokens atomic.Int64
}

// NewClient creates a new Voyage AI embeddings client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  "https://api.voyageai.com/v1",
		model:    DefaultModel,
		maxBatch: 128,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503). Returns the response body and
// status code on success, or the last error after exhausting retries.
func (c *httpClient) retryDo(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return nil, 0, eris.Wrap(err, "voyage: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "voyage: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("voyage: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) TotalTokens() int64 {
	return c.tokens.Load()
}

func (c *httpClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += c.maxBatch {
		end := min(start+c.maxBatch, len(texts))
		chunk, err := c.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, chunk...)
	}
	return vectors, nil
}

func (c *httpClient) embedChunk(ctx context.Context, texts []string) ([][]float64, error) {
	payload, err := json.Marshal(embedRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, eris.Wrap(err, "voyage: marshal request")
	}

	body, statusCode, err := c.retryDo(ctx, http.MethodPost, c.baseURL+"/embeddings", payload)
	if err != nil {
		return nil, eris.Wrap(err, "voyage: request failed")
	}

	if statusCode != http.StatusOK {
		return nil, eris.Errorf("voyage: unexpected status %d: %s", statusCode, string(body))
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "voyage: unmarshal response")
	}

	if len(result.Data) != len(texts) {
		return nil, eris.Errorf("voyage: got %d embeddings for %d inputs", len(result.Data), len(texts))
	}
	c.tokens.Add(int64(result.Usage.TotalTokens))

	// Results carry an input index; order by it so vectors line up with texts.
	sort.Slice(result.Data, func(i, j int) bool {
		return result.Data[i].Index < result.Data[j].Index
	})

	vectors := make([][]float64, len(result.Data))
	for i, d := range result.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
