package voyage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingsHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// Answer in reverse order to exercise index-based reordering.
		resp := embedResponse{}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Embedding []float64 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float64{float64(i), 1}, Index: i})
		}
		resp.Usage.TotalTokens = len(req.Input) * 7
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(embeddingsHandler(t))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	vectors, err := c.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	require.Len(t, vectors, 3)
	assert.Equal(t, []float64{0, 1}, vectors[0])
	assert.Equal(t, []float64{2, 1}, vectors[2])
	assert.Equal(t, int64(21), c.TotalTokens())
}

func TestEmbedBatching(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		embeddingsHandler(t)(w, r)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithMaxBatch(2))
	vectors, err := c.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	assert.Len(t, vectors, 5)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbedEmpty(t *testing.T) {
	t.Parallel()

	c := NewClient("test-key", WithBaseURL("http://unreachable.invalid"))
	vectors, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		embeddingsHandler(t)(w, r)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	vectors, err := c.Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedNonRetryableStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedCountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := embedResponse{}
		resp.Data = append(resp.Data, struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}{Embedding: []float64{1}, Index: 0})
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 embeddings for 2 inputs")
}
