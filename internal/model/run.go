package model

import "time"

// RunStatus represents the current state of a classification run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusEmbedding   RunStatus = "embedding"
	RunStatusClustering  RunStatus = "clustering"
	RunStatusClassifying RunStatus = "classifying"
	RunStatusApplying    RunStatus = "applying"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// RunParams captures what a classification run was asked to do.
type RunParams struct {
	InputPath  string `json:"input_path"`
	Column     string `json:"column"`
	Mode       Mode   `json:"mode"`
	Clustering bool   `json:"clustering"`
	Model      string `json:"model"`
}

// RunResult holds the final outcome counters of a run.
type RunResult struct {
	Responses    int     `json:"responses"`
	Clusters     int     `json:"clusters"`
	Outliers     int     `json:"outliers"`
	APICalls     int     `json:"api_calls"`
	Failures     int     `json:"failures"`
	DurationMS   int64   `json:"duration_ms"`
	EstimatedUSD float64 `json:"estimated_usd"`
}

// Run is one classification run record persisted to the store.
type Run struct {
	ID        string     `json:"id"`
	Params    RunParams  `json:"params"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TokenUsage accumulates token consumption across a run.
type TokenUsage struct {
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens"`
}

// Add accumulates another usage into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationTokens += other.CacheCreationTokens
	u.CacheReadTokens += other.CacheReadTokens
}
