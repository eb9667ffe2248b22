package classify

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/survey-coder/internal/cluster"
	"github.com/sells-group/survey-coder/internal/model"
	"github.com/sells-group/survey-coder/pkg/anthropic"
)

// Progress receives monotonic progress updates during a run. fraction is in
// [0, 1]; message describes the current phase.
type Progress func(fraction float64, message string)

// Embedder is the embedding provider contract: one vector per input text,
// same order, no partial results.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Options configures one classification run.
type Options struct {
	// Clustering enables the acceleration pipeline: cluster near-duplicate
	// responses and classify one representative per cluster.
	Clustering bool

	// ClusterParams are the DBSCAN parameters.
	ClusterParams cluster.Params

	// Workers bounds concurrent classification calls. 1 reproduces the
	// sequential reference behavior.
	Workers int

	// RatePerSec throttles classification calls. 0 disables throttling.
	RatePerSec float64

	// Progress, if set, receives progress updates.
	Progress Progress
}

// ClusterReport describes one discovered cluster.
type ClusterReport struct {
	ID             int     `json:"id"`
	Size           int     `json:"size"`
	Representative string  `json:"representative"`
	Cohesion       float64 `json:"cohesion"`
}

// RunStats summarizes a completed run.
type RunStats struct {
	Responses int
	Clusters  int
	Outliers  int
	APICalls  int
	Failures  int
	Usage     model.TokenUsage
	Report    []ClusterReport
}

// Orchestrator owns the Classification Result cache for the duration of one
// run. It decides whether to cluster-accelerate, drives representative
// selection and result propagation, and absorbs per-item failures.
type Orchestrator struct {
	classifier *Classifier
	embedder   Embedder
	opts       Options

	progressMu   sync.Mutex
	lastProgress float64
}

// NewOrchestrator wires a run. embedder may be nil when clustering is off.
func NewOrchestrator(classifier *Classifier, embedder Embedder, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ClusterParams.Eps == 0 {
		opts.ClusterParams = cluster.DefaultParams()
	}
	return &Orchestrator{classifier: classifier, embedder: embedder, opts: opts}
}

// Progress checkpoints for the clustering path: embedding, clustering, then
// a dominant classification phase.
const (
	progressEmbedding    = 0.05
	progressClustering   = 0.15
	progressClassifySpan = 0.70
	progressApplying     = 0.95
)

// Run classifies every member of the response set and returns a complete
// result cache. Individual classification failures are recorded as the
// APIError sentinel and never abort the run; only total embedding
// unavailability (clustering path) is fatal. Cancelling ctx stops new calls;
// results already completed are returned alongside the context error.
func (o *Orchestrator) Run(ctx context.Context, rs *model.ResponseSet) (model.ResultCache, *RunStats, error) {
	stats := &RunStats{Responses: rs.Len()}
	cache := make(model.ResultCache, rs.Len())

	if rs.Len() == 0 {
		o.report(1, "no responses to classify")
		return cache, stats, nil
	}

	if o.opts.Clustering && rs.Len() > 1 {
		if err := o.runClustered(ctx, rs, cache, stats); err != nil {
			return cache, stats, err
		}
	} else if err := o.runFlat(ctx, rs, cache, stats); err != nil {
		return cache, stats, err
	}

	o.report(1, "classification complete")
	return cache, stats, nil
}

// runClustered is the acceleration path: embed, cluster, classify one
// representative per cluster plus every outlier, then propagate.
func (o *Orchestrator) runClustered(ctx context.Context, rs *model.ResponseSet, cache model.ResultCache, stats *RunStats) error {
	if o.embedder == nil {
		return eris.New("classify: clustering requested without an embedder")
	}

	o.report(progressEmbedding, "generating embeddings")
	vectors, err := o.embedder.Embed(ctx, rs.Members)
	if err != nil {
		return eris.Wrap(err, "classify: embed responses")
	}
	if len(vectors) != rs.Len() {
		return eris.Errorf("classify: got %d embeddings for %d responses", len(vectors), rs.Len())
	}

	o.report(progressClustering, "clustering responses")
	cluster.Normalize(vectors)
	assignment, err := cluster.Run(vectors, o.opts.ClusterParams)
	if err != nil {
		return eris.Wrap(err, "classify: cluster responses")
	}

	reps := assignment.Representatives()
	outliers := assignment.Outliers()
	stats.Clusters = assignment.NumCluster
	stats.Outliers = len(outliers)

	totalCalls := assignment.NumCluster + len(outliers)
	if totalCalls == 0 {
		o.report(1, "no responses to classify")
		return nil
	}

	for id := 0; id < assignment.NumCluster; id++ {
		stats.Report = append(stats.Report, ClusterReport{
			ID:             id,
			Size:           len(assignment.Members(id)),
			Representative: rs.Members[reps[id]],
			Cohesion:       cluster.Cohesion(vectors, assignment, id),
		})
	}

	zap.L().Info("classify: cluster acceleration",
		zap.Int("responses", rs.Len()),
		zap.Int("clusters", assignment.NumCluster),
		zap.Int("outliers", len(outliers)),
		zap.Int("api_calls", totalCalls),
	)

	// Tasks: cluster representatives in cluster-id order, then outliers in
	// response-set order. The key sets are disjoint by construction, so each
	// cache key is written exactly once regardless of completion order.
	type task struct {
		member    string
		clusterID int // cluster.Outlier for outliers
	}
	tasks := make([]task, 0, totalCalls)
	for id := 0; id < assignment.NumCluster; id++ {
		tasks = append(tasks, task{member: rs.Members[reps[id]], clusterID: id})
	}
	for _, idx := range outliers {
		tasks = append(tasks, task{member: rs.Members[idx], clusterID: cluster.Outlier})
	}

	clusterResults := make(map[int]string, assignment.NumCluster)
	progressFor := func(done int) float64 {
		return progressClustering + progressClassifySpan*(float64(done)/float64(totalCalls))
	}

	var mu sync.Mutex
	done := 0

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	limiter := o.limiter()

	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if err := o.wait(gCtx, limiter); err != nil {
				return err
			}

			result, usage := o.classifier.Classify(gCtx, t.member)

			mu.Lock()
			defer mu.Unlock()
			if t.clusterID == cluster.Outlier {
				cache[t.member] = result
			} else {
				clusterResults[t.clusterID] = result
			}
			o.recordCall(stats, result, usage)
			done++
			o.report(progressFor(done), "classifying responses")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Cancellation: keep what completed, propagate cluster results so the
		// partial cache stays internally consistent.
		o.propagate(rs, assignment, clusterResults, cache)
		return err
	}

	// Propagation: every member of a cluster receives its representative's
	// result. This is the compression win.
	o.propagate(rs, assignment, clusterResults, cache)

	o.report(progressApplying, "applying classifications")
	return nil
}

// runFlat classifies every member individually.
func (o *Orchestrator) runFlat(ctx context.Context, rs *model.ResponseSet, cache model.ResultCache, stats *RunStats) error {
	stats.Outliers = rs.Len()

	var mu sync.Mutex
	done := 0

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	limiter := o.limiter()

	for _, member := range rs.Members {
		member := member
		g.Go(func() error {
			if err := o.wait(gCtx, limiter); err != nil {
				return err
			}

			result, usage := o.classifier.Classify(gCtx, member)

			mu.Lock()
			defer mu.Unlock()
			cache[member] = result
			o.recordCall(stats, result, usage)
			done++
			o.report(float64(done)/float64(rs.Len()), "classifying responses")
			return nil
		})
	}

	return g.Wait()
}

// propagate fills the cache for every clustered member from its cluster's
// result. Members of clusters whose representative never completed (canceled
// run) are left unassigned.
func (o *Orchestrator) propagate(rs *model.ResponseSet, a *cluster.Assignment, clusterResults map[int]string, cache model.ResultCache) {
	for i, label := range a.Labels {
		if label == cluster.Outlier {
			continue
		}
		if result, ok := clusterResults[label]; ok {
			cache[rs.Members[i]] = result
		}
	}
}

// recordCall must be called with the orchestrator mutex held.
func (o *Orchestrator) recordCall(stats *RunStats, result string, usage anthropic.TokenUsage) {
	stats.APICalls++
	if result == model.APIError {
		stats.Failures++
	}
	stats.Usage.Add(model.TokenUsage{
		InputTokens:         int(usage.InputTokens),
		OutputTokens:        int(usage.OutputTokens),
		CacheCreationTokens: int(usage.CacheCreationInputTokens),
		CacheReadTokens:     int(usage.CacheReadInputTokens),
	})
}

func (o *Orchestrator) limiter() *rate.Limiter {
	if o.opts.RatePerSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(o.opts.RatePerSec), 1)
}

func (o *Orchestrator) wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		return nil
	}
	return limiter.Wait(ctx)
}

// report forwards progress, clamped monotonic so late updates from
// out-of-order workers never move the bar backwards.
func (o *Orchestrator) report(fraction float64, message string) {
	if o.opts.Progress == nil {
		return
	}
	o.progressMu.Lock()
	if fraction < o.lastProgress {
		fraction = o.lastProgress
	}
	o.lastProgress = fraction
	o.progressMu.Unlock()
	o.opts.Progress(fraction, message)
}
