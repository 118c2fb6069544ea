package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/odyssey-erp/odyssey-lite/internal/jobs"
)

type stubPruner struct {
	removed int64
	err     error
	calls   int
}

func (s *stubPruner) PruneSessions(ctx context.Context) (int64, error) {
	s.calls++
	return s.removed, s.err
}

func TestSessionsPruneJobRecordsRemovedRows(t *testing.T) {
	registry := prometheus.NewRegistry()
	pruner := &stubPruner{removed: 7}
	job := NewSessionsPruneJob(pruner, nil, jobmetrics.NewMetrics(registry))

	task, err := NewSessionsPruneTask("manual")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, pruner.calls)

	expected := `
# HELP odyssey_jobs_pruned_rows_total Rows deleted by cleanup jobs.
# TYPE odyssey_jobs_pruned_rows_total counter
odyssey_jobs_pruned_rows_total{job="auth:sessions:prune"} 7
# HELP odyssey_jobs_total Total job executions partitioned by job name and status.
# TYPE odyssey_jobs_total counter
odyssey_jobs_total{job="auth:sessions:prune",status="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"odyssey_jobs_pruned_rows_total", "odyssey_jobs_total"))
}

func TestSessionsPruneJobFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	boom := errors.New("db down")
	job := NewSessionsPruneJob(&stubPruner{err: boom}, nil, jobmetrics.NewMetrics(registry))

	err := job.Handle(context.Background(), asynq.NewTask(TaskSessionsPrune, nil))
	assert.ErrorIs(t, err, boom)

	expected := `
# HELP odyssey_jobs_failures_total Total failures observed for background jobs.
# TYPE odyssey_jobs_failures_total counter
odyssey_jobs_failures_total{job="auth:sessions:prune"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "odyssey_jobs_failures_total"))
}

func TestSessionsPruneJobMalformedPayload(t *testing.T) {
	pruner := &stubPruner{}
	job := NewSessionsPruneJob(pruner, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	err := job.Handle(context.Background(), asynq.NewTask(TaskSessionsPrune, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, pruner.calls)
}

func TestSessionsPruneJobNotConfigured(t *testing.T) {
	var job *SessionsPruneJob
	assert.Error(t, job.Handle(context.Background(), asynq.NewTask(TaskSessionsPrune, nil)))
}
