package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-lite/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// SessionPruner deletes expired session records and reports how many were removed.
type SessionPruner interface {
	PruneSessions(ctx context.Context) (int64, error)
}

// SessionsPruneJob removes user_sessions rows that are past their expiry.
type SessionsPruneJob struct {
	Pruner  SessionPruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewSessionsPruneJob wires dependencies for the prune handler.
func NewSessionsPruneJob(pruner SessionPruner, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionsPruneJob {
	return &SessionsPruneJob{Pruner: pruner, Logger: logger, Metrics: metrics}
}

// Handle processes TaskSessionsPrune tasks.
func (j *SessionsPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pruner == nil {
		return errors.New("sessions prune: handler not configured")
	}
	var payload SessionsPrunePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Trigger == "" {
		payload.Trigger = "cron"
	}

	metrics := j.metrics()
	tracker := metrics.Track(TaskSessionsPrune)
	logger := j.logger().With(slog.String("trigger", payload.Trigger))
	start := time.Now()

	removed, err := j.Pruner.PruneSessions(ctx)
	if err != nil {
		logger.Error("prune sessions", slog.Any("error", err))
		return tracker.End(err)
	}
	metrics.AddPruned(TaskSessionsPrune, removed)
	logger.Info("pruned expired sessions", slog.Int64("removed", removed), slog.Duration("duration", time.Since(start)))
	return tracker.End(nil)
}

func (j *SessionsPruneJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SessionsPruneJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
