package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Recorder tracks dispatch-level counters across the worker lifetime.
type Recorder struct {
	log *slog.Logger

	totalJobs     atomic.Uint64
	activeJobs    atomic.Int64
	totalResolved atomic.Uint64
	totalRejected atomic.Uint64
	totalProgress atomic.Uint64
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	TotalJobs     uint64
	ActiveJobs    int64
	TotalResolved uint64
	TotalRejected uint64
	TotalProgress uint64
}

// NewRecorder constructs a Recorder using the provided logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{log: logger.With("component", "telemetry.Recorder")}
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		TotalJobs:     r.totalJobs.Load(),
		ActiveJobs:    r.activeJobs.Load(),
		TotalResolved: r.totalResolved.Load(),
		TotalRejected: r.totalRejected.Load(),
		TotalProgress: r.totalProgress.Load(),
	}
}

// JobMetrics accumulates statistics for a single dispatched job.
type JobMetrics struct {
	recorder *Recorder
	log      *slog.Logger

	started  time.Time
	progress int
	closed   atomic.Bool
}

// StartJob initialises metrics for one dispatched envelope.
func (r *Recorder) StartJob(action, jobID string) *JobMetrics {
	if r == nil {
		return nil
	}
	r.totalJobs.Add(1)
	r.activeJobs.Add(1)
	return &JobMetrics{
		recorder: r,
		log:      r.log.With("action", action, "job_id", jobID),
		started:  time.Now(),
	}
}

// RecordProgress counts one emitted progress message.
func (j *JobMetrics) RecordProgress() {
	if j == nil {
		return
	}
	j.progress++
	j.recorder.totalProgress.Add(1)
}

// Finish records the terminal outcome and logs a summary.
func (j *JobMetrics) Finish(err error) {
	if j == nil {
		return
	}
	if !j.closed.CompareAndSwap(false, true) {
		return
	}
	defer j.recorder.activeJobs.Add(-1)

	duration := time.Since(j.started)
	args := []any{
		"duration_ms", duration.Milliseconds(),
		"progress_events", j.progress,
	}
	if err != nil {
		j.recorder.totalRejected.Add(1)
		j.log.Warn("job rejected", append(args, "error", err)...)
		return
	}
	j.recorder.totalResolved.Add(1)
	j.log.Debug("job resolved", args...)
}
