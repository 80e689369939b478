package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/illegalcall/glow-up/internal/models"
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "glowup_jobs_total",
		Help: "Analysis job status transitions.",
	}, []string{"status"})
	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "glowup_job_duration_seconds",
		Help:    "Time from processing start to completion of analysis jobs.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
	})
)

// StatusUpdate is the last known state of one job on this worker.
type StatusUpdate struct {
	JobID      int       `json:"job_id"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	StartedAt  time.Time `json:"started_at"`
	RetryCount int       `json:"retry_count,omitempty"`
}

// Metrics summarizes the jobs seen by a tracker.
type Metrics struct {
	TotalCount              int   `json:"total_count"`
	SuccessCount            int   `json:"success_count"`
	FailureCount            int   `json:"failure_count"`
	RetryCount              int   `json:"retry_count"`
	AverageProcessingTimeMs int64 `json:"average_processing_time_ms"`
	TotalProcessingTimeMs   int64 `json:"total_processing_time_ms"`
}

// Tracker records job status transitions and their timings.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[int]StatusUpdate
	metrics  Metrics
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		statuses: make(map[int]StatusUpdate),
		now:      time.Now,
	}
}

func (t *Tracker) UpdateStatus(jobID int, status string, err error) StatusUpdate {
	t.mu.Lock()
	defer t.mu.Unlock()

	update := StatusUpdate{
		JobID:     jobID,
		Status:    status,
		Timestamp: t.now(),
	}
	if err != nil {
		update.Error = err.Error()
	}

	prev, exists := t.statuses[jobID]
	if exists {
		update.RetryCount = prev.RetryCount
		update.StartedAt = prev.StartedAt
	}
	if status == models.StatusRetrying {
		update.RetryCount++
	}
	if !exists || prev.Status == models.StatusPending {
		t.metrics.TotalCount++
		update.StartedAt = update.Timestamp
	}

	switch status {
	case models.StatusCompleted:
		t.metrics.SuccessCount++
		elapsed := update.Timestamp.Sub(update.StartedAt)
		jobDuration.Observe(elapsed.Seconds())
		t.metrics.TotalProcessingTimeMs += elapsed.Milliseconds()
		t.metrics.AverageProcessingTimeMs = t.metrics.TotalProcessingTimeMs / int64(t.metrics.SuccessCount)
	case models.StatusFailed:
		t.metrics.FailureCount++
	case models.StatusRetrying:
		t.metrics.RetryCount++
	}
	jobsTotal.WithLabelValues(status).Inc()

	t.statuses[jobID] = update
	return update
}

func (t *Tracker) GetStatus(jobID int) (StatusUpdate, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status, ok := t.statuses[jobID]
	if !ok {
		return StatusUpdate{}, fmt.Errorf("no status found for job %d", jobID)
	}
	return status, nil
}

func (t *Tracker) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}
