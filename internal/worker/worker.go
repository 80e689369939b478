package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/glow-up/internal/config"
	"github.com/illegalcall/glow-up/internal/jobs"
	"github.com/illegalcall/glow-up/internal/models"
)

type Worker struct {
	cfg      *config.Config
	redis    *redis.Client
	store    jobs.Store
	handlers map[models.JobType]jobs.HandlerFunc
	tracker  *jobs.Tracker
	consumer sarama.ConsumerGroup
	logger   *slog.Logger
	ready    chan bool
}

func NewWorker(cfg *config.Config, rdb *redis.Client, store jobs.Store, handlers map[models.JobType]jobs.HandlerFunc, consumer sarama.ConsumerGroup, logger *slog.Logger) *Worker {
	logger.Info("Initializing new Worker", "handlers", len(handlers))
	return &Worker{
		cfg:      cfg,
		redis:    rdb,
		store:    store,
		handlers: handlers,
		tracker:  jobs.NewTracker(),
		consumer: consumer,
		logger:   logger,
		ready:    make(chan bool),
	}
}

// Start consumes until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Kafka.Topic}
	w.logger.Info("Starting worker", "topics", topics)

	go func() {
		for err := range w.consumer.Errors() {
			w.logger.Error("Kafka consumer error received", "error", err)
		}
	}()

	ready := w.ready
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := w.consumer.Consume(ctx, topics, w); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				w.logger.Error("Error from consumer.Consume", "error", err)
			}
			if ctx.Err() != nil {
				return
			}
			w.ready = make(chan bool)
		}
	}()

	select {
	case <-ready:
		w.logger.Info("Worker setup complete; consumer ready")
	case <-ctx.Done():
	}

	<-ctx.Done()
	<-done

	m := w.tracker.GetMetrics()
	w.logger.Info("Worker shutting down gracefully",
		"jobs", m.TotalCount, "completed", m.SuccessCount, "failed", m.FailureCount,
		"retries", m.RetryCount, "avgMs", m.AverageProcessingTimeMs)
	return nil
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	w.logger.Info("Consumer group session setup complete")
	close(w.ready)
	return nil
}

func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	w.logger.Info("Consumer group session cleanup complete")
	return nil
}

// ConsumeClaim processes messages one at a time. A message is marked even
// when its job failed; the failure is recorded on the job.
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := w.processJob(session.Context(), message); err != nil {
			w.logger.Error("Failed to process job", "offset", message.Offset, "error", err)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (w *Worker) processJob(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var job models.JobMessage
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		return fmt.Errorf("failed to parse job: %w", err)
	}
	logger := w.logger.With("jobID", job.JobID, "type", job.Type)
	w.setStatus(ctx, job.JobID, models.StatusProcessing, nil)

	var (
		result models.Result
		err    error
	)
	attempts := max(w.cfg.Kafka.RetryMax, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = w.processJobLogic(ctx, job)
		if err == nil || !retryable(err) {
			break
		}
		logger.Error("Job processing logic failed", "attempt", attempt, "error", err)
		if attempt == attempts || ctx.Err() != nil {
			break
		}
		w.setStatus(ctx, job.JobID, models.StatusRetrying, err)
		select {
		case <-time.After(w.cfg.Kafka.RetryBackoff):
		case <-ctx.Done():
		}
	}

	// terminal writes must land even when the session is being torn down
	ctx = context.WithoutCancel(ctx)
	defer w.redis.Del(ctx, jobs.PayloadKey(job.JobID))

	if err != nil {
		logger.Error("Job processing ultimately failed", "error", err)
		w.setStatus(ctx, job.JobID, models.StatusFailed, err)
		return err
	}

	resultBytes, _ := json.Marshal(result)
	if err := w.redis.Set(ctx, jobs.ResultKey(job.JobID), resultBytes, w.cfg.Storage.TTL).Err(); err != nil {
		w.setStatus(ctx, job.JobID, models.StatusFailed, err)
		return fmt.Errorf("failed to store result: %w", err)
	}
	w.setStatus(ctx, job.JobID, models.StatusCompleted, nil)
	logger.Info("Job processed successfully")
	return nil
}

// retryable reports whether another attempt can succeed without repeating an
// upload or a model call.
func retryable(err error) bool {
	return !errors.Is(err, jobs.ErrUnknownType) &&
		!errors.Is(err, jobs.ErrNoPayload) &&
		!errors.Is(err, jobs.ErrAnalyzed)
}

func (w *Worker) processJobLogic(ctx context.Context, job models.JobMessage) (models.Result, error) {
	handler, ok := w.handlers[job.Type]
	if !ok {
		return models.Result{}, fmt.Errorf("%w: %q", jobs.ErrUnknownType, job.Type)
	}

	payload, err := w.redis.Get(ctx, jobs.PayloadKey(job.JobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Result{}, jobs.ErrNoPayload
	}
	if err != nil {
		return models.Result{}, fmt.Errorf("failed to get job payload: %w", err)
	}

	return handler(ctx, job, payload)
}

// setStatus mirrors a transition to the tracker, Redis and the job row.
func (w *Worker) setStatus(ctx context.Context, id int, status string, cause error) {
	w.tracker.UpdateStatus(id, status, cause)
	if err := w.redis.Set(ctx, jobs.StatusKey(id), status, w.cfg.Storage.TTL).Err(); err != nil {
		w.logger.Error("Failed to update Redis status", "jobID", id, "status", status, "error", err)
	}
	if status == models.StatusRetrying {
		return
	}
	if err := w.store.UpdateAnalysisJobStatus(ctx, id, status); err != nil {
		w.logger.Error("Failed to update job status in DB", "jobID", id, "status", status, "error", err)
	}
}
