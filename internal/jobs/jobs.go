// Package jobs queues image analyses that are too slow for a request and
// runs them on the worker.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/glow-up/internal/models"
)

var (
	ErrUnknownType = errors.New("unknown job type")
	ErrNoPayload   = errors.New("job payload not found")
	// ErrAnalyzed wraps handler failures that happen once the model call was
	// made. Jobs failing with it are not retried.
	ErrAnalyzed = errors.New("job failed after analysis")
)

// HandlerFunc runs one job type against the payload stored for the job.
type HandlerFunc func(ctx context.Context, msg models.JobMessage, payload []byte) (models.Result, error)

// Payload is the job input kept in Redis next to the status key.
type Payload struct {
	Image       []byte `json:"image"`
	MIMEType    string `json:"mime_type"`
	Category    string `json:"category,omitempty"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// Store is the part of the data service that owns job rows.
type Store interface {
	CreateAnalysisJob(ctx context.Context, profileID string, jobType models.JobType) (*models.AnalysisJob, error)
	GetAnalysisJob(ctx context.Context, profileID string, id int) (*models.AnalysisJob, error)
	UpdateAnalysisJobStatus(ctx context.Context, id int, status string) error
}

func StatusKey(id int) string  { return fmt.Sprintf("job:%d", id) }
func PayloadKey(id int) string { return fmt.Sprintf("job:%d:payload", id) }
func ResultKey(id int) string  { return fmt.Sprintf("job:%d:result", id) }

type Queue struct {
	store    Store
	redis    *redis.Client
	producer sarama.SyncProducer
	topic    string
	ttl      time.Duration
	logger   *slog.Logger
}

func NewQueue(store Store, rdb *redis.Client, producer sarama.SyncProducer, topic string, ttl time.Duration, logger *slog.Logger) *Queue {
	return &Queue{store: store, redis: rdb, producer: producer, topic: topic, ttl: ttl, logger: logger}
}

// Enqueue records the job, parks its payload in Redis and publishes it.
func (q *Queue) Enqueue(ctx context.Context, profileID, email string, jobType models.JobType, payload Payload) (*models.AnalysisJob, error) {
	if jobType != models.JobTypeFaceAnalysis && jobType != models.JobTypeClosetItem {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, jobType)
	}

	job, err := q.store.CreateAnalysisJob(ctx, profileID, jobType)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	pipe := q.redis.TxPipeline()
	pipe.Set(ctx, StatusKey(job.ID), models.StatusPending, q.ttl)
	pipe.Set(ctx, PayloadKey(job.ID), payloadBytes, q.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		q.fail(ctx, job.ID)
		return nil, fmt.Errorf("failed to store job payload: %w", err)
	}

	msgBytes, _ := json.Marshal(models.JobMessage{
		JobID:     job.ID,
		Type:      jobType,
		ProfileID: profileID,
		Email:     email,
	})
	partition, offset, err := q.producer.SendMessage(&sarama.ProducerMessage{
		Topic: q.topic,
		Key:   sarama.StringEncoder(profileID),
		Value: sarama.ByteEncoder(msgBytes),
	})
	if err != nil {
		q.fail(ctx, job.ID)
		return nil, fmt.Errorf("failed to queue job: %w", err)
	}

	q.logger.Info("Job queued", "jobID", job.ID, "type", jobType, "partition", partition, "offset", offset)
	return job, nil
}

func (q *Queue) fail(ctx context.Context, id int) {
	if err := q.store.UpdateAnalysisJobStatus(ctx, id, models.StatusFailed); err != nil {
		q.logger.Error("Failed to mark job failed", "jobID", id, "error", err)
	}
	q.redis.Del(ctx, PayloadKey(id))
	q.redis.Set(ctx, StatusKey(id), models.StatusFailed, q.ttl)
}

// Status is a job with its live status and, once completed, its result.
type Status struct {
	Job    *models.AnalysisJob `json:"job"`
	Result *models.Result      `json:"result,omitempty"`
}

// Status returns the job owned by profileID. Redis holds the freshest status;
// the row is the fallback once the keys expired.
func (q *Queue) Status(ctx context.Context, profileID string, id int) (*Status, error) {
	job, err := q.store.GetAnalysisJob(ctx, profileID, id)
	if err != nil {
		return nil, err
	}

	if status, err := q.redis.Get(ctx, StatusKey(id)).Result(); err == nil {
		job.Status = status
	}

	out := &Status{Job: job}
	if job.Status != models.StatusCompleted {
		return out, nil
	}

	resultBytes, err := q.redis.Get(ctx, ResultKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			q.logger.Warn("Failed to read job result", "jobID", id, "error", err)
		}
		return out, nil
	}
	var result models.Result
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		q.logger.Warn("Discarding malformed job result", "jobID", id, "error", err)
		return out, nil
	}
	out.Result = &result
	return out, nil
}
