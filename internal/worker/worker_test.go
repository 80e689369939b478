package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/glow-up/internal/ai"
	"github.com/illegalcall/glow-up/internal/config"
	"github.com/illegalcall/glow-up/internal/datastore"
	"github.com/illegalcall/glow-up/internal/jobs"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/service"
	"github.com/illegalcall/glow-up/internal/storage"
)

// MockConsumerGroup mocks sarama.ConsumerGroup
type MockConsumerGroup struct {
	mock.Mock
}

func (m *MockConsumerGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	args := m.Called(ctx, topics, handler)
	return args.Error(0)
}

func (m *MockConsumerGroup) Errors() <-chan error {
	args := m.Called()
	return args.Get(0).(chan error)
}

func (m *MockConsumerGroup) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockConsumerGroup) Pause(partitions map[string][]int32) {
	m.Called(partitions)
}

func (m *MockConsumerGroup) Resume(partitions map[string][]int32) {
	m.Called(partitions)
}

func (m *MockConsumerGroup) PauseAll() {
	m.Called()
}

func (m *MockConsumerGroup) ResumeAll() {
	m.Called()
}

type fixture struct {
	worker   *Worker
	mr       *miniredis.Miniredis
	repo     *datastore.Memory
	consumer *MockConsumerGroup
	calls    int
	failures int // handler fails this many times before succeeding
}

func setupTestWorker(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := datastore.NewMemory(nil, logger)

	cfg := &config.Config{
		Kafka: config.KafkaConfig{
			Topic:        "test-topic",
			RetryMax:     3,
			RetryBackoff: time.Millisecond,
		},
		Storage: config.StorageConfig{
			TTL: time.Hour,
		},
	}

	f := &fixture{mr: mr, repo: repo, consumer: new(MockConsumerGroup)}
	handlers := map[models.JobType]jobs.HandlerFunc{
		models.JobTypeFaceAnalysis: func(ctx context.Context, msg models.JobMessage, payload []byte) (models.Result, error) {
			f.calls++
			if f.calls <= f.failures {
				return models.Result{}, errors.New("model unavailable")
			}
			return models.Result{Message: "Face analysis completed", Data: json.RawMessage(payload)}, nil
		},
	}
	f.worker = NewWorker(cfg, rdb, repo, handlers, f.consumer, logger)
	return f
}

// enqueue creates job 1 the way the API does and returns its Kafka message.
func (f *fixture) enqueue(t *testing.T, jobType models.JobType, payload string) *sarama.ConsumerMessage {
	t.Helper()
	job, err := f.repo.CreateAnalysisJob(context.Background(), "profile-1", jobType)
	require.NoError(t, err)
	if payload != "" {
		require.NoError(t, f.mr.Set(jobs.PayloadKey(job.ID), payload))
	}
	value, _ := json.Marshal(models.JobMessage{JobID: job.ID, Type: jobType, ProfileID: "profile-1", Email: "ava@example.com"})
	return &sarama.ConsumerMessage{Value: value}
}

func (f *fixture) dbStatus(t *testing.T) string {
	t.Helper()
	job, err := f.repo.GetAnalysisJob(context.Background(), "profile-1", 1)
	require.NoError(t, err)
	return job.Status
}

func TestProcessJob(t *testing.T) {
	testCases := []struct {
		name        string
		jobType     models.JobType
		payload     string
		failures    int
		wantStatus  string
		wantCalls   int
		wantRetries int
		expectError bool
	}{
		{
			name:       "success",
			jobType:    models.JobTypeFaceAnalysis,
			payload:    `{"image":"c2VsZmll"}`,
			wantStatus: models.StatusCompleted,
			wantCalls:  1,
		},
		{
			name:        "succeeds after a retry",
			jobType:     models.JobTypeFaceAnalysis,
			payload:     `{"image":"c2VsZmll"}`,
			failures:    1,
			wantStatus:  models.StatusCompleted,
			wantCalls:   2,
			wantRetries: 1,
		},
		{
			name:        "fails after all retries",
			jobType:     models.JobTypeFaceAnalysis,
			payload:     `{"image":"c2VsZmll"}`,
			failures:    10,
			wantStatus:  models.StatusFailed,
			wantCalls:   3,
			wantRetries: 2,
			expectError: true,
		},
		{
			name:        "unknown job type is not retried",
			jobType:     models.JobTypeClosetItem,
			payload:     `{}`,
			wantStatus:  models.StatusFailed,
			expectError: true,
		},
		{
			name:        "expired payload",
			jobType:     models.JobTypeFaceAnalysis,
			wantStatus:  models.StatusFailed,
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestWorker(t)
			f.failures = tc.failures
			msg := f.enqueue(t, tc.jobType, tc.payload)

			err := f.worker.processJob(context.Background(), msg)

			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantCalls, f.calls)
			assert.Equal(t, tc.wantStatus, f.dbStatus(t))

			redisStatus, err := f.mr.Get(jobs.StatusKey(1))
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, redisStatus)
			assert.False(t, f.mr.Exists(jobs.PayloadKey(1)), "payload is dropped once the job is done")

			tracked, err := f.worker.tracker.GetStatus(1)
			require.NoError(t, err)
			assert.Equal(t, tc.wantRetries, tracked.RetryCount)

			if tc.wantStatus == models.StatusCompleted {
				raw, err := f.mr.Get(jobs.ResultKey(1))
				require.NoError(t, err)
				assert.JSONEq(t, `{"message":"Face analysis completed","data":{"image":"c2VsZmll"}}`, raw)
			} else {
				assert.False(t, f.mr.Exists(jobs.ResultKey(1)))
			}
		})
	}
}

// closetWriteFails accepts everything except the closet insert.
type closetWriteFails struct {
	*datastore.Memory
}

func (r closetWriteFails) AddClosetItem(ctx context.Context, item *models.ClosetItem) (*models.ClosetItem, error) {
	return nil, fmt.Errorf("add closet item: %w", datastore.ErrRemote)
}

type countingGenerator struct {
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	g.calls++
	return `{"category": "tops", "color": "white", "description": "linen shirt"}`, nil
}

func TestProcessJobDoesNotRepeatAnalysis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dir := t.TempDir()
	blobs, err := storage.NewLocalStorage(dir, "http://localhost/uploads", 0)
	require.NoError(t, err)
	mem := datastore.NewMemory(blobs, logger)
	repo := closetWriteFails{Memory: mem}
	p, err := mem.CreateProfile(ctx, &models.Profile{Name: "Ava", Email: "ava@example.com"})
	require.NoError(t, err)

	gen := &countingGenerator{}
	svc := service.New(repo, ai.NewService(gen, logger), logger)
	cfg := &config.Config{
		Kafka:   config.KafkaConfig{Topic: "test-topic", RetryMax: 3, RetryBackoff: time.Millisecond},
		Storage: config.StorageConfig{TTL: time.Hour},
	}
	w := NewWorker(cfg, rdb, repo, jobs.Handlers(svc, jobs.FreshSessions(repo, nil, logger)), new(MockConsumerGroup), logger)

	job, err := repo.CreateAnalysisJob(ctx, p.ID, models.JobTypeClosetItem)
	require.NoError(t, err)
	payload, _ := json.Marshal(jobs.Payload{Image: []byte("\x89PNG\r\n\x1a\n"), MIMEType: "image/png"})
	require.NoError(t, mr.Set(jobs.PayloadKey(job.ID), string(payload)))
	value, _ := json.Marshal(models.JobMessage{JobID: job.ID, Type: models.JobTypeClosetItem, ProfileID: p.ID, Email: p.Email})

	err = w.processJob(ctx, &sarama.ConsumerMessage{Value: value})
	assert.ErrorIs(t, err, datastore.ErrRemote)
	assert.Equal(t, 1, gen.calls, "the model is called once")

	uploads := 0
	require.NoError(t, filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			uploads++
		}
		return err
	}))
	assert.Equal(t, 1, uploads, "the photo is uploaded once")

	tracked, err := w.tracker.GetStatus(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, tracked.RetryCount)
	stored, err := repo.GetAnalysisJob(ctx, p.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
}

func TestProcessJobMalformedMessage(t *testing.T) {
	f := setupTestWorker(t)

	err := f.worker.processJob(context.Background(), &sarama.ConsumerMessage{Value: []byte("not json")})
	assert.Error(t, err)
	assert.Equal(t, 0, f.calls)
}

func TestWorkerStart(t *testing.T) {
	f := setupTestWorker(t)

	errChan := make(chan error)
	f.consumer.On("Errors").Return(errChan)
	f.consumer.On("Consume", mock.Anything, []string{"test-topic"}, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := f.worker.Start(ctx)
	assert.NoError(t, err)

	f.consumer.AssertExpectations(t)
}
