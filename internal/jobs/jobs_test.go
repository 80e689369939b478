package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/glow-up/internal/ai"
	"github.com/illegalcall/glow-up/internal/datastore"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/service"
	"github.com/illegalcall/glow-up/internal/storage"
)

// MockProducer records sent messages.
type MockProducer struct {
	sarama.SyncProducer
	messages []*sarama.ProducerMessage
	err      error
}

func (m *MockProducer) SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error) {
	if m.err != nil {
		return 0, 0, m.err
	}
	m.messages = append(m.messages, msg)
	return 0, int64(len(m.messages) - 1), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	queue    *Queue
	producer *MockProducer
	redis    *redis.Client
	mr       *miniredis.Miniredis
	repo     *datastore.Memory
	profile  *models.Profile
}

func setupQueue(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	blobs, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads", 0)
	require.NoError(t, err)
	repo := datastore.NewMemory(blobs, testLogger())
	p, err := repo.CreateProfile(context.Background(), &models.Profile{Name: "Ava", Email: "ava@example.com"})
	require.NoError(t, err)

	producer := &MockProducer{}
	return &testEnv{
		queue:    NewQueue(repo, rdb, producer, "analysis-jobs", time.Hour, testLogger()),
		producer: producer,
		redis:    rdb,
		mr:       mr,
		repo:     repo,
		profile:  p,
	}
}

func TestEnqueue(t *testing.T) {
	env := setupQueue(t)
	ctx := context.Background()

	job, err := env.queue.Enqueue(ctx, env.profile.ID, env.profile.Email, models.JobTypeFaceAnalysis, Payload{
		Image:    []byte("selfie"),
		MIMEType: "image/jpeg",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, job.Status)

	status, err := env.mr.Get(StatusKey(job.ID))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status)
	assert.True(t, env.mr.Exists(PayloadKey(job.ID)))
	assert.Equal(t, time.Hour, env.mr.TTL(PayloadKey(job.ID)))

	require.Len(t, env.producer.messages, 1)
	assert.Equal(t, "analysis-jobs", env.producer.messages[0].Topic)
	value, err := env.producer.messages[0].Value.Encode()
	require.NoError(t, err)

	var msg models.JobMessage
	require.NoError(t, json.Unmarshal(value, &msg))
	assert.Equal(t, models.JobMessage{
		JobID:     job.ID,
		Type:      models.JobTypeFaceAnalysis,
		ProfileID: env.profile.ID,
		Email:     "ava@example.com",
	}, msg)
}

func TestEnqueueRejectsUnknownType(t *testing.T) {
	env := setupQueue(t)

	_, err := env.queue.Enqueue(context.Background(), env.profile.ID, env.profile.Email, "pdf_parse", Payload{})
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.Empty(t, env.producer.messages)
}

func TestEnqueueProducerFailureMarksJobFailed(t *testing.T) {
	env := setupQueue(t)
	env.producer.err = errors.New("broker down")
	ctx := context.Background()

	_, err := env.queue.Enqueue(ctx, env.profile.ID, env.profile.Email, models.JobTypeClosetItem, Payload{Image: []byte("x")})
	require.Error(t, err)

	job, err := env.repo.GetAnalysisJob(ctx, env.profile.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, job.Status)
	assert.False(t, env.mr.Exists(PayloadKey(1)))
}

func TestStatusReadsRedis(t *testing.T) {
	env := setupQueue(t)
	ctx := context.Background()

	job, err := env.queue.Enqueue(ctx, env.profile.ID, env.profile.Email, models.JobTypeFaceAnalysis, Payload{Image: []byte("x")})
	require.NoError(t, err)

	st, err := env.queue.Status(ctx, env.profile.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, st.Job.Status)
	assert.Nil(t, st.Result)

	env.mr.Set(StatusKey(job.ID), models.StatusCompleted)
	env.mr.Set(ResultKey(job.ID), `{"message":"Face analysis completed","data":{"source":"simulated"}}`)

	st, err = env.queue.Status(ctx, env.profile.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, st.Job.Status)
	require.NotNil(t, st.Result)
	assert.Equal(t, "Face analysis completed", st.Result.Message)
	assert.JSONEq(t, `{"source":"simulated"}`, string(st.Result.Data))

	_, err = env.queue.Status(ctx, "someone-else", job.ID)
	assert.ErrorIs(t, err, datastore.ErrNotFound)
}

func TestHandlers(t *testing.T) {
	env := setupQueue(t)
	ctx := context.Background()
	logger := testLogger()

	svc := service.New(env.repo, ai.NewService(nil, logger), logger)
	handlers := Handlers(svc, FreshSessions(env.repo, nil, logger))
	msg := models.JobMessage{JobID: 1, ProfileID: env.profile.ID, Email: "AVA@example.com"}

	t.Run("face analysis", func(t *testing.T) {
		payload, _ := json.Marshal(Payload{Image: []byte("selfie"), MIMEType: "image/png"})
		res, err := handlers[models.JobTypeFaceAnalysis](ctx, msg, payload)
		require.NoError(t, err)

		var out service.OnboardingResult
		require.NoError(t, json.Unmarshal(res.Data, &out))
		assert.Equal(t, ai.SourceSimulated, out.Source)

		stored, err := env.repo.GetProfileByEmail(ctx, "ava@example.com")
		require.NoError(t, err)
		assert.True(t, stored.FaceShape.Valid())
		assert.Equal(t, 1, stored.GlowDays)
	})

	t.Run("closet item", func(t *testing.T) {
		payload, _ := json.Marshal(Payload{Image: []byte("photo"), MIMEType: "image/jpeg", Color: "navy"})
		_, err := handlers[models.JobTypeClosetItem](ctx, msg, payload)
		require.NoError(t, err)

		items, err := env.repo.GetClosetItems(ctx, env.profile.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "navy", items[0].Color)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := handlers[models.JobTypeClosetItem](ctx, msg, []byte("{"))
		assert.Error(t, err)
	})

	t.Run("profile unavailable", func(t *testing.T) {
		env.repo.SetFailure(errors.New("offline"))
		defer env.repo.SetFailure(nil)

		payload, _ := json.Marshal(Payload{Image: []byte("selfie")})
		_, err := handlers[models.JobTypeFaceAnalysis](ctx, msg, payload)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, ErrAnalyzed), "nothing was analyzed yet")
	})
}
