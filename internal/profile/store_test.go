package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/glow-up/internal/datastore"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMemory(t *testing.T) *datastore.Memory {
	blobs, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads", 0)
	require.NoError(t, err)
	return datastore.NewMemory(blobs, testLogger())
}

// MockRemote records calls to the data service.
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) CreateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(*models.Profile)
	return created, args.Error(1)
}

func (m *MockRemote) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *MockRemote) UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	args := m.Called(ctx, p)
	updated, _ := args.Get(0).(*models.Profile)
	return updated, args.Error(1)
}

func (m *MockRemote) IncrementStat(ctx context.Context, profileID string, stat models.Stat, delta int) (int, error) {
	args := m.Called(ctx, profileID, stat, delta)
	return args.Int(0), args.Error(1)
}

func intPtr(v int) *int { return &v }

func TestRegisterThenLoad(t *testing.T) {
	remote := newMemory(t)
	ctx := context.Background()

	registered := NewStore("s1", remote, nil, testLogger())
	outcome, err := registered.Create(ctx, models.Profile{
		Name:     " Ava ",
		Email:    "  Ava@Example.COM ",
		GlowDays: 1,
		CheckIns: 2,
	})
	require.NoError(t, err)
	require.True(t, outcome.Synced)
	assert.Equal(t, "ava@example.com", outcome.Profile.Email)
	assert.Equal(t, "Ava", outcome.Profile.Name)
	assert.NotEmpty(t, outcome.Profile.ID)

	fresh := NewStore("s2", remote, nil, testLogger())
	loaded, err := fresh.Load(ctx, "AVA@example.com")
	require.NoError(t, err)
	require.True(t, loaded.Synced)
	assert.Equal(t, "ava@example.com", loaded.Profile.Email)
	assert.Equal(t, outcome.Profile.ID, loaded.Profile.ID)
	assert.Equal(t, 1, loaded.Profile.GlowDays)
	assert.Equal(t, 2, loaded.Profile.CheckIns)
	assert.Equal(t, 0, loaded.Profile.LooksCreated)
}

func TestValidationHappensBeforeRemoteCall(t *testing.T) {
	remote := &MockRemote{}
	store := NewStore("s1", remote, nil, testLogger())
	ctx := context.Background()

	_, err := store.Create(ctx, models.Profile{Name: "", Email: "ava@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = store.Create(ctx, models.Profile{Name: "Ava", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = store.Create(ctx, models.Profile{Name: "Ava", Email: "ava@localhost"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = store.Load(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	remote.AssertNotCalled(t, "CreateProfile", mock.Anything, mock.Anything)
	remote.AssertNotCalled(t, "GetProfileByEmail", mock.Anything, mock.Anything)
	assert.Nil(t, store.Profile())
}

func TestUpdateStatsOnlyIncrementsOnStrictIncrease(t *testing.T) {
	remote := &MockRemote{}
	store := NewStore("s1", remote, nil, testLogger())
	ctx := context.Background()

	remote.On("GetProfileByEmail", mock.Anything, "ava@example.com").
		Return(&models.Profile{ID: "p-1", Email: "ava@example.com", Name: "Ava", CheckIns: 3}, nil)
	_, err := store.Load(ctx, "ava@example.com")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		outcome, err := store.UpdateStats(ctx, Stats{CheckIns: intPtr(3)})
		require.NoError(t, err)
		assert.Equal(t, 3, outcome.Profile.CheckIns)
	}
	_, err = store.UpdateStats(ctx, Stats{CheckIns: intPtr(2)})
	require.NoError(t, err)
	remote.AssertNotCalled(t, "IncrementStat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	remote.On("IncrementStat", mock.Anything, "p-1", models.StatCheckIns, 1).Return(4, nil).Once()
	outcome, err := store.UpdateStats(ctx, Stats{CheckIns: intPtr(4)})
	require.NoError(t, err)
	assert.True(t, outcome.Synced)
	assert.Equal(t, 4, outcome.Profile.CheckIns)
	remote.AssertNumberOfCalls(t, "IncrementStat", 1)

	// repeating the same target is a no-op
	_, err = store.UpdateStats(ctx, Stats{CheckIns: intPtr(4)})
	require.NoError(t, err)
	remote.AssertNumberOfCalls(t, "IncrementStat", 1)
}

func TestUpdateStatsUsesDeltaAndServerValue(t *testing.T) {
	remote := &MockRemote{}
	store := NewStore("s1", remote, nil, testLogger())
	ctx := context.Background()

	remote.On("GetProfileByEmail", mock.Anything, "ava@example.com").
		Return(&models.Profile{ID: "p-1", Email: "ava@example.com", Name: "Ava", GlowDays: 2, LooksCreated: 1}, nil)
	_, err := store.Load(ctx, "ava@example.com")
	require.NoError(t, err)

	// another device already moved glow_days on the server
	remote.On("IncrementStat", mock.Anything, "p-1", models.StatGlowDays, 3).Return(7, nil).Once()
	remote.On("IncrementStat", mock.Anything, "p-1", models.StatLooksCreated, 1).Return(2, nil).Once()

	outcome, err := store.UpdateStats(ctx, Stats{GlowDays: intPtr(5), LooksCreated: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, 7, outcome.Profile.GlowDays)
	assert.Equal(t, 2, outcome.Profile.LooksCreated)
	remote.AssertExpectations(t)
}

func TestRemoteFailureFallsBackToLocalState(t *testing.T) {
	remote := newMemory(t)
	remote.SetFailure(errors.New("offline"))
	store := NewStore("s1", remote, nil, testLogger())
	ctx := context.Background()

	outcome, err := store.Create(ctx, models.Profile{Name: "Ava", Email: "ava@example.com", GlowDays: 1})
	require.NoError(t, err)
	assert.False(t, outcome.Synced)
	assert.ErrorIs(t, outcome.Err, datastore.ErrRemote)
	require.NotNil(t, outcome.Profile)
	assert.Empty(t, outcome.Profile.ID, "server generated fields are absent")
	assert.Equal(t, "ava@example.com", store.Profile().Email)

	shape := models.FaceShapeRound
	updated, err := store.Update(ctx, Changes{FaceShape: &shape})
	require.NoError(t, err)
	assert.False(t, updated.Synced)
	assert.Equal(t, models.FaceShapeRound, store.Profile().FaceShape)

	bumped, err := store.Bump(ctx, models.StatLooksCreated)
	require.NoError(t, err)
	assert.ErrorIs(t, bumped.Err, ErrLocalOnly)
	assert.Equal(t, 1, store.Profile().LooksCreated)

	// once the service is back, the local-only profile is created remotely
	remote.SetFailure(nil)
	name := "Ava B"
	synced, err := store.Update(ctx, Changes{Name: &name})
	require.NoError(t, err)
	assert.True(t, synced.Synced)
	assert.NotEmpty(t, store.Profile().ID)
	assert.Equal(t, models.FaceShapeRound, store.Profile().FaceShape)
}

func TestLoadMissingProfile(t *testing.T) {
	store := NewStore("s1", newMemory(t), nil, testLogger())

	_, err := store.Load(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, datastore.ErrNotFound)
	assert.Nil(t, store.Profile())
	assert.False(t, store.Snapshot().Loading)
}

// cancellingRemote cancels the caller's context while the call is in flight.
type cancellingRemote struct {
	*datastore.Memory
	cancel context.CancelFunc
}

func (r *cancellingRemote) CreateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	created, err := r.Memory.CreateProfile(context.Background(), p)
	r.cancel()
	return created, err
}

func TestCancelledRequestDoesNotCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	remote := &cancellingRemote{Memory: newMemory(t), cancel: cancel}
	store := NewStore("s1", remote, nil, testLogger())

	_, err := store.Create(ctx, models.Profile{Name: "Ava", Email: "ava@example.com"})
	assert.ErrorIs(t, err, context.Canceled)

	snapshot := store.Snapshot()
	assert.Nil(t, snapshot.Profile)
	assert.False(t, snapshot.Loading)
}

// cancelAfterIncrement applies the increment and then cancels the caller.
type cancelAfterIncrement struct {
	*datastore.Memory
	cancel context.CancelFunc
	calls  int
}

func (r *cancelAfterIncrement) IncrementStat(ctx context.Context, profileID string, stat models.Stat, delta int) (int, error) {
	r.calls++
	value, err := r.Memory.IncrementStat(context.Background(), profileID, stat, delta)
	if r.cancel != nil {
		r.cancel()
	}
	return value, err
}

func TestCancelledStatUpdateKeepsServerIncrement(t *testing.T) {
	mem := newMemory(t)
	p, err := mem.CreateProfile(context.Background(), &models.Profile{Name: "Ava", Email: "ava@example.com", CheckIns: 3})
	require.NoError(t, err)
	remote := &cancelAfterIncrement{Memory: mem}
	store := NewStore("s1", remote, nil, testLogger())
	_, err = store.Load(context.Background(), "ava@example.com")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	remote.cancel = cancel
	_, err = store.UpdateStats(ctx, Stats{CheckIns: intPtr(4)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, store.Profile().CheckIns)
	assert.False(t, store.Snapshot().Loading)

	// retrying the same target must not increment again
	remote.cancel = nil
	outcome, err := store.UpdateStats(context.Background(), Stats{CheckIns: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, outcome.Profile.CheckIns)
	assert.Equal(t, 1, remote.calls)

	server, err := mem.GetProfileByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, server.CheckIns)
}

func TestCreateExistingEmailDoesNotCommit(t *testing.T) {
	mem := newMemory(t)
	_, err := mem.CreateProfile(context.Background(), &models.Profile{Name: "Ava", Email: "ava@example.com"})
	require.NoError(t, err)
	store := NewStore("s2", mem, nil, testLogger())

	_, err = store.Create(context.Background(), models.Profile{Name: "Mallory", Email: "ava@example.com"})
	assert.ErrorIs(t, err, datastore.ErrConflict)
	assert.Nil(t, store.Profile())
	assert.False(t, store.Snapshot().Loading)
}

func TestUpdateRequiresProfile(t *testing.T) {
	store := NewStore("s1", newMemory(t), nil, testLogger())
	name := "Ava"

	_, err := store.Update(context.Background(), Changes{Name: &name})
	assert.ErrorIs(t, err, ErrNoProfile)

	bad := models.SkinTone("monsoon")
	_, err = store.Update(context.Background(), Changes{SkinTone: &bad})
	assert.ErrorIs(t, err, ErrValidation)
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	miniRedis, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(miniRedis.Close)

	return redis.NewClient(&redis.Options{Addr: miniRedis.Addr()}), miniRedis
}

func TestStatePersistsAcrossRestarts(t *testing.T) {
	client, miniRedis := setupRedis(t)
	persist := NewRedisPersister(client, time.Hour)
	remote := newMemory(t)
	ctx := context.Background()

	store := NewStore("ava@example.com", remote, persist, testLogger())
	created, err := store.Create(ctx, models.Profile{Name: "Ava", Email: "ava@example.com"})
	require.NoError(t, err)
	assert.True(t, miniRedis.Exists("glow-up-profile:v1:ava@example.com"))

	restored := NewStore("ava@example.com", remote, persist, testLogger())
	require.NoError(t, restored.Restore(ctx))
	require.NotNil(t, restored.Profile())
	assert.Equal(t, created.Profile.ID, restored.Profile().ID)
	assert.False(t, restored.Snapshot().Loading)

	require.NoError(t, restored.Clear(ctx))
	assert.Nil(t, restored.Profile())
	assert.False(t, miniRedis.Exists("glow-up-profile:v1:ava@example.com"))
}

func TestRestoreDiscardsOtherVersions(t *testing.T) {
	client, miniRedis := setupRedis(t)
	persist := NewRedisPersister(client, 0)

	require.NoError(t, miniRedis.Set("glow-up-profile:v1:s1",
		`{"version":99,"state":{"profile":{"email":"old@example.com"},"loading":true}}`))

	store := NewStore("s1", newMemory(t), persist, testLogger())
	require.NoError(t, store.Restore(context.Background()))
	assert.Nil(t, store.Profile())
	assert.False(t, miniRedis.Exists("glow-up-profile:v1:s1"))
}

func TestRegistry(t *testing.T) {
	client, _ := setupRedis(t)
	registry := NewRegistry(newMemory(t), NewRedisPersister(client, time.Hour), testLogger())
	ctx := context.Background()

	a := registry.Get(ctx, "Ava@Example.com")
	b := registry.Get(ctx, "ava@example.com")
	assert.Same(t, a, b)

	_, err := a.Create(ctx, models.Profile{Name: "Ava", Email: "ava@example.com"})
	require.NoError(t, err)

	require.NoError(t, registry.Forget(ctx, "ava@example.com"))
	c := registry.Get(ctx, "ava@example.com")
	assert.NotSame(t, a, c)
	assert.Nil(t, c.Profile())
}

func TestRegistryRetriesFailedRestore(t *testing.T) {
	client, miniRedis := setupRedis(t)
	remote := newMemory(t)
	ctx := context.Background()

	first := NewRegistry(remote, NewRedisPersister(client, time.Hour), testLogger())
	_, err := first.Get(ctx, "ava@example.com").Create(ctx, models.Profile{Name: "Ava", Email: "ava@example.com"})
	require.NoError(t, err)

	// a second instance starts while Redis is unreachable
	registry := NewRegistry(remote, NewRedisPersister(client, time.Hour), testLogger())
	miniRedis.SetError("connection refused")
	degraded := registry.Get(ctx, "ava@example.com")
	assert.Nil(t, degraded.Profile())

	miniRedis.SetError("")
	restored := registry.Get(ctx, "ava@example.com")
	assert.NotSame(t, degraded, restored)
	require.NotNil(t, restored.Profile())
	assert.Equal(t, "Ava", restored.Profile().Name)
	assert.Same(t, restored, registry.Get(ctx, "ava@example.com"))
}
