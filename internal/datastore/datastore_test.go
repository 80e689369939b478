package datastore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/storage"
)

var profileCols = []string{
	"id", "email", "name", "face_shape", "skin_tone", "photo_url", "analysis_confidence",
	"glow_days", "check_ins", "looks_created", "created_at", "updated_at",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupStore(t *testing.T, opts ...Option) (*Store, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	blobs, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads", 0)
	require.NoError(t, err)

	return New(sqlx.NewDb(mockDB, "sqlmock"), blobs, testLogger(), opts...), mock
}

func TestCreateProfile(t *testing.T) {
	store, mock := setupStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO profiles")).
		WithArgs("ava@example.com", "Ava", models.FaceShape(""), models.SkinTone(""), "", 0, 1, 0, 0).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow("p-1", "ava@example.com", "Ava", "", "", "", 0, 1, 0, 0, now, now))

	created, err := store.CreateProfile(context.Background(), &models.Profile{
		Email: "ava@example.com", Name: "Ava", GlowDays: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "p-1", created.ID)
	assert.Equal(t, 1, created.GlowDays)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfileExistingEmail(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (email) DO NOTHING")).
		WillReturnRows(sqlmock.NewRows(profileCols))

	created, err := store.CreateProfile(context.Background(), &models.Profile{Email: "ava@example.com", Name: "Mallory"})
	assert.Nil(t, created)
	assert.ErrorIs(t, err, ErrConflict)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileByEmailNotFound(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(profileCols))

	p, err := store.GetProfileByEmail(context.Background(), "nobody@example.com")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrRemote))
}

func TestListFailureDegradesToEmpty(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM closet_items")).
		WithArgs("p-1").
		WillReturnError(errors.New("connection refused"))

	items, err := store.GetClosetItems(context.Background(), "p-1")
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIncrementStat(t *testing.T) {
	t.Run("atomic update", func(t *testing.T) {
		store, mock := setupStore(t)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles SET check_ins = check_ins + $1")).
			WithArgs(2, "p-1").
			WillReturnRows(sqlmock.NewRows([]string{"check_ins"}).AddRow(5))

		value, err := store.IncrementStat(context.Background(), "p-1", models.StatCheckIns, 2)
		require.NoError(t, err)
		assert.Equal(t, 5, value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown stat", func(t *testing.T) {
		store, _ := setupStore(t)
		_, err := store.IncrementStat(context.Background(), "p-1", models.Stat("name; DROP TABLE"), 1)
		assert.Error(t, err)
	})

	t.Run("rpc", func(t *testing.T) {
		rpc := &fakeRPC{value: 9}
		store, mock := setupStore(t, WithRPC(rpc))

		value, err := store.IncrementStat(context.Background(), "p-1", models.StatLooksCreated, 1)
		require.NoError(t, err)
		assert.Equal(t, 9, value)
		assert.Equal(t, 1, rpc.calls)
		assert.NoError(t, mock.ExpectationsWereMet(), "rpc path must not touch SQL")
	})
}

type fakeRPC struct {
	value int
	calls int
}

func (f *fakeRPC) IncrementStat(ctx context.Context, profileID string, stat models.Stat, delta int) (int, error) {
	f.calls++
	return f.value, nil
}

func TestDeleteClosetItemIsIdempotent(t *testing.T) {
	store, mock := setupStore(t)
	ctx := context.Background()

	url, err := store.UploadImage(ctx, "p-1", "closet", []byte("png"), "image/png")
	require.NoError(t, err)
	file := filepath.Join(store.blobs.(*storage.LocalStorage).Dir(),
		filepath.FromSlash(strings.TrimPrefix(url, "http://localhost/uploads/")))
	require.FileExists(t, file)

	deleteQuery := regexp.QuoteMeta("DELETE FROM closet_items WHERE id = $1 AND profile_id = $2 RETURNING image_url")
	mock.ExpectQuery(deleteQuery).
		WithArgs("item-1", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"image_url"}).AddRow(url))
	mock.ExpectQuery(deleteQuery).
		WithArgs("item-1", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"image_url"}))

	assert.NoError(t, store.DeleteClosetItem(ctx, "p-1", "item-1"))
	assert.NoFileExists(t, file, "the item's image goes with the row")
	assert.NoError(t, store.DeleteClosetItem(ctx, "p-1", "item-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClosetItemKeepsImageOnFailure(t *testing.T) {
	store, mock := setupStore(t)
	ctx := context.Background()

	url, err := store.UploadImage(ctx, "p-1", "closet", []byte("png"), "image/png")
	require.NoError(t, err)
	file := filepath.Join(store.blobs.(*storage.LocalStorage).Dir(),
		filepath.FromSlash(strings.TrimPrefix(url, "http://localhost/uploads/")))

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM closet_items")).
		WithArgs("item-1", "p-1").
		WillReturnError(errors.New("connection refused"))

	assert.ErrorIs(t, store.DeleteClosetItem(ctx, "p-1", "item-1"), ErrRemote)
	assert.FileExists(t, file)
}

func TestGetOutfits(t *testing.T) {
	store, mock := setupStore(t)
	now := time.Now()
	cols := []string{"id", "profile_id", "occasion", "top", "bottom", "shoes", "accessories", "makeup",
		"hair", "reasoning", "is_favorite", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $2")).
		WithArgs("p-1", defaultLimit).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("o-2", "p-1", "party", "sequin top", "black skirt", "heels", "{clutch,hoops}", "", "", "", true, now).
			AddRow("o-1", "p-1", "casual", "tee", "jeans", "sneakers", "{}", "", "", "", false, now.Add(-time.Hour)))

	outfits, err := store.GetOutfits(context.Background(), "p-1", 0)
	require.NoError(t, err)
	require.Len(t, outfits, 2)
	assert.Equal(t, "o-2", outfits[0].ID)
	assert.Equal(t, []string{"clutch", "hoops"}, []string(outfits[0].Accessories))
	assert.True(t, outfits[0].IsFavorite)
}

func TestSetWeeklyPlanEntryReplacesDate(t *testing.T) {
	store, mock := setupStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weekly_planner WHERE profile_id = $1 AND plan_date = $2")).
		WithArgs("p-1", "2024-05-06").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO weekly_planner")).
		WithArgs("p-1", "o-1", "2024-05-06", "Monday").
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "outfit_id", "plan_date", "day_of_week", "created_at"}).
			AddRow("w-1", "p-1", "o-1", "2024-05-06", "Monday", now))
	mock.ExpectCommit()

	entry, err := store.SetWeeklyPlanEntry(context.Background(), &models.WeeklyPlanEntry{
		ProfileID: "p-1", OutfitID: "o-1", PlanDate: "2024-05-06", DayOfWeek: "Monday",
	})
	require.NoError(t, err)
	assert.Equal(t, "w-1", entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetWeeklyPlanEntryForeignOutfit(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM weekly_planner")).
		WithArgs("p-2", "2024-05-06").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM outfits WHERE id::text = $2 AND profile_id = $1")).
		WithArgs("p-2", "o-1", "2024-05-06", "Monday").
		WillReturnRows(sqlmock.NewRows([]string{"id", "profile_id", "outfit_id", "plan_date", "day_of_week", "created_at"}))
	mock.ExpectRollback()

	entry, err := store.SetWeeklyPlanEntry(context.Background(), &models.WeeklyPlanEntry{
		ProfileID: "p-2", OutfitID: "o-1", PlanDate: "2024-05-06", DayOfWeek: "Monday",
	})
	assert.Nil(t, entry)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetReminderActiveMissing(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE reminders SET is_active = $1")).
		WithArgs(false, "r-404", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	r, err := store.SetReminderActive(context.Background(), "p-1", "r-404", false)
	assert.Nil(t, r)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadImage(t *testing.T) {
	store, _ := setupStore(t)

	url, err := store.UploadImage(context.Background(), "p-1", "selfies", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Regexp(t, `^http://localhost/uploads/p-1/selfies/.+\.jpg$`, url)
}
