// Package datastore maps application intents onto the hosted Postgres tables
// and blob storage.
//
// Every operation logs its failure and returns a degraded value (nil row or an
// empty, non-nil slice) together with the error. Callers that only render data
// can ignore the error; callers that must tell "empty" from "failed" check it
// with errors.Is against ErrNotFound, ErrConflict and ErrRemote.
package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/storage"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	ErrRemote   = errors.New("data service error")
)

// DataStore is implemented by the Postgres store and the in-memory store.
type DataStore interface {
	CreateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error)
	IncrementStat(ctx context.Context, profileID string, stat models.Stat, delta int) (int, error)

	SaveSkincareRoutine(ctx context.Context, r *models.SkincareRoutine) (*models.SkincareRoutine, error)
	GetSkincareRoutines(ctx context.Context, profileID string, limit int) ([]models.SkincareRoutine, error)
	GetSkincareRoutineForDate(ctx context.Context, profileID, date string) (*models.SkincareRoutine, error)

	SaveHairCheckIn(ctx context.Context, c *models.HairCheckIn) (*models.HairCheckIn, error)
	GetHairCheckIns(ctx context.Context, profileID string, limit int) ([]models.HairCheckIn, error)
	SaveHaircutRecommendation(ctx context.Context, r *models.HaircutRecommendation) (*models.HaircutRecommendation, error)
	GetHaircutRecommendations(ctx context.Context, profileID string) ([]models.HaircutRecommendation, error)

	SaveOutfit(ctx context.Context, o *models.Outfit) (*models.Outfit, error)
	GetOutfits(ctx context.Context, profileID string, limit int) ([]models.Outfit, error)
	SetOutfitFavorite(ctx context.Context, profileID, id string, favorite bool) (*models.Outfit, error)
	DeleteOutfit(ctx context.Context, profileID, id string) error

	AddClosetItem(ctx context.Context, item *models.ClosetItem) (*models.ClosetItem, error)
	GetClosetItems(ctx context.Context, profileID string) ([]models.ClosetItem, error)
	DeleteClosetItem(ctx context.Context, profileID, id string) error

	CreateReminder(ctx context.Context, r *models.Reminder) (*models.Reminder, error)
	GetReminders(ctx context.Context, profileID string) ([]models.Reminder, error)
	SetReminderActive(ctx context.Context, profileID, id string, active bool) (*models.Reminder, error)
	DeleteReminder(ctx context.Context, profileID, id string) error

	SetWeeklyPlanEntry(ctx context.Context, e *models.WeeklyPlanEntry) (*models.WeeklyPlanEntry, error)
	GetWeeklyPlan(ctx context.Context, profileID, from, to string) ([]models.WeeklyPlanEntry, error)
	DeleteWeeklyPlanEntry(ctx context.Context, profileID, date string) error

	CreateAnalysisJob(ctx context.Context, profileID string, jobType models.JobType) (*models.AnalysisJob, error)
	GetAnalysisJob(ctx context.Context, profileID string, id int) (*models.AnalysisJob, error)
	UpdateAnalysisJobStatus(ctx context.Context, id int, status string) error

	UploadImage(ctx context.Context, profileID, folder string, data []byte, contentType string) (string, error)
}

// StatIncrementer performs the counter increment as a stored procedure call.
type StatIncrementer interface {
	IncrementStat(ctx context.Context, profileID string, stat models.Stat, delta int) (int, error)
}

// Store is the Postgres-backed DataStore.
type Store struct {
	db     *sqlx.DB
	blobs  storage.Storage
	rpc    StatIncrementer
	logger *slog.Logger
}

type Option func(*Store)

// WithRPC routes counter increments through a stored procedure.
func WithRPC(rpc StatIncrementer) Option {
	return func(s *Store) { s.rpc = rpc }
}

func New(db *sqlx.DB, blobs storage.Storage, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{db: db, blobs: blobs, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fail logs err and wraps it with the matching error kind.
func (s *Store) fail(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("No rows", "op", op)
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	s.logger.Error("Data service call failed", "op", op, "error", err)
	return fmt.Errorf("%s: %w: %w", op, ErrRemote, err)
}

const profileColumns = `id, email, name, face_shape, skin_tone, photo_url, analysis_confidence,
	glow_days, check_ins, looks_created, created_at, updated_at`

// CreateProfile inserts a profile. The email is the identity key, so an
// existing email is reported as ErrConflict and the stored row is untouched.
func (s *Store) CreateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	query := `INSERT INTO profiles (email, name, face_shape, skin_tone, photo_url, analysis_confidence,
		glow_days, check_ins, looks_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + profileColumns

	var created models.Profile
	err := s.db.QueryRowxContext(ctx, query,
		p.Email, p.Name, p.FaceShape, p.SkinTone, p.PhotoURL, p.AnalysisConfidence,
		p.GlowDays, p.CheckIns, p.LooksCreated,
	).StructScan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("create profile %s: %w", p.Email, ErrConflict)
	}
	if err != nil {
		return nil, s.fail("create profile", err)
	}
	return &created, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email)
	if err != nil {
		return nil, s.fail("get profile by email", err)
	}
	return &p, nil
}

func (s *Store) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.GetContext(ctx, &p, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	if err != nil {
		return nil, s.fail("get profile by id", err)
	}
	return &p, nil
}

// UpdateProfile writes the editable attributes. Counters only move through
// IncrementStat.
func (s *Store) UpdateProfile(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	query := `UPDATE profiles SET name = $1, face_shape = $2, skin_tone = $3, photo_url = $4,
		analysis_confidence = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + profileColumns

	var updated models.Profile
	err := s.db.QueryRowxContext(ctx, query,
		p.Name, p.FaceShape, p.SkinTone, p.PhotoURL, p.AnalysisConfidence, p.ID,
	).StructScan(&updated)
	if err != nil {
		return nil, s.fail("update profile", err)
	}
	return &updated, nil
}

// IncrementStat adds delta to a counter on the server and returns the new value.
func (s *Store) IncrementStat(ctx context.Context, profileID string, stat models.Stat, delta int) (int, error) {
	if !stat.Valid() {
		return 0, fmt.Errorf("increment stat: unknown stat %q", stat)
	}

	if s.rpc != nil {
		value, err := s.rpc.IncrementStat(ctx, profileID, stat, delta)
		if err != nil {
			return 0, s.fail("increment stat", err)
		}
		return value, nil
	}

	// stat is whitelisted above so it is safe to use as a column name
	query := fmt.Sprintf(`UPDATE profiles SET %[1]s = %[1]s + $1, updated_at = NOW()
		WHERE id = $2 RETURNING %[1]s`, stat)

	var value int
	if err := s.db.QueryRowxContext(ctx, query, delta, profileID).Scan(&value); err != nil {
		return 0, s.fail("increment stat", err)
	}
	return value, nil
}

// UploadImage stores an image under <profileID>/<folder>/ and returns its URL.
func (s *Store) UploadImage(ctx context.Context, profileID, folder string, data []byte, contentType string) (string, error) {
	url, err := s.blobs.StoreFromBytes(ctx, storage.ObjectKey(profileID, folder, contentType), data, contentType)
	if err != nil {
		return "", s.fail("upload image", err)
	}
	return url, nil
}

// deleteImage removes an uploaded image once its row is gone. A failure only
// leaves an orphaned object, so it is logged and not returned.
func deleteImage(ctx context.Context, blobs storage.Storage, logger *slog.Logger, url string) {
	if url == "" || blobs == nil {
		return
	}
	if err := blobs.Delete(ctx, url); err != nil {
		logger.Warn("Could not delete image", "url", url, "error", err)
	}
}
