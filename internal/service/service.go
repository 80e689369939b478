// Package service composes the data store, the AI layer and the profile
// store into the app's user flows.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/illegalcall/glow-up/internal/ai"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/profile"
)

var (
	// ErrClosetEmpty is returned when an outfit is requested without any
	// closet items to build it from.
	ErrClosetEmpty = errors.New("closet is empty")
	ErrValidation  = profile.ErrValidation
)

// Repository is the part of the data store the flows use.
type Repository interface {
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

	UploadImage(ctx context.Context, profileID, folder string, data []byte, contentType string) (string, error)
}

type Service struct {
	repo   Repository
	ai     *ai.Service
	logger *slog.Logger
	now    func() time.Time
}

func New(repo Repository, aiService *ai.Service, logger *slog.Logger) *Service {
	return &Service{repo: repo, ai: aiService, logger: logger, now: time.Now}
}

// AI exposes the AI layer for callers that run analyses outside a flow.
func (s *Service) AI() *ai.Service {
	return s.ai
}

func (s *Service) today() string {
	return s.now().Format(models.DateLayout)
}

// owner returns the profile of the session. Child rows need a server id.
func owner(store *profile.Store) (*models.Profile, error) {
	p := store.Profile()
	if p == nil {
		return nil, profile.ErrNoProfile
	}
	if p.ID == "" {
		return nil, profile.ErrLocalOnly
	}
	return p, nil
}

func (s *Service) bump(ctx context.Context, store *profile.Store, stats ...models.Stat) {
	outcome, err := store.Bump(ctx, stats...)
	if err != nil {
		s.logger.Warn("Failed to update stats", "stats", stats, "error", err)
		return
	}
	if !outcome.Synced {
		s.logger.Warn("Stats kept locally", "stats", stats, "error", outcome.Err)
	}
}

type OnboardingResult struct {
	Profile  *models.Profile `json:"profile"`
	Analysis ai.FaceAnalysis `json:"analysis"`
	Source   ai.Source       `json:"source"`
	Synced   bool            `json:"synced"`
}

// CompleteOnboarding stores the selfie, classifies it and records the result
// on the profile.
func (s *Service) CompleteOnboarding(ctx context.Context, store *profile.Store, selfie ai.Image) (*OnboardingResult, error) {
	if len(selfie.Data) == 0 {
		return nil, fmt.Errorf("%w: selfie is required", ErrValidation)
	}
	p := store.Profile()
	if p == nil {
		return nil, profile.ErrNoProfile
	}

	var photoURL string
	if p.ID != "" {
		url, err := s.repo.UploadImage(ctx, p.ID, "selfies", selfie.Data, selfie.MIMEType)
		if err != nil {
			s.logger.Warn("Selfie upload failed, continuing without photo", "error", err)
		}
		photoURL = url
	}

	analysis, source := s.ai.AnalyzeFace(ctx, selfie)

	changes := profile.Changes{
		FaceShape:          &analysis.FaceShape,
		SkinTone:           &analysis.SkinTone,
		AnalysisConfidence: &analysis.Confidence,
	}
	if photoURL != "" {
		changes.PhotoURL = &photoURL
	}
	outcome, err := store.Update(ctx, changes)
	if err != nil {
		return nil, err
	}
	s.bump(ctx, store, models.StatGlowDays)

	return &OnboardingResult{
		Profile:  store.Profile(),
		Analysis: analysis,
		Source:   source,
		Synced:   outcome.Synced,
	}, nil
}
