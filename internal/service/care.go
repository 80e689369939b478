package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/illegalcall/glow-up/internal/ai"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/profile"
)

// RoutineStep is one step of a routine and whether it was done today.
type RoutineStep struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

type SkinCheckIn struct {
	Answers     models.SkinCheckIn `json:"answers"`
	MorningDone []string           `json:"morning_done"`
	EveningDone []string           `json:"evening_done"`
}

func (c SkinCheckIn) validate() error {
	for name, v := range map[string]int{
		"hydration":   c.Answers.Hydration,
		"oiliness":    c.Answers.Oiliness,
		"sensitivity": c.Answers.Sensitivity,
	} {
		if v < 1 || v > 5 {
			return fmt.Errorf("%w: %s must be between 1 and 5", ErrValidation, name)
		}
	}
	return nil
}

type SkincareResult struct {
	Routine *models.SkincareRoutine `json:"routine"`
	Advice  ai.SkinAdvice           `json:"advice"`
	Source  ai.Source               `json:"source"`
	Saved   bool                    `json:"saved"`
}

// SkinCheckIn records today's skin answers with an AI routine. Checking in
// twice on one day replaces the earlier routine.
func (s *Service) SkinCheckIn(ctx context.Context, store *profile.Store, in SkinCheckIn) (*SkincareResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := owner(store)
	if err != nil {
		return nil, err
	}

	recent, _ := s.repo.GetSkincareRoutines(ctx, p.ID, 7)
	advice, source := s.ai.AnalyzeSkin(ctx, ai.SkinInput{Answers: in.Answers, SkinTone: p.SkinTone, Recent: recent})

	routine := &models.SkincareRoutine{
		ProfileID:       p.ID,
		RoutineDate:     s.today(),
		SkinCondition:   mustJSON(in.Answers),
		MorningSteps:    mustJSON(steps(advice.MorningRoutine, in.MorningDone)),
		EveningSteps:    mustJSON(steps(advice.EveningRoutine, in.EveningDone)),
		Recommendations: strings.TrimSpace(advice.Assessment + " " + strings.Join(advice.Tips, " ")),
	}

	result := &SkincareResult{Routine: routine, Advice: advice, Source: source}
	if saved, err := s.repo.SaveSkincareRoutine(ctx, routine); err == nil {
		result.Routine = saved
		result.Saved = true
	}

	s.bump(ctx, store, models.StatCheckIns)
	return result, nil
}

func steps(names, done []string) []RoutineStep {
	finished := make(map[string]bool, len(done))
	for _, d := range done {
		finished[strings.ToLower(d)] = true
	}
	out := make([]RoutineStep, len(names))
	for i, name := range names {
		out[i] = RoutineStep{Name: name, Done: finished[strings.ToLower(name)]}
	}
	return out
}

func mustJSON(v interface{}) types.JSONText {
	data, err := json.Marshal(v)
	if err != nil {
		return types.JSONText("null")
	}
	return types.JSONText(data)
}

// SkincareToday returns today's routine or datastore.ErrNotFound.
func (s *Service) SkincareToday(ctx context.Context, store *profile.Store) (*models.SkincareRoutine, error) {
	p, err := owner(store)
	if err != nil {
		return nil, err
	}
	return s.repo.GetSkincareRoutineForDate(ctx, p.ID, s.today())
}

func (s *Service) SkincareHistory(ctx context.Context, store *profile.Store, limit int) ([]models.SkincareRoutine, error) {
	p, err := owner(store)
	if err != nil {
		return []models.SkincareRoutine{}, err
	}
	return s.repo.GetSkincareRoutines(ctx, p.ID, limit)
}

type HairResult struct {
	CheckIn *models.HairCheckIn `json:"check_in"`
	Advice  ai.HairAdvice       `json:"advice"`
	Source  ai.Source           `json:"source"`
	Saved   bool                `json:"saved"`
}

// HairCheckIn logs the hair condition with AI care advice.
func (s *Service) HairCheckIn(ctx context.Context, store *profile.Store, condition string, concerns []string) (*HairResult, error) {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return nil, fmt.Errorf("%w: hair condition is required", ErrValidation)
	}
	p, err := owner(store)
	if err != nil {
		return nil, err
	}

	advice, source := s.ai.AnalyzeHair(ctx, ai.HairInput{Condition: condition, Concerns: concerns, FaceShape: p.FaceShape})

	checkIn := &models.HairCheckIn{
		ProfileID:       p.ID,
		HairCondition:   condition,
		Concerns:        pq.StringArray(concerns),
		Recommendations: strings.TrimSpace(advice.Assessment + " " + strings.Join(advice.Recommendations, " ")),
	}

	result := &HairResult{CheckIn: checkIn, Advice: advice, Source: source}
	if saved, err := s.repo.SaveHairCheckIn(ctx, checkIn); err == nil {
		result.CheckIn = saved
		result.Saved = true
	}

	s.bump(ctx, store, models.StatCheckIns)
	return result, nil
}

func (s *Service) HairHistory(ctx context.Context, store *profile.Store, limit int) ([]models.HairCheckIn, error) {
	p, err := owner(store)
	if err != nil {
		return []models.HairCheckIn{}, err
	}
	return s.repo.GetHairCheckIns(ctx, p.ID, limit)
}

// HaircutTips returns the guide for the profile's face shape and records
// that it was shown.
func (s *Service) HaircutTips(ctx context.Context, store *profile.Store) (ai.HaircutGuide, error) {
	p := store.Profile()
	if p == nil {
		return ai.HaircutGuide{}, profile.ErrNoProfile
	}
	if p.FaceShape == "" {
		return ai.HaircutGuide{}, fmt.Errorf("%w: complete onboarding to get a face shape first", ErrValidation)
	}

	guide := ai.HaircutTips(p.FaceShape)
	if p.ID != "" {
		_, err := s.repo.SaveHaircutRecommendation(ctx, &models.HaircutRecommendation{
			ProfileID: p.ID,
			FaceShape: guide.FaceShape,
			Styles:    pq.StringArray(guide.Styles),
			Tips:      guide.Tips,
		})
		if err != nil {
			s.logger.Warn("Failed to record haircut recommendation", "error", err)
		}
	}
	return guide, nil
}

func (s *Service) HaircutHistory(ctx context.Context, store *profile.Store) ([]models.HaircutRecommendation, error) {
	p, err := owner(store)
	if err != nil {
		return []models.HaircutRecommendation{}, err
	}
	return s.repo.GetHaircutRecommendations(ctx, p.ID)
}
