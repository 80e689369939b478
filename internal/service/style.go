package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/illegalcall/glow-up/internal/ai"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/profile"
)

// ClosetItemInput adds a garment either from a photo or from a picked
// category, color and subtype. Fields given explicitly win over the analysis.
type ClosetItemInput struct {
	Category    models.ClosetCategory
	Color       string
	Description string
	Photo       *ai.Image
}

type ClosetItemResult struct {
	Item   *models.ClosetItem `json:"item"`
	Source ai.Source          `json:"source,omitempty"`
}

func (s *Service) AddClosetItem(ctx context.Context, store *profile.Store, in ClosetItemInput) (*ClosetItemResult, error) {
	if in.Photo == nil {
		if !in.Category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
		}
		if strings.TrimSpace(in.Color) == "" {
			return nil, fmt.Errorf("%w: color is required", ErrValidation)
		}
	} else if len(in.Photo.Data) == 0 {
		return nil, fmt.Errorf("%w: photo is empty", ErrValidation)
	}
	p, err := owner(store)
	if err != nil {
		return nil, err
	}

	item := &models.ClosetItem{
		ProfileID:   p.ID,
		Category:    in.Category,
		Color:       strings.TrimSpace(in.Color),
		Description: strings.TrimSpace(in.Description),
	}
	result := &ClosetItemResult{Item: item}

	if in.Photo != nil {
		url, err := s.repo.UploadImage(ctx, p.ID, "closet", in.Photo.Data, in.Photo.MIMEType)
		if err != nil {
			s.logger.Warn("Closet photo upload failed", "error", err)
		}
		item.ImageURL = url

		analysis, source := s.ai.AnalyzeClosetItem(ctx, *in.Photo)
		result.Source = source
		if !item.Category.Valid() {
			item.Category = analysis.Category
		}
		if item.Color == "" {
			item.Color = analysis.Color
		}
		if item.Description == "" {
			item.Description = analysis.Description
		}
	}
	if item.Description == "" {
		item.Description = models.ClosetSubtypes[item.Category][0]
	}

	saved, err := s.repo.AddClosetItem(ctx, item)
	if err != nil {
		return nil, err
	}
	result.Item = saved
	return result, nil
}

func (s *Service) ClosetItems(ctx context.Context, store *profile.Store) ([]models.ClosetItem, error) {
	p, err := owner(store)
	if err != nil {
		return []models.ClosetItem{}, err
	}
	return s.repo.GetClosetItems(ctx, p.ID)
}

// DeleteClosetItem is idempotent.
func (s *Service) DeleteClosetItem(ctx context.Context, store *profile.Store, id string) error {
	p, err := owner(store)
	if err != nil {
		return err
	}
	return s.repo.DeleteClosetItem(ctx, p.ID, id)
}

type OutfitResult struct {
	Outfit *models.Outfit `json:"outfit"`
	Source ai.Source      `json:"source"`
	Saved  bool           `json:"saved"`
}

const recentOutfits = 5

// GenerateOutfit builds one look from the closet with a single AI call, saves
// it and counts it as a created look and a check-in.
func (s *Service) GenerateOutfit(ctx context.Context, store *profile.Store, occasion models.Occasion) (*OutfitResult, error) {
	if !occasion.Valid() {
		return nil, fmt.Errorf("%w: unknown occasion %q", ErrValidation, occasion)
	}
	p, err := owner(store)
	if err != nil {
		return nil, err
	}

	closet, err := s.repo.GetClosetItems(ctx, p.ID)
	if err != nil {
		// a failed read must not be reported as an empty closet
		return nil, err
	}
	if len(closet) == 0 {
		return nil, ErrClosetEmpty
	}
	recent, _ := s.repo.GetOutfits(ctx, p.ID, recentOutfits)

	suggestion, source := s.ai.GenerateOutfit(ctx, ai.OutfitInput{
		Occasion:  occasion,
		Closet:    closet,
		FaceShape: p.FaceShape,
		SkinTone:  p.SkinTone,
		Recent:    recent,
	})

	outfit := &models.Outfit{
		ProfileID:   p.ID,
		Occasion:    occasion,
		Top:         suggestion.Top,
		Bottom:      suggestion.Bottom,
		Shoes:       suggestion.Shoes,
		Accessories: pq.StringArray(suggestion.Accessories),
		Makeup:      suggestion.Makeup,
		Hair:        suggestion.Hair,
		Reasoning:   suggestion.Reasoning,
	}

	result := &OutfitResult{Outfit: outfit, Source: source}
	if saved, err := s.repo.SaveOutfit(ctx, outfit); err == nil {
		result.Outfit = saved
		result.Saved = true
	}

	s.bump(ctx, store, models.StatLooksCreated, models.StatCheckIns)
	return result, nil
}

func (s *Service) Outfits(ctx context.Context, store *profile.Store, limit int) ([]models.Outfit, error) {
	p, err := owner(store)
	if err != nil {
		return []models.Outfit{}, err
	}
	return s.repo.GetOutfits(ctx, p.ID, limit)
}

func (s *Service) SetOutfitFavorite(ctx context.Context, store *profile.Store, id string, favorite bool) (*models.Outfit, error) {
	p, err := owner(store)
	if err != nil {
		return nil, err
	}
	return s.repo.SetOutfitFavorite(ctx, p.ID, id, favorite)
}

func (s *Service) DeleteOutfit(ctx context.Context, store *profile.Store, id string) error {
	p, err := owner(store)
	if err != nil {
		return err
	}
	return s.repo.DeleteOutfit(ctx, p.ID, id)
}

// PlanOutfit puts one of the profile's saved outfits on a date, replacing any
// earlier plan. Outfits of other profiles are reported as datastore.ErrNotFound.
func (s *Service) PlanOutfit(ctx context.Context, store *profile.Store, outfitID, date string) (*models.WeeklyPlanEntry, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: plan date must be YYYY-MM-DD", ErrValidation)
	}
	if strings.TrimSpace(outfitID) == "" {
		return nil, fmt.Errorf("%w: outfit is required", ErrValidation)
	}
	p, err := owner(store)
	if err != nil {
		return nil, err
	}

	return s.repo.SetWeeklyPlanEntry(ctx, &models.WeeklyPlanEntry{
		ProfileID: p.ID,
		OutfitID:  outfitID,
		PlanDate:  date,
		DayOfWeek: day.Weekday().String(),
	})
}

// WeekPlan returns the seven days starting at from, today when empty.
func (s *Service) WeekPlan(ctx context.Context, store *profile.Store, from string) ([]models.WeeklyPlanEntry, error) {
	start := s.now()
	if from != "" {
		var err error
		if start, err = time.Parse(models.DateLayout, from); err != nil {
			return []models.WeeklyPlanEntry{}, fmt.Errorf("%w: from must be YYYY-MM-DD", ErrValidation)
		}
	}
	p, err := owner(store)
	if err != nil {
		return []models.WeeklyPlanEntry{}, err
	}
	return s.repo.GetWeeklyPlan(ctx, p.ID, start.Format(models.DateLayout), start.AddDate(0, 0, 6).Format(models.DateLayout))
}

func (s *Service) UnplanDate(ctx context.Context, store *profile.Store, date string) error {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("%w: plan date must be YYYY-MM-DD", ErrValidation)
	}
	p, err := owner(store)
	if err != nil {
		return err
	}
	return s.repo.DeleteWeeklyPlanEntry(ctx, p.ID, date)
}
