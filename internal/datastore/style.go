package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/illegalcall/glow-up/internal/models"
)

const outfitColumns = `id, profile_id, occasion, top, bottom, shoes, accessories, makeup, hair,
	reasoning, is_favorite, created_at`

func (s *Store) SaveOutfit(ctx context.Context, o *models.Outfit) (*models.Outfit, error) {
	query := `INSERT INTO outfits (profile_id, occasion, top, bottom, shoes, accessories, makeup, hair,
		reasoning, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + outfitColumns

	var saved models.Outfit
	err := s.db.QueryRowxContext(ctx, query,
		o.ProfileID, o.Occasion, o.Top, o.Bottom, o.Shoes, nonNil(o.Accessories),
		o.Makeup, o.Hair, o.Reasoning, o.IsFavorite,
	).StructScan(&saved)
	if err != nil {
		return nil, s.fail("save outfit", err)
	}
	return &saved, nil
}

// GetOutfits returns saved looks, newest first.
func (s *Store) GetOutfits(ctx context.Context, profileID string, limit int) ([]models.Outfit, error) {
	outfits := []models.Outfit{}
	err := s.db.SelectContext(ctx, &outfits, `SELECT `+outfitColumns+` FROM outfits
		WHERE profile_id = $1 ORDER BY created_at DESC LIMIT $2`, profileID, limitOrDefault(limit))
	if err != nil {
		return []models.Outfit{}, s.fail("get outfits", err)
	}
	return outfits, nil
}

func (s *Store) SetOutfitFavorite(ctx context.Context, profileID, id string, favorite bool) (*models.Outfit, error) {
	var o models.Outfit
	err := s.db.QueryRowxContext(ctx, `UPDATE outfits SET is_favorite = $1
		WHERE id = $2 AND profile_id = $3
		RETURNING `+outfitColumns, favorite, id, profileID).StructScan(&o)
	if err != nil {
		return nil, s.fail("set outfit favorite", err)
	}
	return &o, nil
}

func (s *Store) DeleteOutfit(ctx context.Context, profileID, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM outfits WHERE id = $1 AND profile_id = $2`, id, profileID); err != nil {
		return s.fail("delete outfit", err)
	}
	return nil
}

const closetColumns = `id, profile_id, category, color, description, image_url, created_at`

func (s *Store) AddClosetItem(ctx context.Context, item *models.ClosetItem) (*models.ClosetItem, error) {
	query := `INSERT INTO closet_items (profile_id, category, color, description, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + closetColumns

	var saved models.ClosetItem
	err := s.db.QueryRowxContext(ctx, query,
		item.ProfileID, item.Category, item.Color, item.Description, item.ImageURL,
	).StructScan(&saved)
	if err != nil {
		return nil, s.fail("add closet item", err)
	}
	return &saved, nil
}

func (s *Store) GetClosetItems(ctx context.Context, profileID string) ([]models.ClosetItem, error) {
	items := []models.ClosetItem{}
	err := s.db.SelectContext(ctx, &items, `SELECT `+closetColumns+` FROM closet_items
		WHERE profile_id = $1 ORDER BY created_at DESC`, profileID)
	if err != nil {
		return []models.ClosetItem{}, s.fail("get closet items", err)
	}
	return items, nil
}

// DeleteClosetItem succeeds whether or not the item exists. The item's
// image is removed from storage along with the row.
func (s *Store) DeleteClosetItem(ctx context.Context, profileID, id string) error {
	var imageURL string
	err := s.db.GetContext(ctx, &imageURL,
		`DELETE FROM closet_items WHERE id = $1 AND profile_id = $2 RETURNING image_url`, id, profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return s.fail("delete closet item", err)
	}
	deleteImage(ctx, s.blobs, s.logger, imageURL)
	return nil
}

const planColumns = `id, profile_id, outfit_id, plan_date::text AS plan_date, day_of_week, created_at`

// SetWeeklyPlanEntry replaces whatever was planned for the entry's date.
func (s *Store) SetWeeklyPlanEntry(ctx context.Context, e *models.WeeklyPlanEntry) (*models.WeeklyPlanEntry, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, s.fail("set weekly plan entry", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_planner WHERE profile_id = $1 AND plan_date = $2`,
		e.ProfileID, e.PlanDate); err != nil {
		return nil, s.fail("set weekly plan entry", fmt.Errorf("clearing date: %w", err))
	}

	// the outfit must belong to the same profile; no row means ErrNotFound
	var saved models.WeeklyPlanEntry
	err = tx.QueryRowxContext(ctx, `INSERT INTO weekly_planner (profile_id, outfit_id, plan_date, day_of_week)
		SELECT profile_id, id, $3, $4 FROM outfits WHERE id::text = $2 AND profile_id = $1
		RETURNING `+planColumns, e.ProfileID, e.OutfitID, e.PlanDate, e.DayOfWeek).StructScan(&saved)
	if err != nil {
		return nil, s.fail("set weekly plan entry", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, s.fail("set weekly plan entry", err)
	}
	return &saved, nil
}

// GetWeeklyPlan returns entries between from and to inclusive, in date order.
func (s *Store) GetWeeklyPlan(ctx context.Context, profileID, from, to string) ([]models.WeeklyPlanEntry, error) {
	entries := []models.WeeklyPlanEntry{}
	err := s.db.SelectContext(ctx, &entries, `SELECT `+planColumns+` FROM weekly_planner
		WHERE profile_id = $1 AND plan_date BETWEEN $2 AND $3
		ORDER BY plan_date ASC`, profileID, from, to)
	if err != nil {
		return []models.WeeklyPlanEntry{}, s.fail("get weekly plan", err)
	}
	return entries, nil
}

func (s *Store) DeleteWeeklyPlanEntry(ctx context.Context, profileID, date string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM weekly_planner WHERE profile_id = $1 AND plan_date = $2`,
		profileID, date); err != nil {
		return s.fail("delete weekly plan entry", err)
	}
	return nil
}
