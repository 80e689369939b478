package datastore

import (
	"context"

	"github.com/illegalcall/glow-up/internal/models"
)

const skincareColumns = `id, profile_id, routine_date::text AS routine_date, skin_condition,
	morning_steps, evening_steps, recommendations, created_at`

// SaveSkincareRoutine upserts the routine for (profile, date).
func (s *Store) SaveSkincareRoutine(ctx context.Context, r *models.SkincareRoutine) (*models.SkincareRoutine, error) {
	query := `INSERT INTO skincare_routines (profile_id, routine_date, skin_condition, morning_steps,
		evening_steps, recommendations)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (profile_id, routine_date) DO UPDATE SET
			skin_condition = EXCLUDED.skin_condition,
			morning_steps = EXCLUDED.morning_steps,
			evening_steps = EXCLUDED.evening_steps,
			recommendations = EXCLUDED.recommendations
		RETURNING ` + skincareColumns

	var saved models.SkincareRoutine
	err := s.db.QueryRowxContext(ctx, query,
		r.ProfileID, r.RoutineDate, jsonOrEmpty(r.SkinCondition, "{}"),
		jsonOrEmpty(r.MorningSteps, "[]"), jsonOrEmpty(r.EveningSteps, "[]"), r.Recommendations,
	).StructScan(&saved)
	if err != nil {
		return nil, s.fail("save skincare routine", err)
	}
	return &saved, nil
}

// GetSkincareRoutines returns the latest routines, most recent date first.
func (s *Store) GetSkincareRoutines(ctx context.Context, profileID string, limit int) ([]models.SkincareRoutine, error) {
	routines := []models.SkincareRoutine{}
	err := s.db.SelectContext(ctx, &routines, `SELECT `+skincareColumns+` FROM skincare_routines
		WHERE profile_id = $1 ORDER BY routine_date DESC LIMIT $2`, profileID, limitOrDefault(limit))
	if err != nil {
		return []models.SkincareRoutine{}, s.fail("get skincare routines", err)
	}
	return routines, nil
}

func (s *Store) GetSkincareRoutineForDate(ctx context.Context, profileID, date string) (*models.SkincareRoutine, error) {
	var r models.SkincareRoutine
	err := s.db.GetContext(ctx, &r, `SELECT `+skincareColumns+` FROM skincare_routines
		WHERE profile_id = $1 AND routine_date = $2`, profileID, date)
	if err != nil {
		return nil, s.fail("get skincare routine for date", err)
	}
	return &r, nil
}

const hairCheckInColumns = `id, profile_id, hair_condition, concerns, recommendations, created_at`

func (s *Store) SaveHairCheckIn(ctx context.Context, c *models.HairCheckIn) (*models.HairCheckIn, error) {
	query := `INSERT INTO hair_check_ins (profile_id, hair_condition, concerns, recommendations)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + hairCheckInColumns

	var saved models.HairCheckIn
	err := s.db.QueryRowxContext(ctx, query,
		c.ProfileID, c.HairCondition, nonNil(c.Concerns), c.Recommendations,
	).StructScan(&saved)
	if err != nil {
		return nil, s.fail("save hair check-in", err)
	}
	return &saved, nil
}

func (s *Store) GetHairCheckIns(ctx context.Context, profileID string, limit int) ([]models.HairCheckIn, error) {
	checkIns := []models.HairCheckIn{}
	err := s.db.SelectContext(ctx, &checkIns, `SELECT `+hairCheckInColumns+` FROM hair_check_ins
		WHERE profile_id = $1 ORDER BY created_at DESC LIMIT $2`, profileID, limitOrDefault(limit))
	if err != nil {
		return []models.HairCheckIn{}, s.fail("get hair check-ins", err)
	}
	return checkIns, nil
}

const haircutColumns = `id, profile_id, face_shape, styles, tips, created_at`

func (s *Store) SaveHaircutRecommendation(ctx context.Context, r *models.HaircutRecommendation) (*models.HaircutRecommendation, error) {
	query := `INSERT INTO haircut_recommendations (profile_id, face_shape, styles, tips)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + haircutColumns

	var saved models.HaircutRecommendation
	err := s.db.QueryRowxContext(ctx, query, r.ProfileID, r.FaceShape, nonNil(r.Styles), r.Tips).StructScan(&saved)
	if err != nil {
		return nil, s.fail("save haircut recommendation", err)
	}
	return &saved, nil
}

func (s *Store) GetHaircutRecommendations(ctx context.Context, profileID string) ([]models.HaircutRecommendation, error) {
	recs := []models.HaircutRecommendation{}
	err := s.db.SelectContext(ctx, &recs, `SELECT `+haircutColumns+` FROM haircut_recommendations
		WHERE profile_id = $1 ORDER BY created_at DESC`, profileID)
	if err != nil {
		return []models.HaircutRecommendation{}, s.fail("get haircut recommendations", err)
	}
	return recs, nil
}
