package datastore

import (
	"context"

	"github.com/illegalcall/glow-up/internal/models"
)

const reminderColumns = `id, profile_id, type, title, message, scheduled_time, is_active, created_at`

func (s *Store) CreateReminder(ctx context.Context, r *models.Reminder) (*models.Reminder, error) {
	query := `INSERT INTO reminders (profile_id, type, title, message, scheduled_time, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + reminderColumns

	var saved models.Reminder
	err := s.db.QueryRowxContext(ctx, query,
		r.ProfileID, r.Type, r.Title, r.Message, r.ScheduledTime, r.IsActive,
	).StructScan(&saved)
	if err != nil {
		return nil, s.fail("create reminder", err)
	}
	return &saved, nil
}

// GetReminders returns reminders in time-of-day order.
func (s *Store) GetReminders(ctx context.Context, profileID string) ([]models.Reminder, error) {
	reminders := []models.Reminder{}
	err := s.db.SelectContext(ctx, &reminders, `SELECT `+reminderColumns+` FROM reminders
		WHERE profile_id = $1 ORDER BY scheduled_time ASC`, profileID)
	if err != nil {
		return []models.Reminder{}, s.fail("get reminders", err)
	}
	return reminders, nil
}

func (s *Store) SetReminderActive(ctx context.Context, profileID, id string, active bool) (*models.Reminder, error) {
	var r models.Reminder
	err := s.db.QueryRowxContext(ctx, `UPDATE reminders SET is_active = $1
		WHERE id = $2 AND profile_id = $3
		RETURNING `+reminderColumns, active, id, profileID).StructScan(&r)
	if err != nil {
		return nil, s.fail("set reminder active", err)
	}
	return &r, nil
}

func (s *Store) DeleteReminder(ctx context.Context, profileID, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1 AND profile_id = $2`, id, profileID); err != nil {
		return s.fail("delete reminder", err)
	}
	return nil
}
