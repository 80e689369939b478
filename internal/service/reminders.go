package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/profile"
)

type ReminderInput struct {
	Type          string
	Title         string
	Message       string
	ScheduledTime string
}

func (in ReminderInput) validate() error {
	if !slices.Contains(models.ReminderTypes, in.Type) {
		return fmt.Errorf("%w: reminder type must be one of %s", ErrValidation, strings.Join(models.ReminderTypes, ", "))
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if _, err := time.Parse("15:04", in.ScheduledTime); err != nil {
		return fmt.Errorf("%w: scheduled time must be HH:MM", ErrValidation)
	}
	return nil
}

func (s *Service) CreateReminder(ctx context.Context, store *profile.Store, in ReminderInput) (*models.Reminder, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := owner(store)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateReminder(ctx, &models.Reminder{
		ProfileID:     p.ID,
		Type:          in.Type,
		Title:         strings.TrimSpace(in.Title),
		Message:       in.Message,
		ScheduledTime: in.ScheduledTime,
		IsActive:      true,
	})
}

func (s *Service) Reminders(ctx context.Context, store *profile.Store) ([]models.Reminder, error) {
	p, err := owner(store)
	if err != nil {
		return []models.Reminder{}, err
	}
	return s.repo.GetReminders(ctx, p.ID)
}

func (s *Service) SetReminderActive(ctx context.Context, store *profile.Store, id string, active bool) (*models.Reminder, error) {
	p, err := owner(store)
	if err != nil {
		return nil, err
	}
	return s.repo.SetReminderActive(ctx, p.ID, id, active)
}

func (s *Service) DeleteReminder(ctx context.Context, store *profile.Store, id string) error {
	p, err := owner(store)
	if err != nil {
		return err
	}
	return s.repo.DeleteReminder(ctx, p.ID, id)
}
