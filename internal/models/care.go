package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// DateLayout is the calendar-date format used for natural keys.
const DateLayout = "2006-01-02"

// SkinCheckIn holds the answers of the daily skin questionnaire.
type SkinCheckIn struct {
	Hydration   int      `json:"hydration"`   // 1-5
	Oiliness    int      `json:"oiliness"`    // 1-5
	Sensitivity int      `json:"sensitivity"` // 1-5
	Breakouts   bool     `json:"breakouts"`
	Concerns    []string `json:"concerns,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// SkincareRoutine is the one-per-day skincare record.
type SkincareRoutine struct {
	ID              string         `json:"id" db:"id"`
	ProfileID       string         `json:"profile_id" db:"profile_id"`
	RoutineDate     string         `json:"routine_date" db:"routine_date"`
	SkinCondition   types.JSONText `json:"skin_condition" db:"skin_condition"`
	MorningSteps    types.JSONText `json:"morning_steps" db:"morning_steps"`
	EveningSteps    types.JSONText `json:"evening_steps" db:"evening_steps"`
	Recommendations string         `json:"recommendations" db:"recommendations"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// HairCheckIn is one entry in the rolling hair log.
type HairCheckIn struct {
	ID              string         `json:"id" db:"id"`
	ProfileID       string         `json:"profile_id" db:"profile_id"`
	HairCondition   string         `json:"hair_condition" db:"hair_condition"`
	Concerns        pq.StringArray `json:"concerns" db:"concerns"`
	Recommendations string         `json:"recommendations" db:"recommendations"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// HaircutRecommendation records the haircut guide shown for a face shape.
type HaircutRecommendation struct {
	ID        string         `json:"id" db:"id"`
	ProfileID string         `json:"profile_id" db:"profile_id"`
	FaceShape FaceShape      `json:"face_shape" db:"face_shape"`
	Styles    pq.StringArray `json:"styles" db:"styles"`
	Tips      string         `json:"tips" db:"tips"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// Reminder is a toggleable daily nudge. There is no recurrence engine.
type Reminder struct {
	ID            string    `json:"id" db:"id"`
	ProfileID     string    `json:"profile_id" db:"profile_id"`
	Type          string    `json:"type" db:"type"`
	Title         string    `json:"title" db:"title"`
	Message       string    `json:"message" db:"message"`
	ScheduledTime string    `json:"scheduled_time" db:"scheduled_time"` // HH:MM
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

var ReminderTypes = []string{"skincare", "hair", "outfit", "hydration", "custom"}
