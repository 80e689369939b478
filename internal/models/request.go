package models

// LoginRequest carries the credentials for register and login.
// Password is required, and checked, only when the auth service is configured.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Name     string `json:"name,omitempty" example:"Ava"`
	Password string `json:"password,omitempty" example:"password123"`
}

type LoginResponse struct {
	Token   string   `json:"token"`
	Profile *Profile `json:"profile"`
	Synced  bool     `json:"synced"`
}

type StatsRequest struct {
	GlowDays     *int `json:"glow_days,omitempty"`
	CheckIns     *int `json:"check_ins,omitempty"`
	LooksCreated *int `json:"looks_created,omitempty"`
}

type ProfileUpdateRequest struct {
	Name      *string    `json:"name,omitempty"`
	FaceShape *FaceShape `json:"face_shape,omitempty"`
	SkinTone  *SkinTone  `json:"skin_tone,omitempty"`
	PhotoURL  *string    `json:"photo_url,omitempty"`
}

// ImageRequest carries a base64 encoded photo, with or without a data URL prefix.
type ImageRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mime_type,omitempty"`
	Async    bool   `json:"async,omitempty"`
}

type ClosetItemRequest struct {
	ImageRequest
	Category    ClosetCategory `json:"category,omitempty"`
	Color       string         `json:"color,omitempty"`
	Description string         `json:"description,omitempty"`
}

type HairCheckInRequest struct {
	HairCondition string   `json:"hair_condition"`
	Concerns      []string `json:"concerns"`
}

type OutfitRequest struct {
	Occasion Occasion `json:"occasion"`
}

type FavoriteRequest struct {
	IsFavorite bool `json:"is_favorite"`
}

type ReminderRequest struct {
	Type          string `json:"type"`
	Title         string `json:"title"`
	Message       string `json:"message"`
	ScheduledTime string `json:"scheduled_time"`
}

type ReminderToggleRequest struct {
	IsActive bool `json:"is_active"`
}

type PlanRequest struct {
	OutfitID string `json:"outfit_id"`
	PlanDate string `json:"plan_date"`
}
