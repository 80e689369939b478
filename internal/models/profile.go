package models

import (
	"time"
)

// FaceShape is the face classification produced by the selfie analysis.
type FaceShape string

const (
	FaceShapeOval   FaceShape = "oval"
	FaceShapeRound  FaceShape = "round"
	FaceShapeSquare FaceShape = "square"
	FaceShapeHeart  FaceShape = "heart"
	FaceShapeLong   FaceShape = "long"
)

// FaceShapes lists every valid face shape.
var FaceShapes = []FaceShape{FaceShapeOval, FaceShapeRound, FaceShapeSquare, FaceShapeHeart, FaceShapeLong}

func (f FaceShape) Valid() bool {
	for _, s := range FaceShapes {
		if f == s {
			return true
		}
	}
	return false
}

// SkinTone is the seasonal color classification of the user's skin.
type SkinTone string

const (
	SkinToneSpring SkinTone = "spring"
	SkinToneSummer SkinTone = "summer"
	SkinToneAutumn SkinTone = "autumn"
	SkinToneWinter SkinTone = "winter"
)

var SkinTones = []SkinTone{SkinToneSpring, SkinToneSummer, SkinToneAutumn, SkinToneWinter}

func (s SkinTone) Valid() bool {
	for _, t := range SkinTones {
		if s == t {
			return true
		}
	}
	return false
}

// Stat names a usage counter. The value is also the column name.
type Stat string

const (
	StatGlowDays     Stat = "glow_days"
	StatCheckIns     Stat = "check_ins"
	StatLooksCreated Stat = "looks_created"
)

var Stats = []Stat{StatGlowDays, StatCheckIns, StatLooksCreated}

func (s Stat) Valid() bool {
	switch s {
	case StatGlowDays, StatCheckIns, StatLooksCreated:
		return true
	}
	return false
}

// Profile is the persisted user record. ID is assigned by the data service
// on first creation and never changes afterwards.
type Profile struct {
	ID                 string    `json:"id" db:"id"`
	Email              string    `json:"email" db:"email"`
	Name               string    `json:"name" db:"name"`
	FaceShape          FaceShape `json:"face_shape" db:"face_shape"`
	SkinTone           SkinTone  `json:"skin_tone" db:"skin_tone"`
	PhotoURL           string    `json:"photo_url" db:"photo_url"`
	AnalysisConfidence int       `json:"analysis_confidence" db:"analysis_confidence"`
	GlowDays           int       `json:"glow_days" db:"glow_days"`
	CheckIns           int       `json:"check_ins" db:"check_ins"`
	LooksCreated       int       `json:"looks_created" db:"looks_created"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Stat returns the current value of a counter.
func (p *Profile) Stat(stat Stat) int {
	switch stat {
	case StatGlowDays:
		return p.GlowDays
	case StatCheckIns:
		return p.CheckIns
	case StatLooksCreated:
		return p.LooksCreated
	}
	return 0
}

// SetStat overwrites a counter.
func (p *Profile) SetStat(stat Stat, value int) {
	switch stat {
	case StatGlowDays:
		p.GlowDays = value
	case StatCheckIns:
		p.CheckIns = value
	case StatLooksCreated:
		p.LooksCreated = value
	}
}

// Clone returns a copy that can be mutated without touching p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
