package models

import (
	"time"

	"github.com/lib/pq"
)

// ClosetCategory is the closed set of garment categories.
type ClosetCategory string

const (
	CategoryTops        ClosetCategory = "tops"
	CategoryBottoms     ClosetCategory = "bottoms"
	CategoryDresses     ClosetCategory = "dresses"
	CategoryOuterwear   ClosetCategory = "outerwear"
	CategoryShoes       ClosetCategory = "shoes"
	CategoryAccessories ClosetCategory = "accessories"
	CategoryBags        ClosetCategory = "bags"
)

var ClosetCategories = []ClosetCategory{
	CategoryTops, CategoryBottoms, CategoryDresses, CategoryOuterwear,
	CategoryShoes, CategoryAccessories, CategoryBags,
}

func (c ClosetCategory) Valid() bool {
	for _, cat := range ClosetCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// ClosetSubtypes are the predefined garment subtypes a user can pick from
// instead of uploading a photo.
var ClosetSubtypes = map[ClosetCategory][]string{
	CategoryTops:        {"t-shirt", "blouse", "shirt", "sweater", "tank top", "crop top"},
	CategoryBottoms:     {"jeans", "trousers", "skirt", "shorts", "leggings"},
	CategoryDresses:     {"maxi dress", "midi dress", "mini dress", "slip dress"},
	CategoryOuterwear:   {"blazer", "denim jacket", "trench coat", "cardigan", "leather jacket"},
	CategoryShoes:       {"sneakers", "heels", "loafers", "boots", "sandals", "flats"},
	CategoryAccessories: {"necklace", "earrings", "belt", "scarf", "sunglasses", "watch"},
	CategoryBags:        {"tote", "clutch", "crossbody", "backpack"},
}

// ClosetItem is a single garment or accessory owned by a profile.
type ClosetItem struct {
	ID          string         `json:"id" db:"id"`
	ProfileID   string         `json:"profile_id" db:"profile_id"`
	Category    ClosetCategory `json:"category" db:"category"`
	Color       string         `json:"color" db:"color"`
	Description string         `json:"description" db:"description"`
	ImageURL    string         `json:"image_url" db:"image_url"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// Occasion selects the kind of outfit to compose.
type Occasion string

const (
	OccasionCasual Occasion = "casual"
	OccasionFormal Occasion = "formal"
	OccasionParty  Occasion = "party"
)

func (o Occasion) Valid() bool {
	switch o {
	case OccasionCasual, OccasionFormal, OccasionParty:
		return true
	}
	return false
}

// Outfit is a saved look. Only IsFavorite changes after creation.
type Outfit struct {
	ID          string         `json:"id" db:"id"`
	ProfileID   string         `json:"profile_id" db:"profile_id"`
	Occasion    Occasion       `json:"occasion" db:"occasion"`
	Top         string         `json:"top" db:"top"`
	Bottom      string         `json:"bottom" db:"bottom"`
	Shoes       string         `json:"shoes" db:"shoes"`
	Accessories pq.StringArray `json:"accessories" db:"accessories"`
	Makeup      string         `json:"makeup" db:"makeup"`
	Hair        string         `json:"hair" db:"hair"`
	Reasoning   string         `json:"reasoning" db:"reasoning"`
	IsFavorite  bool           `json:"is_favorite" db:"is_favorite"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// WeeklyPlanEntry assigns one saved outfit to one calendar date.
type WeeklyPlanEntry struct {
	ID        string    `json:"id" db:"id"`
	ProfileID string    `json:"profile_id" db:"profile_id"`
	OutfitID  string    `json:"outfit_id" db:"outfit_id"`
	PlanDate  string    `json:"plan_date" db:"plan_date"` // YYYY-MM-DD
	DayOfWeek string    `json:"day_of_week" db:"day_of_week"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
