package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/illegalcall/glow-up/internal/models"
)

type ClosetItemAnalysis struct {
	Category    models.ClosetCategory `json:"category"`
	Color       string                `json:"color"`
	Description string                `json:"description"`
}

var closetSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"category":    {Type: genai.TypeString, Enum: categoryNames()},
		"color":       {Type: genai.TypeString},
		"description": {Type: genai.TypeString},
	},
	Required: []string{"category", "color", "description"},
}

func categoryNames() []string {
	names := make([]string, len(models.ClosetCategories))
	for i, c := range models.ClosetCategories {
		names[i] = string(c)
	}
	return names
}

var closetPrompt = fmt.Sprintf(`You are a fashion stylist cataloguing a wardrobe. Identify the single clothing item in this photo.
Category must be one of: %s.
Give its main color and a short description (for example "cropped denim jacket").

Return JSON with keys: category, color, description.
%s`, strings.Join(categoryNames(), ", "), jsonOnly)

// AnalyzeClosetItem categorizes a garment photo.
func (s *Service) AnalyzeClosetItem(ctx context.Context, img Image) (ClosetItemAnalysis, Source) {
	req := Request{
		Parts:  []Part{TextPart(closetPrompt), ImagePart(img.Data, img.MIMEType)},
		Schema: closetSchema,
	}
	return generate(ctx, s, "analyze_closet_item", req, normalizeClosetItem, s.simulateClosetItem)
}

func normalizeClosetItem(a *ClosetItemAnalysis) bool {
	a.Category = models.ClosetCategory(strings.ToLower(strings.TrimSpace(string(a.Category))))
	return a.Category.Valid() && strings.TrimSpace(a.Description) != ""
}

var simulatedColors = []string{"black", "white", "navy", "beige", "red", "olive", "pink", "denim blue"}

func (s *Service) simulateClosetItem() ClosetItemAnalysis {
	category := pick(s, models.ClosetCategories)
	color := pick(s, simulatedColors)
	return ClosetItemAnalysis{
		Category:    category,
		Color:       color,
		Description: color + " " + pick(s, models.ClosetSubtypes[category]),
	}
}

type OutfitInput struct {
	Occasion  models.Occasion
	Closet    []models.ClosetItem
	FaceShape models.FaceShape
	SkinTone  models.SkinTone
	Recent    []models.Outfit
}

type OutfitSuggestion struct {
	Top         string   `json:"top"`
	Bottom      string   `json:"bottom"`
	Shoes       string   `json:"shoes"`
	Accessories []string `json:"accessories"`
	Makeup      string   `json:"makeup"`
	Hair        string   `json:"hair"`
	Reasoning   string   `json:"reasoning"`
}

var outfitSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"top":         {Type: genai.TypeString},
		"bottom":      {Type: genai.TypeString},
		"shoes":       {Type: genai.TypeString},
		"accessories": stringList,
		"makeup":      {Type: genai.TypeString},
		"hair":        {Type: genai.TypeString},
		"reasoning":   {Type: genai.TypeString},
	},
	Required: []string{"top", "bottom", "shoes", "accessories"},
}

// GenerateOutfit composes a look for the occasion from the user's closet.
func (s *Service) GenerateOutfit(ctx context.Context, in OutfitInput) (OutfitSuggestion, Source) {
	var closet strings.Builder
	for _, item := range in.Closet {
		fmt.Fprintf(&closet, "- %s: %s %s\n", item.Category, item.Color, item.Description)
	}

	var recent strings.Builder
	for _, o := range in.Recent {
		fmt.Fprintf(&recent, "- %s / %s / %s\n", o.Top, o.Bottom, o.Shoes)
	}

	prompt := fmt.Sprintf(`You are a personal stylist. Create one %s outfit using ONLY items from this closet:
%s
The client has a %s face shape and a %s seasonal skin tone.
Avoid repeating these recent looks:
%s
Also suggest makeup and a hairstyle that complete the look, and explain your choice briefly.

Return JSON with keys: top, bottom, shoes, accessories (list), makeup, hair, reasoning.
If the look is a dress, put the dress in top and "none" in bottom.
%s`, in.Occasion, closet.String(), in.FaceShape, in.SkinTone, orDefault(recent.String(), "none\n"), jsonOnly)

	req := Request{Parts: []Part{TextPart(prompt)}, Schema: outfitSchema}
	defaults := s.simulateOutfit(in)
	normalize := func(o *OutfitSuggestion) bool {
		if strings.TrimSpace(o.Top) == "" {
			return false
		}
		fillOutfit(o, defaults)
		return true
	}
	return generate(ctx, s, "generate_outfit", req, normalize, func() OutfitSuggestion { return defaults })
}

// fillOutfit completes empty slots of o from defaults.
func fillOutfit(o *OutfitSuggestion, defaults OutfitSuggestion) {
	if strings.TrimSpace(o.Bottom) == "" {
		o.Bottom = defaults.Bottom
	}
	if strings.TrimSpace(o.Shoes) == "" {
		o.Shoes = defaults.Shoes
	}
	if len(o.Accessories) == 0 {
		o.Accessories = defaults.Accessories
	}
	if o.Makeup == "" {
		o.Makeup = defaults.Makeup
	}
	if o.Hair == "" {
		o.Hair = defaults.Hair
	}
}

var occasionDefaults = map[models.Occasion]OutfitSuggestion{
	models.OccasionCasual: {
		Top:         "white cotton t-shirt",
		Bottom:      "straight-leg jeans",
		Shoes:       "white sneakers",
		Accessories: []string{"crossbody bag", "gold hoops"},
		Makeup:      "Tinted moisturizer, cream blush and a clear brow gel.",
		Hair:        "Relaxed low ponytail.",
	},
	models.OccasionFormal: {
		Top:         "silk blouse",
		Bottom:      "tailored trousers",
		Shoes:       "pointed pumps",
		Accessories: []string{"structured tote", "pearl studs"},
		Makeup:      "Soft matte base, neutral eyeshadow and a rosy nude lip.",
		Hair:        "Sleek low bun.",
	},
	models.OccasionParty: {
		Top:         "satin cami",
		Bottom:      "black mini skirt",
		Shoes:       "strappy heels",
		Accessories: []string{"metallic clutch", "statement earrings"},
		Makeup:      "Winged liner, highlighted cheekbones and a bold lip.",
		Hair:        "Voluminous waves.",
	},
}

func (s *Service) simulateOutfit(in OutfitInput) OutfitSuggestion {
	base, ok := occasionDefaults[in.Occasion]
	if !ok {
		base = occasionDefaults[models.OccasionCasual]
	}
	out := base
	out.Accessories = nil

	byCategory := make(map[models.ClosetCategory][]models.ClosetItem)
	for _, item := range in.Closet {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}
	label := func(items []models.ClosetItem) string {
		item := pick(s, items)
		return strings.TrimSpace(item.Color + " " + item.Description)
	}

	usedCloset := false
	if dresses := byCategory[models.CategoryDresses]; len(dresses) > 0 && (len(byCategory[models.CategoryTops]) == 0 || in.Occasion != models.OccasionCasual) {
		out.Top = label(dresses)
		out.Bottom = "none"
		usedCloset = true
	} else if tops := byCategory[models.CategoryTops]; len(tops) > 0 {
		out.Top = label(tops)
		usedCloset = true
	}
	if bottoms := byCategory[models.CategoryBottoms]; len(bottoms) > 0 && out.Bottom != "none" {
		out.Bottom = label(bottoms)
		usedCloset = true
	}
	if shoes := byCategory[models.CategoryShoes]; len(shoes) > 0 {
		out.Shoes = label(shoes)
		usedCloset = true
	}
	for _, cat := range []models.ClosetCategory{models.CategoryAccessories, models.CategoryBags, models.CategoryOuterwear} {
		if items := byCategory[cat]; len(items) > 0 {
			out.Accessories = append(out.Accessories, label(items))
			usedCloset = true
		}
	}
	if len(out.Accessories) == 0 {
		out.Accessories = append([]string(nil), base.Accessories...)
	}

	if usedCloset {
		out.Reasoning = fmt.Sprintf("Built from your closet for a %s look that flatters a %s face and %s coloring.",
			orDefault(string(in.Occasion), "casual"), orDefault(string(in.FaceShape), "balanced"), orDefault(string(in.SkinTone), "your"))
	} else {
		out.Reasoning = fmt.Sprintf("A classic %s combination to build on as you add pieces to your closet.",
			orDefault(string(in.Occasion), "casual"))
	}
	return out
}
