package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/illegalcall/glow-up/internal/models"
)

type SkinInput struct {
	Answers  models.SkinCheckIn
	SkinTone models.SkinTone
	Recent   []models.SkincareRoutine
}

type SkinAdvice struct {
	Assessment     string   `json:"assessment"`
	MorningRoutine []string `json:"morning_routine"`
	EveningRoutine []string `json:"evening_routine"`
	Tips           []string `json:"tips"`
}

var stringList = &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}

var skinSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"assessment":     {Type: genai.TypeString},
		"morning_routine": stringList,
		"evening_routine": stringList,
		"tips":           stringList,
	},
	Required: []string{"assessment", "morning_routine", "evening_routine"},
}

// AnalyzeSkin turns today's skin check-in into a routine recommendation.
func (s *Service) AnalyzeSkin(ctx context.Context, in SkinInput) (SkinAdvice, Source) {
	a := in.Answers
	prompt := fmt.Sprintf(`You are a skincare expert. Based on today's check-in, recommend a skincare routine.

Hydration (1-5): %d
Oiliness (1-5): %d
Sensitivity (1-5): %d
Breakouts: %t
Concerns: %s
Notes: %s
Seasonal skin tone: %s
Check-ins in the last days: %d

Return JSON with keys: assessment (one or two sentences), morning_routine (ordered steps),
evening_routine (ordered steps), tips (up to three).
%s`, a.Hydration, a.Oiliness, a.Sensitivity, a.Breakouts, joinOrNone(a.Concerns), a.Notes,
		in.SkinTone, len(in.Recent), jsonOnly)

	req := Request{Parts: []Part{TextPart(prompt)}, Schema: skinSchema}
	return generate(ctx, s, "analyze_skin", req, normalizeSkin, func() SkinAdvice { return s.simulateSkin(a) })
}

func normalizeSkin(a *SkinAdvice) bool {
	if len(a.MorningRoutine) == 0 || len(a.EveningRoutine) == 0 {
		return false
	}
	if a.Tips == nil {
		a.Tips = []string{}
	}
	return true
}

func (s *Service) simulateSkin(a models.SkinCheckIn) SkinAdvice {
	advice := SkinAdvice{
		MorningRoutine: []string{"Gentle cleanser", "Hydrating toner", "Lightweight moisturizer", "SPF 30+ sunscreen"},
		EveningRoutine: []string{"Cleansing balm", "Gentle cleanser", "Treatment serum", "Night cream"},
		Tips:           []string{},
	}

	switch {
	case a.Hydration > 0 && a.Hydration <= 2:
		advice.Assessment = "Your skin is feeling dehydrated today, so focus on layering hydration."
		advice.MorningRoutine[2] = "Hyaluronic acid serum followed by a rich moisturizer"
		advice.Tips = append(advice.Tips, "Drink an extra glass of water and skip hot showers.")
	case a.Oiliness >= 4:
		advice.Assessment = "Your skin is producing extra oil, so keep textures light and balancing."
		advice.MorningRoutine[2] = "Oil-free gel moisturizer"
		advice.Tips = append(advice.Tips, "Use blotting papers instead of reapplying powder.")
	default:
		advice.Assessment = "Your skin looks balanced today. Keep your routine consistent."
	}

	if a.Breakouts {
		advice.EveningRoutine[2] = "Salicylic acid spot treatment"
		advice.Tips = append(advice.Tips, "Avoid touching your face and change your pillowcase.")
	}
	if a.Sensitivity >= 4 {
		advice.EveningRoutine[2] = "Soothing centella or niacinamide serum"
		advice.Tips = append(advice.Tips, "Patch test new products and skip exfoliants today.")
	}
	if len(advice.Tips) == 0 {
		advice.Tips = append(advice.Tips, pick(s, generalSkinTips))
	}
	return advice
}

var generalSkinTips = []string{
	"Reapply sunscreen every two hours when outdoors.",
	"Sleep on a silk pillowcase to reduce friction.",
	"Exfoliate no more than twice a week.",
	"Give new products four weeks before judging results.",
}

type HairInput struct {
	Condition string
	Concerns  []string
	FaceShape models.FaceShape
}

type HairAdvice struct {
	Assessment      string   `json:"assessment"`
	Recommendations []string `json:"recommendations"`
	Products        []string `json:"products"`
}

var hairSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"assessment":      {Type: genai.TypeString},
		"recommendations": stringList,
		"products":        stringList,
	},
	Required: []string{"assessment", "recommendations"},
}

// AnalyzeHair gives care advice for a hair check-in.
func (s *Service) AnalyzeHair(ctx context.Context, in HairInput) (HairAdvice, Source) {
	prompt := fmt.Sprintf(`You are a professional hair stylist. Give hair care advice for this check-in.

Hair condition: %s
Concerns: %s
Face shape: %s

Return JSON with keys: assessment (one or two sentences), recommendations (up to four),
products (up to three product types).
%s`, in.Condition, joinOrNone(in.Concerns), in.FaceShape, jsonOnly)

	req := Request{Parts: []Part{TextPart(prompt)}, Schema: hairSchema}
	return generate(ctx, s, "analyze_hair", req, normalizeHair, func() HairAdvice { return s.simulateHair(in) })
}

func normalizeHair(a *HairAdvice) bool {
	if len(a.Recommendations) == 0 {
		return false
	}
	if a.Products == nil {
		a.Products = []string{}
	}
	return true
}

var hairConcernAdvice = map[string]string{
	"frizz":      "Apply a leave-in conditioner to damp hair and air dry when you can.",
	"dryness":    "Use a weekly deep-conditioning mask and keep washes to every other day.",
	"oiliness":   "Switch to a clarifying shampoo once a week and avoid heavy oils at the roots.",
	"breakage":   "Lower the heat on styling tools and always use a heat protectant.",
	"dandruff":   "Alternate your shampoo with a zinc pyrithione formula.",
	"thinning":   "Massage your scalp for a few minutes daily to boost circulation.",
	"split ends": "Book a trim every 8 to 10 weeks.",
}

func (s *Service) simulateHair(in HairInput) HairAdvice {
	advice := HairAdvice{
		Assessment:      fmt.Sprintf("Your hair is feeling %s today.", strings.ToLower(orDefault(in.Condition, "normal"))),
		Recommendations: []string{},
		Products:        []string{"sulfate-free shampoo", "lightweight conditioner", "heat protectant spray"},
	}
	for _, c := range in.Concerns {
		if tip, ok := hairConcernAdvice[strings.ToLower(c)]; ok {
			advice.Recommendations = append(advice.Recommendations, tip)
		}
	}
	if len(advice.Recommendations) == 0 {
		advice.Recommendations = append(advice.Recommendations,
			"Keep up a gentle routine and rinse with cool water to add shine.")
	}
	return advice
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
