package ai

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/illegalcall/glow-up/internal/models"
)

// Image is a photo passed inline to the model.
type Image struct {
	Data     []byte
	MIMEType string
}

type FaceAnalysis struct {
	FaceShape  models.FaceShape `json:"face_shape"`
	SkinTone   models.SkinTone  `json:"skin_tone"`
	Confidence int              `json:"confidence"`
	Undertone  string           `json:"undertone"`
	Features   []string         `json:"features"`
	BestColors []string         `json:"best_colors"`
}

var faceSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"face_shape":  {Type: genai.TypeString, Enum: faceShapeNames()},
		"skin_tone":   {Type: genai.TypeString, Enum: skinToneNames()},
		"confidence": {Type: genai.TypeInteger, Description: "0-100"},
		"undertone":  {Type: genai.TypeString, Enum: []string{"warm", "cool", "neutral"}},
		"features":   {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"best_colors": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"face_shape", "skin_tone", "confidence"},
}

func faceShapeNames() []string {
	names := make([]string, len(models.FaceShapes))
	for i, f := range models.FaceShapes {
		names[i] = string(f)
	}
	return names
}

func skinToneNames() []string {
	names := make([]string, len(models.SkinTones))
	for i, t := range models.SkinTones {
		names[i] = string(t)
	}
	return names
}

const facePrompt = `You are a professional beauty consultant. Analyze the face in this selfie.
Classify the face shape as one of: oval, round, square, heart, long.
Classify the seasonal skin tone as one of: spring, summer, autumn, winter.
Give your confidence as an integer from 0 to 100, the skin undertone (warm, cool or neutral),
up to three notable facial features and five flattering clothing colors.

Return JSON with keys: face_shape, skin_tone, confidence, undertone, features, best_colors.
` + jsonOnly

// AnalyzeFace classifies the face shape and skin tone of a selfie.
func (s *Service) AnalyzeFace(ctx context.Context, img Image) (FaceAnalysis, Source) {
	req := Request{
		Parts:  []Part{TextPart(facePrompt), ImagePart(img.Data, img.MIMEType)},
		Schema: faceSchema,
	}
	return generate(ctx, s, "analyze_face", req, normalizeFace, s.simulateFace)
}

func normalizeFace(f *FaceAnalysis) bool {
	f.FaceShape = models.FaceShape(strings.ToLower(strings.TrimSpace(string(f.FaceShape))))
	f.SkinTone = models.SkinTone(strings.ToLower(strings.TrimSpace(string(f.SkinTone))))
	if !f.FaceShape.Valid() || !f.SkinTone.Valid() {
		return false
	}
	f.Confidence = max(0, min(100, f.Confidence))
	if f.Features == nil {
		f.Features = []string{}
	}
	if len(f.BestColors) == 0 {
		f.BestColors = palette(f.SkinTone)
	}
	return true
}

var seasonPalettes = map[models.SkinTone][]string{
	models.SkinToneSpring: {"coral", "peach", "warm ivory", "golden yellow", "turquoise"},
	models.SkinToneSummer: {"lavender", "powder blue", "soft rose", "mauve", "cool grey"},
	models.SkinToneAutumn: {"olive", "rust", "mustard", "camel", "burnt orange"},
	models.SkinToneWinter: {"black", "pure white", "emerald", "royal blue", "fuchsia"},
}

var undertones = map[models.SkinTone]string{
	models.SkinToneSpring: "warm",
	models.SkinToneSummer: "cool",
	models.SkinToneAutumn: "warm",
	models.SkinToneWinter: "cool",
}

var simulatedFeatures = []string{
	"high cheekbones", "defined jawline", "balanced proportions", "soft chin",
	"wide-set eyes", "full lips", "strong brow line",
}

func (s *Service) simulateFace() FaceAnalysis {
	tone := pick(s, models.SkinTones)
	first := s.intn(len(simulatedFeatures))
	return FaceAnalysis{
		FaceShape:  pick(s, models.FaceShapes),
		SkinTone:   tone,
		Confidence: 85 + s.intn(15),
		Undertone:  undertones[tone],
		Features: []string{
			simulatedFeatures[first],
			simulatedFeatures[(first+1)%len(simulatedFeatures)],
		},
		BestColors: palette(tone),
	}
}

func palette(tone models.SkinTone) []string {
	return append([]string(nil), seasonPalettes[tone]...)
}
