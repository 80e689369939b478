package ai

import "github.com/illegalcall/glow-up/internal/models"

// HaircutGuide is the static haircut advice for a face shape.
type HaircutGuide struct {
	FaceShape models.FaceShape `json:"face_shape"`
	Styles    []string         `json:"styles"`
	Avoid     []string         `json:"avoid"`
	Tips      string           `json:"tips"`
}

var haircutGuides = map[models.FaceShape]HaircutGuide{
	models.FaceShapeOval: {
		Styles: []string{"Long layers", "Blunt bob", "Curtain bangs", "Pixie cut"},
		Avoid:  []string{"Heavy bangs that hide your balanced proportions"},
		Tips:   "Oval faces suit almost any cut. Play with length and texture freely.",
	},
	models.FaceShapeRound: {
		Styles: []string{"Long layers below the chin", "Side-swept bangs", "Asymmetrical lob", "High ponytail"},
		Avoid:  []string{"Chin-length bobs", "Blunt straight-across bangs"},
		Tips:   "Add height at the crown and length past the chin to elongate the face.",
	},
	models.FaceShapeSquare: {
		Styles: []string{"Soft waves", "Side part with layers", "Wispy bangs", "Shoulder-length shag"},
		Avoid:  []string{"Sharp geometric bobs at the jawline"},
		Tips:   "Soft, textured layers around the jaw balance strong angles.",
	},
	models.FaceShapeHeart: {
		Styles: []string{"Chin-length bob", "Side-swept bangs", "Lob with volume at the ends", "Loose curls"},
		Avoid:  []string{"Too much volume at the crown"},
		Tips:   "Build fullness near the chin to balance a wider forehead.",
	},
	models.FaceShapeLong: {
		Styles: []string{"Blunt bangs", "Shoulder-length waves", "Layered bob", "Curtain bangs"},
		Avoid:  []string{"Very long straight hair without layers", "Height at the crown"},
		Tips:   "Add width at the sides and use bangs to shorten the face visually.",
	},
}

// HaircutTips looks up the haircut guide for a face shape. Unknown shapes
// get the oval guide.
func HaircutTips(shape models.FaceShape) HaircutGuide {
	guide, ok := haircutGuides[shape]
	if !ok {
		shape = models.FaceShapeOval
		guide = haircutGuides[shape]
	}
	guide.FaceShape = shape
	guide.Styles = append([]string(nil), guide.Styles...)
	guide.Avoid = append([]string(nil), guide.Avoid...)
	return guide
}
