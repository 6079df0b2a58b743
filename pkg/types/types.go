package types

import (
	"fmt"
	"image/color"
	"strings"
	"time"
)

// Element is one of the five phases
type Element string

const (
	Metal Element = "Metal"
	Wood  Element = "Wood"
	Water Element = "Water"
	Fire  Element = "Fire"
	Earth Element = "Earth"
)

// Elements lists the five phases in their conventional order
var Elements = []Element{Metal, Wood, Water, Fire, Earth}

var elementAliases = map[string]Element{
	"metal": Metal, "金": Metal,
	"wood": Wood, "木": Wood,
	"water": Water, "水": Water,
	"fire": Fire, "火": Fire,
	"earth": Earth, "土": Earth,
}

// ParseElement accepts an English element name in any case or its single-character form
func ParseElement(s string) (Element, error) {
	if e, ok := elementAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return e, nil
	}
	return "", fmt.Errorf("unknown element %q", s)
}

// Valid reports whether e belongs to the closed element set
func (e Element) Valid() bool {
	for _, known := range Elements {
		if e == known {
			return true
		}
	}
	return false
}

func (e Element) String() string { return string(e) }

// UnmarshalText lets YAML and JSON data refer to elements by any accepted alias
func (e *Element) UnmarshalText(b []byte) error {
	parsed, err := ParseElement(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// DetectionMethod tells which detector produced a Detection
type DetectionMethod string

const (
	MethodObject DetectionMethod = "object"
	MethodColor  DetectionMethod = "color"
)

// RGB is a dominant color sample
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBFromColor converts any color.Color to an 8-bit RGB triple
func RGBFromColor(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	return RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// Hex renders the color as #rrggbb
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Detection is the element verdict for an image or region, regardless of which detector produced it
type Detection struct {
	Element Element         `json:"name"`
	Reason  string          `json:"reason"`
	Score   float64         `json:"score"`
	Method  DetectionMethod `json:"method"`
	Color   RGB             `json:"color"`
}

// WuxingResult is the overall elemental verdict for a whole image
type WuxingResult struct {
	Name   Element `json:"name"`
	Reason string  `json:"reason"`
	Score  float64 `json:"score"`
}

// GridResult is the harmony verdict of one of the nine palaces
type GridResult struct {
	Index           int     `json:"index"`
	Position        string  `json:"position"`
	BaguaName       string  `json:"bagua_name"`
	Symbol          string  `json:"symbol"`
	DominantColor   RGB     `json:"dominant_color"`
	DetectedElement Element `json:"detected_element"`
	ExpectedElement Element `json:"expected_element"`
	IsHarmony       bool    `json:"is_harmony"`
	Score           float64 `json:"score"`
	Relationship    string  `json:"relationship"`
	Suggestion      string  `json:"suggestion"`
	Meaning         string  `json:"meaning"`
}

// Report is the composed fortune report
type Report struct {
	ID                string       `json:"id"`
	CreatedAt         time.Time    `json:"created_at"`
	Wuxing            WuxingResult `json:"wuxing"`
	Grids             []GridResult `json:"grids"`
	GridAnalysis      string       `json:"grid_analysis"`
	OverallSuggestion string       `json:"overall_suggestion"`
	FortuneTip        string       `json:"fortune_tip"`
	Text              string       `json:"text"`
}

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Area returns the normalized area of the box
func (b Box) Area() float64 {
	return b.W * b.H
}

// DetectedObject is one object reported by a vision model
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// SceneAnalysis contains the object listing returned by the vision model
type SceneAnalysis struct {
	Objects     []DetectedObject `json:"objects"`
	Description string           `json:"description"`
}
