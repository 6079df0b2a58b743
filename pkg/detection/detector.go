package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"go.uber.org/zap"

	"github.com/menta2k/wuxing-analyzer/pkg/client"
	"github.com/menta2k/wuxing-analyzer/pkg/processing"
	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks the vision model for every clearly visible object
const DefaultPrompt = `You are an object detector.

Return JSON only:
{
  "objects": [
    {"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ],
  "description": "short neutral sentence (≤ 20 words)"
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels); x,y is the top-left corner.
- Use lowercase COCO-style labels where possible (person, cat, potted plant, cup, car, ...).
- Only list objects you are confident about; confidence is in [0,1].
- Do not guess real identities.
- If nothing is visible, return {"objects": [], "description": "empty scene"}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// ErrNoObjects is returned when no detected object passes the area and confidence filters
var ErrNoObjects = errors.New("detection: no qualifying objects")

// ElementDetector produces an element verdict for an image or image region
type ElementDetector interface {
	DetectElement(ctx context.Context, img image.Image) (types.Detection, error)
}

// Config holds configuration for object-based detection
type Config struct {
	Model         string
	Prompt        string
	MinAreaRatio  float64 // objects smaller than this share of the image are ignored
	MinConfidence float64 // objects must be strictly more confident than this
	SendFormat    string
	SendSize      int
	SendQuality   int
}

// DefaultConfig returns the object detection defaults
func DefaultConfig() Config {
	return Config{
		Model:         "openbmb/minicpm-v4.5",
		Prompt:        DefaultPrompt,
		MinAreaRatio:  0.1,
		MinConfidence: 0.5,
		SendFormat:    "jpg",
		SendSize:      1024,
		SendQuality:   85,
	}
}

// Detector handles object-based element detection using vision models
type Detector struct {
	client    client.VisionClient
	processor *processing.Processor
	mapping   *Mapping
	config    Config
	logger    *zap.Logger
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient, mapping *Mapping, config Config, logger *zap.Logger) *Detector {
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		client:    client,
		processor: processing.NewProcessor(),
		mapping:   mapping,
		config:    config,
		logger:    logger,
	}
}

// DetectElement asks the vision model for objects in img and weighs their elements
func (d *Detector) DetectElement(ctx context.Context, img image.Image) (types.Detection, error) {
	imgB64, err := d.processor.PrepareImageForModel(img, d.config.SendFormat, d.config.SendSize, d.config.SendQuality)
	if err != nil {
		return types.Detection{}, fmt.Errorf("prepare image: %w", err)
	}

	scene, err := d.client.AnalyzeImage(ctx, d.config.Model, d.config.Prompt, imgB64)
	if err != nil {
		return types.Detection{}, fmt.Errorf("object detection failed: %w", err)
	}
	return d.Classify(scene)
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, d.config.Model, SimpleTestPrompt, imageB64)
}

// Classify weighs every qualifying object's elements by its area ratio and
// returns the heaviest element. The score is that element's accumulated weight.
func (d *Detector) Classify(scene *types.SceneAnalysis) (types.Detection, error) {
	if scene == nil {
		return types.Detection{}, ErrNoObjects
	}

	weights := make(map[types.Element]float64, len(types.Elements))
	var reasons []string
	for _, obj := range scene.Objects {
		box := normalizeBox(obj.Box)
		area := box.Area()
		if area < d.config.MinAreaRatio || obj.Confidence <= d.config.MinConfidence {
			continue
		}
		om, known := d.mapping.Lookup(obj.Label)
		if !known {
			d.logger.Debug("unmapped object label", zap.String("label", obj.Label))
		}
		for el, w := range om.Weights {
			weights[el] += w * area
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", om.Name, om.Reason))
	}
	if len(reasons) == 0 {
		return types.Detection{}, ErrNoObjects
	}

	best := types.Elements[0]
	for _, el := range types.Elements[1:] {
		if weights[el] > weights[best] {
			best = el
		}
	}
	return types.Detection{
		Element: best,
		Reason:  strings.Join(reasons, "\n"),
		Score:   weights[best],
		Method:  types.MethodObject,
	}, nil
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox keeps the box inside the unit square
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}
