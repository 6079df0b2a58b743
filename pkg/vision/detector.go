package vision

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

// ErrEmptyImage is returned for images without opaque pixels
var ErrEmptyImage = errors.New("vision: image has no opaque pixels")

// ColorDetector classifies an image region by its dominant color
type ColorDetector struct {
	config DetectionConfig
}

// DetectionConfig holds configuration for dominant color extraction
type DetectionConfig struct {
	Clusters   int // k for k-means; 1 yields the mean color
	Iterations int
	SampleSize int // long side the region is down-sampled to before clustering
}

// New creates a new ColorDetector with default configuration
func New() *ColorDetector {
	return &ColorDetector{
		config: DetectionConfig{
			Clusters:   3,
			Iterations: 20,
			SampleSize: 64,
		},
	}
}

// NewWithConfig creates a new ColorDetector with custom configuration
func NewWithConfig(config DetectionConfig) *ColorDetector {
	if config.Clusters < 1 {
		config.Clusters = 1
	}
	if config.Iterations < 1 {
		config.Iterations = 1
	}
	return &ColorDetector{config: config}
}

// DetectElement finds the dominant color of img and maps it to an element
func (d *ColorDetector) DetectElement(_ context.Context, img image.Image) (types.Detection, error) {
	c, err := d.DominantColor(img)
	if err != nil {
		return types.Detection{}, err
	}
	return ClassifyColor(c), nil
}

// DominantColor returns the centroid of the largest k-means cluster
func (d *ColorDetector) DominantColor(img image.Image) (types.RGB, error) {
	pixels := d.samplePixels(img)
	if len(pixels) == 0 {
		return types.RGB{}, ErrEmptyImage
	}

	centroids := histogramSeeds(pixels, d.config.Clusters)
	assign := make([]int, len(pixels))
	counts := make([]int, len(centroids))

	for iter := 0; iter < d.config.Iterations; iter++ {
		changed := false
		for i, p := range pixels {
			best := nearest(p, centroids)
			if iter == 0 || best != assign[i] {
				changed = true
			}
			assign[i] = best
		}

		sums := make([][3]float64, len(centroids))
		for i := range counts {
			counts[i] = 0
		}
		for i, p := range pixels {
			k := assign[i]
			sums[k][0] += p[0]
			sums[k][1] += p[1]
			sums[k][2] += p[2]
			counts[k]++
		}
		for k := range centroids {
			if counts[k] == 0 {
				continue
			}
			n := float64(counts[k])
			centroids[k] = [3]float64{sums[k][0] / n, sums[k][1] / n, sums[k][2] / n}
		}
		if !changed {
			break
		}
	}

	largest := 0
	for k := range counts {
		if counts[k] > counts[largest] {
			largest = k
		}
	}
	c := centroids[largest]
	return types.RGB{R: toByte(c[0]), G: toByte(c[1]), B: toByte(c[2])}, nil
}

func (d *ColorDetector) samplePixels(img image.Image) [][3]float64 {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}

	var sampled *image.NRGBA
	if d.config.SampleSize > 0 && (b.Dx() > d.config.SampleSize || b.Dy() > d.config.SampleSize) {
		if b.Dx() >= b.Dy() {
			sampled = imaging.Resize(img, d.config.SampleSize, 0, imaging.Box)
		} else {
			sampled = imaging.Resize(img, 0, d.config.SampleSize, imaging.Box)
		}
	} else {
		sampled = imaging.Clone(img)
	}

	pixels := make([][3]float64, 0, sampled.Bounds().Dx()*sampled.Bounds().Dy())
	for i := 0; i+3 < len(sampled.Pix); i += 4 {
		if sampled.Pix[i+3] == 0 {
			continue
		}
		pixels = append(pixels, [3]float64{
			float64(sampled.Pix[i]),
			float64(sampled.Pix[i+1]),
			float64(sampled.Pix[i+2]),
		})
	}
	return pixels
}

// histogramSeeds picks up to k initial centroids from the most frequent
// quantized colors, so clustering is deterministic.
func histogramSeeds(pixels [][3]float64, k int) [][3]float64 {
	type bucket struct {
		key   uint32
		count int
		sum   [3]float64
	}
	buckets := make(map[uint32]*bucket)
	for _, p := range pixels {
		// Quantize colors to reduce noise
		r := uint32(p[0]) & 0xf0
		g := uint32(p[1]) & 0xf0
		bl := uint32(p[2]) & 0xf0
		key := (r << 16) | (g << 8) | bl
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{key: key}
			buckets[key] = bk
		}
		bk.count++
		bk.sum[0] += p[0]
		bk.sum[1] += p[1]
		bk.sum[2] += p[2]
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, bk := range buckets {
		ordered = append(ordered, bk)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].key < ordered[j].key
	})

	if k > len(ordered) {
		k = len(ordered)
	}
	seeds := make([][3]float64, k)
	for i := 0; i < k; i++ {
		n := float64(ordered[i].count)
		seeds[i] = [3]float64{ordered[i].sum[0] / n, ordered[i].sum[1] / n, ordered[i].sum[2] / n}
	}
	return seeds
}

func nearest(p [3]float64, centroids [][3]float64) int {
	best, bestDist := 0, math.MaxFloat64
	for k, c := range centroids {
		dr, dg, db := p[0]-c[0], p[1]-c[1], p[2]-c[2]
		if dist := dr*dr + dg*dg + db*db; dist < bestDist {
			best, bestDist = k, dist
		}
	}
	return best
}

func toByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// ClassifyColor maps a color to an element on the HSV wheel.
// Neutral light tones read as Metal, saturated yellows as Earth and very dark tones as Water
// before the hue ranges are considered.
func ClassifyColor(c types.RGB) types.Detection {
	cf, _ := colorful.MakeColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
	h, s, v := cf.Hsv()

	det := types.Detection{Method: types.MethodColor, Color: c}
	switch {
	case s < 0.2 && v > 0.8:
		det.Element, det.Score, det.Reason = types.Metal, v, "low saturation and high brightness"
	case h >= 40 && h <= 60 && s > 0.5:
		det.Element, det.Score, det.Reason = types.Earth, s, "central earth yellow"
	case v < 0.15:
		det.Element, det.Score, det.Reason = types.Water, 1.0, "deep dark tone"
	case h < 40 || h >= 350:
		det.Element, det.Score, det.Reason = types.Fire, s, "red belongs to Fire"
	case h <= 60:
		det.Element, det.Score, det.Reason = types.Earth, s, "muted earth yellow"
	case h < 150:
		det.Element, det.Score, det.Reason = types.Wood, (s+v)/2, "green belongs to Wood"
	case h < 250:
		det.Element, det.Score, det.Reason = types.Water, v, "blue belongs to Water"
	default:
		det.Element, det.Score, det.Reason = types.Fire, s*0.7+v*0.3, "purple carries the remnant of Fire"
	}
	return det
}
