package detection

import (
	"context"
	"image"

	"go.uber.org/zap"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
	"github.com/menta2k/wuxing-analyzer/pkg/vision"
)

// FallbackDetector tries object detection first and falls back to the dominant color.
// Either way the result carries the region's dominant color.
type FallbackDetector struct {
	primary ElementDetector
	color   *vision.ColorDetector
	logger  *zap.Logger
}

// NewFallbackDetector chains primary and color. A nil primary means color-only detection.
func NewFallbackDetector(primary ElementDetector, color *vision.ColorDetector, logger *zap.Logger) *FallbackDetector {
	if color == nil {
		color = vision.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackDetector{primary: primary, color: color, logger: logger}
}

// DetectElement implements ElementDetector
func (f *FallbackDetector) DetectElement(ctx context.Context, img image.Image) (types.Detection, error) {
	if f.primary != nil {
		det, err := f.primary.DetectElement(ctx, img)
		if err == nil {
			if c, cerr := f.color.DominantColor(img); cerr == nil {
				det.Color = c
			}
			return det, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return types.Detection{}, ctxErr
		}
		f.logger.Debug("object detection unavailable, using color", zap.Error(err))
	}
	return f.color.DetectElement(ctx, img)
}
