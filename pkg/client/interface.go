package client

import (
	"context"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

// VisionClient is a vision model backend able to list the objects in an image
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.SceneAnalysis, error)
}
