// Package wuxinganalyzer reads a portrait through the Five Elements and the
// Luoshu nine-palace grid.
//
// The image as a whole yields an overall element. It is then split into a 3x3
// grid whose cells are bound to the eight trigrams plus the center; each cell's
// detected element is scored against the palace's expected element and the
// results are composed into a text report.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		wuxinganalyzer "github.com/menta2k/wuxing-analyzer"
//	)
//
//	func main() {
//		wa, err := wuxinganalyzer.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		img, err := wa.LoadImage("portrait.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := wa.Analyze(context.Background(), img)
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Println(result.Report.Text)
//	}
//
// The package consists of these components:
//
//  1. Wuxing (pkg/wuxing): harmony scoring and advice from the interaction table
//  2. Luoshu (pkg/luoshu): palace layout and concurrent grid aggregation
//  3. Report (pkg/report): report composition through a text template
//  4. Detection (pkg/detection, pkg/vision): object and dominant-color element detection
//  5. Cropper and processing (pkg/cropper, pkg/processing): grid split, image IO and the nine-halls overlay
//
// Without a vision client every verdict comes from dominant colors.
package wuxinganalyzer

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/wuxing-analyzer/internal/config"
	"github.com/menta2k/wuxing-analyzer/pkg/client"
	"github.com/menta2k/wuxing-analyzer/pkg/cropper"
	"github.com/menta2k/wuxing-analyzer/pkg/detection"
	"github.com/menta2k/wuxing-analyzer/pkg/luoshu"
	"github.com/menta2k/wuxing-analyzer/pkg/processing"
	"github.com/menta2k/wuxing-analyzer/pkg/report"
	"github.com/menta2k/wuxing-analyzer/pkg/types"
	"github.com/menta2k/wuxing-analyzer/pkg/vision"
	"github.com/menta2k/wuxing-analyzer/pkg/wuxing"
)

// Version of the wuxing analyzer library
const Version = "1.0.0"

// Analyzer provides a high-level interface for portrait readings
type Analyzer struct {
	processor  *processing.Processor
	cropper    *cropper.GridCropper
	detector   detection.ElementDetector
	scorer     *wuxing.Scorer
	aggregator *luoshu.Aggregator
	composer   *report.Composer
	useScore   bool
	workers    int
	logger     *zap.Logger
}

// Result contains the full outcome of one analysis
type Result struct {
	Info    processing.ImageInfo `json:"info"`
	Overall types.Detection      `json:"overall"`
	Cells   []types.Detection    `json:"cells"`
	Report  *types.Report        `json:"report"`
}

// New creates an Analyzer with the default configuration and color-only detection
func New() (*Analyzer, error) {
	return NewWithConfig(config.Default(), nil, nil)
}

// NewWithConfig creates an Analyzer from cfg. A nil visionClient disables object
// detection; a nil logger discards logs.
func NewWithConfig(cfg *config.Config, visionClient client.VisionClient, logger *zap.Logger) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	table, err := loadTable(cfg.Scoring.TablePath)
	if err != nil {
		return nil, err
	}
	layout, err := loadLayout(cfg.Layout.Path)
	if err != nil {
		return nil, err
	}
	composer, err := loadComposer(cfg.Report.TemplatePath)
	if err != nil {
		return nil, err
	}

	colorDetector := vision.NewWithConfig(vision.DetectionConfig{
		Clusters:   cfg.Color.Clusters,
		Iterations: cfg.Color.Iterations,
		SampleSize: cfg.Color.SampleSize,
	})

	var primary detection.ElementDetector
	if visionClient != nil {
		mapping, err := loadMapping(cfg.Detection.MappingPath)
		if err != nil {
			return nil, err
		}
		dc := detection.DefaultConfig()
		dc.Model = cfg.Detection.Model
		dc.MinAreaRatio = cfg.Detection.MinAreaRatio
		dc.MinConfidence = cfg.Detection.MinConfidence
		dc.SendFormat = cfg.Detection.SendFormat
		dc.SendSize = cfg.Detection.SendSize
		dc.SendQuality = cfg.Detection.SendQuality
		primary = detection.NewDetector(visionClient, mapping, dc, logger.Named("detection"))
	}

	scorer := wuxing.NewScorer(table, logger.Named("wuxing"))
	return &Analyzer{
		processor: processing.NewProcessorWithMinSize(cfg.Analysis.MinImageSize),
		cropper:   cropper.New(),
		detector:  detection.NewFallbackDetector(primary, colorDetector, logger.Named("detection")),
		scorer:    scorer,
		aggregator: luoshu.NewAggregator(scorer, layout, luoshu.Options{
			DefaultPercent: cfg.Scoring.DefaultPercent,
			Workers:        cfg.Analysis.Workers,
			Logger:         logger.Named("luoshu"),
		}),
		composer: composer,
		useScore: cfg.Scoring.UseDetectionScore,
		workers:  cfg.Analysis.Workers,
		logger:   logger,
	}, nil
}

func loadTable(path string) (*wuxing.Table, error) {
	if path == "" {
		return wuxing.DefaultTable()
	}
	return wuxing.LoadTable(path)
}

func loadLayout(path string) (*luoshu.Layout, error) {
	if path == "" {
		return luoshu.DefaultLayout()
	}
	return luoshu.LoadLayout(path)
}

func loadMapping(path string) (*detection.Mapping, error) {
	if path == "" {
		return detection.DefaultMapping()
	}
	return detection.LoadMapping(path)
}

func loadComposer(path string) (*report.Composer, error) {
	if path == "" {
		return report.NewComposer("")
	}
	return report.LoadComposer(path)
}

// LoadImage loads an image from a file path or an http(s) URL
func (a *Analyzer) LoadImage(source string) (image.Image, error) {
	return a.processor.LoadImageSmart(source)
}

// SaveImage saves an image in the given format
func (a *Analyzer) SaveImage(img image.Image, path, format string, quality int) error {
	return a.processor.SaveImage(img, path, format, quality, false)
}

// Scorer returns the harmony scorer
func (a *Analyzer) Scorer() *wuxing.Scorer {
	return a.scorer
}

// Layout returns the palace layout
func (a *Analyzer) Layout() *luoshu.Layout {
	return a.aggregator.Layout()
}

// Analyze reads the whole image, then every grid cell, and composes the report
func (a *Analyzer) Analyze(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := a.processor.ValidateImage(img); err != nil {
		return nil, fmt.Errorf("image validation failed: %w", err)
	}

	overall, err := a.detector.DetectElement(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("overall detection failed: %w", err)
	}
	a.logger.Debug("overall element",
		zap.Stringer("element", overall.Element),
		zap.String("method", string(overall.Method)),
		zap.Float64("score", overall.Score))

	cells, err := a.cropper.Split(img)
	if err != nil {
		return nil, fmt.Errorf("grid split failed: %w", err)
	}

	detections := make([]types.Detection, len(cells))
	g, gctx := errgroup.WithContext(ctx)
	if a.workers > 0 {
		g.SetLimit(a.workers)
	}
	for _, cell := range cells {
		cell := cell
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			det, err := a.detector.DetectElement(gctx, cell.Image)
			if err != nil {
				return fmt.Errorf("cell %d: %w", cell.Index, err)
			}
			detections[cell.Index] = det
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	readings := make([]luoshu.Reading, len(detections))
	for i, det := range detections {
		readings[i] = luoshu.ReadingFromDetection(det, a.useScore)
	}
	grids, err := a.aggregator.Aggregate(readings)
	if err != nil {
		return nil, err
	}

	rep, err := a.composer.Compose(types.WuxingResult{
		Name:   overall.Element,
		Reason: overall.Reason,
		Score:  overall.Score,
	}, grids)
	if err != nil {
		return nil, fmt.Errorf("report composition failed: %w", err)
	}

	return &Result{
		Info:    a.processor.GetImageInfo(img),
		Overall: overall,
		Cells:   detections,
		Report:  rep,
	}, nil
}

// AnalyzeSource loads an image from a path or URL and analyzes it
func (a *Analyzer) AnalyzeSource(ctx context.Context, source string) (*Result, error) {
	img, err := a.LoadImage(source)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return a.Analyze(ctx, img)
}

// Annotate draws the nine-halls grid with each palace's name, direction and meaning
func (a *Analyzer) Annotate(img image.Image) *image.NRGBA {
	layout := a.Layout()
	labels := make([]processing.CellLabel, luoshu.GridCells)
	for i := range labels {
		p := layout.Palace(i)
		labels[i] = processing.CellLabel{
			Title:    p.Name,
			Subtitle: fmt.Sprintf("%s - %s", p.Position, p.Element),
			Note:     p.Meaning,
		}
	}
	return a.processor.DrawNineHalls(img, labels)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
