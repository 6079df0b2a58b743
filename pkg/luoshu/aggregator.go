// Package luoshu scores the nine palaces of the Luoshu grid against the Bagua layout.
package luoshu

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/wuxing-analyzer/pkg/types"
	"github.com/menta2k/wuxing-analyzer/pkg/wuxing"
)

// DefaultPercent is the presence assumed for a reading that carries none
const DefaultPercent = 95.0

// ErrGridCount is returned when an analysis does not cover exactly nine cells
var ErrGridCount = errors.New("luoshu: expected exactly 9 grid cells")

// Reading is what a detector observed in one cell
type Reading struct {
	Element types.Element
	// Percent is the element's presence in the cell, 0-100. Ignored unless HasPercent is set.
	Percent    float64
	HasPercent bool
	Color      types.RGB
}

// ReadingFromDetection converts a detector verdict. The detection score becomes the
// presence percentage only when useScore is set.
func ReadingFromDetection(d types.Detection, useScore bool) Reading {
	r := Reading{Element: d.Element, Color: d.Color}
	if useScore {
		r.Percent = d.Score * 100
		r.HasPercent = true
	}
	return r
}

// Options configures an Aggregator
type Options struct {
	// DefaultPercent is used for readings without a percentage; 0 means DefaultPercent
	DefaultPercent float64
	// Workers bounds concurrent cell evaluation; 0 or less means one goroutine per cell
	Workers int
	Logger  *zap.Logger
}

// Aggregator scores every palace of the grid
type Aggregator struct {
	scorer         *wuxing.Scorer
	layout         *Layout
	defaultPercent float64
	workers        int
	logger         *zap.Logger
}

// NewAggregator creates an aggregator over a scorer and a palace layout
func NewAggregator(scorer *wuxing.Scorer, layout *Layout, opts Options) *Aggregator {
	if opts.DefaultPercent <= 0 {
		opts.DefaultPercent = DefaultPercent
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Aggregator{
		scorer:         scorer,
		layout:         layout,
		defaultPercent: opts.DefaultPercent,
		workers:        opts.Workers,
		logger:         opts.Logger,
	}
}

// Layout returns the palace layout
func (a *Aggregator) Layout() *Layout {
	return a.layout
}

// Aggregate scores nine readings given in row-major order. Cells are evaluated
// concurrently; results always come back in index order 0-8.
func (a *Aggregator) Aggregate(readings []Reading) ([]types.GridResult, error) {
	if len(readings) != GridCells {
		return nil, fmt.Errorf("%w: got %d", ErrGridCount, len(readings))
	}

	results := make([]types.GridResult, GridCells)
	var g errgroup.Group
	if a.workers > 0 {
		g.SetLimit(a.workers)
	}
	for i := range readings {
		i := i
		g.Go(func() error {
			results[i] = a.evaluate(i, readings[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Aggregator) evaluate(index int, r Reading) types.GridResult {
	palace := a.layout.Palace(index)

	percent := a.defaultPercent
	if r.HasPercent {
		percent = r.Percent
	}

	h := a.scorer.Harmony(palace.Element, r.Element, percent)

	suggestion := h.Advice
	if h.IsHarmony {
		suggestion = harmoniousAdvice(palace.Avoid)
	}

	a.logger.Debug("palace scored",
		zap.Int("index", index),
		zap.String("palace", palace.Name),
		zap.String("detected", r.Element.String()),
		zap.String("expected", palace.Element.String()),
		zap.Float64("score", h.Score))

	return types.GridResult{
		Index:           index,
		Position:        palace.Label,
		BaguaName:       palace.Name,
		Symbol:          palace.Symbol,
		DominantColor:   r.Color,
		DetectedElement: r.Element,
		ExpectedElement: palace.Element,
		IsHarmony:       h.IsHarmony,
		Score:           h.Score,
		Relationship:    h.Relationship,
		Suggestion:      suggestion,
		Meaning:         palace.Meaning,
	}
}

func harmoniousAdvice(avoid []string) string {
	if len(avoid) == 0 {
		return "element harmonious"
	}
	if len(avoid) > 2 {
		avoid = avoid[:2]
	}
	return "element harmonious, avoid " + strings.Join(avoid, ", ")
}
