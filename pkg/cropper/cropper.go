package cropper

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// GridCropper splits images into an equal-sized grid of cells
type GridCropper struct {
	config GridConfig
}

// GridConfig holds the grid dimensions
type GridConfig struct {
	Rows int
	Cols int
}

// Cell is one grid region. Cells are returned in row-major order.
type Cell struct {
	Index int
	Row   int
	Col   int
	Rect  image.Rectangle // region in source image coordinates
	Image *image.NRGBA    // cropped copy, bounds start at (0,0)
}

// New creates a GridCropper producing the 3x3 nine-halls grid
func New() *GridCropper {
	return &GridCropper{config: GridConfig{Rows: 3, Cols: 3}}
}

// NewWithConfig creates a GridCropper with custom dimensions
func NewWithConfig(config GridConfig) *GridCropper {
	if config.Rows < 1 {
		config.Rows = 1
	}
	if config.Cols < 1 {
		config.Cols = 1
	}
	return &GridCropper{config: config}
}

// Cells returns the number of cells produced per image
func (c *GridCropper) Cells() int {
	return c.config.Rows * c.config.Cols
}

// Regions computes the cell rectangles without cropping. Edges use integer
// division so the last row and column absorb the remainder.
func (c *GridCropper) Regions(bounds image.Rectangle) []image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	rows, cols := c.config.Rows, c.config.Cols

	regions := make([]image.Rectangle, 0, rows*cols)
	for i := 0; i < rows; i++ {
		top := bounds.Min.Y + h*i/rows
		bottom := bounds.Min.Y + h*(i+1)/rows
		for j := 0; j < cols; j++ {
			left := bounds.Min.X + w*j/cols
			right := bounds.Min.X + w*(j+1)/cols
			regions = append(regions, image.Rect(left, top, right, bottom))
		}
	}
	return regions
}

// Split crops img into the grid cells
func (c *GridCropper) Split(img image.Image) ([]Cell, error) {
	if img == nil {
		return nil, fmt.Errorf("cannot split nil image")
	}
	b := img.Bounds()
	if b.Dx() < c.config.Cols || b.Dy() < c.config.Rows {
		return nil, fmt.Errorf("image %dx%d too small for a %dx%d grid", b.Dx(), b.Dy(), c.config.Cols, c.config.Rows)
	}

	regions := c.Regions(b)
	cells := make([]Cell, len(regions))
	for idx, r := range regions {
		cells[idx] = Cell{
			Index: idx,
			Row:   idx / c.config.Cols,
			Col:   idx % c.config.Cols,
			Rect:  r,
			Image: imaging.Crop(img, r),
		}
	}
	return cells, nil
}
