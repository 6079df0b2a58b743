package processing

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Overlay geometry. Dashes are dashOn pixels drawn then dashOff skipped.
const (
	dashOn     = 8
	dashOff    = 4
	lineWidth  = 2
	lineHeight = 13
)

var (
	gridRed    = color.NRGBA{255, 0, 0, 255}
	plateShade = color.NRGBA{0, 0, 0, 50}
	titleColor = color.NRGBA{255, 255, 255, 255}
	subColor   = color.NRGBA{170, 170, 170, 255}
	noteColor  = color.NRGBA{255, 204, 0, 255}
)

// CellLabel is the text drawn on one grid cell
type CellLabel struct {
	Title    string // centered first line, e.g. palace name
	Subtitle string // centered second line, e.g. direction and element
	Note     string // small corner text, e.g. the palace meaning
}

// DrawNineHalls returns a copy of img with a dashed 3x3 grid and per-cell labels.
// labels are in row-major order; missing entries leave the cell unlabeled.
func (p *Processor) DrawNineHalls(img image.Image, labels []CellLabel) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	for i := 1; i < 3; i++ {
		x := w * i / 3
		for y := 0; y < h; y += dashOn + dashOff {
			for s := 0; s < lineWidth; s++ {
				drawVLine(out, x+s, y, y+dashOn, gridRed)
			}
		}
		y := h * i / 3
		for x := 0; x < w; x += dashOn + dashOff {
			for s := 0; s < lineWidth; s++ {
				drawHLine(out, y+s, x, x+dashOn, gridRed)
			}
		}
	}

	face := basicfont.Face7x13
	for idx := 0; idx < 9 && idx < len(labels); idx++ {
		row, col := idx/3, idx%3
		cx := w * (2*col + 1) / 6
		cy := h * (2*row + 1) / 6

		plate := image.Rect(cx-w/8, cy-h/16, cx+w/8, cy+h/16)
		draw.Draw(out, plate, image.NewUniform(plateShade), image.Point{}, draw.Over)

		l := labels[idx]
		drawCentered(out, face, l.Title, cx, cy-2, titleColor)
		drawCentered(out, face, l.Subtitle, cx, cy+lineHeight, subColor)
		if l.Note != "" {
			drawText(out, face, l.Note, w*(5*col+1)/15, h*(5*row+1)/15+lineHeight, noteColor)
		}
	}
	return out
}

func drawCentered(img *image.NRGBA, face font.Face, text string, cx, baseline int, c color.Color) {
	if text == "" {
		return
	}
	width := font.MeasureString(face, text).Round()
	drawText(img, face, text, cx-width/2, baseline, c)
}

func drawText(img *image.NRGBA, face font.Face, text string, x, baseline int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(text)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
