package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateImage(t *testing.T) {
	p := NewProcessor()

	assert.NoError(t, p.ValidateImage(createTestImage(30, 30, color.White)))

	err := p.ValidateImage(createTestImage(29, 100, color.White))
	assert.True(t, errors.Is(err, ErrImageTooSmall))

	assert.ErrorIs(t, p.ValidateImage(nil), ErrImageTooSmall)

	strict := NewProcessorWithMinSize(200)
	assert.ErrorIs(t, strict.ValidateImage(createTestImage(100, 300, color.White)), ErrImageTooSmall)
}

func TestGetImageInfo(t *testing.T) {
	info := NewProcessor().GetImageInfo(createTestImage(200, 100, color.White))
	assert.Equal(t, ImageInfo{Width: 200, Height: 100, AspectRatio: 2, Area: 20000}, info)
}

func TestDecodeImage(t *testing.T) {
	p := NewProcessor()

	img, err := p.DecodeImage(encodePNG(t, createTestImage(12, 8, color.Black)))
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())

	_, err = p.DecodeImage([]byte("not an image"))
	assert.Error(t, err)
}

func TestLoadImageAndSave(t *testing.T) {
	p := NewProcessor()
	dir := t.TempDir()
	src := createTestImage(40, 20, color.NRGBA{10, 200, 30, 255})

	for _, format := range []string{"png", "jpg", "webp"} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(dir, "out."+format)
			require.NoError(t, p.SaveImage(src, path, format, 90, true))

			img, err := p.LoadImageSmart(path)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())
		})
	}

	_, err := p.LoadImage(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadImageFromURL(t *testing.T) {
	data := encodePNG(t, createTestImage(16, 16, color.White))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewProcessor()

	img, err := p.LoadImageSmart(srv.URL + "/img.png")
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	_, err = p.LoadImageFromURL(srv.URL + "/page")
	assert.ErrorContains(t, err, "does not point to an image")

	_, err = p.LoadImageFromURL(srv.URL + "/missing")
	assert.ErrorContains(t, err, "HTTP 404")

	_, err = p.LoadImageFromURL("ftp://example.com/a.png")
	assert.ErrorContains(t, err, "unsupported URL scheme")
}

func TestPrepareImageForModel(t *testing.T) {
	p := NewProcessor()
	src := createTestImage(400, 200, color.White)

	b64, err := p.PrepareImageForModel(src, "png", 100, 0)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(b64)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	b64, err = p.PrepareImageForModel(src, "jpg", 0, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, b64)
}

func TestDrawNineHallsGrid(t *testing.T) {
	p := NewProcessor()
	src := createTestImage(90, 90, color.White)

	out := p.DrawNineHalls(src, nil)
	require.Equal(t, src.Bounds(), out.Bounds())

	// Vertical line at x = 30: dash covers y 0..7, gap at y 8..11
	assert.Equal(t, gridRed, out.NRGBAAt(30, 0))
	assert.Equal(t, gridRed, out.NRGBAAt(31, 7))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(30, 9))

	// Horizontal line at y = 60
	assert.Equal(t, gridRed, out.NRGBAAt(12, 60))

	// Source is untouched
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, src.NRGBAAt(30, 0))
}

func TestDrawNineHallsLabels(t *testing.T) {
	p := NewProcessor()
	src := createTestImage(90, 90, color.White)

	labels := make([]CellLabel, 9)
	labels[0] = CellLabel{Title: "Qian", Subtitle: "Northwest Metal", Note: "Patrons"}
	out := p.DrawNineHalls(src, labels)

	// Plate of the center cell darkens white without text on it
	plate := out.NRGBAAt(35, 40)
	assert.Less(t, plate.R, uint8(255))
	assert.Greater(t, plate.R, uint8(150))

	// Some pixel of the first cell carries text
	changed := false
	for y := 0; y < 30 && !changed; y++ {
		for x := 0; x < 29; x++ {
			c := out.NRGBAAt(x, y)
			if c.B < 100 && c.R > 200 {
				changed = true // yellow note
				break
			}
		}
	}
	assert.True(t, changed, "expected the corner note to be drawn")
}
