package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"

	"sigmatem/internal/models"
)

// Viewer renders 2D dataset arrays (intensity images, single energy
// channels) as grayscale previews
type Viewer struct {
	// img is the array being rendered
	img *models.Image
}

// NewViewer creates a viewer for img
func NewViewer(img *models.Image) *Viewer {
	return &Viewer{img: img}
}

// Range returns the smallest and largest finite pixel values. ok is false
// when the image holds no finite value.
func (v *Viewer) Range() (lo, hi float64, ok bool) {
	finite := make([]float64, 0, len(v.img.Data))
	for _, p := range v.img.Data {
		if !math.IsNaN(p) && !math.IsInf(p, 0) {
			finite = append(finite, p)
		}
	}
	if len(finite) == 0 {
		return 0, 0, false
	}
	return floats.Min(finite), floats.Max(finite), true
}

// Render maps the finite range of the image onto 16-bit gray levels.
// Non-finite pixels are drawn black.
func (v *Viewer) Render() *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, v.img.Cols, v.img.Rows))

	lo, hi, ok := v.Range()
	if !ok {
		return out
	}
	span := hi - lo

	for y := 0; y < v.img.Rows; y++ {
		for x := 0; x < v.img.Cols; x++ {
			p := v.img.At(y, x)
			if math.IsNaN(p) || math.IsInf(p, 0) {
				continue
			}
			level := 0.0
			if span > 0 {
				level = (p - lo) / span
			}
			value := uint16(math.Max(0, math.Min(65535, level*65535)))
			out.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	return out
}

// Save renders the image to filename. The extension picks the encoder:
// .png writes PNG, anything else JPEG.
func (v *Viewer) Save(filename string) error {
	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	img := v.Render()
	if strings.EqualFold(filepath.Ext(filename), ".png") {
		return png.Encode(file, img)
	}
	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// ChannelImage extracts one energy channel of a spectral cube as an image
func ChannelImage(cube *models.Cube, channel int) (*models.Image, error) {
	if channel < 0 || channel >= cube.Channels {
		return nil, fmt.Errorf("channel %d outside 0..%d", channel, cube.Channels-1)
	}

	img := models.NewImage(cube.Rows, cube.Cols)
	for r := 0; r < cube.Rows; r++ {
		for c := 0; c < cube.Cols; c++ {
			img.Set(r, c, float64(cube.At(r, c, channel)))
		}
	}
	return img, nil
}
