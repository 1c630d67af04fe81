package dataset

import (
	"fmt"

	"sigmatem/internal/models"
)

// Rebin fills the binned fields by summing factor x factor pixel blocks of
// the spectral cube and the intensity image. Rows and columns that do not
// fill a whole block are dropped.
func (d *Dataset) Rebin(factor int) error {
	if !d.IsSpectral() {
		return ErrNoSpectralCube
	}
	if factor < 1 {
		return fmt.Errorf("bin factor must be positive, got %d", factor)
	}

	cube := d.SpectralCube
	rows, cols := cube.Rows/factor, cube.Cols/factor
	if rows == 0 || cols == 0 {
		return fmt.Errorf("bin factor %d exceeds the %dx%d scan", factor, cube.Rows, cube.Cols)
	}

	binned := models.NewCube(rows, cols, cube.Channels)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			dst := binned.Spectrum(r, c)
			for dr := 0; dr < factor; dr++ {
				for dc := 0; dc < factor; dc++ {
					for k, v := range cube.Spectrum(r*factor+dr, c*factor+dc) {
						dst[k] += v
					}
				}
			}
		}
	}
	d.BinnedSpectralCube = binned

	if img := d.IntensityImage; img != nil {
		bi := models.NewImage(img.Rows/factor, img.Cols/factor)
		for r := 0; r < bi.Rows; r++ {
			for c := 0; c < bi.Cols; c++ {
				var sum float64
				for dr := 0; dr < factor; dr++ {
					for dc := 0; dc < factor; dc++ {
						sum += img.At(r*factor+dr, c*factor+dc)
					}
				}
				bi.Set(r, c, sum)
			}
		}
		d.BinnedIntensityImage = bi
	}

	d.logger.Info().
		Int("factor", factor).
		Int("rows", rows).
		Int("cols", cols).
		Msg("rebinned dataset")
	return nil
}
