package dataset

import (
	"fmt"
	"math"
)

// TrimInvalidTail removes the rows left unfilled by an interrupted
// acquisition. It scans channel 0 of the first column down the rows, finds
// the first NaN at row i and keeps rows [:i-1] of the intensity image, the
// spectral cube and their binned counterparts. This also drops the last
// valid row before the NaN. The end index follows slice semantics: a
// negative end counts from the end of each array and an end past the last
// row keeps every row. RawSpectralCube is left as loaded.
func (d *Dataset) TrimInvalidTail() error {
	if !d.IsSpectral() {
		return ErrNoSpectralCube
	}

	cube := d.SpectralCube
	if cube.Cols == 0 || cube.Channels == 0 {
		return fmt.Errorf("%w: %s has no channel 0 samples", ErrNoInvalidTailFound, d.Path)
	}

	first := -1
	for i, v := range cube.Column(0, 0) {
		if math.IsNaN(float64(v)) {
			first = i
			break
		}
	}
	if first < 0 {
		return fmt.Errorf("%w: channel 0 of %s holds no NaN", ErrNoInvalidTailFound, d.Path)
	}
	end := first - 1

	if d.IntensityImage != nil {
		d.IntensityImage.TruncateRows(sliceEnd(end, d.IntensityImage.Rows))
	}
	d.SpectralCube.TruncateRows(sliceEnd(end, d.SpectralCube.Rows))

	if d.BinnedIntensityImage != nil {
		d.BinnedIntensityImage.TruncateRows(sliceEnd(end, d.BinnedIntensityImage.Rows))
	}
	if d.BinnedSpectralCube != nil {
		d.BinnedSpectralCube.TruncateRows(sliceEnd(end, d.BinnedSpectralCube.Rows))
	}

	d.logger.Info().
		Int("first_nan_row", first).
		Int("rows", d.SpectralCube.Rows).
		Msg("trimmed invalid tail")
	return nil
}

// sliceEnd resolves an exclusive end index against an axis of n rows
func sliceEnd(end, n int) int {
	if end < 0 {
		end += n
		if end < 0 {
			return 0
		}
	}
	if end > n {
		return n
	}
	return end
}
