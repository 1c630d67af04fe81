// Package dataset loads TEM EDS signal files and manages the calibration,
// lines of interest and invalid tail rows of the resulting dataset.
package dataset

import (
	"fmt"
	"maps"
	"math"

	"github.com/rs/zerolog"

	"sigmatem/internal/models"
	"sigmatem/pkg/signalio"
	"sigmatem/pkg/xray"
)

// Dataset holds the arrays and settings derived from one signal file.
//
// A dataset loaded from an image file only carries Image. A dataset loaded
// from a spectrum map carries the spectral cube, its intensity image, a raw
// copy of the cube and the energy calibration.
type Dataset struct {
	// Path is the file the dataset was loaded from
	Path string

	// SignalType is EDS_TEM for spectral datasets
	SignalType string

	// Image is set when the file held a single 2D image
	Image *models.Image

	// SpectralCube holds one spectrum per pixel
	SpectralCube *models.Cube

	// IntensityImage is the sum of every spectrum at load time
	IntensityImage *models.Image

	// BinnedSpectralCube and BinnedIntensityImage are nil until Rebin
	BinnedSpectralCube   *models.Cube
	BinnedIntensityImage *models.Image

	// RawSpectralCube is a copy of the cube as loaded; nothing mutates it
	RawSpectralCube *models.Cube

	// Axes describes the signal; the Energy axis carries the calibration
	Axes models.Axes

	// LinesOfInterest is the ordered list of X-ray lines to quantify
	LinesOfInterest []string

	// LineIndex maps each line of interest to its position in the list
	LineIndex map[string]int

	// Metadata holds the attributes stored in the file
	Metadata map[string]string

	logger zerolog.Logger
	lines  *xray.Database
}

// Load decodes the file at path and builds a dataset from it
func Load(path string, opts ...Option) (*Dataset, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	sig, err := o.decoder.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if err := checkLayout(sig); err != nil {
		return nil, fmt.Errorf("%w: %s %v", ErrUnsupportedSignalKind, path, err)
	}

	d := &Dataset{
		Path:     path,
		Axes:     sig.Axes.Clone(),
		Metadata: maps.Clone(sig.Metadata),
		logger:   o.logger,
		lines:    o.lines,
	}

	switch sig.Kind {
	case models.KindImage:
		d.SignalType = sig.SignalType
		d.Image = &models.Image{Rows: sig.Shape[0], Cols: sig.Shape[1], Data: sig.Data}
		d.logger.Info().
			Str("file", path).
			Int("rows", d.Image.Rows).
			Int("cols", d.Image.Cols).
			Msg("loaded image")
		return d, nil

	default:
		if err := signalio.AsType(sig, models.SignalTypeEDSTEM); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if err := d.loadSpectrum(sig, o.calibration); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		d.logger.Info().
			Str("file", path).
			Ints("shape", []int{d.SpectralCube.Rows, d.SpectralCube.Cols, d.SpectralCube.Channels}).
			Msg("loaded spectrum map")
		return d, nil
	}
}

// checkLayout verifies the decoded shape, axes and samples agree with the
// kind tag. Only images and spectrum maps with the spectral axis last pass.
func checkLayout(sig *models.Signal) error {
	dims := 0
	switch sig.Kind {
	case models.KindImage:
		dims = 2
	case models.KindSpectrum:
		dims = 3
	default:
		return fmt.Errorf("holds %d dimensions", len(sig.Shape))
	}

	if len(sig.Shape) != dims || len(sig.Axes) != dims {
		return fmt.Errorf("is tagged %s but has %d dimensions and %d axes", sig.Kind, len(sig.Shape), len(sig.Axes))
	}
	if sig.Kind == models.KindSpectrum && (!sig.Axes[0].Navigate || !sig.Axes[1].Navigate || sig.Axes[2].Navigate) {
		return fmt.Errorf("does not store its spectral axis last")
	}
	for i, n := range sig.Shape {
		if n <= 0 {
			return fmt.Errorf("has an empty dimension %d", i)
		}
	}
	if len(sig.Data) != sig.Len() {
		return fmt.Errorf("holds %d samples for shape %v", len(sig.Data), sig.Shape)
	}
	return nil
}

func (d *Dataset) loadSpectrum(sig *models.Signal, cal Calibration) error {
	rows, cols, channels := sig.Shape[0], sig.Shape[1], sig.Shape[2]

	// Summed before the cube drops to single precision
	d.IntensityImage = models.SumSpectra(rows, cols, channels, sig.Data)

	cube, err := models.CubeFromFloat64(rows, cols, channels, sig.Data)
	if err != nil {
		return err
	}
	d.SpectralCube = cube
	d.SignalType = sig.SignalType
	d.Axes = sig.Axes.Clone()

	d.LinesOfInterest = []string{}
	d.LineIndex = map[string]int{}

	energy := d.Axes.Get(models.EnergyAxisName)
	energy.Scale = cal.Scale
	energy.Offset = cal.Offset
	energy.Unit = cal.Unit

	d.BinnedSpectralCube = nil
	d.BinnedIntensityImage = nil
	d.RawSpectralCube = cube.Clone()
	return nil
}

// IsSpectral reports whether the dataset carries a spectral cube
func (d *Dataset) IsSpectral() bool {
	return d.SpectralCube != nil
}

// EnergyAxis returns the energy axis, or nil for image datasets
func (d *Dataset) EnergyAxis() *models.Axis {
	return d.Axes.Get(models.EnergyAxisName)
}

// Calibration returns the current energy calibration
func (d *Dataset) Calibration() Calibration {
	ax := d.EnergyAxis()
	if ax == nil {
		return Calibration{}
	}
	return Calibration{Scale: ax.Scale, Offset: ax.Offset, Unit: ax.Unit}
}

// ChannelEnergy returns the calibrated energy of channel k
func (d *Dataset) ChannelEnergy(k int) float64 {
	ax := d.EnergyAxis()
	if ax == nil {
		return math.NaN()
	}
	return ax.Value(k)
}

// SetLinesOfInterest replaces the lines of interest and rebuilds LineIndex.
// Every identifier must name a known line; on failure nothing changes.
func (d *Dataset) SetLinesOfInterest(lines []string) error {
	if !d.IsSpectral() {
		return ErrNoSpectralCube
	}

	resolved, err := d.lines.Validate(lines)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLineIdentifier, err)
	}

	d.LinesOfInterest = make([]string, len(lines))
	copy(d.LinesOfInterest, lines)

	d.LineIndex = make(map[string]int, len(lines))
	for i, line := range d.LinesOfInterest {
		d.LineIndex[line] = i
	}

	if ax := d.EnergyAxis(); ax != nil && ax.Size > 0 {
		lo, hi := ax.Value(0), ax.Value(ax.Size-1)
		for _, l := range resolved {
			if l.Energy < lo || l.Energy > hi {
				d.logger.Warn().
					Str("line", l.ID()).
					Float64("energy", l.Energy).
					Float64("min", lo).
					Float64("max", hi).
					Msg("line lies outside the energy range")
			}
		}
	}

	d.logger.Info().Strs("lines", d.LinesOfInterest).Msgf("Set xray_lines to %v", d.LinesOfInterest)
	return nil
}

// SetEnergyScale sets the energy per channel
func (d *Dataset) SetEnergyScale(scale float64) {
	if ax := d.energyAxisForWrite(); ax != nil {
		ax.Scale = scale
	}
}

// SetEnergyOffset sets the energy of channel 0
func (d *Dataset) SetEnergyOffset(offset float64) {
	if ax := d.energyAxisForWrite(); ax != nil {
		ax.Offset = offset
	}
}

// SetEnergyUnit sets the unit of the energy axis
func (d *Dataset) SetEnergyUnit(unit string) {
	if ax := d.energyAxisForWrite(); ax != nil {
		ax.Unit = unit
	}
}

func (d *Dataset) energyAxisForWrite() *models.Axis {
	ax := d.EnergyAxis()
	if ax == nil {
		d.logger.Warn().Str("file", d.Path).Msg("dataset has no energy axis, calibration ignored")
	}
	return ax
}
