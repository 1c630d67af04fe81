package dataset

import (
	"github.com/rs/zerolog"

	"sigmatem/internal/models"
	"sigmatem/pkg/signalio"
	"sigmatem/pkg/xray"
)

// Decoder turns a file path into a decoded signal
type Decoder interface {
	Decode(path string) (*models.Signal, error)
}

// Calibration is the (scale, offset, unit) triple of the energy axis
type Calibration struct {
	Scale  float64 `yaml:"scale"`
	Offset float64 `yaml:"offset"`
	Unit   string  `yaml:"unit"`
}

// DefaultCalibration returns the energy calibration applied on load. The
// scale folds in a detector gain correction of 8.07/8.08 and must be
// evaluated in float64 left to right.
func DefaultCalibration() Calibration {
	step, measured, nominal := 0.01, 8.07, 8.08
	return Calibration{
		Scale:  step * measured / nominal,
		Offset: -0.01,
		Unit:   "keV",
	}
}

// Option configures Load
type Option func(*options)

type options struct {
	logger      zerolog.Logger
	decoder     Decoder
	lines       *xray.Database
	calibration Calibration
}

func defaultOptions() *options {
	return &options{
		logger:      zerolog.Nop(),
		decoder:     signalio.FileDecoder{},
		lines:       xray.Default(),
		calibration: DefaultCalibration(),
	}
}

// WithLogger sets the logger used for notices
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDecoder replaces the filesystem decoder
func WithDecoder(d Decoder) Option {
	return func(o *options) {
		o.decoder = d
	}
}

// WithLineDatabase sets the database used to validate lines of interest
func WithLineDatabase(db *xray.Database) Option {
	return func(o *options) {
		o.lines = db
	}
}

// WithCalibration overrides the energy calibration applied on load
func WithCalibration(c Calibration) Option {
	return func(o *options) {
		o.calibration = c
	}
}
