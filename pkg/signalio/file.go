package signalio

import (
	"errors"
	"fmt"
	"os"

	"sigmatem/internal/models"
)

var (
	// ErrSignalTypeMismatch is returned when a file cannot be read as the
	// requested signal type
	ErrSignalTypeMismatch = errors.New("signalio: signal type does not fit the data")

	// ErrUnknownSignalType is returned for signal type hints the decoder
	// does not know
	ErrUnknownSignalType = errors.New("signalio: unknown signal type")
)

// Decode reads the signal file at path, detecting its kind from the axes
func Decode(path string) (*models.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening signal file: %w", err)
	}
	defer f.Close()

	sig, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sig, nil
}

// DecodeAs reads the signal file at path and types it as signalType
func DecodeAs(path, signalType string) (*models.Signal, error) {
	sig, err := Decode(path)
	if err != nil {
		return nil, err
	}
	if err := AsType(sig, signalType); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sig, nil
}

// AsType retypes a decoded signal. EDS types need a spectrum map; the
// spectral axis is named Energy if it carries no such name yet.
func AsType(sig *models.Signal, signalType string) error {
	switch signalType {
	case models.SignalTypeNone:
	case models.SignalTypeEDSTEM, models.SignalTypeEDSSEM:
		if sig.Kind != models.KindSpectrum {
			return fmt.Errorf("%w: %s needs a spectrum map, file holds %s",
				ErrSignalTypeMismatch, signalType, sig.Kind)
		}
		if sig.Axes.Get(models.EnergyAxisName) == nil {
			for i := range sig.Axes {
				if !sig.Axes[i].Navigate {
					sig.Axes[i].Name = models.EnergyAxisName
				}
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSignalType, signalType)
	}
	sig.SignalType = signalType
	return nil
}

// Save writes sig to path, replacing any existing file
func Save(path string, sig *models.Signal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating signal file: %w", err)
	}
	if err := Write(f, sig); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FileDecoder decodes signals from the local filesystem
type FileDecoder struct{}

// Decode implements dataset.Decoder
func (FileDecoder) Decode(path string) (*models.Signal, error) {
	return Decode(path)
}

// DecodeAs reads path and types it as signalType
func (FileDecoder) DecodeAs(path, signalType string) (*models.Signal, error) {
	return DecodeAs(path, signalType)
}
