package dataset

import "errors"

var (
	// ErrUnsupportedSignalKind is returned by Load when the file holds
	// neither a single image nor a spectrum map
	ErrUnsupportedSignalKind = errors.New("unsupported signal kind")

	// ErrInvalidLineIdentifier is returned when a line of interest is not
	// a known element line
	ErrInvalidLineIdentifier = errors.New("invalid X-ray line identifier")

	// ErrNoInvalidTailFound is returned by TrimInvalidTail when the scanned
	// channel holds no NaN marker
	ErrNoInvalidTailFound = errors.New("no invalid tail found")

	// ErrNoSpectralCube is returned by spectral operations on a dataset
	// loaded from an image file
	ErrNoSpectralCube = errors.New("dataset has no spectral cube")
)
