package models

// Kind tags what a decoded signal file contains.
type Kind int

const (
	// KindUnknown is any layout that is neither an image nor a spectrum map
	KindUnknown Kind = iota

	// KindImage is a single 2D image: two signal axes, no navigation axes
	KindImage

	// KindSpectrum is a spectrum per pixel: one signal axis navigated
	// over two spatial axes
	KindSpectrum
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindSpectrum:
		return "spectrum"
	default:
		return "unknown"
	}
}

// Signal types understood by the decoder
const (
	SignalTypeNone   = ""
	SignalTypeEDSTEM = "EDS_TEM"
	SignalTypeEDSSEM = "EDS_SEM"
)

// EnergyAxisName is the name carried by the spectral axis of EDS signals
const EnergyAxisName = "Energy"

// Axis describes one dimension of a signal
type Axis struct {
	// Name identifies the axis ("y", "x", "Energy", ...)
	Name string `yaml:"name"`

	// Size is the number of samples along the axis
	Size int `yaml:"size"`

	// Scale and Offset map an index i to the physical value Offset + i*Scale
	Scale  float64 `yaml:"scale"`
	Offset float64 `yaml:"offset"`

	// Unit is the physical unit of the axis values
	Unit string `yaml:"units"`

	// Navigate is true for spatial axes that index individual spectra
	Navigate bool `yaml:"navigate"`
}

// Value returns the calibrated value of index i
func (a Axis) Value(i int) float64 {
	return a.Offset + float64(i)*a.Scale
}

// Axes is the ordered list of axes of a signal
type Axes []Axis

// Get returns the axis with the given name, or nil
func (a Axes) Get(name string) *Axis {
	for i := range a {
		if a[i].Name == name {
			return &a[i]
		}
	}
	return nil
}

// Clone returns an independent copy of the axes
func (a Axes) Clone() Axes {
	if a == nil {
		return nil
	}
	out := make(Axes, len(a))
	copy(out, a)
	return out
}

// Classify derives the signal kind from the navigate flags of the axes
func (a Axes) Classify() Kind {
	nav, sig := 0, 0
	for _, ax := range a {
		if ax.Navigate {
			nav++
		} else {
			sig++
		}
	}
	switch {
	case nav == 0 && sig == 2:
		return KindImage
	case nav == 2 && sig == 1:
		return KindSpectrum
	default:
		return KindUnknown
	}
}

// Signal is the in-memory form of a decoded signal file
type Signal struct {
	// Kind is derived from the axes at decode time
	Kind Kind

	// SignalType is "" for generic signals or one of the EDS types
	SignalType string

	// DType is the sample type stored in the file
	DType string

	// Shape holds the size of each axis, in axis order
	Shape []int

	// Data holds the samples in row-major order, last axis fastest
	Data []float64

	// Axes describes each dimension
	Axes Axes

	// Metadata holds free-form string attributes such as the title
	Metadata map[string]string
}

// Len returns the number of samples the shape describes
func (s *Signal) Len() int {
	if len(s.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range s.Shape {
		n *= d
	}
	return n
}
