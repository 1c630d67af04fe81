package dataset

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"sigmatem/internal/models"
	"sigmatem/pkg/signalio"
	"sigmatem/pkg/xray"
)

// stubDecoder returns a prepared signal instead of reading a file
type stubDecoder struct {
	sig *models.Signal
	err error
}

func (s stubDecoder) Decode(string) (*models.Signal, error) {
	return s.sig, s.err
}

// spectrumSignal builds a rows x cols x channels spectrum map whose samples
// are produced by value
func spectrumSignal(rows, cols, channels int, value func(r, c, k int) float64) *models.Signal {
	data := make([]float64, 0, rows*cols*channels)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for k := 0; k < channels; k++ {
				data = append(data, value(r, c, k))
			}
		}
	}
	return &models.Signal{
		Kind:  models.KindSpectrum,
		DType: "float64",
		Shape: []int{rows, cols, channels},
		Data:  data,
		Axes: models.Axes{
			{Name: "y", Size: rows, Scale: 1, Unit: "nm", Navigate: true},
			{Name: "x", Size: cols, Scale: 1, Unit: "nm", Navigate: true},
			{Name: "Energy", Size: channels, Scale: 0.02, Unit: "eV"},
		},
	}
}

func counting(r, c, k int) float64 {
	return float64(100*r + 10*c + k)
}

func loadStub(t *testing.T, sig *models.Signal, opts ...Option) *Dataset {
	t.Helper()
	opts = append([]Option{WithDecoder(stubDecoder{sig: sig})}, opts...)
	d, err := Load("stub.msig", opts...)
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}
	return d
}

// TestLoadSpectrumDefaults verifies the state of a freshly loaded spectrum map
func TestLoadSpectrumDefaults(t *testing.T) {
	d := loadStub(t, spectrumSignal(3, 4, 5, counting))

	if d.SignalType != models.SignalTypeEDSTEM {
		t.Errorf("Expected signal type %s, got %q", models.SignalTypeEDSTEM, d.SignalType)
	}
	if d.Image != nil {
		t.Error("Expected no plain image for a spectrum map")
	}
	if d.LinesOfInterest == nil || len(d.LinesOfInterest) != 0 {
		t.Errorf("Expected an empty line list, got %#v", d.LinesOfInterest)
	}
	if d.LineIndex == nil || len(d.LineIndex) != 0 {
		t.Errorf("Expected an empty line index, got %#v", d.LineIndex)
	}
	if d.BinnedSpectralCube != nil || d.BinnedIntensityImage != nil {
		t.Error("Expected binned fields to be unset")
	}

	cube := d.SpectralCube
	if cube.Rows != 3 || cube.Cols != 4 || cube.Channels != 5 {
		t.Fatalf("Expected a 3x4x5 cube, got %dx%dx%d", cube.Rows, cube.Cols, cube.Channels)
	}
	if got := cube.At(2, 3, 4); got != float32(234) {
		t.Errorf("Expected sample 234 at (2,3,4), got %f", got)
	}

	img := d.IntensityImage
	if img.Rows != 3 || img.Cols != 4 {
		t.Fatalf("Expected a 3x4 intensity image, got %dx%d", img.Rows, img.Cols)
	}
	// sum over k of 100r+10c+k for k in 0..4
	if got, want := img.At(1, 2), float64(5*120+10); got != want {
		t.Errorf("Expected intensity %f at (1,2), got %f", want, got)
	}
}

// TestDefaultCalibration verifies the calibration applied on load
func TestDefaultCalibration(t *testing.T) {
	d := loadStub(t, spectrumSignal(2, 2, 8, counting))

	step, measured, nominal := 0.01, 8.07, 8.08
	want := step * measured / nominal

	ax := d.EnergyAxis()
	if ax == nil {
		t.Fatal("Expected an energy axis")
	}
	if ax.Scale != want {
		t.Errorf("Expected scale %v, got %v", want, ax.Scale)
	}
	if ax.Offset != -0.01 {
		t.Errorf("Expected offset -0.01, got %v", ax.Offset)
	}
	if ax.Unit != "keV" {
		t.Errorf("Expected unit keV, got %q", ax.Unit)
	}
	if got := d.ChannelEnergy(3); got != -0.01+3*want {
		t.Errorf("Expected channel 3 at %v keV, got %v", -0.01+3*want, got)
	}
}

// TestWithCalibration verifies a configured calibration replaces the default
func TestWithCalibration(t *testing.T) {
	cal := Calibration{Scale: 0.005, Offset: 0.1, Unit: "keV"}
	d := loadStub(t, spectrumSignal(2, 2, 8, counting), WithCalibration(cal))

	if got := d.Calibration(); got != cal {
		t.Errorf("Expected calibration %+v, got %+v", cal, got)
	}
}

// TestRawCubeIsIndependent verifies the raw cube is a copy of the loaded cube
func TestRawCubeIsIndependent(t *testing.T) {
	d := loadStub(t, spectrumSignal(3, 3, 4, counting))

	if d.RawSpectralCube == d.SpectralCube {
		t.Fatal("Expected the raw cube to be a distinct object")
	}
	for i := range d.SpectralCube.Data {
		if d.RawSpectralCube.Data[i] != d.SpectralCube.Data[i] {
			t.Fatalf("Expected raw sample %d to equal %f, got %f",
				i, d.SpectralCube.Data[i], d.RawSpectralCube.Data[i])
		}
	}

	d.SpectralCube.Set(0, 0, 0, -1)
	if d.RawSpectralCube.At(0, 0, 0) == -1 {
		t.Error("Expected raw cube to be unaffected by writes to the cube")
	}
}

// TestLoadImage verifies a 2D image file only populates Image
func TestLoadImage(t *testing.T) {
	sig := &models.Signal{
		Kind:  models.KindImage,
		Shape: []int{2, 3},
		Data:  []float64{1, 2, 3, 4, 5, 6},
		Axes: models.Axes{
			{Name: "y", Size: 2, Scale: 1},
			{Name: "x", Size: 3, Scale: 1},
		},
	}
	d := loadStub(t, sig)

	if d.Image == nil || d.Image.Rows != 2 || d.Image.Cols != 3 {
		t.Fatalf("Expected a 2x3 image, got %+v", d.Image)
	}
	if d.Image.At(1, 2) != 6 {
		t.Errorf("Expected pixel 6 at (1,2), got %f", d.Image.At(1, 2))
	}
	if d.IsSpectral() || d.IntensityImage != nil || d.RawSpectralCube != nil {
		t.Error("Expected no spectral fields on an image dataset")
	}
	if d.LinesOfInterest != nil || d.LineIndex != nil {
		t.Error("Expected line fields to stay unset on an image dataset")
	}
	if d.EnergyAxis() != nil {
		t.Error("Expected no energy axis on an image dataset")
	}

	if err := d.SetLinesOfInterest([]string{"Fe_Ka"}); !errors.Is(err, ErrNoSpectralCube) {
		t.Errorf("Expected ErrNoSpectralCube, got %v", err)
	}
	if err := d.TrimInvalidTail(); !errors.Is(err, ErrNoSpectralCube) {
		t.Errorf("Expected ErrNoSpectralCube, got %v", err)
	}
	if err := d.Rebin(2); !errors.Is(err, ErrNoSpectralCube) {
		t.Errorf("Expected ErrNoSpectralCube, got %v", err)
	}

	d.SetEnergyScale(1)
	if d.EnergyAxis() != nil {
		t.Error("Expected calibration on an image dataset to be ignored")
	}
}

// TestLoadUnsupportedKind verifies files of another layout are rejected
func TestLoadUnsupportedKind(t *testing.T) {
	single := &models.Signal{
		Kind:  models.KindUnknown,
		Shape: []int{16},
		Data:  make([]float64, 16),
		Axes:  models.Axes{{Name: "Energy", Size: 16, Scale: 0.01}},
	}
	_, err := Load("single.msig", WithDecoder(stubDecoder{sig: single}))
	if !errors.Is(err, ErrUnsupportedSignalKind) {
		t.Errorf("Expected ErrUnsupportedSignalKind, got %v", err)
	}

	// spectrum map stored with the energy axis first
	flipped := spectrumSignal(2, 2, 3, counting)
	flipped.Axes[0], flipped.Axes[2] = flipped.Axes[2], flipped.Axes[0]
	_, err = Load("flipped.msig", WithDecoder(stubDecoder{sig: flipped}))
	if !errors.Is(err, ErrUnsupportedSignalKind) {
		t.Errorf("Expected ErrUnsupportedSignalKind for a flipped layout, got %v", err)
	}
}

// TestLoadInconsistentLayout verifies a kind tag that disagrees with the
// shape, axes or samples is rejected instead of indexing out of range
func TestLoadInconsistentLayout(t *testing.T) {
	flat := spectrumSignal(2, 2, 3, counting)
	flat.Shape = []int{2, 2}
	flat.Axes = flat.Axes[:2]
	flat.Data = flat.Data[:4]

	deep := spectrumSignal(2, 2, 3, counting)
	deep.Kind = models.KindImage

	missingAxis := spectrumSignal(2, 2, 3, counting)
	missingAxis.Axes = missingAxis.Axes[:2]

	empty := spectrumSignal(2, 2, 3, counting)
	empty.Shape[1] = 0
	empty.Data = nil

	short := spectrumSignal(2, 2, 3, counting)
	short.Data = short.Data[:len(short.Data)-1]

	tests := []struct {
		name string
		sig  *models.Signal
	}{
		{"spectrum with two dimensions", flat},
		{"image with three dimensions", deep},
		{"fewer axes than dimensions", missingAxis},
		{"empty dimension", empty},
		{"short data", short},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Load("bad.msig", WithDecoder(stubDecoder{sig: tt.sig}))
			if !errors.Is(err, ErrUnsupportedSignalKind) {
				t.Errorf("Expected ErrUnsupportedSignalKind, got %v", err)
			}
			if d != nil {
				t.Errorf("Expected no dataset, got %+v", d)
			}
		})
	}
}

// TestLoadCopiesMetadata verifies the dataset does not share the decoded
// metadata map
func TestLoadCopiesMetadata(t *testing.T) {
	sig := spectrumSignal(2, 2, 3, counting)
	sig.Metadata = map[string]string{"title": "grain boundary"}
	d := loadStub(t, sig)

	sig.Metadata["title"] = "changed"
	sig.Metadata["extra"] = "x"
	if d.Metadata["title"] != "grain boundary" || len(d.Metadata) != 1 {
		t.Errorf("Expected the loaded metadata to be kept, got %v", d.Metadata)
	}

	d.Metadata["title"] = "edited"
	if sig.Metadata["title"] != "changed" {
		t.Errorf("Expected the decoded metadata to be untouched, got %v", sig.Metadata)
	}
}

// TestLoadDecodeError verifies decoder failures reach the caller
func TestLoadDecodeError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Load("broken.msig", WithDecoder(stubDecoder{err: boom}))
	if !errors.Is(err, boom) {
		t.Errorf("Expected the decoder error, got %v", err)
	}
}

// TestSetLinesOfInterest verifies the line list and its index
func TestSetLinesOfInterest(t *testing.T) {
	var buf bytes.Buffer
	d := loadStub(t, spectrumSignal(2, 2, 1024, counting), WithLogger(zerolog.New(&buf)))

	if err := d.SetLinesOfInterest([]string{"Fe_Ka", "O_Ka"}); err != nil {
		t.Fatalf("Failed to set lines: %v", err)
	}
	if len(d.LinesOfInterest) != 2 || d.LinesOfInterest[0] != "Fe_Ka" || d.LinesOfInterest[1] != "O_Ka" {
		t.Errorf("Expected [Fe_Ka O_Ka], got %v", d.LinesOfInterest)
	}
	if len(d.LineIndex) != 2 || d.LineIndex["Fe_Ka"] != 0 || d.LineIndex["O_Ka"] != 1 {
		t.Errorf("Expected {Fe_Ka:0 O_Ka:1}, got %v", d.LineIndex)
	}
	if !strings.Contains(buf.String(), "Set xray_lines to [Fe_Ka O_Ka]") {
		t.Errorf("Expected a notice with the new lines, got %q", buf.String())
	}

	// the index always follows the list
	if err := d.SetLinesOfInterest([]string{"Cu_Ka", "Si_Ka", "Fe_Ka"}); err != nil {
		t.Fatalf("Failed to set lines: %v", err)
	}
	for i, line := range d.LinesOfInterest {
		if d.LineIndex[line] != i {
			t.Errorf("Expected %s at %d, got %d", line, i, d.LineIndex[line])
		}
	}
	if len(d.LineIndex) != len(d.LinesOfInterest) {
		t.Errorf("Expected %d index entries, got %d", len(d.LinesOfInterest), len(d.LineIndex))
	}
}

// TestSetLinesOfInterestCopiesInput verifies later writes by the caller do
// not leak into the dataset
func TestSetLinesOfInterestCopiesInput(t *testing.T) {
	d := loadStub(t, spectrumSignal(2, 2, 1024, counting))

	lines := []string{"Fe_Ka", "O_Ka"}
	if err := d.SetLinesOfInterest(lines); err != nil {
		t.Fatalf("Failed to set lines: %v", err)
	}
	lines[0] = "Cu_Ka"
	if d.LinesOfInterest[0] != "Fe_Ka" {
		t.Errorf("Expected Fe_Ka to be kept, got %s", d.LinesOfInterest[0])
	}
}

// TestSetInvalidLine verifies unknown identifiers are rejected atomically
func TestSetInvalidLine(t *testing.T) {
	d := loadStub(t, spectrumSignal(2, 2, 1024, counting))
	if err := d.SetLinesOfInterest([]string{"Fe_Ka"}); err != nil {
		t.Fatalf("Failed to set lines: %v", err)
	}

	for _, bad := range [][]string{{"Fe_Ka", "Xx_Ka"}, {"O_La"}, {"FeKa"}} {
		err := d.SetLinesOfInterest(bad)
		if !errors.Is(err, ErrInvalidLineIdentifier) {
			t.Errorf("Expected ErrInvalidLineIdentifier for %v, got %v", bad, err)
		}
		if !errors.Is(err, xray.ErrUnknownLine) {
			t.Errorf("Expected the line database error to be wrapped for %v, got %v", bad, err)
		}
	}
	if len(d.LinesOfInterest) != 1 || d.LinesOfInterest[0] != "Fe_Ka" {
		t.Errorf("Expected [Fe_Ka] to be kept, got %v", d.LinesOfInterest)
	}
}

// TestSetLinesAcrossPeriodicTable verifies lines of every family are accepted
func TestSetLinesAcrossPeriodicTable(t *testing.T) {
	d := loadStub(t, spectrumSignal(2, 2, 2048, counting))

	lines := []string{"Pd_La", "B_Ka", "Y_La", "In_La", "Bi_Ma", "Se_Ka", "Ba_Ka", "Gd_La", "Fe_Lb3", "Ir_Ma"}
	if err := d.SetLinesOfInterest(lines); err != nil {
		t.Fatalf("Failed to set lines: %v", err)
	}
	if len(d.LineIndex) != len(lines) {
		t.Errorf("Expected %d index entries, got %d", len(lines), len(d.LineIndex))
	}
	for i, line := range lines {
		if d.LineIndex[line] != i {
			t.Errorf("Expected %s at %d, got %d", line, i, d.LineIndex[line])
		}
	}
}

// TestLineOutsideEnergyRangeWarns verifies a warning for unreachable lines
func TestLineOutsideEnergyRangeWarns(t *testing.T) {
	var buf bytes.Buffer
	// 100 channels of ~0.01 keV reach about 1 keV
	d := loadStub(t, spectrumSignal(2, 2, 100, counting), WithLogger(zerolog.New(&buf)))

	if err := d.SetLinesOfInterest([]string{"O_Ka", "Cu_Ka"}); err != nil {
		t.Fatalf("Failed to set lines: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"line":"Cu_Ka"`) {
		t.Errorf("Expected a warning for Cu_Ka, got %q", out)
	}
	if strings.Contains(out, `"line":"O_Ka"`) {
		t.Errorf("Expected no warning for O_Ka, got %q", out)
	}
}

// TestCalibrationSetters verifies each setter writes one attribute
func TestCalibrationSetters(t *testing.T) {
	d := loadStub(t, spectrumSignal(2, 2, 8, counting))

	d.SetEnergyScale(0.02)
	d.SetEnergyOffset(-0.5)
	d.SetEnergyUnit("eV")

	want := Calibration{Scale: 0.02, Offset: -0.5, Unit: "eV"}
	if got := d.Calibration(); got != want {
		t.Errorf("Expected calibration %+v, got %+v", want, got)
	}

	// navigation axes are untouched
	if ax := d.Axes.Get("x"); ax.Scale != 1 || ax.Unit != "nm" {
		t.Errorf("Expected x axis to keep its calibration, got %+v", *ax)
	}
}

// TestLoadFromFile verifies Load with the filesystem decoder
func TestLoadFromFile(t *testing.T) {
	sig := spectrumSignal(4, 3, 6, counting)
	sig.DType = "uint16"
	sig.Axes[2].Name = "channel"
	path := filepath.Join(t.TempDir(), "scan.msig")
	if err := signalio.Save(path, sig); err != nil {
		t.Fatalf("Failed to write signal file: %v", err)
	}

	d, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load %s: %v", path, err)
	}
	if d.Path != path {
		t.Errorf("Expected path %s, got %s", path, d.Path)
	}
	if d.SpectralCube.At(3, 2, 5) != float32(325) {
		t.Errorf("Expected sample 325 at (3,2,5), got %f", d.SpectralCube.At(3, 2, 5))
	}
	if d.EnergyAxis() == nil || d.EnergyAxis().Unit != "keV" {
		t.Errorf("Expected a calibrated energy axis, got %+v", d.EnergyAxis())
	}
	if d.ChannelEnergy(0) != -0.01 {
		t.Errorf("Expected channel 0 at -0.01 keV, got %v", d.ChannelEnergy(0))
	}
}
