// Package signalio reads and writes microscopy signal files.
//
// A signal file starts with the line "MSIG1", followed by a YAML header that
// describes the sample type, shape and axes, terminated by the YAML document
// end marker "...". The samples follow as a zstd-compressed stream of
// little-endian values in row-major order.
package signalio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"sigmatem/internal/models"
)

const (
	magic     = "MSIG1"
	headerEnd = "..."
)

var (
	// ErrBadMagic is returned when the input is not a signal file
	ErrBadMagic = errors.New("signalio: not a signal file")

	// ErrUnsupportedDType is returned for sample types the codec cannot handle
	ErrUnsupportedDType = errors.New("signalio: unsupported dtype")

	// ErrShapeMismatch is returned when header and payload disagree
	ErrShapeMismatch = errors.New("signalio: shape mismatch")
)

type header struct {
	SignalType string            `yaml:"signal_type,omitempty"`
	DType      string            `yaml:"dtype"`
	Shape      []int             `yaml:"shape"`
	Axes       models.Axes       `yaml:"axes"`
	Metadata   map[string]string `yaml:"metadata,omitempty"`
}

// dtypeSize returns the width in bytes of one sample
func dtypeSize(dtype string) (int, error) {
	switch dtype {
	case "uint8":
		return 1, nil
	case "uint16", "int16":
		return 2, nil
	case "uint32", "int32", "float32":
		return 4, nil
	case "float64":
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, dtype)
	}
}

// Read decodes a signal from r. The kind is derived from the axes.
func Read(r io.Reader) (*models.Signal, error) {
	br := bufio.NewReader(r)

	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading signal file: %w", err)
	}
	if strings.TrimRight(first, "\r\n") != magic {
		return nil, ErrBadMagic
	}

	var raw bytes.Buffer
	for {
		line, err := br.ReadString('\n')
		if strings.TrimRight(line, "\r\n") == headerEnd {
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("signal header is not terminated")
			}
			return nil, fmt.Errorf("error reading signal header: %w", err)
		}
		raw.WriteString(line)
	}

	var h header
	if err := yaml.Unmarshal(raw.Bytes(), &h); err != nil {
		return nil, fmt.Errorf("error parsing signal header: %w", err)
	}
	if err := h.validate(); err != nil {
		return nil, err
	}

	size, err := dtypeSize(h.DType)
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	sig := &models.Signal{
		SignalType: h.SignalType,
		DType:      h.DType,
		Shape:      h.Shape,
		Axes:       h.Axes,
		Metadata:   h.Metadata,
	}
	n := sig.Len()

	// One byte past the expected length is enough to detect an oversized payload
	payload, err := io.ReadAll(io.LimitReader(dec, int64(n*size)+1))
	if err != nil {
		return nil, fmt.Errorf("error decompressing samples: %w", err)
	}
	if len(payload) != n*size {
		return nil, fmt.Errorf("%w: header describes %d bytes of samples, payload differs",
			ErrShapeMismatch, n*size)
	}
	sig.Data = decodeSamples(h.DType, payload, n)
	sig.Kind = sig.Axes.Classify()

	return sig, nil
}

func (h *header) validate() error {
	if len(h.Shape) == 0 {
		return fmt.Errorf("%w: empty shape", ErrShapeMismatch)
	}
	if len(h.Axes) != len(h.Shape) {
		return fmt.Errorf("%w: %d axes for %d dimensions", ErrShapeMismatch, len(h.Axes), len(h.Shape))
	}
	for i, d := range h.Shape {
		if d <= 0 {
			return fmt.Errorf("%w: dimension %d has size %d", ErrShapeMismatch, i, d)
		}
		if h.Axes[i].Size == 0 {
			h.Axes[i].Size = d
		} else if h.Axes[i].Size != d {
			return fmt.Errorf("%w: axis %q has size %d, shape says %d",
				ErrShapeMismatch, h.Axes[i].Name, h.Axes[i].Size, d)
		}
	}
	return nil
}

func decodeSamples(dtype string, payload []byte, n int) []float64 {
	le := binary.LittleEndian
	out := make([]float64, n)
	for i := range out {
		switch dtype {
		case "uint8":
			out[i] = float64(payload[i])
		case "uint16":
			out[i] = float64(le.Uint16(payload[2*i:]))
		case "int16":
			out[i] = float64(int16(le.Uint16(payload[2*i:])))
		case "uint32":
			out[i] = float64(le.Uint32(payload[4*i:]))
		case "int32":
			out[i] = float64(int32(le.Uint32(payload[4*i:])))
		case "float32":
			out[i] = float64(math.Float32frombits(le.Uint32(payload[4*i:])))
		case "float64":
			out[i] = math.Float64frombits(le.Uint64(payload[8*i:]))
		}
	}
	return out
}

// Write encodes sig to w. An empty DType is written as float64.
func Write(w io.Writer, sig *models.Signal) error {
	h := header{
		SignalType: sig.SignalType,
		DType:      sig.DType,
		Shape:      sig.Shape,
		Axes:       sig.Axes.Clone(),
		Metadata:   sig.Metadata,
	}
	if h.DType == "" {
		h.DType = "float64"
	}
	if err := h.validate(); err != nil {
		return err
	}
	if _, err := dtypeSize(h.DType); err != nil {
		return err
	}
	if len(sig.Data) != sig.Len() {
		return fmt.Errorf("%w: shape describes %d samples, data holds %d",
			ErrShapeMismatch, sig.Len(), len(sig.Data))
	}

	hdr, err := yaml.Marshal(&h)
	if err != nil {
		return fmt.Errorf("error marshaling signal header: %w", err)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(magic + "\n")
	bw.Write(hdr)
	bw.WriteString(headerEnd + "\n")

	enc, err := zstd.NewWriter(bw)
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if _, err := enc.Write(encodeSamples(h.DType, sig.Data)); err != nil {
		enc.Close()
		return fmt.Errorf("error compressing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("error compressing samples: %w", err)
	}
	return bw.Flush()
}

func encodeSamples(dtype string, data []float64) []byte {
	le := binary.LittleEndian
	size, _ := dtypeSize(dtype)
	buf := make([]byte, 0, len(data)*size)
	for _, v := range data {
		switch dtype {
		case "uint8":
			buf = append(buf, uint8(v))
		case "uint16":
			buf = le.AppendUint16(buf, uint16(v))
		case "int16":
			buf = le.AppendUint16(buf, uint16(int16(v)))
		case "uint32":
			buf = le.AppendUint32(buf, uint32(v))
		case "int32":
			buf = le.AppendUint32(buf, uint32(int32(v)))
		case "float32":
			buf = le.AppendUint32(buf, math.Float32bits(float32(v)))
		case "float64":
			buf = le.AppendUint64(buf, math.Float64bits(v))
		}
	}
	return buf
}
