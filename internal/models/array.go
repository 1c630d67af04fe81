package models

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Cube is a spectral cube indexed by (row, column, channel) with the
// channel index varying fastest. Samples are held in single precision.
type Cube struct {
	Rows, Cols, Channels int
	Data                 []float32
}

// NewCube allocates a zeroed cube
func NewCube(rows, cols, channels int) *Cube {
	return &Cube{
		Rows:     rows,
		Cols:     cols,
		Channels: channels,
		Data:     make([]float32, rows*cols*channels),
	}
}

// CubeFromFloat64 converts row-major samples into a single precision cube
func CubeFromFloat64(rows, cols, channels int, data []float64) (*Cube, error) {
	if len(data) != rows*cols*channels {
		return nil, fmt.Errorf("cube of %dx%dx%d needs %d samples, got %d",
			rows, cols, channels, rows*cols*channels, len(data))
	}
	c := NewCube(rows, cols, channels)
	for i, v := range data {
		c.Data[i] = float32(v)
	}
	return c, nil
}

func (c *Cube) index(row, col, channel int) int {
	return (row*c.Cols+col)*c.Channels + channel
}

// At returns the sample at (row, col, channel)
func (c *Cube) At(row, col, channel int) float32 {
	return c.Data[c.index(row, col, channel)]
}

// Set stores a sample at (row, col, channel)
func (c *Cube) Set(row, col, channel int, v float32) {
	c.Data[c.index(row, col, channel)] = v
}

// Spectrum returns the spectrum of one pixel. The slice aliases the cube.
func (c *Cube) Spectrum(row, col int) []float32 {
	start := c.index(row, col, 0)
	return c.Data[start : start+c.Channels]
}

// Column returns the first-axis samples of one column and channel
func (c *Cube) Column(col, channel int) []float32 {
	out := make([]float32, c.Rows)
	for r := 0; r < c.Rows; r++ {
		out[r] = c.At(r, col, channel)
	}
	return out
}

// Clone returns a deep copy of the cube
func (c *Cube) Clone() *Cube {
	out := &Cube{Rows: c.Rows, Cols: c.Cols, Channels: c.Channels}
	out.Data = make([]float32, len(c.Data))
	copy(out.Data, c.Data)
	return out
}

// TruncateRows keeps the first n rows
func (c *Cube) TruncateRows(n int) {
	if n < 0 || n > c.Rows {
		panic(fmt.Sprintf("models: truncate to %d rows of %d", n, c.Rows))
	}
	c.Rows = n
	c.Data = c.Data[:n*c.Cols*c.Channels]
}

// Image is a 2D row-major image in double precision
type Image struct {
	Rows, Cols int
	Data       []float64
}

// NewImage allocates a zeroed image
func NewImage(rows, cols int) *Image {
	return &Image{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the pixel at (row, col)
func (m *Image) At(row, col int) float64 {
	return m.Data[row*m.Cols+col]
}

// Set stores a pixel at (row, col)
func (m *Image) Set(row, col int, v float64) {
	m.Data[row*m.Cols+col] = v
}

// Clone returns a deep copy of the image
func (m *Image) Clone() *Image {
	out := &Image{Rows: m.Rows, Cols: m.Cols, Data: make([]float64, len(m.Data))}
	copy(out.Data, m.Data)
	return out
}

// TruncateRows keeps the first n rows
func (m *Image) TruncateRows(n int) {
	if n < 0 || n > m.Rows {
		panic(fmt.Sprintf("models: truncate to %d rows of %d", n, m.Rows))
	}
	m.Rows = n
	m.Data = m.Data[:n*m.Cols]
}

// SumSpectra sums row-major samples of shape (rows, cols, channels) over
// the last axis without any precision loss
func SumSpectra(rows, cols, channels int, data []float64) *Image {
	img := NewImage(rows, cols)
	for p := 0; p < rows*cols; p++ {
		img.Data[p] = floats.Sum(data[p*channels : (p+1)*channels])
	}
	return img
}
