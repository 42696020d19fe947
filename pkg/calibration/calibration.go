// Package calibration reads and writes camera calibration files.
//
// A calibration file holds the 3x3 camera (intrinsic) matrix followed by the
// distortion coefficients. Each matrix is stored as its row count, its column
// count and then its values in row-major order, all whitespace separated and
// written one per line:
//
//	3
//	3
//	fx
//	0
//	cx
//	...
//	5
//	1
//	k1
//	...
package calibration

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
)

// DefaultFileName is the calibration file produced by cmd/calibrate.
const DefaultFileName = "CameraCalibration"

// maxDim is the largest dimension the file format can carry.
const maxDim = math.MaxUint16

// Matrix is a dense row-major matrix of doubles.
type Matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// NewMatrix returns a zero matrix of the given size.
func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// Identity returns an n x n identity matrix.
func Identity(n int) Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// At returns the element at row r, column c.
func (m Matrix) At(r, c int) float64 {
	return m.Data[r*m.Cols+c]
}

// Set stores v at row r, column c.
func (m Matrix) Set(r, c int, v float64) {
	m.Data[r*m.Cols+c] = v
}

// Empty reports whether the matrix has no elements.
func (m Matrix) Empty() bool {
	return m.Rows == 0 || m.Cols == 0
}

// Calibration holds camera intrinsics and lens distortion.
type Calibration struct {
	CameraMatrix Matrix `json:"camera_matrix"`
	Distortion   Matrix `json:"distortion"`
}

// Default returns an identity camera matrix with no distortion.
func Default() Calibration {
	return Calibration{
		CameraMatrix: Identity(3),
		Distortion:   NewMatrix(5, 1),
	}
}

// Focal returns the focal lengths fx, fy in pixels.
func (c Calibration) Focal() (fx, fy float64) {
	if c.CameraMatrix.Rows < 2 || c.CameraMatrix.Cols < 2 {
		return 0, 0
	}
	return c.CameraMatrix.At(0, 0), c.CameraMatrix.At(1, 1)
}

// Principal returns the principal point cx, cy in pixels.
func (c Calibration) Principal() (cx, cy float64) {
	if c.CameraMatrix.Rows < 2 || c.CameraMatrix.Cols < 3 {
		return 0, 0
	}
	return c.CameraMatrix.At(0, 2), c.CameraMatrix.At(1, 2)
}

// Parse reads a calibration in file format from r.
func Parse(r io.Reader) (Calibration, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	camera, err := readMatrix(sc, "camera matrix")
	if err != nil {
		return Calibration{}, err
	}
	dist, err := readMatrix(sc, "distortion")
	if err != nil {
		return Calibration{}, err
	}
	if err := sc.Err(); err != nil {
		return Calibration{}, fmt.Errorf("calibration: read: %w", err)
	}

	return Calibration{CameraMatrix: camera, Distortion: dist}, nil
}

func readMatrix(sc *bufio.Scanner, name string) (Matrix, error) {
	rows, err := readDim(sc, name, "rows")
	if err != nil {
		return Matrix{}, err
	}
	cols, err := readDim(sc, name, "cols")
	if err != nil {
		return Matrix{}, err
	}

	m := NewMatrix(rows, cols)
	for i := range m.Data {
		if !sc.Scan() {
			return Matrix{}, &FormatError{Section: name, Index: i, Err: ErrMalformed}
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return Matrix{}, &FormatError{Section: name, Index: i, Err: ErrMalformed}
		}
		m.Data[i] = v
	}
	return m, nil
}

func readDim(sc *bufio.Scanner, name, which string) (int, error) {
	if !sc.Scan() {
		return 0, &FormatError{Section: name + " " + which, Index: -1, Err: ErrMalformed}
	}
	n, err := strconv.Atoi(sc.Text())
	if err != nil {
		return 0, &FormatError{Section: name + " " + which, Index: -1, Err: ErrMalformed}
	}
	if n <= 0 || n > maxDim {
		return 0, &FormatError{Section: name + " " + which, Index: -1, Err: ErrDimensions}
	}
	return n, nil
}

// Write encodes c in file format to w.
func (c Calibration) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, m := range []Matrix{c.CameraMatrix, c.Distortion} {
		if m.Empty() || m.Rows > maxDim || m.Cols > maxDim || len(m.Data) != m.Rows*m.Cols {
			return ErrDimensions
		}
		fmt.Fprintf(bw, "%d\n%d\n", m.Rows, m.Cols)
		for _, v := range m.Data {
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// Load reads the calibration file at path.
func Load(path string) (Calibration, error) {
	f, err := os.Open(path)
	if err != nil {
		return Calibration{}, fmt.Errorf("calibration: open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return Calibration{}, fmt.Errorf("calibration: %s: %w", path, err)
	}
	return c, nil
}

// Save writes c to path, replacing any existing file.
func (c Calibration) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("calibration: create %s: %w", path, err)
	}
	if err := c.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("calibration: write %s: %w", path, err)
	}
	return f.Close()
}
