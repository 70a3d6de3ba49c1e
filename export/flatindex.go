package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// IndexFlatL2 on-disk constants.
var flatL2FourCC = [4]byte{'I', 'x', 'F', '2'}

const (
	metricL2    int32 = 1
	headerDummy int64 = 1 << 20
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension does not match index")

	errNotFlatIndex = errors.New("not an IndexFlatL2 file")
)

// Neighbor is a search hit. Distance is the squared L2 distance.
type Neighbor struct {
	Row      int
	Distance float32
}

// FlatIndex is an exhaustive L2 index over float32 vectors.
// It is not safe for concurrent mutation.
type FlatIndex struct {
	dim  int
	data []float32
}

// NewFlatIndex creates an empty index for vectors of length dim.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Dim returns the vector length.
func (ix *FlatIndex) Dim() int { return ix.dim }

// Len returns the number of stored vectors.
func (ix *FlatIndex) Len() int {
	if ix.dim == 0 {
		return 0
	}
	return len(ix.data) / ix.dim
}

// Add appends vectors; row numbers continue from Len.
func (ix *FlatIndex) Add(vectors ...[]float32) error {
	for _, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), ix.dim)
		}
	}
	for _, v := range vectors {
		ix.data = append(ix.data, v...)
	}
	return nil
}

// Search returns up to k nearest rows to query, closest first. Ties keep row order.
func (ix *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), ix.dim)
	}
	n := ix.Len()
	if k <= 0 || n == 0 {
		return nil, nil
	}

	hits := make([]Neighbor, n)
	for row := 0; row < n; row++ {
		hits[row] = Neighbor{Row: row, Distance: squaredL2(query, ix.data[row*ix.dim:(row+1)*ix.dim])}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits[:min(k, n)], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Matrix returns the stored vectors, sharing memory with the index.
func (ix *FlatIndex) Matrix() *Matrix {
	return &Matrix{Rows: ix.Len(), Dim: ix.dim, Data: ix.data}
}

// WriteTo serializes the index in the FAISS IndexFlatL2 layout.
func (ix *FlatIndex) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	fields := []any{
		flatL2FourCC,
		int32(ix.dim),
		int64(ix.Len()),
		headerDummy,
		headerDummy,
		uint8(1), // is_trained
		metricL2,
		uint64(len(ix.data)),
	}
	for _, v := range fields {
		if err := binary.Write(cw, binary.LittleEndian, v); err != nil {
			return cw.n, err
		}
	}
	err := writeFloat32s(cw, ix.data)
	return cw.n, err
}

// ReadFlatIndex parses an index written by WriteTo or by FAISS write_index
// for an IndexFlatL2.
func ReadFlatIndex(r io.Reader) (*FlatIndex, error) {
	var hdr struct {
		FourCC    [4]byte
		Dim       int32
		Total     int64
		Dummy1    int64
		Dummy2    int64
		IsTrained uint8
		Metric    int32
		Count     uint64
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("flat index header: %w", err)
	}
	if hdr.FourCC != flatL2FourCC || hdr.Metric != metricL2 {
		return nil, errNotFlatIndex
	}
	if hdr.Dim <= 0 || hdr.Total < 0 || hdr.Count != uint64(hdr.Total)*uint64(hdr.Dim) {
		return nil, fmt.Errorf("flat index: inconsistent shape (%d, %d) with %d values", hdr.Total, hdr.Dim, hdr.Count)
	}

	data, err := readFloat32s(r, int(hdr.Count))
	if err != nil {
		return nil, err
	}
	return &FlatIndex{dim: int(hdr.Dim), data: data}, nil
}

// OpenFlatIndex reads a flat-index artifact from disk.
func OpenFlatIndex(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFlatIndex(bufio.NewReader(f))
}

func writeFlatIndexFile(path string, m *Matrix, _ Metadata) error {
	ix := &FlatIndex{dim: m.Dim, data: m.Data}
	return createAndWrite(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if _, err := ix.WriteTo(w); err != nil {
			return err
		}
		return w.Flush()
	})
}

func readFlatIndexFile(path string) (*Matrix, error) {
	ix, err := OpenFlatIndex(path)
	if err != nil {
		return nil, err
	}
	return ix.Matrix(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
