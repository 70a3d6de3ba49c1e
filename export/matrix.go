package export

import (
	"fmt"

	"github.com/poiesic/vectorize/core"
)

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	Rows int
	Dim  int
	Data []float32
}

// NewMatrix flattens vectors into a Matrix. Every vector must have length dim
// and there must be at least one.
func NewMatrix(vectors [][]float32, dim int) (*Matrix, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors to write", core.ErrSerialize)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", core.ErrSerialize, dim)
	}
	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has length %d, want %d", core.ErrSerialize, i, len(v), dim)
		}
		data = append(data, v...)
	}
	return &Matrix{Rows: len(vectors), Dim: dim, Data: data}, nil
}

// Row returns row i as a sub-slice of Data.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Dim : (i+1)*m.Dim]
}

// Vectors returns the rows as separate slices sharing Data.
func (m *Matrix) Vectors() [][]float32 {
	out := make([][]float32, m.Rows)
	for i := range out {
		out[i] = m.Row(i)
	}
	return out
}

func (m *Matrix) check() error {
	if m.Rows < 0 || m.Dim < 0 || len(m.Data) != m.Rows*m.Dim {
		return fmt.Errorf("shape (%d, %d) does not match %d values", m.Rows, m.Dim, len(m.Data))
	}
	return nil
}
