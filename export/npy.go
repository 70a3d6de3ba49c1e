package export

import (
	"bufio"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// dense-array artifacts hold float64 values, the only element type npyio
// writes for a 2-D gonum matrix. Values round-trip exactly from float32.

func writeNpyFile(path string, m *Matrix, _ Metadata) error {
	data := make([]float64, len(m.Data))
	for i, v := range m.Data {
		data[i] = float64(v)
	}
	dense := mat.NewDense(m.Rows, m.Dim, data)

	return createAndWrite(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if err := npyio.Write(w, dense); err != nil {
			return err
		}
		return w.Flush()
	})
}

func readNpyFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var dense mat.Dense
	if err := npyio.Read(bufio.NewReader(f), &dense); err != nil {
		return nil, err
	}

	rows, dim := dense.Dims()
	out := &Matrix{Rows: rows, Dim: dim, Data: make([]float32, 0, rows*dim)}
	for i := 0; i < rows; i++ {
		for j := 0; j < dim; j++ {
			out.Data = append(out.Data, float32(dense.At(i, j)))
		}
	}
	return out, nil
}
