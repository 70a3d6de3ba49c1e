//go:build hdf5

package export

import (
	"errors"

	"gonum.org/v1/hdf5"
)

const hdf5Enabled = true

func writeHDF5(path string, m *Matrix, _ Metadata) error {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return err
	}
	defer f.Close()

	space, err := hdf5.CreateSimpleDataspace([]uint{uint(m.Rows), uint(m.Dim)}, nil)
	if err != nil {
		return err
	}
	defer space.Close()

	dset, err := f.CreateDataset(tensorName, hdf5.T_NATIVE_FLOAT, space)
	if err != nil {
		return err
	}
	defer dset.Close()

	return dset.Write(&m.Data)
}

func readHDF5(path string) (*Matrix, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dset, err := f.OpenDataset(tensorName)
	if err != nil {
		return nil, err
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, errors.New("hdf5: embeddings dataset is not 2-D")
	}

	m := &Matrix{Rows: int(dims[0]), Dim: int(dims[1])}
	m.Data = make([]float32, m.Rows*m.Dim)
	if err := dset.Read(&m.Data); err != nil {
		return nil, err
	}
	return m, nil
}
