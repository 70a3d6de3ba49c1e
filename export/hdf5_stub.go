//go:build !hdf5

package export

const hdf5Enabled = false

func writeHDF5(string, *Matrix, Metadata) error {
	return ErrHDF5Unavailable
}

func readHDF5(string) (*Matrix, error) {
	return nil, ErrHDF5Unavailable
}
