package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poiesic/vectorize/core"
)

// ErrHDF5Unavailable is returned for the hierarchical format when the binary
// was built without the hdf5 tag.
var ErrHDF5Unavailable = errors.New("hierarchical format requires a build with -tags hdf5")

// Metadata is stored alongside the vectors where the format allows it.
type Metadata struct {
	Model string
}

// Write serializes vectors to path in the given format and reports the
// resulting artifact. All failures wrap core.ErrSerialize except a format
// this build cannot write, which wraps core.ErrUnsupportedFormat.
func Write(vectors [][]float32, dim int, path string, format core.OutputFormat, meta Metadata) (*core.Artifact, error) {
	if err := Supported(format); err != nil {
		return nil, err
	}
	write, err := writerFor(format)
	if err != nil {
		return nil, err
	}
	m, err := NewMatrix(vectors, dim)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSerialize, err)
	}
	tmpPath := tmp.Name()
	// hdf5 reopens the file by name
	tmp.Close()

	if err := write(tmpPath, m, meta); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: %s: %v", core.ErrSerialize, format, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("%w: %v", core.ErrSerialize, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSerialize, err)
	}
	return &core.Artifact{
		Path:   path,
		Format: format,
		Size:   info.Size(),
		Rows:   m.Rows,
		Dim:    m.Dim,
	}, nil
}

// Supported returns an error wrapping core.ErrUnsupportedFormat when this
// build has no writer for format.
func Supported(format core.OutputFormat) error {
	if _, err := writerFor(format); err != nil {
		return err
	}
	if format == core.FormatHierarchical && !hdf5Enabled {
		return fmt.Errorf("%w: %s: %v", core.ErrUnsupportedFormat, format, ErrHDF5Unavailable)
	}
	return nil
}

// Read loads an artifact written by Write.
func Read(path string, format core.OutputFormat) (*Matrix, error) {
	var read func(string) (*Matrix, error)
	switch format {
	case core.FormatNativeTensor:
		read = readSafetensorsFile
	case core.FormatDenseArray:
		read = readNpyFile
	case core.FormatHierarchical:
		read = readHDF5
	case core.FormatFlatIndex:
		read = readFlatIndexFile
	default:
		return nil, fmt.Errorf("%w: output format %q", core.ErrUnsupportedFormat, string(format))
	}

	m, err := read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrRead, err)
	}
	if err := m.check(); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrRead, err)
	}
	return m, nil
}

// ReadAny infers the format from the file extension.
func ReadAny(path string) (*Matrix, core.OutputFormat, error) {
	format, err := core.ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, "", err
	}
	m, err := Read(path, format)
	return m, format, err
}

func writerFor(format core.OutputFormat) (func(string, *Matrix, Metadata) error, error) {
	switch format {
	case core.FormatNativeTensor:
		return writeSafetensorsFile, nil
	case core.FormatDenseArray:
		return writeNpyFile, nil
	case core.FormatHierarchical:
		return writeHDF5, nil
	case core.FormatFlatIndex:
		return writeFlatIndexFile, nil
	default:
		return nil, fmt.Errorf("%w: output format %q", core.ErrUnsupportedFormat, string(format))
	}
}

// createAndWrite opens path for writing and closes it, keeping the first error.
func createAndWrite(path string, fn func(f *os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
