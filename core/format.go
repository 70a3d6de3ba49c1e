package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OutputFormat is a serialization token.
type OutputFormat string

const (
	// FormatNativeTensor is a safetensors container holding one F32 tensor.
	FormatNativeTensor OutputFormat = "native-tensor"
	// FormatDenseArray is a NumPy .npy array.
	FormatDenseArray OutputFormat = "dense-array"
	// FormatHierarchical is an HDF5 file with a single dataset.
	FormatHierarchical OutputFormat = "hierarchical"
	// FormatFlatIndex is a brute-force L2 index in the FAISS IndexFlatL2 layout.
	FormatFlatIndex OutputFormat = "flat-index"
)

// OutputFormats lists every supported token.
var OutputFormats = []OutputFormat{
	FormatNativeTensor,
	FormatDenseArray,
	FormatHierarchical,
	FormatFlatIndex,
}

// ParseFormat matches token exactly (case-sensitive) after stripping any
// leading dots.
func ParseFormat(token string) (OutputFormat, error) {
	t := strings.TrimLeft(token, ".")
	for _, f := range OutputFormats {
		if string(f) == t {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: output format %q", ErrUnsupportedFormat, token)
}

// InputKind identifies a supported source file type.
type InputKind string

const (
	InputText  InputKind = ".txt"
	InputCSV   InputKind = ".csv"
	InputJSON  InputKind = ".json"
	InputExcel InputKind = ".xlsx"
)

// InputKindFor returns the input kind for path based on its extension.
// Matching is case-sensitive.
func InputKindFor(path string) (InputKind, error) {
	switch k := InputKind(filepath.Ext(path)); k {
	case InputText, InputCSV, InputJSON, InputExcel:
		return k, nil
	default:
		return "", fmt.Errorf("%w: input extension %q", ErrUnsupportedFormat, string(k))
	}
}

// ArtifactPath joins the output location as {dir}/{name}.{format}.
func ArtifactPath(dir, name string, format OutputFormat) string {
	return filepath.Join(dir, name+"."+string(format))
}
