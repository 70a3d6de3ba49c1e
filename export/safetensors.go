package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/goccy/go-json"
)

const (
	tensorName       = "embeddings"
	metadataKey      = "__metadata__"
	maxHeaderSize    = 100 << 20
	safetensorsAlign = 8
)

type tensorInfo struct {
	Dtype       string   `json:"dtype"`
	Shape       []int    `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

func writeSafetensorsFile(path string, m *Matrix, meta Metadata) error {
	return createAndWrite(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if err := writeSafetensors(w, m, meta); err != nil {
			return err
		}
		return w.Flush()
	})
}

// writeSafetensors emits: u64 header length, JSON header padded with spaces
// to 8 bytes, then little-endian F32 data.
func writeSafetensors(w io.Writer, m *Matrix, meta Metadata) error {
	header := map[string]any{
		metadataKey: map[string]string{
			"format": "vectorize",
			"model":  meta.Model,
		},
		tensorName: tensorInfo{
			Dtype:       "F32",
			Shape:       []int{m.Rows, m.Dim},
			DataOffsets: [2]int64{0, int64(len(m.Data)) * 4},
		},
	}
	hdr, err := json.Marshal(header)
	if err != nil {
		return err
	}
	if pad := len(hdr) % safetensorsAlign; pad != 0 {
		for i := 0; i < safetensorsAlign-pad; i++ {
			hdr = append(hdr, ' ')
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(hdr))); err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	return writeFloat32s(w, m.Data)
}

func readSafetensorsFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, _, err := readSafetensors(bufio.NewReader(f))
	return m, err
}

func readSafetensors(r io.Reader) (*Matrix, map[string]string, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, nil, fmt.Errorf("safetensors header length: %w", err)
	}
	if n == 0 || n > maxHeaderSize {
		return nil, nil, fmt.Errorf("safetensors header length %d out of range", n)
	}
	hdr := make([]byte, n)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, nil, fmt.Errorf("safetensors header: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(hdr, &raw); err != nil {
		return nil, nil, fmt.Errorf("safetensors header: %w", err)
	}
	var meta map[string]string
	if b, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(b, &meta); err != nil {
			return nil, nil, fmt.Errorf("safetensors metadata: %w", err)
		}
	}
	b, ok := raw[tensorName]
	if !ok {
		return nil, nil, errors.New("safetensors: no embeddings tensor")
	}
	var info tensorInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, nil, fmt.Errorf("safetensors tensor info: %w", err)
	}
	if info.Dtype != "F32" || len(info.Shape) != 2 {
		return nil, nil, fmt.Errorf("safetensors: unsupported tensor %s %v", info.Dtype, info.Shape)
	}

	rows, dim := info.Shape[0], info.Shape[1]
	if info.DataOffsets[1]-info.DataOffsets[0] != int64(rows)*int64(dim)*4 {
		return nil, nil, errors.New("safetensors: data offsets do not match shape")
	}
	if info.DataOffsets[0] > 0 {
		if _, err := io.CopyN(io.Discard, r, info.DataOffsets[0]); err != nil {
			return nil, nil, err
		}
	}
	data, err := readFloat32s(r, rows*dim)
	if err != nil {
		return nil, nil, err
	}
	return &Matrix{Rows: rows, Dim: dim, Data: data}, meta, nil
}

// ReadMetadata returns the __metadata__ map of a native-tensor artifact.
func ReadMetadata(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	_, meta, err := readSafetensors(bufio.NewReader(f))
	return meta, err
}

func writeFloat32s(w io.Writer, data []float32) error {
	buf := make([]byte, 4*1024)
	for len(data) > 0 {
		n := min(len(data), len(buf)/4)
		for i, v := range data[:n] {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		if _, err := w.Write(buf[:n*4]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func readFloat32s(r io.Reader, count int) ([]float32, error) {
	data := make([]float32, count)
	buf := make([]byte, 4*1024)
	for off := 0; off < count; {
		n := min(count-off, len(buf)/4)
		if _, err := io.ReadFull(r, buf[:n*4]); err != nil {
			return nil, fmt.Errorf("reading vector data: %w", err)
		}
		for i := 0; i < n; i++ {
			data[off+i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		}
		off += n
	}
	return data, nil
}
