package core

import (
	"encoding/binary"
	"sort"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for records.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical text always yields the same ID, which makes it usable as a cache key.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Record is one unit of text to embed. Index is its position in the source.
type Record struct {
	Index int
	Text  string
	ID    ID
}

// NewRecord builds a Record and derives its ID from the text.
func NewRecord(index int, text string) Record {
	return Record{Index: index, Text: text, ID: IDFromContent(text)}
}

// Texts returns the text of each record in order.
func Texts(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Text
	}
	return out
}

// Request carries everything a run needs from its caller.
type Request struct {
	InputPath  string
	OutputDir  string
	Model      string
	OutputName string
	Format     string
	BatchSize  int
}

// Snapshot is a point-in-time view of run telemetry.
// OutputPath and FailedRecords are only populated in the final snapshot.
type Snapshot struct {
	Progress       float64 // percent, 0..100
	ItemsProcessed int
	TotalItems     int
	Speed          float64 // items per second
	ETA            time.Duration
	ErrorCount     int
	MemoryMB       float64 // current RSS, or peak in the final snapshot
	PeakMemoryMB   float64
	EmbeddingDim   int
	ModelName      string
	OutputSizeMB   float64 // estimate while running, actual artifact size when final
	Elapsed        time.Duration
	BatchIndex     int // 1-based index of the last attempted batch
	BatchCount     int
	OutputPath     string
	FailedRecords  []int
}

// Clone returns a copy that shares no mutable state with s.
func (s Snapshot) Clone() Snapshot {
	if s.FailedRecords != nil {
		s.FailedRecords = append([]int(nil), s.FailedRecords...)
	}
	return s
}

// Artifact describes a serialized vector set on disk.
type Artifact struct {
	Path   string
	Format OutputFormat
	Size   int64
	Rows   int
	Dim    int
}

// RunRecord is the persisted summary of a finished run.
type RunRecord struct {
	ID            ID
	Request       Request
	State         RunState
	Stats         Snapshot
	Error         string
	FailedRecords []int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// RowMapping maps artifact rows back to record indices when the records in
// failed are absent from the artifact. The result has total-len(failed) entries.
func RowMapping(total int, failed []int) []int {
	skip := make(map[int]struct{}, len(failed))
	for _, idx := range failed {
		skip[idx] = struct{}{}
	}
	rows := make([]int, 0, total)
	for i := 0; i < total; i++ {
		if _, ok := skip[i]; !ok {
			rows = append(rows, i)
		}
	}
	return rows
}

// SortedIndices returns a sorted copy of indices.
func SortedIndices(indices []int) []int {
	out := append([]int(nil), indices...)
	sort.Ints(out)
	return out
}
