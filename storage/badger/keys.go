package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/vectorize/core"
)

// Key prefixes for different data types
const (
	runRecordPrefix   = "runrec"
	runFinishedPrefix = "runrecf"
	runIDSeq          = "runrecseq"
	vectorCachePrefix = "vec"
)

// makeRunKey generates a key for a run record by ID.
func makeRunKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", runRecordPrefix, id))
}

// makeRunFinishedKey generates a composite key for the recency index.
// Format: prefix:timestamp:id
func makeRunFinishedKey(timestamp time.Time, id core.ID) []byte {
	prefix := []byte(runFinishedPrefix + ":")
	buf := make([]byte, len(prefix)+16) // 8 bytes for timestamp + 8 bytes for ID
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeMaxRunFinishedKey is the seek target for reverse iteration over the
// recency index.
func makeMaxRunFinishedKey() []byte {
	prefix := []byte(runFinishedPrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	for i := offset; i < len(buf); i++ {
		buf[i] = 0xFF
	}
	return buf
}

// makeVectorKey generates a key for a cached vector.
// Format: prefix:model:id
func makeVectorKey(model string, id core.ID) []byte {
	prefix := vectorCachePrefix + ":" + model + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
