// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/vectorize/core"
)

// runRecordVersion prefixes every encoded RunRecord.
const runRecordVersion = 1

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(v), err
}

// MarshalVector serializes a vector as a length followed by raw float32 values.
func MarshalVector(v []float32) []byte {
	buf := make([]byte, vectorSize(v))
	marshalVector(v, buf)
	return buf
}

// UnmarshalVector deserializes a vector written by MarshalVector.
func UnmarshalVector(data []byte) ([]float32, error) {
	r := &reader{bs: data}
	v := r.vector()
	return v, r.done()
}

// MarshalRunRecord serializes a RunRecord to bytes.
// Stats.FailedRecords is not stored; the run's FailedRecords is.
func MarshalRunRecord(run *core.RunRecord) []byte {
	fields := runFields(run)
	size := 0
	for _, f := range fields {
		size += f.size()
	}
	buf := make([]byte, size)
	n := 0
	for _, f := range fields {
		n += f.marshal(buf[n:])
	}
	return buf
}

// UnmarshalRunRecord deserializes a RunRecord from bytes.
func UnmarshalRunRecord(data []byte) (*core.RunRecord, error) {
	r := &reader{bs: data}
	if v := r.int(); r.err == nil && v != runRecordVersion {
		return nil, fmt.Errorf("%w: unknown run record version %d", ErrSerializationFailed, v)
	}

	run := &core.RunRecord{}
	run.ID = core.ID(r.uint64())
	run.Request.InputPath = r.string()
	run.Request.OutputDir = r.string()
	run.Request.Model = r.string()
	run.Request.OutputName = r.string()
	run.Request.Format = r.string()
	run.Request.BatchSize = r.int()
	run.State = core.RunState(r.int())

	s := &run.Stats
	s.Progress = r.float64()
	s.ItemsProcessed = r.int()
	s.TotalItems = r.int()
	s.Speed = r.float64()
	s.ETA = time.Duration(r.int64())
	s.ErrorCount = r.int()
	s.MemoryMB = r.float64()
	s.PeakMemoryMB = r.float64()
	s.EmbeddingDim = r.int()
	s.ModelName = r.string()
	s.OutputSizeMB = r.float64()
	s.Elapsed = time.Duration(r.int64())
	s.BatchIndex = r.int()
	s.BatchCount = r.int()
	s.OutputPath = r.string()

	run.Error = r.string()
	if n := r.int(); r.err == nil && n > 0 {
		if n > len(data) {
			return nil, fmt.Errorf("%w: %w: failed record count %d", ErrSerializationFailed, ErrTruncatedData, n)
		}
		run.FailedRecords = make([]int, n)
		for i := range run.FailedRecords {
			run.FailedRecords[i] = r.int()
		}
	}
	run.StartedAt = r.time()
	run.FinishedAt = r.time()

	if err := r.done(); err != nil {
		return nil, err
	}
	return run, nil
}

// field is one encoded value in a record layout.
type field struct {
	size    func() int
	marshal func(bs []byte) int
}

func intField(v int) field {
	return field{
		size:    func() int { return varint.Int.Size(v) },
		marshal: func(bs []byte) int { return varint.Int.Marshal(v, bs) },
	}
}

func int64Field(v int64) field {
	return field{
		size:    func() int { return varint.Int64.Size(v) },
		marshal: func(bs []byte) int { return varint.Int64.Marshal(v, bs) },
	}
}

func uint64Field(v uint64) field {
	return field{
		size:    func() int { return varint.Uint64.Size(v) },
		marshal: func(bs []byte) int { return varint.Uint64.Marshal(v, bs) },
	}
}

func float64Field(v float64) field {
	return field{
		size:    func() int { return raw.Float64.Size(v) },
		marshal: func(bs []byte) int { return raw.Float64.Marshal(v, bs) },
	}
}

func stringField(v string) field {
	return field{
		size:    func() int { return ord.String.Size(v) },
		marshal: func(bs []byte) int { return ord.String.Marshal(v, bs) },
	}
}

// timeField stores Unix microseconds; the zero time stays zero.
func timeField(t time.Time) field {
	var v int64
	if !t.IsZero() {
		v = t.UnixMicro()
	}
	return int64Field(v)
}

func runFields(run *core.RunRecord) []field {
	s := run.Stats
	fields := []field{
		intField(runRecordVersion),
		uint64Field(uint64(run.ID)),
		stringField(run.Request.InputPath),
		stringField(run.Request.OutputDir),
		stringField(run.Request.Model),
		stringField(run.Request.OutputName),
		stringField(run.Request.Format),
		intField(run.Request.BatchSize),
		intField(int(run.State)),
		float64Field(s.Progress),
		intField(s.ItemsProcessed),
		intField(s.TotalItems),
		float64Field(s.Speed),
		int64Field(int64(s.ETA)),
		intField(s.ErrorCount),
		float64Field(s.MemoryMB),
		float64Field(s.PeakMemoryMB),
		intField(s.EmbeddingDim),
		stringField(s.ModelName),
		float64Field(s.OutputSizeMB),
		int64Field(int64(s.Elapsed)),
		intField(s.BatchIndex),
		intField(s.BatchCount),
		stringField(s.OutputPath),
		stringField(run.Error),
		intField(len(run.FailedRecords)),
	}
	for _, idx := range run.FailedRecords {
		fields = append(fields, intField(idx))
	}
	return append(fields, timeField(run.StartedAt), timeField(run.FinishedAt))
}

func vectorSize(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}

func marshalVector(v []float32, bs []byte) int {
	n := varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

// reader decodes values in sequence and keeps the first error.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) done() error {
	if r.err != nil {
		return fmt.Errorf("%w: %v", ErrSerializationFailed, r.err)
	}
	if r.n != len(r.bs) {
		return fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(r.bs)-r.n)
	}
	return nil
}

func (r *reader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) float64() float64 {
	if r.err != nil {
		return 0
	}
	v, n, err := raw.Float64.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	r.n += n
	r.err = err
	return v
}

func (r *reader) time() time.Time {
	v := r.int64()
	if r.err != nil || v == 0 {
		return time.Time{}
	}
	return time.UnixMicro(v).UTC()
}

func (r *reader) vector() []float32 {
	count := r.int()
	if r.err != nil {
		return nil
	}
	if count < 0 || count*4 > len(r.bs)-r.n {
		r.err = ErrTruncatedData
		return nil
	}
	v := make([]float32, count)
	for i := range v {
		f, n, err := raw.Float32.Unmarshal(r.bs[r.n:])
		if err != nil {
			r.err = err
			return nil
		}
		r.n += n
		v[i] = f
	}
	return v
}
