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

package core

import (
	"errors"
	"fmt"
)

// Run error taxonomy. Every error surfaced by a run wraps exactly one of these.
var (
	// ErrUnsupportedFormat indicates an unknown input extension or output format token.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrRead indicates the input file could not be opened or parsed.
	ErrRead = errors.New("read error")

	// ErrBatchEncode indicates the encoding engine failed on a single batch.
	// It is never fatal to a run.
	ErrBatchEncode = errors.New("batch encode error")

	// ErrCancelled indicates the run observed a cancellation request.
	ErrCancelled = errors.New("embedding process was cancelled")

	// ErrSerialize indicates the vector set could not be written.
	ErrSerialize = errors.New("serialize error")
)

// Request and state machine errors
var (
	// ErrInvalidRequest indicates one or more required run parameters are missing.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidTransition indicates an illegal run state change.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// BatchError reports the failure of one batch. Batch is 1-based.
type BatchError struct {
	Batch int
	Size  int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("error embedding batch %d: %v", e.Batch, e.Err)
}

// Unwrap exposes both ErrBatchEncode and the underlying cause to errors.Is.
func (e *BatchError) Unwrap() []error {
	return []error{ErrBatchEncode, e.Err}
}

// IsFatal reports whether err ends a run. Batch errors never do.
func IsFatal(err error) bool {
	var be *BatchError
	return err != nil && !errors.As(err, &be)
}
