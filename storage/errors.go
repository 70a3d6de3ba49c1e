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

import "errors"

var (
	// ErrNotFound indicates that no run is journaled under the requested ID.
	ErrNotFound = errors.New("run not found")

	// ErrStorageClosed indicates a store was opened without a live backend.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery indicates an unusable argument to a journal call.
	ErrInvalidQuery = errors.New("invalid query parameters")

	// ErrSerializationFailed indicates a run record could not be encoded or decoded.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrTruncatedData indicates an encoded run record ended early.
	ErrTruncatedData = errors.New("truncated data")
)
