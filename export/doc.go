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

// Package export serializes an (N, D) vector set to disk and reads it back.
//
// Supported formats:
//
//   - native-tensor: safetensors container with one F32 tensor named "embeddings"
//   - dense-array: NumPy .npy, shape (N, D)
//   - hierarchical: HDF5 file with one float32 dataset "embeddings"
//     (requires the hdf5 build tag and libhdf5)
//   - flat-index: brute-force L2 index in the FAISS IndexFlatL2 binary layout
//
// Write stages output in a temporary file next to the destination and renames
// it into place, so a failed write never leaves a partial artifact.
package export
