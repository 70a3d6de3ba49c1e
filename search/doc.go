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

// Package search answers nearest-neighbour queries against a flat-index
// artifact.
//
// A Searcher embeds the query text with the same model that produced the
// artifact, scans the index for the k closest rows by squared L2 distance
// and, when the source records are supplied, maps each row back to the
// record it came from. Rows are mapped through core.RowMapping so artifacts
// written by runs with failed batches still resolve to the right records.
//
// Hits whose record text contains every significant query term are flagged
// as verbatim matches.
package search
