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

// Command searcher queries ./corpus.flat-index, built from ./corpus.txt,
// against a local embedding service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/vectorize"
	"github.com/poiesic/vectorize/extract"
	"github.com/poiesic/vectorize/search"
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	v, err := vectorize.New()
	if err != nil {
		panic(err)
	}
	defer v.Close()

	ctx := context.Background()
	records, err := extract.Extract(ctx, "./corpus.txt")
	if err != nil {
		panic(err)
	}
	searcher, err := v.NewSearcher("./corpus.flat-index", search.WithRecords(records, nil))
	if err != nil {
		panic(err)
	}

	query := "lantern"
	if len(os.Args) > 1 {
		query = strings.Join(os.Args[1:], " ")
	}
	results, err := searcher.Search(ctx, query, 5)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' (%d)[%0.3f]\n", i, hit.Text, hit.Record, hit.Distance)
	}
}
