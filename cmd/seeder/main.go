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

// Command seeder writes a sample corpus in any supported input format.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/vectorize/core"
)

var sentences = []string{
	"The quick brown fox jumps over the lazy dog.",
	"A gentle breeze rustled the leaves of the old oak tree.",
	"She found a hidden key in the dusty attic.",
	"Rain drummed on the rooftop, creating a soothing rhythm.",
	"The ancient library held stories that never faded.",
	"A mysterious map led them to a forgotten treasure.",
	"The lighthouse beam cut through fog, guiding sailors safely.",
	"He carried a lantern into the dark forest, illuminating paths.",
	"The desert dunes shifted silently under a pale moon.",
	"They watched a flock of birds take flight over the meadow.",
	"Freight trains idle on the siding while the crew changes shifts.",
	"The tide tables are printed on the back of the harbor map.",
	"A cracked teacup still holds the morning's last sip.",
	"Snow on the pass closed the road for the third time this week.",
	"The orchard ladder leans against the tallest pear tree.",
	"Bees crowd the lavender along the south wall.",
	"The ferry horn sounds twice before it leaves the dock.",
	"Old radios hum before the station comes in clearly.",
	"The bakery sells out of rye bread by nine.",
	"A kite string tangled in the telephone wires.",
	"The quarterly report ran forty pages longer than planned.",
	"Backups finished at 02:14 with no warnings.",
	"The build cache was cleared after the compiler upgrade.",
	"Latency spiked when the replica fell behind the primary.",
	"The on-call rotation swaps every Monday at noon.",
	"A deprecated endpoint still serves one stubborn client.",
	"The migration script renamed the column twice.",
	"Nobody remembers why the cron job runs at 3:17.",
	"The load balancer drained the node before the reboot.",
	"Disk usage on the log volume crossed ninety percent.",
	"The cat debugged the production database at 3 AM.",
	"Gravity works part-time on weekends.",
	"The rubber duck solved the halting problem but won't tell anyone.",
	"Memory leaks formed a union.",
	"The mutex died of loneliness.",
	"The debugger needed debugging.",
	"The watchdog timer fell asleep.",
	"The semaphore learned sign language.",
	"Recursion stopped calling itself after therapy.",
	"The scheduler scheduled its own retirement.",
}

var (
	seedFileName = flag.String("src", "", "file of seed lines (defaults to built-in sentences)")
	outDir       = flag.String("out", ".", "directory for the corpus file")
	name         = flag.String("name", "corpus", "corpus base name")
	kind         = flag.String("kind", ".txt", "corpus type: .txt, .csv, .json or .xlsx")
	repeat       = flag.Int("repeat", 1, "times to repeat the seed lines")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// repeated yields every line of lines n times over, tagging repeats so the
// corpus has no duplicate records.
func repeated(lines []string, n int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for pass := 0; pass < n; pass++ {
			for _, line := range lines {
				if pass > 0 {
					line = fmt.Sprintf("%s (%d)", line, pass+1)
				}
				if !yield(line) {
					return
				}
			}
		}
	}
}

func main() {
	flag.Parse()
	lines := sentences
	if *seedFileName != "" {
		source, err := linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
		lines = nil
		for line := range source {
			lines = append(lines, line)
		}
	}

	k, err := core.InputKindFor("corpus" + *kind)
	if err != nil {
		panic(err)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		panic(err)
	}
	path := filepath.Join(*outDir, *name+string(k))

	count, err := writeCorpus(path, k, repeated(lines, *repeat))
	if err != nil {
		panic(err)
	}
	slog.Info("wrote corpus", "path", path, "records", count)
}
