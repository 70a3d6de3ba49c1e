package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/poiesic/vectorize/core"
	"github.com/xuri/excelize/v2"
)

// writeCorpus writes one record per line in the layout each input kind is
// read back with. CSV rows split a line at its first comma so the reader
// rejoins the cells into the original text.
func writeCorpus(path string, kind core.InputKind, lines iter.Seq[string]) (int, error) {
	if kind == core.InputExcel {
		return writeExcel(path, lines)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	var count int
	switch kind {
	case core.InputText:
		for line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return count, err
			}
			count++
		}
	case core.InputCSV:
		cw := csv.NewWriter(w)
		for line := range lines {
			if err := cw.Write(splitCells(line)); err != nil {
				return count, err
			}
			count++
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return count, err
		}
	case core.InputJSON:
		var items []string
		for line := range lines {
			items = append(items, line)
		}
		if items == nil {
			items = []string{}
		}
		if err := json.NewEncoder(w).Encode(items); err != nil {
			return 0, err
		}
		count = len(items)
	default:
		return 0, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, kind)
	}

	if err := w.Flush(); err != nil {
		return count, err
	}
	return count, f.Close()
}

func splitCells(line string) []string {
	head, tail, ok := strings.Cut(line, ", ")
	if !ok {
		return []string{line}
	}
	return []string{head + ",", tail}
}

func writeExcel(path string, lines iter.Seq[string]) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return 0, err
	}

	var count int
	for line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, count+1)
		if err != nil {
			return count, err
		}
		if err := sw.SetRow(cell, []interface{}{line}); err != nil {
			return count, err
		}
		count++
	}
	if err := sw.Flush(); err != nil {
		return count, err
	}
	return count, f.SaveAs(path)
}
