package main

import (
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/poiesic/vectorize/core"
)

type runSummary struct {
	ID            core.ID `json:"id,omitempty"`
	State         string  `json:"state"`
	Input         string  `json:"input"`
	Model         string  `json:"model"`
	Output        string  `json:"output,omitempty"`
	Format        string  `json:"format,omitempty"`
	Rows          int     `json:"rows"`
	Dim           int     `json:"dim"`
	SizeBytes     int64   `json:"size_bytes,omitempty"`
	Records       int     `json:"records"`
	FailedRecords []int   `json:"failed_records,omitempty"`
	PeakMemoryMB  float64 `json:"peak_memory_mb,omitempty"`
	Elapsed       string  `json:"elapsed"`
	StartedAt     string  `json:"started_at,omitempty"`
	Error         string  `json:"error,omitempty"`
}

func newRunSummary(record *core.RunRecord, artifact *core.Artifact) runSummary {
	var s runSummary
	if record != nil {
		s = runSummary{
			ID:            record.ID,
			State:         record.State.String(),
			Input:         record.Request.InputPath,
			Model:         record.Request.Model,
			Output:        record.Stats.OutputPath,
			Format:        record.Request.Format,
			Dim:           record.Stats.EmbeddingDim,
			Records:       record.Stats.TotalItems,
			FailedRecords: record.FailedRecords,
			PeakMemoryMB:  record.Stats.PeakMemoryMB,
			Elapsed:       record.Stats.Elapsed.Round(time.Millisecond).String(),
			Error:         record.Error,
		}
		if !record.StartedAt.IsZero() {
			s.StartedAt = record.StartedAt.Format(time.RFC3339)
		}
		if record.State == core.StateCompleted {
			s.Rows = record.Stats.TotalItems - len(record.FailedRecords)
		}
	}
	if artifact != nil {
		s.Output = artifact.Path
		s.Format = string(artifact.Format)
		s.Rows = artifact.Rows
		s.Dim = artifact.Dim
		s.SizeBytes = artifact.Size
	}
	return s
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRun(w io.Writer, s runSummary) {
	fmt.Fprintf(w, "Run:      %d\n", s.ID)
	fmt.Fprintf(w, "State:    %s\n", s.State)
	fmt.Fprintf(w, "Input:    %s\n", s.Input)
	fmt.Fprintf(w, "Model:    %s\n", s.Model)
	if s.Output != "" {
		fmt.Fprintf(w, "Output:   %s (%s)\n", s.Output, s.Format)
	}
	fmt.Fprintf(w, "Records:  %d (%d failed)\n", s.Records, len(s.FailedRecords))
	if s.Dim > 0 {
		fmt.Fprintf(w, "Dim:      %d\n", s.Dim)
	}
	fmt.Fprintf(w, "Elapsed:  %s\n", s.Elapsed)
	if s.StartedAt != "" {
		fmt.Fprintf(w, "Started:  %s\n", s.StartedAt)
	}
	if s.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", s.Error)
	}
}
