package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/embed"
	"github.com/poiesic/vectorize/export"
	"github.com/urfave/cli/v2"
)

type artifactInfo struct {
	Path      string            `json:"path"`
	Format    string            `json:"format"`
	Rows      int               `json:"rows"`
	Dim       int               `json:"dim"`
	SizeBytes int64             `json:"size_bytes"`
	MeanNorm  float64           `json:"mean_norm"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Describe a vector artifact",
		ArgsUsage: "<artifact>",
		Action:    inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one artifact path")
	}
	path := c.Args().First()

	m, format, err := export.ReadAny(path)
	if err != nil {
		return err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}

	info := artifactInfo{
		Path:      path,
		Format:    string(format),
		Rows:      m.Rows,
		Dim:       m.Dim,
		SizeBytes: stat.Size(),
		MeanNorm:  meanNorm(m),
	}
	if format == core.FormatNativeTensor {
		meta, err := export.ReadMetadata(path)
		if err != nil {
			return err
		}
		info.Metadata = meta
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, info)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Path:       %s\n", info.Path)
	fmt.Fprintf(w, "Format:     %s\n", info.Format)
	fmt.Fprintf(w, "Shape:      %d x %d\n", info.Rows, info.Dim)
	fmt.Fprintf(w, "Size:       %.2f MB\n", float64(info.SizeBytes)/(1024*1024))
	fmt.Fprintf(w, "Mean norm:  %.4f\n", info.MeanNorm)
	keys := make([]string, 0, len(info.Metadata))
	for k := range info.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "Meta %s: %s\n", k, info.Metadata[k])
	}
	return nil
}

func meanNorm(m *export.Matrix) float64 {
	if m.Rows == 0 {
		return 0
	}
	var total float64
	for i := 0; i < m.Rows; i++ {
		total += embed.Norm(m.Row(i))
	}
	return total / float64(m.Rows)
}
