package main

import (
	"fmt"
	"strings"

	"github.com/poiesic/vectorize"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/extract"
	"github.com/poiesic/vectorize/search"
	"github.com/urfave/cli/v2"
)

func queryCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "index",
			Usage:    "Flat-index artifact to search",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Source file the index was built from, for showing record text",
		},
		&cli.Uint64Flag{
			Name:  "run",
			Usage: "Journaled run that built the index; supplies the source and failed records",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "BadgerDB directory holding the run journal",
		},
		&cli.IntFlag{
			Name:  "k",
			Usage: "Number of neighbors to return",
			Value: 5,
		},
		&cli.BoolFlag{
			Name:  "normalize",
			Usage: "Normalize the query vector (use for indexes built with --normalize)",
		},
	}

	return &cli.Command{
		Name:      "query",
		Usage:     "Find the records nearest to a query in a flat index",
		ArgsUsage: "<query text>",
		Action:    queryAction,
		Flags:     append(flags, providerFlags()...),
	}
}

func queryAction(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query text is required")
	}
	if c.Int("k") <= 0 {
		return fmt.Errorf("k must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyProviderFlags(c, cfg)

	source := c.String("source")
	var failed []int
	if c.IsSet("run") {
		repo, closeFn, err := openJournal(c)
		if err != nil {
			return err
		}
		run, err := repo.GetRun(c.Context, core.ID(c.Uint64("run")))
		closeFn()
		if err != nil {
			return fmt.Errorf("failed to load run %d: %w", c.Uint64("run"), err)
		}
		if source == "" {
			source = run.Request.InputPath
		}
		failed = run.FailedRecords
		// queries must be encoded with the model that built the index
		if !c.IsSet("model") && run.Request.Model != "" {
			cfg.Provider.Model = run.Request.Model
		}
	}

	opts := []search.Option{search.WithNormalizeQuery(c.Bool("normalize"))}
	if source != "" {
		records, err := extract.Extract(c.Context, source)
		if err != nil {
			return err
		}
		opts = append(opts, search.WithRecords(records, failed))
	}

	v, err := vectorize.New(vectorize.WithAIConfig(cfg.AIConfig()))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer v.Close()

	searcher, err := v.NewSearcher(c.String("index"), opts...)
	if err != nil {
		return err
	}

	results, err := searcher.Search(c.Context, query, c.Int("k"))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, results)
	}

	fmt.Fprintf(c.App.Writer, "Found %d hits in %d rows\n", len(results), searcher.Len())
	for i, hit := range results {
		marker := ""
		if hit.Verbatim {
			marker = " *"
		}
		if hit.Record >= 0 {
			fmt.Fprintf(c.App.Writer, "%d: '%s' (record %d)[%0.3f]%s\n", i, hit.Text, hit.Record, hit.Distance, marker)
		} else {
			fmt.Fprintf(c.App.Writer, "%d: row %d [%0.3f]\n", i, hit.Row, hit.Distance)
		}
	}
	return nil
}
