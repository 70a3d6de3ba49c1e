package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/storage"
	"github.com/poiesic/vectorize/storage/badger"
	"github.com/urfave/cli/v2"
)

func runsCommand() *cli.Command {
	storeFlag := &cli.StringFlag{
		Name:  "store",
		Usage: "BadgerDB directory holding the run journal",
	}

	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect the run journal",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List journaled runs, most recent first",
				Action: runsListAction,
				Flags: []cli.Flag{
					storeFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum runs to show (0 for all)",
						Value: 20,
					},
				},
			},
			{
				Name:      "show",
				Usage:     "Show one run",
				ArgsUsage: "<run-id>",
				Action:    runsShowAction,
				Flags:     []cli.Flag{storeFlag},
			},
			{
				Name:      "delete",
				Usage:     "Remove a run from the journal",
				ArgsUsage: "<run-id>",
				Action:    runsDeleteAction,
				Flags:     []cli.Flag{storeFlag},
			},
		},
	}
}

// openJournal opens the run repository named by --store or the config file.
// The returned func closes the repository and its backend.
func openJournal(c *cli.Context) (*badger.RunRepository, func(), error) {
	path := c.String("store")
	if path == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return nil, nil, err
		}
		path = cfg.Store.Path
	}
	if path == "" {
		return nil, nil, fmt.Errorf("no store configured: pass --store or set store.path")
	}

	backend, err := badger.OpenBackend(path, false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	repo, err := badger.NewRunRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to create repository: %w", err)
	}

	return repo, func() {
		repo.Close()
		backend.Close()
	}, nil
}

func runIDArg(c *cli.Context) (core.ID, error) {
	if c.Args().Len() != 1 {
		return 0, fmt.Errorf("expected exactly one run id")
	}
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid run id %q", c.Args().First())
	}
	return core.ID(id), nil
}

func runsListAction(c *cli.Context) error {
	repo, closeFn, err := openJournal(c)
	if err != nil {
		return err
	}
	defer closeFn()

	runs, err := repo.ListRuns(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		summaries := make([]runSummary, 0, len(runs))
		for _, run := range runs {
			summaries = append(summaries, newRunSummary(run, nil))
		}
		return printJSON(c.App.Writer, summaries)
	}

	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "No runs recorded")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "%-6s %-10s %-20s %8s %6s  %s\n", "ID", "STATE", "FINISHED", "RECORDS", "FAILED", "INPUT")
	for _, run := range runs {
		finished := "-"
		if !run.FinishedAt.IsZero() {
			finished = run.FinishedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(c.App.Writer, "%-6d %-10s %-20s %8d %6d  %s\n",
			run.ID, run.State, finished, run.Stats.TotalItems, len(run.FailedRecords), run.Request.InputPath)
	}
	return nil
}

func runsShowAction(c *cli.Context) error {
	id, err := runIDArg(c)
	if err != nil {
		return err
	}
	repo, closeFn, err := openJournal(c)
	if err != nil {
		return err
	}
	defer closeFn()

	run, err := repo.GetRun(c.Context, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return err
	}

	summary := newRunSummary(run, nil)
	if c.Bool("json") {
		return printJSON(c.App.Writer, summary)
	}
	printRun(c.App.Writer, summary)
	return nil
}

func runsDeleteAction(c *cli.Context) error {
	id, err := runIDArg(c)
	if err != nil {
		return err
	}
	repo, closeFn, err := openJournal(c)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := repo.DeleteRun(c.Context, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("run %d not found", id)
		}
		return err
	}
	fmt.Fprintf(c.App.Writer, "Deleted run %d\n", id)
	return nil
}
