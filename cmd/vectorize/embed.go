package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/vectorize"
	"github.com/poiesic/vectorize/config"
	"github.com/poiesic/vectorize/core"
	"github.com/poiesic/vectorize/embed"
	"github.com/poiesic/vectorize/notify"
	"github.com/poiesic/vectorize/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

// providerFlags are shared by every command that talks to an embedding
// service. Unset flags fall back to the config file.
func providerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Embedding backend (openai, ollama, huggingface)",
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Embedding model name",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "API token for the embedding service",
			EnvVars: []string{"VECTORIZE_TOKEN"},
		},
		&cli.IntFlag{
			Name:  "dimensions",
			Usage: "Declared embedding dimension; skips the probe request",
		},
	}
}

func applyProviderFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("provider") {
		cfg.Provider.Type = c.String("provider")
	}
	if c.IsSet("host") {
		cfg.Provider.Host = c.String("host")
	}
	if c.IsSet("model") {
		cfg.Provider.Model = c.String("model")
	}
	if c.IsSet("token") {
		cfg.Provider.Token = c.String("token")
	}
	if c.IsSet("dimensions") {
		cfg.Provider.Dimensions = c.Int("dimensions")
	}
}

func embedCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "Source file (.txt, .csv, .json, .xlsx)",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Directory for the artifact",
		},
		&cli.StringFlag{
			Name:    "name",
			Aliases: []string{"n"},
			Usage:   "Artifact base name (defaults to the input file name)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (native-tensor, dense-array, hierarchical, flat-index)",
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Aliases: []string{"b"},
			Usage:   "Records per encoding request",
		},
		&cli.BoolFlag{
			Name:  "normalize",
			Usage: "L2-normalize vectors before writing",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "BadgerDB directory for the run journal and vector cache",
		},
		&cli.BoolFlag{
			Name:  "cache",
			Usage: "Reuse vectors cached in the store",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address while the run is active",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Suppress the progress line",
		},
	}

	return &cli.Command{
		Name:   "embed",
		Usage:  "Embed every record of a source file into a vector artifact",
		Action: embedAction,
		Flags:  append(flags, providerFlags()...),
	}
}

func embedAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyProviderFlags(c, cfg)
	if c.IsSet("output-dir") {
		cfg.Run.OutputDir = c.String("output-dir")
	}
	if c.IsSet("format") {
		cfg.Run.Format = c.String("format")
	}
	if c.IsSet("batch-size") {
		cfg.Run.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("normalize") {
		cfg.Run.Normalize = c.Bool("normalize")
	}
	if c.IsSet("store") {
		cfg.Store.Path = c.String("store")
	}
	if c.IsSet("cache") {
		cfg.Store.Cache = c.Bool("cache")
	}
	if c.IsSet("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = c.String("metrics-addr")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	input := c.String("input")
	name := c.String("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}
	req := core.Request{
		InputPath:  input,
		OutputDir:  cfg.Run.OutputDir,
		Model:      cfg.Provider.Model,
		OutputName: name,
		Format:     cfg.Run.Format,
		BatchSize:  cfg.Run.BatchSize,
	}

	v, err := vectorize.New(vectorize.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer v.Close()

	observers := []notify.Observer{notify.NewLogger(slog.Default())}
	if !c.Bool("quiet") && !c.Bool("json") {
		observers = append(observers, notify.NewProgressWriter(c.App.ErrWriter))
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		observers = append(observers, notify.NewMetrics(reg))

		srv := serveMetrics(cfg.Metrics.Addr, cfg.Metrics.Path, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	opts := []pipeline.Option{
		pipeline.WithObserver(notify.NewMulti(observers...)),
		pipeline.WithNormalize(cfg.Run.Normalize),
	}
	if monitor, monErr := embed.NewProcessMonitor(); monErr == nil {
		opts = append(opts, pipeline.WithMonitor(monitor))
	} else {
		slog.Warn("memory sampling unavailable", "err", monErr)
	}

	p, err := v.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Release()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	run, err := p.Start(c.Context, req)
	if err != nil {
		return err
	}

wait:
	for {
		select {
		case <-sigs:
			slog.Info("interrupt received, stopping after the current batch")
			p.Cancel()
		case <-run.Done():
			break wait
		}
	}

	artifact, runErr := run.Wait()
	if c.Bool("json") {
		if err := printJSON(c.App.Writer, newRunSummary(run.Record(), artifact)); err != nil {
			return err
		}
	}
	if errors.Is(runErr, core.ErrCancelled) {
		return cli.Exit("run cancelled", 130)
	}
	return runErr
}

func serveMetrics(addr, path string, reg *prometheus.Registry) *http.Server {
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr, "path", path)
	return srv
}
