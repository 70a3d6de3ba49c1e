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

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/vectorize/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "vectorize",
		Usage: "Batch text embedding into vector artifacts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"VECTORIZE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			embedCommand(),
			runsCommand(),
			queryCommand(),
			inspectCommand(),
		},
	}
}

// loadConfig returns the file configuration named by --config, or the
// defaults when none is given.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadFromFile(path)
}

func setupLogger(c *cli.Context) error {
	levelStr := c.String("log-level")
	// An explicit flag wins over the config file
	if !c.IsSet("log-level") && c.String("config") != "" {
		if cfg, err := config.LoadFromFile(c.String("config")); err == nil {
			levelStr = cfg.Logging.Level
		}
	}
	levelStr = strings.ToLower(levelStr)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
