package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/poiesic/vectorize/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// fakeEmbeddings serves an OpenAI-compatible /embeddings endpoint with
// deterministic three-dimensional vectors.
func fakeEmbeddings(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i, text := range req.Input {
			data[i] = item{Object: "embedding", Embedding: textVector(text), Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "fake",
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func textVector(text string) []float32 {
	if text == "" {
		return []float32{0, 0, 0}
	}
	return []float32{float32(len(text)), float32(text[0]), float32(text[len(text)-1])}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"vectorize"}, args...))
	return out.String(), err
}

func findFlag[T cli.Flag](t *testing.T, flags []cli.Flag, name string) T {
	t.Helper()
	for _, flag := range flags {
		if f, ok := flag.(T); ok {
			for _, n := range f.Names() {
				if n == name {
					return f
				}
			}
		}
	}
	t.Fatalf("flag %q not found", name)
	var zero T
	return zero
}

func slogDebugEnabled() bool {
	return slog.Default().Enabled(context.Background(), slog.LevelDebug)
}

func TestEmbedCommandFlags(t *testing.T) {
	cmd := embedCommand()

	t.Run("input is required", func(t *testing.T) {
		_, err := runApp(t, "embed", "--format", "flat-index")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "input")
	})

	t.Run("input has alias -i", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](t, cmd.Flags, "i")
		assert.Equal(t, "input", f.Name)
		assert.True(t, f.Required)
	})

	t.Run("token reads from the environment", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](t, cmd.Flags, "token")
		assert.Equal(t, []string{"VECTORIZE_TOKEN"}, f.EnvVars)
	})

	t.Run("run settings default to the config file", func(t *testing.T) {
		assert.Zero(t, findFlag[*cli.IntFlag](t, cmd.Flags, "batch-size").Value)
		assert.Empty(t, findFlag[*cli.StringFlag](t, cmd.Flags, "format").Value)
		assert.Empty(t, findFlag[*cli.StringFlag](t, cmd.Flags, "model").Value)
	})

	t.Run("unsupported format is rejected before any work", func(t *testing.T) {
		_, err := runApp(t, "embed", "-i", "corpus.txt", "-f", "parquet")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run.format")
	})

	t.Run("non-positive batch size is rejected", func(t *testing.T) {
		_, err := runApp(t, "embed", "-i", "corpus.txt", "-b", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run.batch_size")
	})
}

func TestQueryCommandFlags(t *testing.T) {
	cmd := queryCommand()

	assert.Equal(t, 5, findFlag[*cli.IntFlag](t, cmd.Flags, "k").Value)
	assert.True(t, findFlag[*cli.StringFlag](t, cmd.Flags, "index").Required)

	_, err := runApp(t, "query", "--index", "x.flat-index")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query text is required")
}

func TestRunsCommandValidation(t *testing.T) {
	t.Run("store is required", func(t *testing.T) {
		_, err := runApp(t, "runs", "list")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no store configured")
	})

	t.Run("run id must be numeric", func(t *testing.T) {
		_, err := runApp(t, "runs", "show", "--store", t.TempDir(), "abc")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid run id")
	})

	t.Run("missing run", func(t *testing.T) {
		_, err := runApp(t, "runs", "show", "--store", t.TempDir(), "42")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("empty journal", func(t *testing.T) {
		out, err := runApp(t, "runs", "list", "--store", t.TempDir())
		require.NoError(t, err)
		assert.Contains(t, out, "No runs recorded")
	})
}

func TestEndToEnd(t *testing.T) {
	srv := fakeEmbeddings(t)
	dir := t.TempDir()
	store := filepath.Join(dir, "store")
	corpus := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(corpus, []byte("alpha\nbravo\ncharlie\ndelta\necho\n"), 0o644))

	provider := []string{"--provider", "openai", "--host", srv.URL, "--model", "fake", "--dimensions", "3"}

	// embed
	args := append([]string{"--json", "embed",
		"-i", corpus, "-o", filepath.Join(dir, "out"), "-f", "flat-index", "-b", "2",
		"--store", store, "--cache"}, provider...)
	out, err := runApp(t, args...)
	require.NoError(t, err)

	var summary runSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, "completed", summary.State)
	assert.Equal(t, 5, summary.Rows)
	assert.Equal(t, 3, summary.Dim)
	assert.Equal(t, "flat-index", summary.Format)
	assert.NotZero(t, summary.ID)
	artifact := filepath.Join(dir, "out", "corpus.flat-index")
	assert.Equal(t, artifact, summary.Output)
	assert.FileExists(t, artifact)

	// runs list
	out, err = runApp(t, "runs", "list", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, corpus)

	// runs show
	out, err = runApp(t, "runs", "show", "--store", store, strconv.FormatUint(uint64(summary.ID), 10))
	require.NoError(t, err)
	assert.Contains(t, out, "State:    completed")

	// inspect
	out, err = runApp(t, "--json", "inspect", artifact)
	require.NoError(t, err)
	var info artifactInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 5, info.Rows)
	assert.Equal(t, 3, info.Dim)

	// query through the journal
	args = append([]string{"--json", "query", "--index", artifact,
		"--run", strconv.FormatUint(uint64(summary.ID), 10), "--store", store, "-k", "2"}, provider...)
	args = append(args, "charlie")
	out, err = runApp(t, args...)
	require.NoError(t, err)
	var results []search.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "charlie", results[0].Text)
	assert.Equal(t, 2, results[0].Record)
	assert.Zero(t, results[0].Distance)
	assert.True(t, results[0].Verbatim)

	// runs delete
	out, err = runApp(t, "runs", "delete", "--store", store, strconv.FormatUint(uint64(summary.ID), 10))
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run")
	out, err = runApp(t, "runs", "list", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded")
}

func TestInspectRequiresPath(t *testing.T) {
	_, err := runApp(t, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifact path")
}

func TestSetupLogger(t *testing.T) {
	newTestApp := func(action cli.ActionFunc) *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "config"},
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: action,
		}
	}
	noop := func(*cli.Context) error { return nil }

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				err := newTestApp(noop).Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newTestApp(noop).Run([]string{"test", "-l", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("config file supplies the level", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

		err := newTestApp(func(c *cli.Context) error {
			assert.True(t, slogDebugEnabled())
			return nil
		}).Run([]string{"test", "--config", path})
		require.NoError(t, err)
	})

	t.Run("flag overrides config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

		err := newTestApp(func(c *cli.Context) error {
			assert.False(t, slogDebugEnabled())
			return nil
		}).Run([]string{"test", "--config", path, "-l", "warn"})
		require.NoError(t, err)
	})
}
