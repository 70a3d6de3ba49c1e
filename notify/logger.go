package notify

import (
	"log/slog"

	"github.com/poiesic/vectorize/core"
)

// Logger writes notifications to a slog.Logger. Progress is logged at debug
// level, batch failures at warn, fatal errors at error.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a Logger. A nil logger means slog.Default().
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With("component", "run")}
}

func (l *Logger) OnProgress(s core.Snapshot) {
	l.logger.Debug("batch done",
		"batch", s.BatchIndex,
		"batches", s.BatchCount,
		"processed", s.ItemsProcessed,
		"total", s.TotalItems,
		"progress", s.Progress,
		"speed", s.Speed,
		"errors", s.ErrorCount,
		"memory_mb", s.MemoryMB,
	)
}

func (l *Logger) OnCompleted(path string, final core.Snapshot) {
	l.logger.Info("embedding run completed",
		"output", path,
		"records", final.TotalItems,
		"failed", final.ErrorCount,
		"dim", final.EmbeddingDim,
		"model", final.ModelName,
		"size_mb", final.OutputSizeMB,
		"peak_memory_mb", final.PeakMemoryMB,
		"elapsed", final.Elapsed,
	)
}

func (l *Logger) OnError(err error) {
	if core.IsFatal(err) {
		l.logger.Error("embedding run failed", "err", err)
		return
	}
	l.logger.Warn("batch failed", "err", err)
}
