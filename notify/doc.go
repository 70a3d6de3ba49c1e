// Package notify delivers run telemetry to interested parties.
//
// A run reports through the Observer interface:
//
//   - OnProgress after every attempted batch, in batch order
//   - OnError for each failed batch, and exactly once for a fatal error or
//     cancellation
//   - OnCompleted once, last, on success only
//
// Adapters cover the common consumers: Funcs for ad-hoc callbacks, Channel
// for a tagged Event stream, Multi for fan-out, ProgressWriter for a
// terminal progress line, Logger for slog and Metrics for Prometheus.
package notify
