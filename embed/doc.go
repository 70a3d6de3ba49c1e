// Package embed runs a record set through an encoding engine in batches.
//
// The Scheduler partitions records into consecutive, order-preserving
// batches, encodes each one, and emits a progress snapshot after every
// batch. A failed batch is reported and skipped; it never aborts the run.
// Cancellation is cooperative: a CancelToken is checked before each batch
// and in-flight encode calls are allowed to finish.
//
// Supporting pieces include a ProgressTracker that computes telemetry, a
// ResourceMonitor that samples process memory through gopsutil, and a
// CachedEmbedder that skips texts already encoded by the same model.
package embed
