// Package pipeline drives an embedding run from input file to artifact.
//
// A run moves through the states of core.StateMachine:
//
//	idle -> extracting -> embedding -> serializing -> completed
//
// and may end in failed from any state, or in cancelled while embedding.
// Each run extracts records, hands them to an embed.Scheduler, writes the
// surviving vectors through export.Write and reports to a notify.Observer.
//
// Pipeline.Start runs on a single dedicated worker and returns a Run handle;
// Pipeline.Run executes on the caller's goroutine. Only one run may be active
// per Pipeline. Cancel stops the active run at the next batch boundary.
//
// When a journal is configured every finished run is recorded there with its
// terminal state, statistics and failed record indices.
package pipeline
