package embed

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

const bytesPerMB = 1024 * 1024

// ResourceMonitor samples the memory footprint of the running process.
type ResourceMonitor interface {
	MemoryMB(ctx context.Context) (float64, error)
}

// MonitorFunc adapts a function to ResourceMonitor.
type MonitorFunc func(ctx context.Context) (float64, error)

func (f MonitorFunc) MemoryMB(ctx context.Context) (float64, error) {
	return f(ctx)
}

// ProcessMonitor reports the resident set size of this process.
type ProcessMonitor struct {
	proc *process.Process
}

// NewProcessMonitor attaches to the current process.
func NewProcessMonitor() (*ProcessMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &ProcessMonitor{proc: proc}, nil
}

// MemoryMB returns the current RSS in megabytes.
func (m *ProcessMonitor) MemoryMB(ctx context.Context) (float64, error) {
	info, err := m.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / bytesPerMB, nil
}

type nullMonitor struct{}

func (nullMonitor) MemoryMB(context.Context) (float64, error) { return 0, nil }
