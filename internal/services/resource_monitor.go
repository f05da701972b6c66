package services

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

// ResourceSnapshot captures process and host resource usage at a point in time.
type ResourceSnapshot struct {
	Timestamp     time.Time `json:"timestamp"`
	CPUCores      int       `json:"cpu_cores"`
	CPUUsage      float64   `json:"cpu_usage_percent"`
	MemoryTotalGB float64   `json:"memory_total_gb"`
	MemoryUsage   float64   `json:"memory_usage_percent"`
	Goroutines    int       `json:"goroutines"`
	HeapAllocMB   float64   `json:"heap_alloc_mb"`
}

// ResourceMonitor samples CPU and memory usage for the health endpoint and the
// periodic resource log line.
type ResourceMonitor struct {
	mu       sync.RWMutex
	snapshot ResourceSnapshot
	logger   *logrus.Logger

	cpuPercent func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
	virtualMem func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// NewResourceMonitor creates a monitor; call Sample or Start to populate it.
func NewResourceMonitor(logger *logrus.Logger) *ResourceMonitor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ResourceMonitor{
		logger:     logger,
		cpuPercent: cpu.PercentWithContext,
		virtualMem: mem.VirtualMemoryWithContext,
		snapshot:   ResourceSnapshot{CPUCores: runtime.NumCPU()},
	}
}

// Sample refreshes the snapshot. CPU usage is measured since the previous call.
func (rm *ResourceMonitor) Sample(ctx context.Context) (ResourceSnapshot, error) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snapshot := ResourceSnapshot{
		Timestamp:   time.Now(),
		CPUCores:    runtime.NumCPU(),
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(memStats.HeapAlloc) / (1024 * 1024),
	}

	cpuPercent, err := rm.cpuPercent(ctx, 0, false)
	if err != nil {
		return rm.Snapshot(), fmt.Errorf("failed to get CPU usage: %w", err)
	}
	if len(cpuPercent) > 0 {
		snapshot.CPUUsage = cpuPercent[0]
	}

	memInfo, err := rm.virtualMem(ctx)
	if err != nil {
		return rm.Snapshot(), fmt.Errorf("failed to get memory usage: %w", err)
	}
	snapshot.MemoryUsage = memInfo.UsedPercent
	snapshot.MemoryTotalGB = float64(memInfo.Total) / (1024 * 1024 * 1024)

	rm.mu.Lock()
	rm.snapshot = snapshot
	rm.mu.Unlock()
	return snapshot, nil
}

// Snapshot returns the most recent sample.
func (rm *ResourceMonitor) Snapshot() ResourceSnapshot {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.snapshot
}

// Start samples every interval until ctx is cancelled, handing each sample to
// report when it is non-nil.
func (rm *ResourceMonitor) Start(ctx context.Context, interval time.Duration, report func(ResourceSnapshot)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snapshot, err := rm.Sample(ctx)
				if err != nil {
					rm.logger.WithError(err).Warn("Failed to sample resource usage")
					continue
				}
				if report != nil {
					report(snapshot)
				}
			}
		}
	}()
}

// Fields flattens a snapshot for structured log lines.
func (s ResourceSnapshot) Fields() map[string]interface{} {
	return map[string]interface{}{
		"cpu_cores":            s.CPUCores,
		"cpu_usage_percent":    s.CPUUsage,
		"memory_usage_percent": s.MemoryUsage,
		"memory_total_gb":      s.MemoryTotalGB,
		"goroutines":           s.Goroutines,
		"heap_alloc_mb":        s.HeapAllocMB,
	}
}
