// benchmark.go
// A reusable benchmarking module for the hub tools
// Measures execution time and memory usage for any wrapped function

package benchmark

import (
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Report is the resource usage of one benchmarked run.
type Report struct {
	Label           string
	Elapsed         time.Duration
	MemoryUsedMB    float64
	TotalAllocMB    float64
	PeakHeapMB      float64
	SystemMB        float64
	GCCycles        uint32
	CPUCores        int
	GoroutinesStart int
	GoroutinesEnd   int
}

// Run wraps any function to measure its runtime and memory usage.
// Additionally reports on host and OS information for repeatability.
// The error of f is returned unchanged.
func Run(label string, logger *zap.Logger, f func() error) error {
	report, err := Measure(label, f)

	host, _ := os.Hostname()
	logger.Info("benchmark",
		zap.String("label", report.Label),
		zap.String("hostname", host),
		zap.String("go_version", runtime.Version()),
		zap.String("os_arch", runtime.GOOS+"/"+runtime.GOARCH),
		zap.Duration("elapsed", report.Elapsed),
		zap.Float64("memory_used_mb", report.MemoryUsedMB),
		zap.Float64("total_allocated_mb", report.TotalAllocMB),
		zap.Float64("peak_heap_mb", report.PeakHeapMB),
		zap.Float64("system_mb", report.SystemMB),
		zap.Uint32("gc_cycles", report.GCCycles),
		zap.Int("cpu_cores", report.CPUCores),
		zap.Int("goroutines_start", report.GoroutinesStart),
		zap.Int("goroutines_end", report.GoroutinesEnd),
		zap.Bool("failed", err != nil),
	)
	return err
}

// Measure runs f and collects the Report without logging it.
func Measure(label string, f func() error) (Report, error) {
	// Prepare for benchmark
	runtime.GC()                          // Measures garbage collection (GC) activity
	var memStart, memEnd runtime.MemStats // Structs to hold memory statistics before and after execution
	runtime.ReadMemStats(&memStart)       // Capture memory usage before running the function
	start := time.Now()                   // Begins running timer
	startGoroutines := runtime.NumGoroutine()

	err := f() // Execute the function being benchmarked

	elapsed := time.Since(start)
	runtime.ReadMemStats(&memEnd)

	return Report{
		Label:           label,
		Elapsed:         elapsed,
		MemoryUsedMB:    toMB(int64(memEnd.Alloc) - int64(memStart.Alloc)), // Difference in current heap usage
		TotalAllocMB:    toMB(int64(memEnd.TotalAlloc - memStart.TotalAlloc)),
		PeakHeapMB:      toMB(int64(memEnd.HeapAlloc)),
		SystemMB:        toMB(int64(memEnd.Sys)),
		GCCycles:        memEnd.NumGC - memStart.NumGC, // Lower is better
		CPUCores:        runtime.NumCPU(),
		GoroutinesStart: startGoroutines,
		GoroutinesEnd:   runtime.NumGoroutine(),
	}, err
}

func toMB(b int64) float64 {
	return float64(b) / 1024.0 / 1024.0
}
