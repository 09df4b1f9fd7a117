package profiler

import "time"

var std = NewProfiler()

// Default returns the process-wide Profiler used by the package-level helpers.
func Default() *Profiler {
	return std
}

// Record merges a sample into the default Profiler.
func Record(name string, d time.Duration) {
	std.Record(name, d)
}

// Snapshot returns the sorted aggregates of the default Profiler.
func Snapshot() []Entry {
	return std.Snapshot()
}

// Start begins timing name on the default Profiler.
func Start(name string) func() {
	return std.Start(name)
}
