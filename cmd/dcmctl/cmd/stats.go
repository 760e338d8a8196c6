package cmd

import (
	"fmt"
	"io"
	"runtime"
	"time"
)

// reportStats writes elapsed wall time since start and current resident
// memory to w, the --print-stats extension (spec.md §6).
func reportStats(w io.Writer, start time.Time) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Fprintf(w, "elapsed=%s resident_memory=%d bytes\n", time.Since(start), m.Sys)
}
