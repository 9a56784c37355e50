// Package simlog is the process-wide logger used by the engine, the
// continuous optimization controller, and the simulated traffic feed.
// It mirrors the call-site shape of a conventional init/write/close
// logger: callers open it once at startup and write short status lines
// from any goroutine.
package simlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu       sync.Mutex
	file     *os.File
	writer   *log.Logger
	stdout   bool
	started  time.Time
	logLevel = "INFO"
)

// InitLog opens path for append (creating parent directories as needed)
// and starts the process logger. echoStdout additionally mirrors every
// line to stdout, which is useful for interactive runs of cmd/trafficsim.
func InitLog(path string, echoStdout bool) error {
	mu.Lock()
	defer mu.Unlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("simlog: mkdir %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("simlog: open %s: %w", path, err)
	}

	file = f
	stdout = echoStdout

	var out io.Writer = f
	if echoStdout {
		out = io.MultiWriter(f, os.Stdout)
	}
	writer = log.New(out, "", log.LstdFlags|log.Lmicroseconds)
	started = time.Now()

	writer.Printf("[INFO] simlog started path=%s", path)
	return nil
}

// WriteLog appends a single formatted line. It is a no-op if InitLog has
// not been called, so components can log defensively during tests that
// never open a file.
func WriteLog(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if writer == nil {
		return
	}
	writer.Printf(format, args...)
}

// LogEnvironment records the runtime facts worth keeping with every run:
// Go version equivalent details are intentionally omitted (not available
// without the runtime package's build info in a reconstructable way);
// instead this logs wall-clock start time and process id, matching the
// environment banner a long-running simulation writes once at startup.
func LogEnvironment(extra map[string]string) {
	mu.Lock()
	defer mu.Unlock()
	if writer == nil {
		return
	}
	writer.Printf("[INFO] environment pid=%d startedAt=%s", os.Getpid(), started.Format(time.RFC3339))
	for k, v := range extra {
		writer.Printf("[INFO] environment %s=%s", k, v)
	}
}

// CloseLog flushes and closes the underlying log file. Safe to call more
// than once.
func CloseLog() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	writer.Printf("[INFO] simlog closing after %s", time.Since(started).Round(time.Millisecond))
	err := file.Close()
	file = nil
	writer = nil
	return err
}

// FormatSimTime converts a tick count and tick duration into an
// hh:mm:ss.s wall-clock-style string for log lines and snapshots.
func FormatSimTime(tick int, tickSeconds float64) string {
	total := float64(tick) * tickSeconds
	hours := int(total) / 3600
	minutes := (int(total) % 3600) / 60
	seconds := total - float64(hours*3600+minutes*60)
	return fmt.Sprintf("%02d:%02d:%04.1f", hours, minutes, seconds)
}
