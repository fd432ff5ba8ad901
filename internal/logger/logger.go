// Package logger provides verbose logging for the Naturvårdsregistret bot.
// When verbose mode is enabled via the --verbose flag, progress messages
// are printed to stderr so operators can follow each object through
// reconciliation. Errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu         sync.RWMutex
	verbose    bool
	timestamps bool
	output     io.Writer = os.Stderr
	now                  = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetTimestamps prefixes every line with an RFC 3339 timestamp.
func SetTimestamps(v bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = v
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(always bool, tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !always && !verbose {
		return
	}
	if timestamps {
		fmt.Fprintf(output, "%s ", now().UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(output, tag+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(false, "[DEBUG] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	write(false, "\n=== ", "%s ===", name)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(false, "[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	write(false, "[WARN] ", format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	write(true, "[ERROR] ", format, args...)
}
