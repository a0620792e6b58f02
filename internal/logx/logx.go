// Package logx provides the engine's ambient logging discipline: verbose
// output gated on CORTEX_DEBUG, normal output suppressible with a quiet
// flag, and the "[cortex]" diagnostic prefix failing commands print.
package logx

import (
	"fmt"
	"os"
	"sync"
)

var (
	mu          sync.Mutex
	verboseMode = os.Getenv("CORTEX_DEBUG") != ""
	quietMode   = false
)

// SetVerbose enables verbose/debug output for the remainder of the process.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

// SetQuiet suppresses normal (non-error) stdout output.
func SetQuiet(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quietMode = q
}

// Verbose reports whether debug output is currently enabled.
func Verbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verboseMode
}

// Quiet reports whether quiet mode is currently enabled.
func Quiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quietMode
}

// Debugf writes to stderr only when verbose mode is enabled.
func Debugf(format string, args ...any) {
	if Verbose() {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Printf writes to stdout unless quiet mode is enabled.
func Printf(format string, args ...any) {
	if !Quiet() {
		fmt.Printf(format, args...)
	}
}

// Println writes a line to stdout unless quiet mode is enabled.
func Println(args ...any) {
	if !Quiet() {
		fmt.Println(args...)
	}
}

// Warnf writes a single-line, "[cortex]"-prefixed warning to stderr for a
// non-fatal condition the caller is swallowing (e.g. a corrupt row skipped
// rather than failing the whole query).
func Warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[cortex] warning: %s\n", msg)
}

// Diagf writes a single-line, "[cortex]"-prefixed diagnostic to stderr.
// The caller supplies a subsystem name, e.g. "extract" or "recall", folded
// into the message body.
func Diagf(subsystem, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[cortex] %s: %s\n", subsystem, msg)
}
