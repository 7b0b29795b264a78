// Package logger is the process-wide log sink for intellidocs.
//
// Messages below the current level are dropped. The default level only lets
// errors through; --verbose lowers it to debug so documents can be followed
// through ingestion and Q&A. Long-running commands (watch, mcp serve) turn
// on timestamps.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders message severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return strings.ToLower(levelTags[l])
}

// ParseLevel accepts debug, info, warn (or warning) and error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelError, fmt.Errorf("unknown log level %q", s)
}

var (
	mu         sync.Mutex
	level                = LevelError
	out        io.Writer = os.Stderr
	timestamps bool
	now        = time.Now
)

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// CurrentLevel returns the minimum level that is written.
func CurrentLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return level
}

// SetVerbose switches between debug and errors-only output.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelError)
	}
}

// IsVerbose reports whether debug messages are written.
func IsVerbose() bool {
	return CurrentLevel() == LevelDebug
}

// SetOutput redirects log output. nil restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	mu.Lock()
	out = w
	mu.Unlock()
}

// SetTimestamps prefixes each line with an RFC 3339 UTC time.
func SetTimestamps(on bool) {
	mu.Lock()
	timestamps = on
	mu.Unlock()
}

func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error is written at every level.
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section writes a blank line and a "=== name ===" header in verbose mode.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if level > LevelDebug {
		return
	}
	fmt.Fprintf(out, "\n=== %s ===\n", name)
}

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	var b strings.Builder
	if timestamps {
		b.WriteString(now().UTC().Format(time.RFC3339))
		b.WriteByte(' ')
	}
	b.WriteByte('[')
	b.WriteString(levelTags[l])
	b.WriteString("] ")
	fmt.Fprintf(&b, format, args...)
	b.WriteByte('\n')
	io.WriteString(out, b.String())
}
