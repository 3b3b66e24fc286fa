// Package elog provides the leveled, object-tagged logging free functions
// used throughout this module's backends, mirroring the
// fs.Debugf(obj, format, args...) / fs.Logf / fs.Errorf calling convention
// seen across the teacher's backends (e.g. backend/kvfs/kvfs_utils.go's
// fs.Debugf(nil, "[findFile] fullPath: %q", fullPath)). obj is typically
// the backend or handle the message concerns and is rendered with %v; nil
// is an accepted, common case for package-level messages.
package elog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level selects which leveled calls actually reach the output.
type Level int

const (
	LevelError Level = iota
	LevelInfo
	LevelDebug
)

var (
	mu    sync.Mutex
	level = LevelInfo
	out   = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLevel changes the minimum level that gets written. Debugf calls are
// dropped unless the level is at least LevelDebug.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput redirects where log lines are written; tests use this to
// capture output in a buffer instead of stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out.SetOutput(w)
}

func logf(l Level, prefix string, obj any, format string, args ...any) {
	mu.Lock()
	cur := level
	mu.Unlock()
	if l > cur {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if obj != nil {
		out.Printf("%s: %v: %s", prefix, obj, msg)
		return
	}
	out.Printf("%s: %s", prefix, msg)
}

// Debugf logs a debug-level message, suppressed unless the level is
// LevelDebug.
func Debugf(obj any, format string, args ...any) { logf(LevelDebug, "DEBUG", obj, format, args...) }

// Infof logs an info-level message.
func Infof(obj any, format string, args ...any) { logf(LevelInfo, "INFO", obj, format, args...) }

// Logf logs at the same level as Infof but with a NOTICE prefix, matching
// fs.Logf's role as the default "always worth printing at normal verbosity"
// call.
func Logf(obj any, format string, args ...any) { logf(LevelInfo, "NOTICE", obj, format, args...) }

// Errorf logs an error-level message; it is never suppressed by SetLevel.
func Errorf(obj any, format string, args ...any) { logf(LevelError, "ERROR", obj, format, args...) }
