// Package logger implements the engine's structured leveled logger: a
// colorized console writer for interactive use and a JSON-line writer for
// machine consumption, selected by ENGINE_LOG_FORMAT.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level is a logging severity, ordered low to high.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel converts a config string into a Level, defaulting to Info for
// anything unrecognized.
func ParseLevel(s string) Level {
	switch s {
	case "trace":
		return LevelTrace
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is the leveled, structured logging surface used throughout the
// engine. Fields are passed as alternating key/value pairs.
type Logger interface {
	Debug(msg string, kv ...interface{})
	Info(msg string, kv ...interface{})
	Warn(msg string, kv ...interface{})
	Error(msg string, kv ...interface{})
	With(kv ...interface{}) Logger
}

// New builds a Logger per the format string ("console" or "json"),
// writing to w at the given minimum level.
func New(format string, level Level, w io.Writer) Logger {
	if format == "json" {
		return &jsonLogger{out: w, level: level}
	}
	return &consoleLogger{out: w, level: level, color: isatty.IsTerminal(fileDescriptor(w))}
}

func fileDescriptor(w io.Writer) uintptr {
	if f, ok := w.(*os.File); ok {
		return f.Fd()
	}
	return 0
}

type consoleLogger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	color  bool
	fields []interface{}
}

func (c *consoleLogger) With(kv ...interface{}) Logger {
	return &consoleLogger{out: c.out, level: c.level, color: c.color, fields: append(append([]interface{}{}, c.fields...), kv...)}
}

func (c *consoleLogger) log(level Level, label string, colorFn func(string, ...interface{}) string, msg string, kv ...interface{}) {
	if level < c.level {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Now().UTC().Format(time.RFC3339)
	tag := label
	if c.color {
		tag = colorFn(label)
	}
	fmt.Fprintf(c.out, "%s [%s] %s", ts, tag, msg)
	writePairs(c.out, append(append([]interface{}{}, c.fields...), kv...))
	fmt.Fprintln(c.out)
}

func writePairs(out io.Writer, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(out, " %v=%v", kv[i], kv[i+1])
	}
}

func (c *consoleLogger) Debug(msg string, kv ...interface{}) {
	c.log(LevelDebug, "DEBUG", color.New(color.FgCyan).SprintfFunc(), msg, kv...)
}
func (c *consoleLogger) Info(msg string, kv ...interface{}) {
	c.log(LevelInfo, "INFO", color.New(color.FgGreen).SprintfFunc(), msg, kv...)
}
func (c *consoleLogger) Warn(msg string, kv ...interface{}) {
	c.log(LevelWarn, "WARN", color.New(color.FgYellow).SprintfFunc(), msg, kv...)
}
func (c *consoleLogger) Error(msg string, kv ...interface{}) {
	c.log(LevelError, "ERROR", color.New(color.FgRed).SprintfFunc(), msg, kv...)
}

type jsonLogger struct {
	mu     sync.Mutex
	out    io.Writer
	level  Level
	fields []interface{}
}

func (j *jsonLogger) With(kv ...interface{}) Logger {
	return &jsonLogger{out: j.out, level: j.level, fields: append(append([]interface{}{}, j.fields...), kv...)}
}

func (j *jsonLogger) log(level Level, msg string, kv ...interface{}) {
	if level < j.level {
		return
	}
	entry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level.String(),
		"message":   msg,
	}
	all := append(append([]interface{}{}, j.fields...), kv...)
	for i := 0; i+1 < len(all); i += 2 {
		key, ok := all[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", all[i])
		}
		entry[key] = all[i+1]
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	enc := json.NewEncoder(j.out)
	_ = enc.Encode(entry)
}

func (j *jsonLogger) Debug(msg string, kv ...interface{}) { j.log(LevelDebug, msg, kv...) }
func (j *jsonLogger) Info(msg string, kv ...interface{})  { j.log(LevelInfo, msg, kv...) }
func (j *jsonLogger) Warn(msg string, kv ...interface{})  { j.log(LevelWarn, msg, kv...) }
func (j *jsonLogger) Error(msg string, kv ...interface{}) { j.log(LevelError, msg, kv...) }

// Noop returns a Logger that discards everything, for use in tests.
func Noop() Logger {
	return &jsonLogger{out: io.Discard, level: LevelError + 1}
}
