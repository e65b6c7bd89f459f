// Package log provides the leveled logger used by jsflow commands and passes.
package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity levels
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config value such as "debug" or "WARN" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Logger is a leveled logger taking alternating key/value pairs after the
// message.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	SetLevel(level Level)
	SetJSONOutput(enabled bool)
}

// Config holds configuration for the logger
type Config struct {
	Level      Level
	JSONOutput bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// StdLogger writes one line per entry, as text or JSON.
type StdLogger struct {
	mu         sync.Mutex
	level      Level
	jsonOutput bool
	out        io.Writer
	colors     bool
	now        func() time.Time
}

var (
	defaultLogger *StdLogger
	once          sync.Once
)

// New creates a logger with the given configuration
func New(cfg Config) *StdLogger {
	l := &StdLogger{
		level:      cfg.Level,
		jsonOutput: cfg.JSONOutput,
		out:        cfg.Output,
		now:        time.Now,
	}
	if l.out == nil {
		l.out = os.Stderr
	}
	l.colors = colorEnabled(l.out)
	return l
}

// Default returns the process-wide logger, writing INFO and above to stderr.
func Default() *StdLogger {
	once.Do(func() {
		defaultLogger = New(Config{Level: InfoLevel})
	})
	return defaultLogger
}

// colorEnabled reports whether w is a character device and NO_COLOR is unset.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// fields pairs up key/value arguments. A leading odd argument is kept under
// the "arg" key.
func fields(args []interface{}) [][2]interface{} {
	var out [][2]interface{}
	if len(args)%2 != 0 {
		out = append(out, [2]interface{}{"arg", args[0]})
		args = args[1:]
	}
	for i := 0; i+1 < len(args); i += 2 {
		out = append(out, [2]interface{}{fmt.Sprint(args[i]), args[i+1]})
	}
	return out
}

func formatText(msg string, args []interface{}) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for _, kv := range fields(args) {
		fmt.Fprintf(&sb, " %s=%v", kv[0], kv[1])
	}
	return sb.String()
}

// getColor returns the ANSI color code for the given level
func getColor(level Level) string {
	switch level {
	case DebugLevel:
		return "\033[36m" // Cyan
	case InfoLevel:
		return "\033[32m" // Green
	case WarnLevel:
		return "\033[33m" // Yellow
	case ErrorLevel:
		return "\033[31m" // Red
	default:
		return ""
	}
}

func (l *StdLogger) log(level Level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}

	timestamp := l.now().Format("2006-01-02 15:04:05")
	if l.jsonOutput {
		entry := map[string]interface{}{
			"timestamp": timestamp,
			"level":     level.String(),
			"message":   msg,
		}
		for _, kv := range fields(args) {
			entry[kv[0].(string)] = kv[1]
		}
		data, err := json.Marshal(entry)
		if err != nil {
			data, _ = json.Marshal(map[string]string{"level": level.String(), "message": msg})
		}
		fmt.Fprintln(l.out, string(data))
		return
	}

	text := formatText(msg, args)
	if l.colors {
		text = getColor(level) + text + "\033[0m"
	}
	fmt.Fprintf(l.out, "[%s] %s: %s\n", timestamp, level, text)
}

// Debug logs a debug message
func (l *StdLogger) Debug(msg string, args ...interface{}) { l.log(DebugLevel, msg, args) }

// Info logs an info message
func (l *StdLogger) Info(msg string, args ...interface{}) { l.log(InfoLevel, msg, args) }

// Warn logs a warning message
func (l *StdLogger) Warn(msg string, args ...interface{}) { l.log(WarnLevel, msg, args) }

// Error logs an error message
func (l *StdLogger) Error(msg string, args ...interface{}) { l.log(ErrorLevel, msg, args) }

// SetLevel sets the minimum log level
func (l *StdLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetJSONOutput enables or disables JSON output
func (l *StdLogger) SetJSONOutput(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.jsonOutput = enabled
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) SetLevel(Level)               {}
func (nopLogger) SetJSONOutput(bool)           {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }
