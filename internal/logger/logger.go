// Package logger provides a simple logging interface for rbnvfd components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
package logger

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// DebugEnv enables debug output when set to any non-empty value.
const DebugEnv = "RBNVFD_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// envLogger implements Logger and logs through the standard log package.
// Debug messages are only printed when RBNVFD_DEBUG is set.
type envLogger struct {
	prefix string
}

// NewEnvLogger creates a logger that respects the RBNVFD_DEBUG environment variable.
// The prefix is prepended to all log messages (e.g., "[rbn]" or "[vfd]").
func NewEnvLogger(prefix string) Logger {
	return &envLogger{prefix: prefix}
}

func (l *envLogger) Debug(format string, args ...interface{}) {
	if os.Getenv(DebugEnv) != "" {
		log.Printf(l.prefix+" "+format, args...)
	}
}

func (l *envLogger) Info(format string, args ...interface{}) {
	log.Printf(l.prefix+" "+format, args...)
}

func (l *envLogger) Warn(format string, args ...interface{}) {
	log.Printf(l.prefix+" WARN: "+format, args...)
}

func (l *envLogger) Error(format string, args ...interface{}) {
	log.Printf(l.prefix+" ERROR: "+format, args...)
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
// Safe for use from the ingest and display goroutines at the same time.
type BufferLogger struct {
	mu       sync.Mutex
	messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.record("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.record("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.record("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.record("error", format, args...) }

// Messages returns a copy of the captured messages.
func (l *BufferLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = l.messages[:0]
}

// TailLogger keeps only the most recent messages. The monitor uses it in
// place of the standard log output, which would tear the full-screen view.
type TailLogger struct {
	mu       sync.Mutex
	max      int
	debug    bool
	messages []LogMessage
}

// NewTailLogger keeps up to max messages. Debug messages are kept only when
// RBNVFD_DEBUG is set.
func NewTailLogger(max int) *TailLogger {
	if max < 1 {
		max = 1
	}
	return &TailLogger{max: max, debug: os.Getenv(DebugEnv) != ""}
}

func (l *TailLogger) record(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
	if over := len(l.messages) - l.max; over > 0 {
		l.messages = append(l.messages[:0], l.messages[over:]...)
	}
}

func (l *TailLogger) Debug(format string, args ...interface{}) {
	if l.debug {
		l.record("debug", format, args...)
	}
}
func (l *TailLogger) Info(format string, args ...interface{})  { l.record("info", format, args...) }
func (l *TailLogger) Warn(format string, args ...interface{})  { l.record("warn", format, args...) }
func (l *TailLogger) Error(format string, args ...interface{}) { l.record("error", format, args...) }

// Messages returns the retained messages, oldest first.
func (l *TailLogger) Messages() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// prefixLogger prepends a component tag to every message.
type prefixLogger struct {
	next   Logger
	prefix string
}

// WithPrefix returns a logger that prepends prefix to messages sent to l.
func WithPrefix(l Logger, prefix string) Logger {
	if l == nil {
		l = Noop()
	}
	return &prefixLogger{next: l, prefix: prefix}
}

func (l *prefixLogger) Debug(format string, args ...interface{}) {
	l.next.Debug(l.prefix+" "+format, args...)
}
func (l *prefixLogger) Info(format string, args ...interface{}) {
	l.next.Info(l.prefix+" "+format, args...)
}
func (l *prefixLogger) Warn(format string, args ...interface{}) {
	l.next.Warn(l.prefix+" "+format, args...)
}
func (l *prefixLogger) Error(format string, args ...interface{}) {
	l.next.Error(l.prefix+" "+format, args...)
}
