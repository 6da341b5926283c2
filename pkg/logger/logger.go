// Package logger provides the structured logger used across schemaforge.
// Output goes to the console and, optionally, to subscriber channels so an
// embedding process can stream log entries elsewhere.
package logger

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ANSI color codes for console output
const (
	colorReset      = "\033[0m"
	colorGreen      = "\033[32m"
	colorCyan       = "\033[36m"
	colorBrightRed  = "\033[91m"
	colorBrightYell = "\033[93m"
	colorBrightGray = "\033[90m"
)

// LogEntry represents a single log entry.
type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]string
}

// Logger provides leveled logging with streaming support.
type Logger struct {
	component string

	mu             sync.RWMutex
	subscribers    []chan LogEntry
	colorEnabled   bool
	disableConsole bool
}

// New creates a new logger instance for the named component.
func New(component string) *Logger {
	return &Logger{
		component:    component,
		colorEnabled: isTerminal(),
	}
}

func isTerminal() bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	fileInfo, _ := os.Stdout.Stat()
	if fileInfo == nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

func levelColor(level string) string {
	switch level {
	case "DEBUG":
		return colorBrightGray
	case "INFO":
		return colorGreen
	case "WARN":
		return colorBrightYell
	case "ERROR":
		return colorBrightRed
	default:
		return colorReset
	}
}

// Subscribe returns a channel that receives every log entry. Entries are
// dropped, not blocked on, when the channel is full.
func (l *Logger) Subscribe() <-chan LogEntry {
	ch := make(chan LogEntry, 100)
	l.mu.Lock()
	l.subscribers = append(l.subscribers, ch)
	l.mu.Unlock()
	return ch
}

// DisableConsoleOutput stops console printing; subscribers still receive
// entries.
func (l *Logger) DisableConsoleOutput() {
	l.mu.Lock()
	l.disableConsole = true
	l.mu.Unlock()
}

func (l *Logger) log(level, message string, fields map[string]string) {
	if l == nil {
		return
	}
	entry := LogEntry{Time: time.Now(), Level: level, Message: message, Fields: fields}

	l.mu.RLock()
	console := !l.disableConsole
	l.mu.RUnlock()

	if console {
		timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
		color, reset := "", ""
		if l.colorEnabled {
			color, reset = levelColor(level), colorReset
		}
		line := fmt.Sprintf("%s[%s]%s [%s] [%s%-5s%s] %s",
			colorCyan, timestamp, reset, l.component, color, level, reset, message)
		for k, v := range fields {
			line += fmt.Sprintf(" %s=%s", k, v)
		}
		fmt.Println(line)
	}

	l.mu.RLock()
	for _, ch := range l.subscribers {
		select {
		case ch <- entry:
		default:
		}
	}
	l.mu.RUnlock()
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log("DEBUG", fmt.Sprintf(format, args...), nil)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log("INFO", fmt.Sprintf(format, args...), nil)
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log("WARN", fmt.Sprintf(format, args...), nil)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log("ERROR", fmt.Sprintf(format, args...), nil)
}

// WithFields returns a context that attaches fields to each entry.
func (l *Logger) WithFields(fields map[string]string) *LogContext {
	return &LogContext{logger: l, fields: fields}
}

// LogContext provides field-based logging.
type LogContext struct {
	logger *Logger
	fields map[string]string
}

func (c *LogContext) Info(message string) {
	c.logger.log("INFO", message, c.fields)
}

func (c *LogContext) Error(message string) {
	c.logger.log("ERROR", message, c.fields)
}
