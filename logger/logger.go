// Package logger writes severity-tagged messages with their source location.
// Each severity has its own file under the log directory; everything is also
// mirrored to stderr.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

type Severity int

const (
	Debug Severity = iota
	Info
	Warn
	Error
	Fatal
	numSeverities
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARNING"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
}

type Logger struct {
	mu      sync.Mutex
	sinks   [numSeverities]*log.Logger
	files   []*os.File
	console *log.Logger
	min     Severity
}

// New opens (appending) one file per severity named "<name>_<severity>.log"
// inside dir, creating dir if needed.
func New(dir, name string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	l := &Logger{
		console: log.New(os.Stderr, "", log.Ldate|log.Ltime),
		min:     Debug,
	}
	for s := Debug; s < numSeverities; s++ {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.log", name, s.fileTag()))
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o666)
		if err != nil {
			l.Close()
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.files = append(l.files, file)
		l.sinks[s] = log.New(file, s.String()+": ", log.Ldate|log.Ltime)
	}
	return l, nil
}

// NewWriter logs every severity to w. Used by tests and tools that do not
// want log files.
func NewWriter(w io.Writer) *Logger {
	l := &Logger{min: Debug}
	for s := Debug; s < numSeverities; s++ {
		l.sinks[s] = log.New(w, s.String()+": ", 0)
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWriter(io.Discard)
}

// SetLevel drops messages below min.
func (l *Logger) SetLevel(min Severity) {
	l.mu.Lock()
	l.min = min
	l.mu.Unlock()
}

// Log is the primitive: severity index, source file, line and a formatted
// message.
func (l *Logger) Log(sev Severity, file string, line int, format string, args ...interface{}) {
	if l == nil || sev < Debug || sev >= numSeverities {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if sev < l.min {
		return
	}

	msg := fmt.Sprintf("%s:%d: %s", filepath.Base(file), line, fmt.Sprintf(format, args...))
	l.sinks[sev].Println(msg)
	if l.console != nil {
		l.console.Printf("[%s] %s", sev, msg)
	}
}

func (l *Logger) logf(sev Severity, format string, args ...interface{}) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "???", 0
	}
	l.Log(sev, file, line, format, args...)
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.logf(Debug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.logf(Info, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.logf(Warn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.logf(Error, format, args...) }

// Fatalf logs at Fatal severity. It does not exit; the caller decides.
func (l *Logger) Fatalf(format string, args ...interface{}) { l.logf(Fatal, format, args...) }

// Close closes the log files. The logger must not be used afterwards.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var first error
	for _, f := range l.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	l.files = nil
	return first
}

func (s Severity) fileTag() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "fatal"
	}
}
