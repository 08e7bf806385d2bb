// Package log defines the structured logging contract used across lbgate.
// Concrete drivers (currently just a zap-backed stdout driver) implement
// Logger; callers never import zap directly.
package log

import "time"

// Logger is the structured logging contract every lbgate component depends
// on. It never returns an error: a logging call that cannot complete is not
// allowed to disturb request handling.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Fatal logs at fatal level and terminates the process. Reserved for
	// startup failures (bad config, listener bind failure).
	Fatal(msg string, fields ...Field)

	// With returns a child logger that includes fields on every subsequent
	// call, e.g. a per-component or per-request logger.
	With(fields ...Field) Logger
}

// Level is the minimum severity a Logger will emit.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
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
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Field is a single structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Error(err error) Field { return Field{Key: "error", Value: err} }

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
