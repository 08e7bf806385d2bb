// Package stdout implements pkg/log.Logger on top of zap, emitting
// newline-delimited JSON to stdout.
package stdout

import (
	"os"
	"sync"
	"time"

	"github.com/songzhibin97/lbgate/pkg/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls the JSON encoding and minimum level of a StdoutLogger.
type Config struct {
	Level            log.Level
	EnableCaller     bool
	EnableStacktrace bool
	Development      bool
}

// DefaultConfig returns the configuration lbgate starts with absent
// overrides: info level, RFC3339 timestamps, no caller annotation.
func DefaultConfig() *Config {
	return &Config{
		Level:            log.InfoLevel,
		EnableCaller:     false,
		EnableStacktrace: true,
	}
}

// StdoutLogger implements log.Logger using a zap.Logger core.
type StdoutLogger struct {
	zapLogger *zap.Logger
	config    *Config
	mu        sync.RWMutex
	fields    []log.Field
}

// New builds a StdoutLogger from config, or DefaultConfig() if nil.
func New(config *Config) (*StdoutLogger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		convertLevel(config.Level),
	)

	var options []zap.Option
	if config.EnableCaller {
		options = append(options, zap.AddCaller())
	}
	if config.EnableStacktrace {
		options = append(options, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	if config.Development {
		options = append(options, zap.Development())
	}

	return &StdoutLogger{
		zapLogger: zap.New(core, options...),
		config:    config,
	}, nil
}

func (l *StdoutLogger) Debug(msg string, fields ...log.Field) { l.log(log.DebugLevel, msg, fields...) }
func (l *StdoutLogger) Info(msg string, fields ...log.Field)  { l.log(log.InfoLevel, msg, fields...) }
func (l *StdoutLogger) Warn(msg string, fields ...log.Field)  { l.log(log.WarnLevel, msg, fields...) }
func (l *StdoutLogger) Error(msg string, fields ...log.Field) { l.log(log.ErrorLevel, msg, fields...) }

func (l *StdoutLogger) Fatal(msg string, fields ...log.Field) {
	l.log(log.FatalLevel, msg, fields...)
	os.Exit(1)
}

// With returns a child logger carrying fields on every subsequent call.
func (l *StdoutLogger) With(fields ...log.Field) log.Logger {
	l.mu.RLock()
	merged := make([]log.Field, len(l.fields), len(l.fields)+len(fields))
	copy(merged, l.fields)
	l.mu.RUnlock()

	return &StdoutLogger{
		zapLogger: l.zapLogger,
		config:    l.config,
		fields:    append(merged, fields...),
	}
}

func (l *StdoutLogger) log(level log.Level, msg string, fields ...log.Field) {
	if level < l.config.Level {
		return
	}

	l.mu.RLock()
	all := make([]log.Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)
	l.mu.RUnlock()

	zapFields := make([]zap.Field, len(all))
	for i, f := range all {
		zapFields[i] = toZapField(f)
	}

	switch level {
	case log.DebugLevel:
		l.zapLogger.Debug(msg, zapFields...)
	case log.InfoLevel:
		l.zapLogger.Info(msg, zapFields...)
	case log.WarnLevel:
		l.zapLogger.Warn(msg, zapFields...)
	case log.ErrorLevel:
		l.zapLogger.Error(msg, zapFields...)
	case log.FatalLevel:
		l.zapLogger.Fatal(msg, zapFields...)
	}
}

func convertLevel(level log.Level) zapcore.Level {
	switch level {
	case log.DebugLevel:
		return zapcore.DebugLevel
	case log.WarnLevel:
		return zapcore.WarnLevel
	case log.ErrorLevel:
		return zapcore.ErrorLevel
	case log.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapField(field log.Field) zap.Field {
	switch v := field.Value.(type) {
	case string:
		return zap.String(field.Key, v)
	case int:
		return zap.Int(field.Key, v)
	case int64:
		return zap.Int64(field.Key, v)
	case float64:
		return zap.Float64(field.Key, v)
	case bool:
		return zap.Bool(field.Key, v)
	case time.Duration:
		return zap.Duration(field.Key, v)
	case error:
		return zap.NamedError(field.Key, v)
	default:
		return zap.Any(field.Key, v)
	}
}
