// Package zaplog adapts a zap logger to the kratos log.Logger interface.
package zaplog

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ log.Logger = (*Logger)(nil)

// Logger writes kratos key-value pairs as zap fields.
type Logger struct {
	log    *zap.Logger
	msgKey string
}

// New wraps zl. Messages logged through log.Helper land in zap's message
// field; every other pair becomes a field.
func New(zl *zap.Logger) *Logger {
	return &Logger{log: zl, msgKey: log.DefaultMessageKey}
}

// NewProduction builds a JSON logger at the given level ("debug", "info",
// "warn" or "error").
func NewProduction(level string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	// kratos adds its own caller and timestamp valuers.
	cfg.DisableCaller = true
	cfg.EncoderConfig.TimeKey = ""
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return New(zl), nil
}

func (l *Logger) Log(level log.Level, keyvals ...interface{}) error {
	if len(keyvals) == 0 || len(keyvals)%2 != 0 {
		l.log.Warn(fmt.Sprint("keyvalues must appear in pairs: ", keyvals))
		return nil
	}

	var msg string
	fields := make([]zap.Field, 0, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if key == l.msgKey {
			msg = fmt.Sprint(keyvals[i+1])
			continue
		}
		fields = append(fields, zap.Any(key, keyvals[i+1]))
	}

	switch level {
	case log.LevelDebug:
		l.log.Debug(msg, fields...)
	case log.LevelInfo:
		l.log.Info(msg, fields...)
	case log.LevelWarn:
		l.log.Warn(msg, fields...)
	case log.LevelError:
		l.log.Error(msg, fields...)
	case log.LevelFatal:
		l.log.Fatal(msg, fields...)
	}
	return nil
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.log.Sync()
}

// Close flushes the logger.
func (l *Logger) Close() error {
	return l.Sync()
}
